package main

import "flag"
import "fmt"
import "math/rand"
import "sync"
import "sync/atomic"
import "time"
import "unsafe"

import "github.com/bnclabs/gostm"
import "github.com/bnclabs/gostm/lib"
import humanize "github.com/dustin/go-humanize"

var verifyopts struct {
	writers int
	readers int
	words   int
	seconds int
	seed    int
	vtick   time.Duration
	logging string
	args    []string
}

func parseVerifyopts(args []string) {
	f := flag.NewFlagSet("verify", flag.ExitOnError)

	var vtick int

	seed := time.Now().UTC().Second()
	f.IntVar(&verifyopts.writers, "writers", 8,
		"number of concurrent writer goroutines")
	f.IntVar(&verifyopts.readers, "readers", 2,
		"number of concurrent read-only goroutines")
	f.IntVar(&verifyopts.words, "words", 64,
		"number of words in the initial segment")
	f.IntVar(&verifyopts.seconds, "seconds", 10,
		"seconds to run the workload")
	f.IntVar(&verifyopts.seed, "seed", seed,
		"seed value for generating inputs")
	f.IntVar(&vtick, "vtick", 1000,
		"validate tick, in milliseconds")
	f.StringVar(&verifyopts.logging, "log", "none",
		"log level for stm components")
	f.Parse(args)
	verifyopts.vtick = time.Duration(vtick) * time.Millisecond
	verifyopts.args = f.Args()

	if verifyopts.logging != "none" {
		stm.LogComponents("all")
	}
}

// doVerify hammers one region with increment transactions and
// read-only snapshots, then audits the region: every word's final
// value equals the increments committed on it, and no reader ever saw
// an inconsistent snapshot.
func doVerify(args []string) {
	parseVerifyopts(args)

	size := int64(verifyopts.words) * 8
	region := stm.NewRegion("verify", size, 8, nil)
	if region == nil {
		fmt.Println("verify: invalid region arguments")
		return
	}
	defer region.Destroy()

	var wg sync.WaitGroup
	base, fin := region.Start(), make(chan struct{})
	commits := make([]int64, verifyopts.words)

	for i := 0; i < verifyopts.writers; i++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(int64(verifyopts.seed + tid)))
			buf := make([]byte, 8)
			for {
				select {
				case <-fin:
					return
				default:
				}
				off := rnd.Intn(verifyopts.words)
				addr := base + uint64(off*8)
				tx := region.Begin(false)
				if tx.Read(addr, 8, buf) == false {
					continue
				}
				var value uint64
				lib.Memcpy(unsafe.Pointer(&value), unsafe.Pointer(&buf[0]), 8)
				value++
				lib.Memcpy(unsafe.Pointer(&buf[0]), unsafe.Pointer(&value), 8)
				if tx.Write(buf, 8, addr) == false {
					continue
				}
				if tx.End() {
					atomic.AddInt64(&commits[off], 1)
				}
			}
		}(i)
	}

	var snapshots, inconsistent int64
	for i := 0; i < verifyopts.readers; i++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			first, second := make([]byte, size), make([]byte, size)
			for {
				select {
				case <-fin:
					return
				default:
				}
				tx := region.Begin(true)
				if tx.Read(base, size, first) == false {
					continue
				}
				if tx.Read(base, size, second) == false {
					continue
				}
				if tx.End() == false {
					continue
				}
				atomic.AddInt64(&snapshots, 1)
				for off := int64(0); off < size; off += 8 {
					var x, y uint64
					lib.Memcpy(unsafe.Pointer(&x), unsafe.Pointer(&first[off]), 8)
					lib.Memcpy(unsafe.Pointer(&y), unsafe.Pointer(&second[off]), 8)
					if x != y {
						atomic.AddInt64(&inconsistent, 1)
					}
				}
			}
		}(i)
	}

	// periodically validate region invariants while the workload runs.
	until := time.After(time.Duration(verifyopts.seconds) * time.Second)
	tick := time.NewTicker(verifyopts.vtick)
loop:
	for {
		select {
		case <-tick.C:
			region.Validate()
		case <-until:
			break loop
		}
	}
	tick.Stop()
	close(fin)
	wg.Wait()

	// audit every word against the committed increments.
	ok, buf := true, make([]byte, 8)
	for off := 0; off < verifyopts.words; off++ {
		tx := region.Begin(true)
		if tx.Read(base+uint64(off*8), 8, buf) == false {
			fmt.Printf("verify: unexpected abort on quiesced region !!\n")
			return
		}
		tx.End()
		var value uint64
		lib.Memcpy(unsafe.Pointer(&value), unsafe.Pointer(&buf[0]), 8)
		if value != uint64(commits[off]) {
			fmt.Printf("verify: word %v expected %v got %v !!\n",
				off, commits[off], value)
			ok = false
		}
	}
	if inconsistent > 0 {
		fmt.Printf("verify: %v inconsistent snapshots !!\n", inconsistent)
		ok = false
	}

	region.Validate()
	stats := region.Stats()
	total := int64(0)
	for _, x := range commits {
		total += x
	}
	fmt.Printf("writers committed %v increments, readers took %v snapshots\n",
		humanize.Comma(total), humanize.Comma(snapshots))
	fmt.Printf("stats %v\n", lib.Prettystats(stats, true))
	if ok {
		fmt.Println("verify: OK")
	} else {
		fmt.Println("verify: FAILED !!")
	}
}
