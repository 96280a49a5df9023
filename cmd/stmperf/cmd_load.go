package main

import "flag"
import "fmt"
import "time"
import "unsafe"

import "github.com/bnclabs/gostm"
import "github.com/bnclabs/gostm/lib"
import humanize "github.com/dustin/go-humanize"

var loadopts struct {
	words   int
	repeat  int
	batch   int
	logging string
	args    []string
}

func parseLoadopts(args []string) {
	f := flag.NewFlagSet("load", flag.ExitOnError)

	f.IntVar(&loadopts.words, "words", 1024,
		"number of words in the initial segment")
	f.IntVar(&loadopts.repeat, "repeat", 1000000,
		"number of transactions to commit")
	f.IntVar(&loadopts.batch, "batch", 4,
		"words written per transaction")
	f.StringVar(&loadopts.logging, "log", "none",
		"log level for stm components")
	f.Parse(args)
	loadopts.args = f.Args()

	if loadopts.logging != "none" {
		stm.LogComponents("all")
	}
}

// doLoad drives single threaded commits, every one of them is expected
// to take the fast path.
func doLoad(args []string) {
	parseLoadopts(args)

	size := int64(loadopts.words) * 8
	region := stm.NewRegion("load", size, 8, nil)
	if region == nil {
		fmt.Println("load: invalid region arguments")
		return
	}
	defer region.Destroy()

	base, buf := region.Start(), make([]byte, 8)
	latency, epoch := &lib.AverageInt64{}, time.Now()
	for n := 0; n < loadopts.repeat; n++ {
		start := time.Now()
		tx := region.Begin(false)
		for b := 0; b < loadopts.batch; b++ {
			off := uint64(((n * loadopts.batch) + b) % loadopts.words)
			value := uint64(n + 1)
			lib.Memcpy(unsafe.Pointer(&buf[0]), unsafe.Pointer(&value), 8)
			tx.Write(buf, 8, base+off*8)
		}
		if tx.End() == false {
			fmt.Printf("load: abort at transaction %v !!\n", n)
			return
		}
		latency.Add(int64(time.Since(start)))
	}
	elapsed := time.Since(epoch)

	stats := region.Stats()
	rate := float64(loadopts.repeat) / elapsed.Seconds()
	fmt.Printf("committed %v transactions in %v\n",
		humanize.Comma(int64(loadopts.repeat)), elapsed.Round(time.Millisecond))
	fmt.Printf("throughput %v txns/sec\n", humanize.Comma(int64(rate)))
	fmt.Printf("latency mean %v max %v\n",
		time.Duration(latency.Mean()), time.Duration(latency.Max()))
	fmt.Printf("fastpath %v of %v commits\n",
		stats["n_fastpath"], stats["n_commits"])

	region.Validate()
	region.Log()
}
