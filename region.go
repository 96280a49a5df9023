package stm

import "fmt"
import "unsafe"
import "sync/atomic"

import "github.com/bnclabs/gostm/lib"
import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

// Region manages a single instance of transactional memory: the shared
// segments with their per-word versioned locks, the global version
// clock and the segment directory. All region methods are safe for
// concurrent calls, transactions obtained via Begin are not.
type Region struct {
	// 64-bit aligned statistics.
	n_begins          int64
	n_commits         int64
	n_fastpath        int64
	n_aborts_read     int64
	n_aborts_lock     int64
	n_aborts_validate int64
	n_allocs          int64
	n_frees           int64
	n_livetxns        int64
	memory            int64
	gvc               uint64
	txnid             uint64
	segid             uint32
	dead              uint32

	// can be unaligned fields
	name      string
	size      int64
	align     int64
	directory []unsafe.Pointer // *segment
	recch     chan *record

	// settings
	memcapacity int64
	maxsegments int64
	setts       s.Settings
	logprefix   string
}

// NewRegion create a new transactional memory region with one initial
// segment of `size` bytes. Alignment is the quantum of transactional
// access, shall be a power of 2 not exceeding the platform word size,
// and shall divide size. Returns nil if arguments don't make a valid
// region.
func NewRegion(name string, size, align int64, setts s.Settings) *Region {
	if align <= 0 || align > 8 || (align&(align-1)) != 0 {
		errorf("NewRegion [%s] align %v: %v\n", name, align, ErrorAlignment)
		return nil
	} else if size <= 0 || (size%align) != 0 || uint64(size) > offmask {
		errorf("NewRegion [%s] size %v: %v\n", name, size, ErrorSegmentSize)
		return nil
	}

	region := &Region{
		name:      name,
		size:      size,
		align:     align,
		segid:     firstseg,
		logprefix: fmt.Sprintf("STM [%s]", name),
	}

	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	region.readsettings(setts)
	region.setts = setts
	region.recch = make(chan *record, setts.Int64("writepool.size"))

	region.directory = make([]unsafe.Pointer, region.maxsegments)
	first := newsegment(firstseg, size, align)
	atomic.StorePointer(&region.directory[firstseg], unsafe.Pointer(first))
	atomic.AddInt64(&region.memory, first.footprint())

	region.logsettings()
	infof("%v started ...\n", region.logprefix)
	return region
}

func (region *Region) readsettings(setts s.Settings) *Region {
	region.memcapacity = setts.Int64("memcapacity")
	region.maxsegments = setts.Int64("maxsegments")
	return region
}

//---- Exported Control methods

// ID is same as the name supplied while creating the region.
func (region *Region) ID() string {
	return region.name
}

// Start return the address of the first word in the region's initial
// segment.
func (region *Region) Start() uint64 {
	return mkaddr(firstseg, 0)
}

// Size return the size, in bytes, of the region's initial segment.
func (region *Region) Size() int64 {
	return region.size
}

// Align return the quantum, in bytes, of transactional access on this
// region.
func (region *Region) Align() int64 {
	return region.align
}

// Begin a new transaction on this region, is_ro shall be true for
// read-only transactions, they skip read-set book-keeping and commit
// without touching the version clock. Caller shall finish the
// transaction with End, the handle shall not be shared between
// goroutines. Returns nil on a destroyed region.
func (region *Region) Begin(is_ro bool) *Txn {
	if atomic.LoadUint32(&region.dead) == 1 {
		errorf("%v Begin(): %v\n", region.logprefix, ErrorClosed)
		return nil
	}
	tx := &Txn{
		id:     atomic.AddUint64(&region.txnid, 1),
		ro:     is_ro,
		rv:     atomic.LoadUint64(&region.gvc),
		region: region,
	}
	if is_ro == false {
		tx.rset = make(map[uint64]struct{})
		tx.wset = make(map[uint64]*record)
	}
	atomic.AddInt64(&region.n_begins, 1)
	atomic.AddInt64(&region.n_livetxns, 1)
	return tx
}

// Destroy the region and release its segments. Shall not be called
// while transactions are live on the region, returns
// ErrorActiveTransactions in that case and leaves the region alone.
func (region *Region) Destroy() error {
	if atomic.LoadInt64(&region.n_livetxns) > 0 {
		return ErrorActiveTransactions
	}
	if atomic.CompareAndSwapUint32(&region.dead, 0, 1) == false {
		return ErrorClosed
	}
	region.directory = nil
	for {
		select {
		case <-region.recch:
			continue
		default:
		}
		break
	}
	infof("%v destroyed\n", region.logprefix)
	return nil
}

//---- segment management

// segment lookup is lock free, directory is pre-sized and slots are
// published with atomic stores.
func (region *Region) segment(segid uint32) *segment {
	return (*segment)(atomic.LoadPointer(&region.directory[segid]))
}

// word lookup for addr, O(1). Addr shall fall within a live segment.
func (region *Region) word(addr uint64) *word {
	seg := region.segment(addr2segment(addr))
	return &seg.words[addr2offset(addr)/uint64(region.align)]
}

// alloc a fresh segment of size bytes, zero filled, version 0 and
// unlocked on every word. Segment becomes visible to other
// transactions immediately, its lifecycle is not tied to the
// allocating transaction's commit.
func (region *Region) alloc(size int64) (uint64, error) {
	if size <= 0 || (size%region.align) != 0 || uint64(size) > offmask {
		return 0, ErrorSegmentSize
	}
	segid := atomic.AddUint32(&region.segid, 1)
	if int64(segid) >= region.maxsegments {
		return 0, ErrorOutofMemory
	}
	seg := newsegment(segid, size, region.align)
	if atomic.AddInt64(&region.memory, seg.footprint()) > region.memcapacity {
		atomic.AddInt64(&region.memory, -seg.footprint())
		return 0, ErrorOutofMemory
	}
	atomic.StorePointer(&region.directory[segid], unsafe.Pointer(seg))
	atomic.AddInt64(&region.n_allocs, 1)
	return mkaddr(segid, 0), nil
}

// free is deliberately a no-op, segment-ids are never reused so stale
// addresses can never alias a younger segment. Reclamation, if any,
// happens when the region is destroyed.
func (region *Region) free(addr uint64) bool {
	atomic.AddInt64(&region.n_frees, 1)
	return true
}

//---- commit helpers

// lockwset acquire every write-set lock in insertion order. On the
// first contended word release, in reverse order, exactly the locks
// acquired so far and report failure.
func (region *Region) lockwset(tx *Txn) bool {
	for i, rec := range tx.worder {
		if region.word(rec.addr).trylock(tx.rv) == false {
			for j := i - 1; j >= 0; j-- {
				region.word(tx.worder[j].addr).unlock()
			}
			return false
		}
	}
	return true
}

// unlockwset release every write-set lock with its version unchanged,
// called on a failed validation. Caller shall hold all of them.
func (region *Region) unlockwset(tx *Txn) {
	for _, rec := range tx.worder {
		region.word(rec.addr).unlock()
	}
}

// validaterset check that every word consumed by tx is still within
// its snapshot. Words locked by tx's own commit, via the write set,
// are not conflicts.
func (region *Region) validaterset(tx *Txn) bool {
	for addr := range tx.rset {
		locked, version := region.word(addr).sample()
		if version > tx.rv {
			return false
		} else if locked {
			if _, ok := tx.wset[addr]; ok == false {
				return false
			}
		}
	}
	return true
}

// commitwset publish every staged buffer and release its lock with the
// transaction's write-version. Payload store happens before the lock
// release on each word.
func (region *Region) commitwset(tx *Txn) {
	for _, rec := range tx.worder {
		w := region.word(rec.addr)
		var payload uint64
		lib.Memcpy(
			unsafe.Pointer(&payload), unsafe.Pointer(&rec.buf[0]),
			int(region.align))
		atomic.StoreUint64(&w.payload, payload)
		w.unlockversion(tx.wv)
	}
}

//---- write record pool

func (region *Region) getrecord() (rec *record) {
	select {
	case rec = <-region.recch:
	default:
		rec = &record{}
	}
	return
}

func (region *Region) putrecord(rec *record) {
	select {
	case region.recch <- rec:
	default: // pool is full, leave it to GC
	}
}

//---- Exported Maintanence methods

// Stats return a set of counters describing the region's lifetime
// activity.
func (region *Region) Stats() map[string]interface{} {
	n_segments := int64(0)
	for segid := uint32(1); segid < uint32(region.maxsegments); segid++ {
		if region.segment(segid) != nil {
			n_segments++
		}
	}
	stats := map[string]interface{}{
		"n_begins":          atomic.LoadInt64(&region.n_begins),
		"n_commits":         atomic.LoadInt64(&region.n_commits),
		"n_fastpath":        atomic.LoadInt64(&region.n_fastpath),
		"n_aborts_read":     atomic.LoadInt64(&region.n_aborts_read),
		"n_aborts_lock":     atomic.LoadInt64(&region.n_aborts_lock),
		"n_aborts_validate": atomic.LoadInt64(&region.n_aborts_validate),
		"n_allocs":          atomic.LoadInt64(&region.n_allocs),
		"n_frees":           atomic.LoadInt64(&region.n_frees),
		"n_livetxns":        atomic.LoadInt64(&region.n_livetxns),
		"n_segments":        n_segments,
		"gvc":               atomic.LoadUint64(&region.gvc),
		"memory":            atomic.LoadInt64(&region.memory),
	}
	return stats
}

// Validate region invariants, panic on any breakage:
//
//   - no unlocked word can carry a version beyond the global clock.
//   - segment sizes are positive multiples of alignment.
//   - directory slots beyond the id allocator are empty.
func (region *Region) Validate() {
	lastid := atomic.LoadUint32(&region.segid)
	for segid := uint32(1); segid < uint32(region.maxsegments); segid++ {
		seg := region.segment(segid)
		if seg == nil {
			continue
		} else if segid > lastid {
			panic(fmt.Errorf("segment %v beyond allocator %v", segid, lastid))
		} else if seg.size <= 0 || (seg.size%region.align) != 0 {
			panic(fmt.Errorf("segment %v size %v", segid, seg.size))
		}
		for off := range seg.words {
			locked, version := seg.words[off].sample()
			// word must be sampled before the clock, its version came
			// from a commit that advanced the clock first.
			gvc := atomic.LoadUint64(&region.gvc)
			if locked == false && version > gvc {
				fmsg := "segment %v word %v version %v > gvc %v"
				panic(fmt.Errorf(fmsg, segid, off, version, gvc))
			}
		}
	}
}

// Log region settings and statistics in human readable form.
func (region *Region) Log() {
	cp := humanize.Bytes(uint64(region.memcapacity))
	mm := humanize.Bytes(uint64(atomic.LoadInt64(&region.memory)))
	fmsg := "%v align %v, memory %v of %v, %v segments\n"
	infof(
		fmsg, region.logprefix, region.align, mm, cp,
		region.Stats()["n_segments"])
	infof("%v stats %v\n", region.logprefix, lib.Prettystats(region.Stats(), false))
}

func (region *Region) logsettings() {
	cp := humanize.Bytes(uint64(region.memcapacity))
	fmsg := "%v size %v, align %v, capacity %v, maxsegments %v\n"
	infof(fmsg, region.logprefix, region.size, region.align, cp, region.maxsegments)
}
