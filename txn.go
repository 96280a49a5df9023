package stm

import "unsafe"
import "sync/atomic"

import "github.com/bnclabs/gostm/lib"

// Txn is a transaction over a region's shared memory. Reads observe
// the snapshot at the transaction's read-version, writes are staged in
// private buffers and published atomically by End. A transaction that
// returns false from Read or End stands aborted, the library has
// already cleaned it up and the handle shall not be used again, caller
// simply begins a fresh transaction to retry.
type Txn struct {
	id     uint64
	ro     bool
	rv     uint64
	wv     uint64
	fin    bool
	region *Region
	rset   map[uint64]struct{}
	wset   map[uint64]*record
	worder []*record // staged writes in insertion order
}

// record is a staged write, one word's worth of payload privately
// owned by the transaction until commit. Records are recycled through
// the region's write pool.
type record struct {
	addr uint64
	buf  [8]byte
}

//---- Exported Control methods

// ID return transaction id, unique within the region.
func (tx *Txn) ID() uint64 {
	return tx.id
}

// Isreadonly return whether this transaction was begun as read-only.
func (tx *Txn) Isreadonly() bool {
	return tx.ro
}

//---- Exported Read/Write methods

// Read size bytes of shared memory starting at src into the private
// buffer dst. Size shall be a positive multiple of the region's
// alignment, src shall be aligned and fall within a live segment, dst
// shall hold size bytes. Returns false if the transaction observed a
// word beyond its snapshot, in which case the transaction stands
// aborted.
func (tx *Txn) Read(src uint64, size int64, dst []byte) bool {
	region := tx.region
	if tx.fin {
		return false
	} else if size <= 0 || (size%region.align) != 0 || int64(len(dst)) < size {
		tx.abort(&region.n_aborts_read)
		return false
	}

	if tx.ro {
		for offset := int64(0); offset < size; offset += region.align {
			w := region.word(src + uint64(offset))
			if tx.readword(w, dst[offset:]) == false {
				tx.abort(&region.n_aborts_read)
				return false
			}
		}
		return true
	}

	for offset := int64(0); offset < size; offset += region.align {
		addr := src + uint64(offset)
		tx.rset[addr] = struct{}{}
		if rec, ok := tx.wset[addr]; ok {
			copy(dst[offset:offset+region.align], rec.buf[:region.align])
			continue
		}
		w := region.word(addr)
		locked, version := w.sample()
		if locked || version > tx.rv {
			tx.abort(&region.n_aborts_read)
			return false
		}
		payload := atomic.LoadUint64(&w.payload)
		lib.Memcpy(
			unsafe.Pointer(&dst[offset]), unsafe.Pointer(&payload),
			int(region.align))
	}
	return true
}

// readword snapshot one word for a read-only transaction. Lock is
// re-sampled after the payload copy, a copy raced by a committer would
// pass the first sample and carry a value beyond the snapshot, the
// second sample catches it.
func (tx *Txn) readword(w *word, dst []byte) bool {
	locked, version := w.sample()
	if locked || version > tx.rv {
		return false
	}
	payload := atomic.LoadUint64(&w.payload)
	lib.Memcpy(
		unsafe.Pointer(&dst[0]), unsafe.Pointer(&payload),
		int(tx.region.align))
	locked, version = w.sample()
	return locked == false && version <= tx.rv
}

// Write size bytes from the private buffer src into shared memory
// starting at dst. The new value is staged privately, shared state is
// untouched until End, reads through this transaction observe the
// staged value. Write never aborts a healthy transaction, it returns
// false, leaving the transaction as it was, on a finished handle, a
// read-only transaction or a size that violates the alignment
// contract.
func (tx *Txn) Write(src []byte, size int64, dst uint64) bool {
	region := tx.region
	if tx.fin || tx.ro {
		return false
	} else if size <= 0 || (size%region.align) != 0 || int64(len(src)) < size {
		return false
	}
	for offset := int64(0); offset < size; offset += region.align {
		addr := dst + uint64(offset)
		rec, ok := tx.wset[addr]
		if ok == false {
			rec = region.getrecord()
			rec.addr = addr
			tx.wset[addr] = rec
			tx.worder = append(tx.worder, rec)
		}
		copy(rec.buf[:region.align], src[offset:offset+region.align])
	}
	return true
}

//---- Exported Commit methods

// End the transaction, committing its writes. Returns false if the
// transaction lost a conflict, in which case shared memory is
// untouched by it and the caller may retry with a fresh transaction.
// Either way the handle is finished.
func (tx *Txn) End() bool {
	region := tx.region
	if tx.fin {
		return false
	}
	if tx.ro {
		tx.finish()
		atomic.AddInt64(&region.n_commits, 1)
		return true
	}

	if region.lockwset(tx) == false {
		tx.abort(&region.n_aborts_lock)
		return false
	}

	tx.wv = atomic.AddUint64(&region.gvc, 1)

	// fast path, no commit went through since this transaction began,
	// the read set cannot have been invalidated.
	if tx.wv == tx.rv+1 {
		atomic.AddInt64(&region.n_fastpath, 1)
	} else if region.validaterset(tx) == false {
		region.unlockwset(tx)
		tx.abort(&region.n_aborts_validate)
		return false
	}

	region.commitwset(tx)
	tx.finish()
	atomic.AddInt64(&region.n_commits, 1)
	return true
}

// Alloc a fresh segment of size bytes within the region, address of
// its first word is returned through the second value. Allocation is
// visible immediately and survives even if this transaction aborts.
// Returns AllocNomem, without invalidating the transaction, if the
// region's capacity is exhausted.
func (tx *Txn) Alloc(size int64) (AllocStatus, uint64) {
	if tx.fin {
		return AllocAbort, 0
	}
	addr, err := tx.region.alloc(size)
	if err != nil {
		return AllocNomem, 0
	}
	return AllocOk, addr
}

// Free the segment holding addr. Reclamation is deferred to region
// destruction and segment-ids are never reused, so concurrent
// transactions holding stale addresses stay safe. Always succeeds on a
// live handle, returns false on a finished one.
func (tx *Txn) Free(addr uint64) bool {
	if tx.fin {
		return false
	}
	return tx.region.free(addr)
}

//---- local methods

// abort the transaction, bumping the supplied failure counter. Engine
// owns cleanup, locks if any were released by the caller, buffers are
// recycled here.
func (tx *Txn) abort(counter *int64) {
	atomic.AddInt64(counter, 1)
	tx.finish()
}

// finish poisons the handle and returns staged records to the region's
// write pool.
func (tx *Txn) finish() {
	for _, rec := range tx.worder {
		tx.region.putrecord(rec)
	}
	tx.rset, tx.wset, tx.worder = nil, nil, nil
	tx.fin = true
	atomic.AddInt64(&tx.region.n_livetxns, -1)
}
