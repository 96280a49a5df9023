package stm

import s "github.com/bnclabs/gosettings"

// Function style adapters over Region and Txn, for callers porting
// from the C shaped transactional memory interface. Each adapter
// validates its handles and forwards to the engine, region handles are
// *Region and transaction handles are *Txn.

// AllocStatus is the three valued outcome of transactional
// allocation.
type AllocStatus byte

const (
	// AllocOk allocation succeeded.
	AllocOk AllocStatus = iota + 1
	// AllocNomem allocation failed, the transaction is still healthy
	// and may continue.
	AllocNomem
	// AllocAbort allocation failed and the transaction stands
	// aborted.
	AllocAbort
)

// Create a region with one initial segment of size bytes and the
// supplied alignment. Returns nil on invalid arguments.
func Create(size, align int64, setts s.Settings) *Region {
	return NewRegion("shared", size, align, setts)
}

// Destroy the region, no transaction shall be live on it.
func Destroy(region *Region) error {
	if region == nil {
		return ErrorClosed
	}
	return region.Destroy()
}

// Start return the address of the first word of the region's initial
// segment, zero if region is invalid.
func Start(region *Region) uint64 {
	if region == nil {
		return 0
	}
	return region.Start()
}

// Size return the byte size of the region's initial segment.
func Size(region *Region) int64 {
	if region == nil {
		return 0
	}
	return region.Size()
}

// Align return the region's access quantum in bytes.
func Align(region *Region) int64 {
	if region == nil {
		return 0
	}
	return region.Align()
}

// Begin a transaction on region, read-only if is_ro.
func Begin(region *Region, is_ro bool) *Txn {
	if region == nil {
		return nil
	}
	return region.Begin(is_ro)
}

// Read size bytes of shared memory at src into dst under tx. False
// return means tx stands aborted.
func Read(region *Region, tx *Txn, src uint64, size int64, dst []byte) bool {
	if region == nil || tx == nil || tx.region != region {
		return false
	}
	return tx.Read(src, size, dst)
}

// Write size bytes from src into shared memory at dst under tx,
// staged privately until End.
func Write(region *Region, tx *Txn, src []byte, size int64, dst uint64) bool {
	if region == nil || tx == nil || tx.region != region {
		return false
	}
	return tx.Write(src, size, dst)
}

// End tx, true if its effects committed atomically.
func End(region *Region, tx *Txn) bool {
	if region == nil || tx == nil || tx.region != region {
		return false
	}
	return tx.End()
}

// Alloc a fresh segment of size bytes under tx, its address is
// returned through target.
func Alloc(region *Region, tx *Txn, size int64, target *uint64) AllocStatus {
	if region == nil || tx == nil || tx.region != region || target == nil {
		return AllocAbort
	}
	status, addr := tx.Alloc(size)
	if status == AllocOk {
		*target = addr
	}
	return status
}

// Free the segment holding target under tx.
func Free(region *Region, tx *Txn, target uint64) bool {
	if region == nil || tx == nil || tx.region != region {
		return false
	}
	return tx.Free(target)
}
