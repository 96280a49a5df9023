// Package stm implement word granular software transactional memory
// over a region of shared segments. Transactions are optimistic, based
// on the TL2 protocol: reads are validated against a global version
// clock and writes are staged privately and published at commit under
// per-word versioned locks.
//
// A region is created with a fixed alignment, the quantum of shared
// memory, and one initial segment. Client code addresses shared memory
// through opaque 64-bit addresses, segment-id in the high 32 bits and
// byte offset within the segment in the low 32 bits. Address of the
// initial segment can be obtained via Start().
//
//	region := stm.NewRegion("accounts", 1024, 8, nil)
//	tx := region.Begin(false)
//	tx.Write(buf, 8, region.Start())
//	if tx.End() == false {
//		// aborted, begin a fresh transaction and retry.
//	}
//
// Aborted transactions are cleaned up by the library, caller shall
// simply retry with a new transaction. Transaction handles are not
// safe for concurrent use, regions are.
package stm
