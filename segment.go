package stm

// word is the atomic quantum of shared memory, align bytes of payload
// guarded by a versioned lock. Payload is held in a uint64 irrespective
// of alignment, only the low align bytes are meaningful. Payload is
// authoritative only while the lock is free, committers mutate it
// holding the lock and publish it with the lock release.
type word struct {
	vlock
	payload uint64
}

// segment is a contiguous run of words sharing a segment-id. Segments
// are allocated whole, initialized to zero and never grow. The initial
// segment lives for the region's lifetime, segments allocated by
// transactions stay live until the region is destroyed, their ids are
// never reused.
type segment struct {
	id    uint32
	size  int64 // declared size in bytes
	words []word
}

func newsegment(id uint32, size, align int64) *segment {
	return &segment{id: id, size: size, words: make([]word, size/align)}
}

// footprint in bytes accounted against the region's memcapacity.
func (seg *segment) footprint() int64 {
	return int64(len(seg.words)) * 16 // sizeof(word)
}
