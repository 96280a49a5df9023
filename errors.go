package stm

import "errors"

// ErrorClosed operation cannot succeed because region is already
// destroyed.
var ErrorClosed = errors.New("closed")

// ErrorAlignment region alignment should be a power of 2 and shall not
// exceed the platform word size.
var ErrorAlignment = errors.New("alignment")

// ErrorSegmentSize segment size should be a positive multiple of the
// region alignment.
var ErrorSegmentSize = errors.New("segmentSize")

// ErrorActiveTransactions region cannot be destroyed while
// transactions are live on it.
var ErrorActiveTransactions = errors.New("activeTransactions")

// ErrorOutofMemory allocation cannot succeed because region has
// exhausted its configured memory capacity.
var ErrorOutofMemory = errors.New("outofmemory")
