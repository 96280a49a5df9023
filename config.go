package stm

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Defaultsettings for stm region.
//
// "memcapacity" (int64, default: half of free RAM)
//		Maximum memory, in bytes, that live segments of the region can
//		together occupy. Transactional allocation beyond this capacity
//		fails with AllocNomem.
//
// "maxsegments" (int64, default: 512)
//		Size of the segment directory. Directory is pre-sized so that
//		segment lookups stay lock free, it cannot grow after the region
//		is created.
//
// "writepool.size" (int64, default: 1024)
//		Number of staged write records the region shall recycle across
//		transactions. Transactions fall back to fresh allocations once
//		the pool is exhausted.
func Defaultsettings() s.Settings {
	_, _, free := getsysmem()
	return s.Settings{
		"memcapacity":    int64(free / 2),
		"maxsegments":    int64(512),
		"writepool.size": int64(1024),
	}
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}
