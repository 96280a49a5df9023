package stm

import "testing"

func TestDefaultsettings(t *testing.T) {
	setts := Defaultsettings()
	if x := setts.Int64("memcapacity"); x <= 0 {
		t.Errorf("unexpected %v", x)
	} else if x := setts.Int64("maxsegments"); x != 512 {
		t.Errorf("unexpected %v", x)
	} else if x := setts.Int64("writepool.size"); x != 1024 {
		t.Errorf("unexpected %v", x)
	}
}

func TestGetsysmem(t *testing.T) {
	total, used, free := getsysmem()
	if total == 0 {
		t.Errorf("unexpected %v", total)
	} else if used > total {
		t.Errorf("unexpected %v > %v", used, total)
	} else if free > total {
		t.Errorf("unexpected %v > %v", free, total)
	}
}
