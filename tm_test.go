package stm

import "testing"

func TestTmBasic(t *testing.T) {
	region := Create(64, 8, nil)
	if region == nil {
		t.Fatalf("unexpected nil region")
	}
	if Size(region) != 64 {
		t.Errorf("unexpected %v", Size(region))
	} else if Align(region) != 8 {
		t.Errorf("unexpected %v", Align(region))
	} else if Start(region) != uint64(1)<<32 {
		t.Errorf("unexpected %x", Start(region))
	}

	tx := Begin(region, false)
	if tx == nil {
		t.Fatalf("unexpected nil transaction")
	}
	if Write(region, tx, u64bytes(0x10), 8, Start(region)) == false {
		t.Errorf("write failed")
	}
	if End(region, tx) == false {
		t.Errorf("commit failed")
	}

	tx, buf := Begin(region, true), make([]byte, 8)
	if Read(region, tx, Start(region), 8, buf) == false {
		t.Errorf("read failed")
	} else if bytes2u64(buf) != 0x10 {
		t.Errorf("unexpected %x", bytes2u64(buf))
	}
	if End(region, tx) == false {
		t.Errorf("read-only end failed")
	}

	tx = Begin(region, false)
	var target uint64
	if status := Alloc(region, tx, 128, &target); status != AllocOk {
		t.Errorf("unexpected %v", status)
	} else if addr2segment(target) != 2 {
		t.Errorf("unexpected %v", addr2segment(target))
	}
	if Free(region, tx, target) == false {
		t.Errorf("free failed")
	}
	if End(region, tx) == false {
		t.Errorf("commit failed")
	}

	if err := Destroy(region); err != nil {
		t.Errorf("unexpected %v", err)
	}
}

func TestTmCreateInvalid(t *testing.T) {
	if region := Create(64, 5, nil); region != nil {
		t.Errorf("expected nil region")
	}
	if region := Create(-1, 8, nil); region != nil {
		t.Errorf("expected nil region")
	}
}

func TestTmNilHandles(t *testing.T) {
	if Start(nil) != 0 {
		t.Errorf("unexpected start on nil region")
	} else if Size(nil) != 0 {
		t.Errorf("unexpected size on nil region")
	} else if Align(nil) != 0 {
		t.Errorf("unexpected align on nil region")
	}
	if tx := Begin(nil, false); tx != nil {
		t.Errorf("unexpected transaction on nil region")
	}
	if err := Destroy(nil); err != ErrorClosed {
		t.Errorf("unexpected %v", err)
	}

	region := Create(64, 8, nil)
	defer region.Destroy()

	buf := make([]byte, 8)
	if Read(region, nil, Start(region), 8, buf) == true {
		t.Errorf("expected read to fail on nil transaction")
	}
	if Write(region, nil, buf, 8, Start(region)) == true {
		t.Errorf("expected write to fail on nil transaction")
	}
	if End(region, nil) == true {
		t.Errorf("expected end to fail on nil transaction")
	}
	var target uint64
	if status := Alloc(region, nil, 64, &target); status != AllocAbort {
		t.Errorf("unexpected %v", status)
	}
	if Free(region, nil, Start(region)) == true {
		t.Errorf("expected free to fail on nil transaction")
	}

	// transaction from another region is rejected.
	other := Create(64, 8, nil)
	defer other.Destroy()
	tx := other.Begin(false)
	if Read(region, tx, Start(region), 8, buf) == true {
		t.Errorf("expected read to fail on foreign transaction")
	}
	tx.End()
}
