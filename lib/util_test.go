package lib

import "testing"
import "unsafe"

func TestMemcpy(t *testing.T) {
	src, dst := make([]byte, 100), make([]byte, 100)
	for i := 0; i < len(src); i++ {
		src[i] = byte(i)
	}
	n := Memcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), len(src))
	if n != len(src) {
		t.Errorf("expected %v, got %v", len(src), n)
	}
	for i := 0; i < len(src); i++ {
		if dst[i] != src[i] {
			t.Fatalf("expected %v, got %v at off %v", src[i], dst[i], i)
		}
	}

	var word uint64
	payload := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	Memcpy(unsafe.Pointer(&word), unsafe.Pointer(&payload[0]), 8)
	back := make([]byte, 8)
	Memcpy(unsafe.Pointer(&back[0]), unsafe.Pointer(&word), 8)
	for i := 0; i < 8; i++ {
		if back[i] != payload[i] {
			t.Fatalf("expected %v, got %v at off %v", payload[i], back[i], i)
		}
	}
}

func TestFixbuffer(t *testing.T) {
	buf := Fixbuffer(nil, 10)
	if len(buf) != 10 {
		t.Errorf("unexpected %v", len(buf))
	}
	buf = Fixbuffer(buf, 5)
	if len(buf) != 5 {
		t.Errorf("unexpected %v", len(buf))
	}
	buf = Fixbuffer(buf, 100)
	if len(buf) != 100 {
		t.Errorf("unexpected %v", len(buf))
	}
}

func TestAbsInt64(t *testing.T) {
	if x := AbsInt64(10); x != 10 {
		t.Errorf("unexpected %v", x)
	} else if x = AbsInt64(-10); x != 10 {
		t.Errorf("unexpected %v", x)
	} else if x = AbsInt64(0); x != 0 {
		t.Errorf("unexpected %v", x)
	}
}

func TestPrettystats(t *testing.T) {
	stats := map[string]interface{}{"a": 10, "b": "hello"}
	if s := Prettystats(stats, false); len(s) == 0 {
		t.Errorf("unexpected %v", s)
	}
	if s := Prettystats(stats, true); len(s) == 0 {
		t.Errorf("unexpected %v", s)
	}
}
