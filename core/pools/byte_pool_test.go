package pools

import "testing"

func TestBytePoolGetPut(t *testing.T) {
	bp := NewBytePool(4096)

	buf := bp.Get()
	if len(buf) != 4096 || cap(buf) != 4096 {
		t.Fatalf("expected 4096-byte buffer, got len=%d cap=%d", len(buf), cap(buf))
	}
	bp.Put(buf)

	small := bp.GetN(100)
	if len(small) != 100 || cap(small) != 4096 {
		t.Errorf("expected len 100 cap 4096, got len=%d cap=%d", len(small), cap(small))
	}
	bp.Put(small)

	big := bp.GetN(5000)
	if len(big) != 5000 {
		t.Errorf("expected oversized buffer of 5000, got %d", len(big))
	}
	bp.Put(big)

	stats := bp.Stats()
	if stats.Gets != 2 || stats.Puts != 2 || stats.Oversized != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func BenchmarkBytePool(b *testing.B) {
	bp := NewBytePool(4096)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		bp.Put(bp.Get())
	}
}
