package bytebuffers

import (
	"testing"
)

func TestIndex(t *testing.T) {
	cases := map[int]int{1: 0, 64: 0, 65: 1, 128: 1, 129: 2, 4096: 6, maxSize: steps - 1}
	for n, want := range cases {
		if got := index(n); got != want {
			t.Errorf("index(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestPool_Get(t *testing.T) {
	p := Pool{}
	b := p.Get(100)
	if len(b) != 100 || cap(b) != 128 {
		t.Fatal(len(b), cap(b))
	}
	b[0] = 'x'
	p.Put(b)

	b = p.Get(70)
	if len(b) != 70 || cap(b) != 128 {
		t.Fatal(len(b), cap(b))
	}
	if b[0] != 0 {
		t.Fatal("pooled slice not zeroed")
	}

	if len(p.Get(0)) != 0 {
		t.Fatal("expected empty slice")
	}
	big := p.Get(maxSize + 1)
	if len(big) != maxSize+1 {
		t.Fatal(len(big))
	}
	p.Put(big)
	p.Put(make([]byte, 100))

	hits, misses := p.Stats()
	t.Log("hits:", hits, "misses:", misses)
	if hits+misses != 3 {
		t.Fatal("expected 3 counted gets")
	}
}

func BenchmarkPool_Get(b *testing.B) {
	p := Pool{}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := p.Get(4096)
			p.Put(buf)
		}
	})
}
