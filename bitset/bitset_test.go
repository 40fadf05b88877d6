package bitset

import (
	"reflect"
	"testing"
)

func TestAddContains(t *testing.T) {
	cases := []uint32{0, 1, 63, 64, 65, 127, 128, 4095, 4096, 1 << 20}
	b := New()
	for _, i := range cases {
		if b.Contains(i) {
			t.Fatalf("bit %d set before Add", i)
		}
		b.Add(i)
		if !b.Contains(i) {
			t.Fatalf("bit %d not set after Add", i)
		}
	}
	for _, i := range cases {
		if !b.Contains(i) {
			t.Errorf("bit %d lost after adding later bits", i)
		}
	}
}

func TestRemove(t *testing.T) {
	b := New()
	b.Add(5)
	b.Add(70)
	b.Remove(5)
	if b.Contains(5) {
		t.Fatal("bit 5 still set after Remove")
	}
	if !b.Contains(70) {
		t.Fatal("bit 70 cleared by unrelated Remove")
	}
}

func TestIterOrder(t *testing.T) {
	b := New()
	want := []uint32{2, 9, 64, 130, 5000}
	for _, i := range want {
		b.Add(i)
	}
	got := b.All()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Iter order = %v, want %v", got, want)
	}
}

func TestIterSkipsEmptyRanges(t *testing.T) {
	b := New()
	b.Add(0)
	b.Add(1 << 18) // forces layer growth with long empty runs between
	n := 0
	b.Iter(func(uint32) bool {
		n++
		return true
	})
	if n != 2 {
		t.Fatalf("Iter yielded %d indices, want 2", n)
	}
}

func TestAndOrXorNot(t *testing.T) {
	a := New()
	b := New()
	a.Add(1)
	a.Add(2)
	a.Add(3)
	b.Add(2)
	b.Add(3)
	b.Add(4)

	and := And(a, b)
	if got := and.Iter; true {
		var out []uint32
		got(func(i uint32) bool { out = append(out, i); return true })
		if !reflect.DeepEqual(out, []uint32{2, 3}) {
			t.Fatalf("And = %v, want [2 3]", out)
		}
	}

	or := Or(a, b)
	var orOut []uint32
	or.Iter(func(i uint32) bool { orOut = append(orOut, i); return true })
	if !reflect.DeepEqual(orOut, []uint32{1, 2, 3, 4}) {
		t.Fatalf("Or = %v, want [1 2 3 4]", orOut)
	}

	xor := Xor(a, b)
	var xorOut []uint32
	xor.Iter(func(i uint32) bool { xorOut = append(xorOut, i); return true })
	if !reflect.DeepEqual(xorOut, []uint32{1, 4}) {
		t.Fatalf("Xor = %v, want [1 4]", xorOut)
	}

	not := Not(a, 6)
	var notOut []uint32
	not.Iter(func(i uint32) bool { notOut = append(notOut, i); return true })
	if !reflect.DeepEqual(notOut, []uint32{0, 4, 5}) {
		t.Fatalf("Not = %v, want [0 4 5]", notOut)
	}
}

func TestEmptyIterYieldsNothing(t *testing.T) {
	b := New()
	n := 0
	b.Iter(func(uint32) bool { n++; return true })
	if n != 0 {
		t.Fatalf("empty bitset yielded %d indices", n)
	}
}

func TestAtomicSetClearContains(t *testing.T) {
	a := NewAtomic(1000)
	if !a.Set(42) {
		t.Fatal("Set(42) failed")
	}
	if !a.Contains(42) {
		t.Fatal("Contains(42) should be true after Set")
	}
	if !a.Clear(42) {
		t.Fatal("Clear(42) failed")
	}
	if a.Contains(42) {
		t.Fatal("Contains(42) should be false after Clear")
	}
}

func TestAtomicDrainInto(t *testing.T) {
	a := NewAtomic(200)
	a.Set(3)
	a.Set(150)
	dst := New()
	var drained []uint32
	a.DrainInto(dst, func(i uint32) { drained = append(drained, i) })
	if !dst.Contains(3) || !dst.Contains(150) {
		t.Fatal("DrainInto did not fold bits into dst")
	}
	if a.Contains(3) || a.Contains(150) {
		t.Fatal("DrainInto did not clear the atomic set")
	}
	if len(drained) != 2 {
		t.Fatalf("DrainInto callback fired %d times, want 2", len(drained))
	}
}

func TestAtomicConcurrentSet(t *testing.T) {
	a := NewAtomic(2048)
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			for i := g; i < 2048; i += 8 {
				a.Set(uint32(i))
			}
			done <- struct{}{}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
	for i := uint32(0); i < 2048; i++ {
		if !a.Contains(i) {
			t.Fatalf("bit %d missing after concurrent Set", i)
		}
	}
}
