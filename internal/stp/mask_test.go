package stp_test

import (
	"testing"

	"github.com/vlanspan/pvstd/internal/stp"
)

func TestSetBasic(t *testing.T) {
	t.Parallel()

	var s stp.Set
	if !s.Empty() {
		t.Fatal("zero-value Set should be empty")
	}

	s.Set(0)
	s.Set(63)
	s.Set(64)
	s.Set(255)

	if s.Empty() {
		t.Fatal("Set with members reports Empty")
	}
	if s.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", s.Count())
	}
	for _, port := range []uint16{0, 63, 64, 255} {
		if !s.Has(port) {
			t.Errorf("Has(%d) = false, want true", port)
		}
	}
	if s.Has(1) {
		t.Error("Has(1) = true, want false")
	}

	s.Clear(64)
	if s.Has(64) {
		t.Error("Clear(64) did not remove member")
	}
	if s.Count() != 3 {
		t.Fatalf("Count() after Clear = %d, want 3", s.Count())
	}
}

func TestSetFirstSetNextSet(t *testing.T) {
	t.Parallel()

	var s stp.Set
	s.Set(3)
	s.Set(10)
	s.Set(200)

	var got []uint16
	for p, ok := s.FirstSet(); ok; p, ok = s.NextSet(p + 1) {
		got = append(got, p)
	}

	want := []uint16{3, 10, 200}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSetFirstUnset(t *testing.T) {
	t.Parallel()

	var s stp.Set
	for i := uint16(0); i < 256; i++ {
		s.Set(i)
	}
	if _, ok := s.FirstUnset(); ok {
		t.Fatal("full set reports an unset bit")
	}
	s.Clear(100)
	p, ok := s.FirstUnset()
	if !ok || p != 100 {
		t.Fatalf("FirstUnset() = (%d, %v), want (100, true)", p, ok)
	}
}

func TestSetBooleanOps(t *testing.T) {
	t.Parallel()

	var a, b stp.Set
	a.Set(1)
	a.Set(2)
	a.Set(3)
	b.Set(2)
	b.Set(3)
	b.Set(4)

	and := a.And(b)
	if and.Count() != 2 || !and.Has(2) || !and.Has(3) {
		t.Fatalf("And = %+v, want {2,3}", and)
	}

	or := a.Or(b)
	if or.Count() != 4 {
		t.Fatalf("Or.Count() = %d, want 4", or.Count())
	}

	andNot := a.AndNot(b)
	if andNot.Count() != 1 || !andNot.Has(1) {
		t.Fatalf("AndNot = %+v, want {1}", andNot)
	}

	xor := a.Xor(b)
	if xor.Count() != 2 || !xor.Has(1) || !xor.Has(4) {
		t.Fatalf("Xor = %+v, want {1,4}", xor)
	}

	not := a.Not()
	if not.Has(1) || not.Has(2) || not.Has(3) {
		t.Fatal("Not() still reports original members")
	}
	if !not.Has(5) {
		t.Fatal("Not() missing member outside original set")
	}
}
