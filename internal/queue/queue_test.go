package queue

import (
	"reflect"
	"testing"
)

func TestJoinIsIdempotent(t *testing.T) {
	q := New()
	q.Join("a")
	q.Join("a")
	if got := q.Snapshot(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("Snapshot() = %v, want [a]", got)
	}
}

func TestJoinIgnoresEmptyID(t *testing.T) {
	q := New()
	q.Join("")
	if q.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", q.Len())
	}
}

func TestLeaveAbsentIsNoop(t *testing.T) {
	q := New()
	q.Join("a")
	q.Join("b")
	q.Leave("missing")
	if got := q.Snapshot(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Snapshot() = %v, want [a b]", got)
	}
}

func TestLeaveRemovesAnyPosition(t *testing.T) {
	q := New()
	q.Join("a")
	q.Join("b")
	q.Join("c")
	q.Leave("b")
	if got := q.Snapshot(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("Snapshot() = %v, want [a c]", got)
	}
}

func TestAdvancePreservesFIFO(t *testing.T) {
	q := New()
	q.Join("a")
	q.Join("b")
	q.Join("c")
	if !q.AdvanceIf("a") {
		t.Fatalf("AdvanceIf(a) = false, want true")
	}
	if head, ok := q.Head(); !ok || head != "b" {
		t.Fatalf("Head() = %q, %v, want b, true", head, ok)
	}
	if got := q.Snapshot(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("Snapshot() = %v, want [b c]", got)
	}
}

func TestAdvanceIfRequiresMatchingHead(t *testing.T) {
	q := New()
	q.Join("a")
	q.Join("b")
	if q.AdvanceIf("b") {
		t.Fatalf("AdvanceIf(b) = true with a at the head")
	}
	if got := q.Snapshot(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Snapshot() = %v, want [a b]", got)
	}
	if !q.AdvanceIf("a") {
		t.Fatalf("AdvanceIf(a) = false, want true")
	}
	if got := q.Snapshot(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("Snapshot() = %v, want [b]", got)
	}
	// a left the line while its turn ran; b must keep the head slot.
	q.Leave("b")
	if q.AdvanceIf("b") {
		t.Fatalf("AdvanceIf(b) = true on empty queue")
	}
}

func TestAdvanceEmpty(t *testing.T) {
	q := New()
	if q.AdvanceIf("a") {
		t.Fatalf("AdvanceIf(a) = true on empty queue")
	}
}

func TestPositionOf(t *testing.T) {
	q := New()
	q.Join("a")
	q.Join("b")
	tests := []struct {
		id   string
		want int
	}{
		{"a", 1},
		{"b", 2},
		{"missing", 0},
	}
	for _, tc := range tests {
		if got := q.PositionOf(tc.id); got != tc.want {
			t.Fatalf("PositionOf(%q) = %d, want %d", tc.id, got, tc.want)
		}
	}
}

func TestTwoVisitorsAdvanceInOrder(t *testing.T) {
	q := New()
	q.Join("A")
	q.Join("B")
	if got := q.Snapshot(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("Snapshot() = %v, want [A B]", got)
	}
	q.AdvanceIf("A")
	if got := q.Snapshot(); !reflect.DeepEqual(got, []string{"B"}) {
		t.Fatalf("Snapshot() = %v, want [B]", got)
	}
	if pos := q.PositionOf("B"); pos != 1 {
		t.Fatalf("PositionOf(B) = %d, want 1", pos)
	}
}
