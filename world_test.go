package ecsx_test

import (
	"testing"

	. "github.com/comalice/ecsx"
)

type score struct{ points int }

type frameCount int

type windowHandle struct{ name string }

func TestWorldIDsAreUnique(t *testing.T) {
	seen := make(map[WorldID]bool)
	for i := 0; i < 100; i++ {
		id := NewWorld().ID()
		if seen[id] {
			t.Fatalf("WorldID %s reused", id)
		}
		seen[id] = true
	}
}

func TestWorldInsertAndLookup(t *testing.T) {
	w := NewWorld()
	InsertResource(w, score{points: 3})
	InsertResource(w, frameCount(9))

	s, ok := Resource[score](w)
	if !ok || s.points != 3 {
		t.Fatalf("expected score 3, got %+v (ok=%v)", s, ok)
	}
	s.points = 4
	if got := MustResource[score](w).points; got != 4 {
		t.Errorf("resource pointer does not alias the stored value, got %d", got)
	}
	if *MustResource[frameCount](w) != 9 {
		t.Errorf("unexpected frame count %d", *MustResource[frameCount](w))
	}
	if w.Len() != 2 {
		t.Errorf("expected 2 resources, got %d", w.Len())
	}
	if _, ok := Resource[windowHandle](w); ok {
		t.Error("missing resource reported as present")
	}
}

func TestWorldMustResourcePanicsWhenMissing(t *testing.T) {
	w := NewWorld()
	expectPanic(t, "resource requested does not exist", func() {
		MustResource[score](w)
	})
}

func TestWorldRemoveKeepsSlot(t *testing.T) {
	w := NewWorld()
	InsertResource(w, score{points: 1})
	before, _ := ResourceIDOf[score](w)

	v, ok := RemoveResource[score](w)
	if !ok || v.points != 1 {
		t.Fatalf("expected removed score 1, got %+v (ok=%v)", v, ok)
	}
	if ContainsResource[score](w) {
		t.Error("resource still present after removal")
	}
	if _, ok := RemoveResource[score](w); ok {
		t.Error("second removal succeeded")
	}

	InsertResource(w, score{points: 2})
	after, _ := ResourceIDOf[score](w)
	if before != after {
		t.Errorf("slot changed across re-insertion: %d -> %d", before, after)
	}
}

func TestWorldNonSendIsSeparateKind(t *testing.T) {
	w := NewWorld()
	InsertNonSend(w, windowHandle{name: "main"})

	if _, ok := Resource[windowHandle](w); ok {
		t.Error("non-send resource visible as a shared resource")
	}
	h, ok := NonSend[windowHandle](w)
	if !ok || h.name != "main" {
		t.Fatalf("expected non-send handle, got %+v (ok=%v)", h, ok)
	}
	expectPanic(t, "already registered as a non-send resource", func() {
		InsertResource(w, windowHandle{})
	})
}

func TestWorldDirectAccessForbiddenWhileCellOpen(t *testing.T) {
	w := NewWorld()
	InsertResource(w, score{})

	c := w.Cell()
	defer c.Close()
	expectPanic(t, "while a WorldCell is open", func() {
		Resource[score](w)
	})
	expectPanic(t, "while a WorldCell is open", func() {
		InsertResource(w, frameCount(1))
	})
}
