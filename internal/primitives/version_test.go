package primitives

import (
	"strings"
	"testing"
)

func TestComputeVersion_Deterministic(t *testing.T) {
	v1 := ComputeVersion([]string{"menu", "playing"})
	v2 := ComputeVersion([]string{"menu", "playing"})
	if v1 != v2 {
		t.Errorf("same content produced different versions: %s vs %s", v1, v2)
	}
	if len(v1) != 16 {
		t.Errorf("expected 16 hex chars, got %q", v1)
	}
	if ComputeVersion([]string{"menu"}) == v1 {
		t.Error("different content produced the same version")
	}
}

func TestComputeVersion_Unencodable(t *testing.T) {
	v := ComputeVersion(make(chan int))
	if !strings.HasPrefix(v, "invalid-") {
		t.Errorf("expected invalid marker, got %q", v)
	}
}
