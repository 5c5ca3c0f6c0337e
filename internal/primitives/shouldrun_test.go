package primitives

import "testing"

func TestShouldRun_Decisions(t *testing.T) {
	tests := []struct {
		in         ShouldRun
		runs       bool
		checkAgain bool
		str        string
	}{
		{No, false, false, "No"},
		{Yes, true, false, "Yes"},
		{YesAndCheckAgain, true, true, "YesAndCheckAgain"},
		{NoAndCheckAgain, false, true, "NoAndCheckAgain"},
		{ShouldRun(42), false, false, "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.in.Runs(); got != tt.runs {
			t.Errorf("%v.Runs() = %v, want %v", tt.in, got, tt.runs)
		}
		if got := tt.in.CheckAgain(); got != tt.checkAgain {
			t.Errorf("%v.CheckAgain() = %v, want %v", tt.in, got, tt.checkAgain)
		}
		if got := tt.in.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
	}
}
