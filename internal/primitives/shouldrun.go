package primitives

// ShouldRun is the four-valued decision a run-criteria node hands back to the
// stage executor.
type ShouldRun uint8

const (
	// No skips the guarded systems and stops evaluating the node this pass.
	No ShouldRun = iota
	// Yes runs the guarded systems once and stops evaluating the node.
	Yes
	// YesAndCheckAgain runs the guarded systems and asks to be re-evaluated.
	YesAndCheckAgain
	// NoAndCheckAgain skips the guarded systems and asks to be re-evaluated.
	NoAndCheckAgain
)

// Runs reports whether systems guarded by this decision execute.
func (s ShouldRun) Runs() bool {
	return s == Yes || s == YesAndCheckAgain
}

// CheckAgain reports whether the node wants another evaluation this pass.
func (s ShouldRun) CheckAgain() bool {
	return s == YesAndCheckAgain || s == NoAndCheckAgain
}

func (s ShouldRun) String() string {
	switch s {
	case No:
		return "No"
	case Yes:
		return "Yes"
	case YesAndCheckAgain:
		return "YesAndCheckAgain"
	case NoAndCheckAgain:
		return "NoAndCheckAgain"
	default:
		return "Unknown"
	}
}
