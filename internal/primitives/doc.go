// Package primitives provides the leaf value types shared by the scheduler,
// the state stack and the runtime tiers.
//
// This package and all `internal/*` packages below core keep to the Go
// standard library. Nothing here allocates on the hot path:
// - ShouldRun is a small integer enum
// - Label is a comparable struct usable directly as a map key
// - StateCallback identifies the seven state-driven run criteria
package primitives
