// Package primitives provides versioning utilities for persisted snapshots.
package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// ComputeVersion computes a deterministic content version for any JSON-encodable value.
// Format: SHA256(JSON)[:8] hex. Falls back to a timestamped marker if encoding fails.
func ComputeVersion(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("invalid-%d", time.Now().Unix())
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
