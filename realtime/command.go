package realtime

import (
	"sort"

	"github.com/comalice/ecsx/internal/core"
)

// CommandWithMeta adds sequencing metadata for deterministic ordering
type CommandWithMeta struct {
	Command     core.Command
	SequenceNum uint64
	Priority    int
}

// sortCommands orders commands deterministically: higher priority first,
// then submission order.
func sortCommands(commands []CommandWithMeta) {
	sort.SliceStable(commands, func(i, j int) bool {
		if commands[i].Priority != commands[j].Priority {
			return commands[i].Priority > commands[j].Priority
		}
		return commands[i].SequenceNum < commands[j].SequenceNum
	})
}
