package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comalice/ecsx"
)

// DOTVisualizer renders schedule graphs as Graphviz DOT.
//
// Each stage becomes a cluster. Run criteria are ellipses linked by their
// ordering edges; system sets are boxes hanging off the criteria guarding
// them. Criteria that answered a running decision last frame are filled.
type DOTVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the stages.
func (v *DOTVisualizer) ExportDOT(stages []ecsx.StageGraph) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Schedule {
  rankdir=LR;
  node [fontsize=10];
  edge [fontsize=9];
`)

	for i, st := range stages {
		prefix := fmt.Sprintf("s%d", i)
		fmt.Fprintf(&buf, "  subgraph \"cluster_%s\" {\n    label=%q;\n", prefix, st.Name)

		ids := make(map[string]string, len(st.Criteria))
		for j, c := range st.Criteria {
			id := fmt.Sprintf("%s_c%d", prefix, j)
			ids[c.Label] = id
			style := ""
			if c.Last.Runs() {
				style = `, style=filled, fillcolor="lightgreen"`
			}
			fmt.Fprintf(&buf, "    %s [shape=ellipse, label=%q%s];\n", id, c.Label, style)
		}
		for j, set := range st.Sets {
			id := fmt.Sprintf("%s_set%d", prefix, j)
			label := strings.Join(set.Systems, "\\n")
			if label == "" {
				label = "(empty)"
			}
			fmt.Fprintf(&buf, "    %s [shape=box, style=rounded, label=\"%s\"];\n", id, escape(label))
			if from, ok := ids[set.Criteria]; ok {
				fmt.Fprintf(&buf, "    %s -> %s [style=dashed];\n", from, id)
			}
		}
		for _, c := range st.Criteria {
			for _, after := range c.After {
				if from, ok := ids[after]; ok {
					fmt.Fprintf(&buf, "    %s -> %s;\n", from, ids[c.Label])
				}
			}
			for _, before := range c.Before {
				if to, ok := ids[before]; ok {
					fmt.Fprintf(&buf, "    %s -> %s;\n", ids[c.Label], to)
				}
			}
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the stage graphs to JSON.
func (v *DOTVisualizer) ExportJSON(stages []ecsx.StageGraph) ([]byte, error) {
	return json.MarshalIndent(stages, "", "  ")
}

// escape quotes label text for DOT, keeping the \n line breaks.
func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
