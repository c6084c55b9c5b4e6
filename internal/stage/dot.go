package stage

import (
	"fmt"
	"sort"
	"strings"
)

// Group is one layer's worth of root terminal stages, keyed by a label the
// caller chooses (e.g. the layer name or "(always)" for unconditional
// pipelines).
type Group struct {
	Label string
	Roots []Node
}

// RenderDOT walks each group's roots, collects the reachable stage
// descriptions, and emits a Graphviz digraph with one subgraph cluster per
// group.
func RenderDOT(groups []Group) string {
	var b strings.Builder
	b.WriteString("digraph pipelines {\n")
	b.WriteString("  rankdir=LR;\n")

	seen := map[ID]Description{}
	for gi, g := range groups {
		b.WriteString(fmt.Sprintf("  subgraph cluster_%d {\n", gi))
		b.WriteString(fmt.Sprintf("    label=%q;\n", g.Label))
		local := map[ID]Description{}
		for _, root := range g.Roots {
			root.Inspect(local)
		}
		ids := make([]ID, 0, len(local))
		for id := range local {
			ids = append(ids, id)
			seen[id] = local[id]
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			d := local[id]
			b.WriteString(fmt.Sprintf("    n%d [label=%q];\n", d.ID, fmt.Sprintf("%s(%s)", d.Name, d.Opts)))
		}
		b.WriteString("  }\n")
	}

	ids := make([]ID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		for _, in := range seen[id].Inputs {
			b.WriteString(fmt.Sprintf("  n%d -> n%d;\n", in, id))
		}
	}

	b.WriteString("}\n")
	return b.String()
}
