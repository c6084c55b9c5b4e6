package stage

import (
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
)

// Leaf is the common Node implementation for stages with no stage inputs
// (controller/constant inputs, probes, mode_is). Concrete leaf stages embed
// Leaf and add only their own Apply method; override Probe/Shapes when the
// leaf carries one.
type Leaf struct {
	id      ID
	name    string
	optsStr string
}

// NewLeaf constructs a Leaf with the given identity.
func NewLeaf(id ID, name, opts string) Leaf { return Leaf{id: id, name: name, optsStr: opts} }

func (l Leaf) ID() ID                               { return l.id }
func (l Leaf) Name() string                         { return l.name }
func (l Leaf) Opts() string                         { return l.optsStr }
func (l Leaf) InputIDs() []ID                       { return nil }
func (l Leaf) Probe() (probe.Descriptor, bool)      { return probe.Descriptor{}, false }
func (l Leaf) Shapes() [][]overlay.Shape            { return nil }
func (l Leaf) Reset()                               {}
func (l Leaf) Inspect(out map[ID]Description)       { InsertDescription(out, l) }
