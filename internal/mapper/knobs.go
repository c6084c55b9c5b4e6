package mapper

import (
	"ctlmapper/internal/config"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/stage"
)

func stageIDFromAction(id uint64) stage.ID { return stage.ID(id) }

// knobEquals compares a registered knob against the overlay's current value
// for it, by kind (the two slices are positionally aligned by registration
// order, never by name).
func knobEquals(k config.Knob, snap overlay.KnobSnapshot) bool {
	switch k.Kind {
	case config.KnobFlag:
		return k.Flag == snap.Flag
	case config.KnobEnum:
		return k.EnumIdx == snap.EnumIndex
	case config.KnobNumber:
		return k.Number == snap.NumberValue
	default:
		return true
	}
}

// knobSnapshotsToKnobs returns a copy of prev whose values are taken from
// the overlay's reported snapshots, keeping every other field (name, enum
// options, min/max) as originally registered; prev itself is not modified.
func knobSnapshotsToKnobs(snaps []overlay.KnobSnapshot, prev []config.Knob) []config.Knob {
	out := make([]config.Knob, len(prev))
	for i, k := range prev {
		out[i] = k
		switch k.Kind {
		case config.KnobFlag:
			out[i].Flag = snaps[i].Flag
		case config.KnobEnum:
			out[i].EnumIdx = snaps[i].EnumIndex
		case config.KnobNumber:
			out[i].Number = snaps[i].NumberValue
		}
	}
	return out
}

func knobToSnapshot(k config.Knob) overlay.KnobSnapshot {
	return overlay.KnobSnapshot{
		Kind: int(k.Kind), Name: k.Name, Flag: k.Flag,
		EnumIndex: k.EnumIdx, EnumOptions: k.EnumOpts,
		NumberValue: k.Number, NumberMin: k.MinValue, NumberMax: k.MaxValue,
	}
}
