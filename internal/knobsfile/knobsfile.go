// Package knobsfile persists the `knob`-registered values a config script
// exposes through the overlay menu: a flat JSON object of name -> value,
// pretty-printed so it survives hand-editing, reloaded on external writes
// via fsnotify.
package knobsfile

import (
	"encoding/json"
	"os"

	"ctlmapper/internal/config"
)

// Load reads path and decodes it into the override map NewContext expects.
// A missing file is not an error — it just means no overrides exist yet.
func Load(path string) (map[string]config.Value, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]config.Value{}, nil
	}
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}

	values := make(map[string]config.Value, len(decoded))
	for name, v := range decoded {
		switch t := v.(type) {
		case bool:
			values[name] = config.BoolValue(t)
		case float64:
			values[name] = config.NumberValue(float32(t))
		case string:
			values[name] = config.StringValue(t)
		}
	}
	return values, nil
}

// Save pretty-prints every registered knob's current value to path, one
// JSON scalar per knob: enum knobs persist the selected option string, not
// its index, so the file stays meaningful if the script's option list
// changes order between runs.
func Save(path string, knobs []config.Knob) error {
	out := make(map[string]any, len(knobs))
	for _, k := range knobs {
		switch k.Kind {
		case config.KnobFlag:
			out[k.Name] = k.Flag
		case config.KnobEnum:
			out[k.Name] = k.EnumOpts[k.EnumIdx]
		case config.KnobNumber:
			out[k.Name] = k.Number
		}
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}
