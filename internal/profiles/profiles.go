// Package profiles loads the two process-level configuration files that sit
// above a mapper config script: a controller alias list and the CLI's own
// defaults, both optional and both tolerant of a missing file.
package profiles

import (
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ControllerAlias names one controller by a friendly name plus whichever
// identifying fields the host backend reported for it, so the load
// command's -controller flag can refer to "left_stick_drift_pad" instead of
// a serial number.
type ControllerAlias struct {
	Name   string `yaml:"name"`
	Serial string `yaml:"serial,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// Controllers is the parsed form of controllers.yaml.
type Controllers struct {
	Aliases []ControllerAlias `yaml:"controllers"`
}

// LoadControllers reads a controllers.yaml alias list. A missing file
// yields an empty list rather than an error, since aliasing is opt-in.
func LoadControllers(path string) (Controllers, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Controllers{}, nil
	}
	if err != nil {
		return Controllers{}, err
	}

	var c Controllers
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Controllers{}, err
	}
	return c, nil
}

// ResolveAlias looks up name in the alias list by its friendly name,
// returning the matching alias's serial/path identification.
func (c Controllers) ResolveAlias(name string) (ControllerAlias, bool) {
	for _, a := range c.Aliases {
		if a.Name == name {
			return a, true
		}
	}
	return ControllerAlias{}, false
}

// Defaults is the parsed form of ctlmapper.toml: the CLI's own persistent
// preferences. The load command reads it after parsing its flags, from the
// -defaults-file path; a non-empty -controller flag takes precedence over
// its controller value.
type Defaults struct {
	Controller    string `toml:"controller"`
	OutputBackend string `toml:"output_backend"`
}

// LoadDefaults reads ctlmapper.toml. A missing file yields zero-value
// Defaults rather than an error.
func LoadDefaults(path string) (Defaults, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Defaults{}, nil
	}
	if err != nil {
		return Defaults{}, err
	}

	var d Defaults
	if err := toml.Unmarshal(raw, &d); err != nil {
		return Defaults{}, err
	}
	return d, nil
}
