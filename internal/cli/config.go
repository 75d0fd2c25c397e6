/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/chip"
)

const (
	MockBackend = "mock"
	MdioBackend = "mdio"
)

// ConfigFile describes the switches of a system
type ConfigFile struct {
	Version  string
	Metadata struct {
		Name string
	}

	// Journal is the path of the write journal. Empty disables the journal.
	Journal string `yaml:",omitempty"`

	PollInterval struct {
		Min string `yaml:",omitempty"`
		Max string `yaml:",omitempty"`
	} `yaml:"pollInterval,omitempty"`

	Devices []DeviceConfig
}

// DeviceConfig is one switch device on an SMI bus
type DeviceConfig struct {
	Name      string
	Chip      string
	Number    uint8
	Base      uint8
	Backend   string
	Interface string `yaml:",omitempty"`
}

// LoadConfig reads and validates the configuration file at path
func LoadConfig(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return loadConfig(data)
}

func loadConfig(data []byte) (*ConfigFile, error) {
	config := new(ConfigFile)
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig is a single simulated switch, used without a configuration file
func DefaultConfig() *ConfigFile {
	config := &ConfigFile{
		Version: "v1",
		Devices: []DeviceConfig{
			{Name: "sw0", Chip: "Bonsai", Backend: MockBackend},
		},
	}

	config.Metadata.Name = "default"

	return config
}

// PollIntervals returns the configured pacing of the busy bit polls; zero
// values poll back to back.
func (c *ConfigFile) PollIntervals() (pollMin, pollMax time.Duration, err error) {
	if len(c.PollInterval.Min) != 0 {
		if pollMin, err = time.ParseDuration(c.PollInterval.Min); err != nil {
			return 0, 0, fmt.Errorf("poll interval min: %w", err)
		}
	}

	if len(c.PollInterval.Max) != 0 {
		if pollMax, err = time.ParseDuration(c.PollInterval.Max); err != nil {
			return 0, 0, fmt.Errorf("poll interval max: %w", err)
		}
	} else {
		pollMax = pollMin
	}

	return pollMin, pollMax, nil
}

func validateConfig(config *ConfigFile) error {
	if len(config.Devices) == 0 {
		return fmt.Errorf("no devices configured")
	}

	if pollMin, pollMax, err := config.PollIntervals(); err != nil {
		return err
	} else if pollMin < 0 || pollMax < pollMin {
		return fmt.Errorf("poll interval min %s max %s invalid", pollMin, pollMax)
	}

	names := make(map[string]bool)
	type smi struct {
		number uint8
		base   uint8
	}
	addresses := make(map[smi]string)

	for idx, d := range config.Devices {
		if len(d.Name) == 0 {
			return fmt.Errorf("device %d has no name", idx)
		}

		name := strings.ToLower(d.Name)
		if names[name] {
			return fmt.Errorf("device %s: duplicate name", d.Name)
		}
		names[name] = true

		profile, err := chip.Lookup(d.Chip)
		if err != nil {
			return fmt.Errorf("device %s: %w", d.Name, err)
		}

		for port := range profile.Ports {
			if physical, _ := profile.Physical(port); int(d.Base)+int(physical) > 0x1F {
				return fmt.Errorf("device %s: port %d beyond the SMI address space at base %#x", d.Name, port, d.Base)
			}
		}

		if other, ok := addresses[smi{d.Number, d.Base}]; ok {
			return fmt.Errorf("device %s: number %d base %#x already used by device %s", d.Name, d.Number, d.Base, other)
		}
		addresses[smi{d.Number, d.Base}] = d.Name

		switch d.Backend {
		case MockBackend:
		case MdioBackend:
			if len(d.Interface) == 0 {
				return fmt.Errorf("device %s: mdio backend requires an interface", d.Name)
			}
		default:
			return fmt.Errorf("device %s: unknown backend '%s'", d.Name, d.Backend)
		}
	}

	return nil
}
