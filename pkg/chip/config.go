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

package chip

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// Logical ports are numbered in table order. The physical value is the SMI
// address offset of the port from the device base.
const configFile = `
version: v1
metadata:
  name: Switch Family Chip Profiles
chips:
  - name: Bonsai
    description: 11 port managed switch, 8 copper + 2 SERDES + CPU
    windows:
      extCommand: 0x10
      extData: 0x11
      flowCtrl: 0x1A
    ports:
      - name: P0
        type: NetworkPort
        physical: 0x00
      - name: P1
        type: NetworkPort
        physical: 0x01
      - name: P2
        type: NetworkPort
        physical: 0x02
      - name: P3
        type: NetworkPort
        physical: 0x03
      - name: P4
        type: NetworkPort
        physical: 0x04
      - name: P5
        type: NetworkPort
        physical: 0x05
      - name: P6
        type: NetworkPort
        physical: 0x06
      - name: P7
        type: NetworkPort
        physical: 0x07
      - name: P8
        type: SerdesPort
        physical: 0x08
      - name: P9
        type: SerdesPort
        physical: 0x09
      - name: CPU
        type: CpuPort
        physical: 0x0A

  - name: Oak
    description: 7 port switch, 5 copper + 1 SERDES + CPU
    windows:
      extCommand: 0x10
      extData: 0x11
      flowCtrl: 0x1A
    ports:
      - name: P0
        type: NetworkPort
        physical: 0x10
      - name: P1
        type: NetworkPort
        physical: 0x11
      - name: P2
        type: NetworkPort
        physical: 0x12
      - name: P3
        type: NetworkPort
        physical: 0x13
      - name: P4
        type: NetworkPort
        physical: 0x14
      - name: P5
        type: SerdesPort
        physical: 0x15
      - name: CPU
        type: CpuPort
        physical: 0x16

  - name: Spruce
    description: 11 port switch, 8 SERDES + 2 copper + CPU
    windows:
      extCommand: 0x16
      extData: 0x17
      flowCtrl: 0x1B
    ports:
      - name: P0
        type: CpuPort
        physical: 0x00
      - name: P1
        type: NetworkPort
        physical: 0x01
      - name: P2
        type: NetworkPort
        physical: 0x02
      - name: P3
        type: SerdesPort
        physical: 0x03
      - name: P4
        type: SerdesPort
        physical: 0x04
      - name: P5
        type: SerdesPort
        physical: 0x05
      - name: P6
        type: SerdesPort
        physical: 0x06
      - name: P7
        type: SerdesPort
        physical: 0x07
      - name: P8
        type: SerdesPort
        physical: 0x08
      - name: P9
        type: SerdesPort
        physical: 0x09
      - name: P10
        type: SerdesPort
        physical: 0x0A
`

type ConfigFile struct {
	Version  string
	Metadata struct {
		Name string
	}
	Chips []Profile
}

type PortConfig struct {
	Name     string
	Type     string
	Physical uint8
}

const (
	NetworkPortType = "NetworkPort"
	SerdesPortType  = "SerdesPort"
	CpuPortType     = "CpuPort"
)

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

func validateConfig(config *ConfigFile) error {
	names := make(map[string]bool)

	for chipIdx := range config.Chips {
		c := &config.Chips[chipIdx]

		if len(c.Name) == 0 {
			return fmt.Errorf("Chip %d has no name", chipIdx)
		}

		key := strings.ToLower(c.Name)
		if names[key] {
			return fmt.Errorf("Chip %s defined more than once", c.Name)
		}
		names[key] = true

		if len(c.Ports) == 0 {
			return fmt.Errorf("Chip %s has no ports", c.Name)
		}

		if err := c.Layout().Validate(); err != nil {
			return fmt.Errorf("Chip %s: %w", c.Name, err)
		}

		physical := make(map[uint8]bool)
		for portIdx, p := range c.Ports {
			switch p.Type {
			case NetworkPortType, SerdesPortType:
			case CpuPortType:
				c.CpuPortCount++
			default:
				return fmt.Errorf("Chip %s port %d: unhandled port type %s", c.Name, portIdx, p.Type)
			}

			if physical[p.Physical] {
				return fmt.Errorf("Chip %s port %d: physical address %#02x used more than once", c.Name, portIdx, p.Physical)
			}
			physical[p.Physical] = true
		}

		if c.CpuPortCount != 1 {
			return fmt.Errorf("Misconfigured Chip %s: Expected 1 CPU Port, Received: %d", c.Name, c.CpuPortCount)
		}
	}

	return nil
}
