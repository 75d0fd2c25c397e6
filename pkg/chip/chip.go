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

// Package chip describes the members of the switch family: where each chip
// places its indirect window registers and how its logical ports map onto
// SMI physical addresses.
package chip

import (
	"fmt"
	"strings"
	"sync"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
)

type Profile struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Windows     WindowConfig `yaml:"windows"`
	Ports       []PortConfig `yaml:"ports"`

	CpuPortCount int `yaml:"-"`
}

type WindowConfig struct {
	ExtCommand uint8 `yaml:"extCommand"`
	ExtData    uint8 `yaml:"extData"`
	FlowCtrl   uint8 `yaml:"flowCtrl"`
}

var (
	once    sync.Once
	config  *ConfigFile
	loadErr error
)

func load() (*ConfigFile, error) {
	once.Do(func() {
		config, loadErr = loadConfig([]byte(configFile))
	})

	return config, loadErr
}

// Profiles returns every chip of the family
func Profiles() ([]Profile, error) {
	c, err := load()
	if err != nil {
		return nil, err
	}

	return c.Chips, nil
}

// Lookup finds a chip by name, ignoring case
func Lookup(name string) (*Profile, error) {
	c, err := load()
	if err != nil {
		return nil, err
	}

	for idx := range c.Chips {
		if strings.EqualFold(c.Chips[idx].Name, name) {
			return &c.Chips[idx], nil
		}
	}

	return nil, fmt.Errorf("Chip %s not found", name)
}

// Physical returns the SMI address offset of a logical port
func (p *Profile) Physical(port int) (uint8, bool) {
	if port < 0 || port >= len(p.Ports) {
		return 0, false
	}

	return p.Ports[port].Physical, true
}

func (p *Profile) PortCount() int { return len(p.Ports) }

// CpuPort returns the logical port connected to the management CPU
func (p *Profile) CpuPort() int {
	for idx, port := range p.Ports {
		if port.Type == CpuPortType {
			return idx
		}
	}
	return -1
}

func (p *Profile) Layout() indirect.Layout {
	return indirect.Layout{
		ExtCommand: p.Windows.ExtCommand,
		ExtData:    p.Windows.ExtData,
		FlowCtrl:   p.Windows.FlowCtrl,
	}
}

// Config returns the attach configuration of a device built from this chip
func (p *Profile) Config(name string, number, base uint8) indirect.Config {
	return indirect.Config{
		Name:   name,
		Number: number,
		Base:   base,
		Layout: p.Layout(),
		Ports:  p,
	}
}
