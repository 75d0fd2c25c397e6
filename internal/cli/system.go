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
	"strings"

	"github.com/go-logr/logr"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/api"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/chip"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/journal"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/register"
)

// System is the set of attached devices described by a configuration
type System struct {
	Config  *ConfigFile
	Journal *journal.Journal
	Manager *api.Manager

	log      logr.Logger
	devices  []*indirect.Device
	profiles map[string]*chip.Profile
	mdio     *register.MdioAccessor
}

// OpenSystem attaches every configured device. Devices on the MDIO backend
// share one accessor; each mock device gets its own simulator.
func OpenSystem(config *ConfigFile, log logr.Logger) (_ *System, err error) {
	s := &System{
		Config:   config,
		log:      log,
		profiles: make(map[string]*chip.Profile),
	}

	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if len(config.Journal) != 0 {
		if s.Journal, err = journal.Open(config.Journal, log); err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
	}

	s.Manager = api.NewManager(s.Journal)

	pollMin, pollMax, err := config.PollIntervals()
	if err != nil {
		return nil, err
	}

	interfaces := make(map[uint8]string)
	for _, d := range config.Devices {
		if d.Backend == MdioBackend {
			interfaces[d.Number] = d.Interface
		}
	}

	if len(interfaces) != 0 {
		if s.mdio, err = register.OpenMdio(interfaces); err != nil {
			return nil, err
		}
	}

	for _, d := range config.Devices {
		profile, err := chip.Lookup(d.Chip)
		if err != nil {
			return nil, err
		}

		var acc register.Accessor = s.mdio
		if d.Backend == MockBackend {
			acc = indirect.NewMockAccessor(profile.Layout())
		}

		dev, err := indirect.Attach(acc, profile.Config(d.Name, d.Number, d.Base),
			indirect.WithLogger(log),
			indirect.WithPollInterval(pollMin, pollMax))
		if err != nil {
			return nil, err
		}

		s.devices = append(s.devices, dev)
		s.profiles[d.Name] = profile

		if s.Journal != nil {
			if err := s.Journal.Track(dev, profile.Name); err != nil {
				return nil, err
			}
		}

		if err := s.Manager.Add(dev, profile); err != nil {
			return nil, err
		}

		log.V(1).Info("Device attached", "device", d.Name, "chip", profile.Name, "backend", d.Backend)
	}

	return s, nil
}

// Device finds an attached device by name, ignoring case
func (s *System) Device(name string) (*indirect.Device, error) {
	for _, dev := range s.devices {
		if strings.EqualFold(dev.Name(), name) {
			return dev, nil
		}
	}

	return nil, fmt.Errorf("device %s not configured", name)
}

func (s *System) Profile(name string) *chip.Profile {
	return s.profiles[name]
}

func (s *System) Devices() []*indirect.Device {
	return s.devices
}

func (s *System) Close() error {
	for _, dev := range s.devices {
		if err := dev.Detach(); err != nil {
			s.log.Error(err, "Detach failed", "device", dev.Name())
		}
	}

	if s.mdio != nil {
		if err := s.mdio.Close(); err != nil {
			s.log.Error(err, "MDIO close failed")
		}
	}

	if s.Journal != nil {
		return s.Journal.Close()
	}

	return nil
}
