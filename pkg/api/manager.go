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

package api

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/chip"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/ec"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/feature"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/journal"
)

const (
	ResourceDevice  = "Device"
	ResourcePort    = "Port"
	ResourceFeature = "Feature"
	ResourceJournal = "Journal"
)

// Switch is an attached device and the chip it was attached as
type Switch struct {
	Device  *indirect.Device
	Profile *chip.Profile
}

// Manager holds the switches served by the API
type Manager struct {
	log     ec.Logger
	journal *journal.Journal

	lock     sync.RWMutex
	switches map[string]*Switch
}

// NewManager creates an empty manager. The journal is optional; without one
// the journal resources are not found.
func NewManager(j *journal.Journal) *Manager {
	return &Manager{
		journal:  j,
		switches: make(map[string]*Switch),
	}
}

// Add serves the device under its name
func (m *Manager) Add(dev *indirect.Device, profile *chip.Profile) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.switches[dev.Name()]; ok {
		return fmt.Errorf("device %s already added", dev.Name())
	}

	m.switches[dev.Name()] = &Switch{Device: dev, Profile: profile}
	return nil
}

func (m *Manager) names() []string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	names := make([]string, 0, len(m.switches))
	for name := range m.switches {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

func (m *Manager) findSwitch(id string) (*Switch, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	s, ok := m.switches[id]
	if !ok {
		return nil, ec.NewErrNotFound().WithResourceType(ResourceDevice).WithCause(fmt.Sprintf("Device %s not found", id))
	}

	return s, nil
}

func (m *Manager) findJournal(id string) (*Switch, *journal.Journal, error) {
	s, err := m.findSwitch(id)
	if err != nil {
		return nil, nil, err
	}

	if m.journal == nil {
		return nil, nil, ec.NewErrNotFound().WithResourceType(ResourceJournal).WithCause("Journal not enabled")
	}

	return s, m.journal, nil
}

// transactionError maps a failed transaction to the response the client sees
func transactionError(err error, resourceType string) error {
	switch indirect.StatusOf(err) {
	case indirect.StatusOK:
		return nil
	case indirect.StatusBadParam:
		return ec.NewErrBadRequest().WithError(err).WithResourceType(resourceType).WithCause(indirect.StatusBadParam.String())
	}

	return ec.NewErrInternalServerError().WithError(err).WithResourceType(resourceType).WithCause(indirect.StatusFail.String())
}

func (m *Manager) deviceGet(id string, model *DeviceModel) error {
	s, err := m.findSwitch(id)
	if err != nil {
		return err
	}

	model.Id = id
	model.Chip = s.Profile.Name
	model.Number = s.Device.Number()
	model.Base = s.Device.Base()
	model.Ports = make([]PortModel, len(s.Profile.Ports))

	for idx, p := range s.Profile.Ports {
		physical, _ := s.Device.Physical(idx)
		model.Ports[idx] = PortModel{Port: idx, Name: p.Name, Type: p.Type, Physical: physical}
	}

	return nil
}

func (m *Manager) registerGet(id string, w indirect.Window, model *RegisterModel) error {
	s, err := m.findSwitch(id)
	if err != nil {
		return err
	}

	switch w {
	case indirect.ExtendedPortControl:
		model.Value, err = s.Device.ExtRead(model.Port, model.Pointer)
	case indirect.FlowControl:
		var v uint8
		v, err = s.Device.FlowCtrlRead(model.Port, model.Pointer)
		model.Value = uint16(v)
	}

	return transactionError(err, ResourcePort)
}

func (m *Manager) registerPut(id string, w indirect.Window, model *RegisterModel) error {
	s, err := m.findSwitch(id)
	if err != nil {
		return err
	}

	switch w {
	case indirect.ExtendedPortControl:
		err = s.Device.ExtWrite(model.Port, model.Pointer, model.Value)
	case indirect.FlowControl:
		if model.Value > 0xFF {
			return ec.NewErrBadRequest().WithResourceType(ResourcePort).WithCause(fmt.Sprintf("Value %#x exceeds 8 bits", model.Value))
		}
		err = s.Device.FlowCtrlWrite(model.Port, model.Pointer, uint8(model.Value))
	}

	return transactionError(err, ResourcePort)
}

func findFeature(name string) (*feature.Feature, error) {
	f, err := feature.Lookup(name)
	if err != nil {
		return nil, ec.NewErrNotFound().WithError(err).WithResourceType(ResourceFeature).WithCause(fmt.Sprintf("Feature %s not found", name))
	}

	return f, nil
}

func (m *Manager) featureGet(id string, port int, model *FeatureModel) error {
	s, err := m.findSwitch(id)
	if err != nil {
		return err
	}

	f, err := findFeature(model.Id)
	if err != nil {
		return err
	}

	model.Id = f.Name
	model.Description = f.Description
	model.Value, err = f.Get(s.Device, port, model.Index)

	return transactionError(err, ResourceFeature)
}

func (m *Manager) featurePut(id string, port int, model *FeatureModel) error {
	s, err := m.findSwitch(id)
	if err != nil {
		return err
	}

	f, err := findFeature(model.Id)
	if err != nil {
		return err
	}

	if err := f.Set(s.Device, port, model.Index, model.Value); err != nil {
		return transactionError(err, ResourceFeature)
	}

	model.Id = f.Name
	model.Description = f.Description

	return nil
}

func (m *Manager) journalGet(id string, model *JournalModel) error {
	_, j, err := m.findJournal(id)
	if err != nil {
		return err
	}

	metadata, entries, err := j.Entries(id)
	if err != nil {
		return ec.NewErrNotFound().WithError(err).WithResourceType(ResourceJournal).WithCause(fmt.Sprintf("Journal of device %s not found", id))
	}

	model.Chip = metadata.Chip
	model.Session = metadata.Session
	model.Entries = entries

	return nil
}

func (m *Manager) journalRestore(id string, model *JournalActionModel) error {
	s, j, err := m.findJournal(id)
	if err != nil {
		return err
	}

	model.Entries, err = j.Restore(s.Device)
	if err != nil {
		return ec.NewErrInternalServerError().WithError(err).WithResourceType(ResourceJournal).WithCause("Restore failed")
	}

	return nil
}

func (m *Manager) journalCompact(id string, model *JournalActionModel) error {
	_, j, err := m.findJournal(id)
	if err != nil {
		return err
	}

	model.Entries, err = j.Compact(id)
	if err != nil {
		return ec.NewErrInternalServerError().WithError(err).WithResourceType(ResourceJournal).WithCause("Compact failed")
	}

	return nil
}
