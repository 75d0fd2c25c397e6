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

package indirect

import (
	"fmt"
	"sync"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/register"
)

// MockAccessor simulates the mailbox registers of the indirect windows on top
// of a register.MockAccessor. Sub-register values are kept per port address.
// Commands stay busy for a configurable number of polls.
//
// The simulator also checks the protocol: it records a violation whenever a
// device sees a mailbox access that does not belong to the transaction in
// flight on that device.
type MockAccessor struct {
	*register.MockAccessor

	layout Layout

	lock       sync.Mutex
	latency    int
	stuck      bool
	hold       int
	mailboxes  map[mailboxKey]*mockMailbox
	devices    map[uint8]*mockDevice
	violations []string
}

type mailboxKey struct {
	device   uint8
	physical uint8
}

func (k mailboxKey) String() string {
	return fmt.Sprintf("%d:%#02x", k.device, k.physical)
}

type mockMailbox struct {
	extCmd     uint16
	extData    uint16
	extBusy    int
	extPending bool
	extOpcode  uint16
	extDone    bool // READ completed, data register not yet fetched

	fcReg     uint16
	fcBusy    int
	fcPending bool

	ext map[uint8]uint16
	fc  map[uint8]uint8
}

type mockDevice struct {
	active *mailboxKey
	staged bool
}

func NewMockAccessor(layout Layout) *MockAccessor {
	return &MockAccessor{
		MockAccessor: register.NewMockAccessor(),
		layout:       layout,
		latency:      1,
		mailboxes:    make(map[mailboxKey]*mockMailbox),
		devices:      make(map[uint8]*mockDevice),
	}
}

// SetLatency sets the number of polls a command reads busy after it is issued
func (m *MockAccessor) SetLatency(polls int) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.latency = polls
}

// SetStuck makes every mailbox poll read busy
func (m *MockAccessor) SetStuck(stuck bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.stuck = stuck
}

// HoldBusy makes the next n mailbox polls read busy, wherever they are
// made.
func (m *MockAccessor) HoldBusy(n int) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.hold = n
}

// Violations returns the protocol violations seen so far
func (m *MockAccessor) Violations() []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	v := make([]string, len(m.violations))
	copy(v, m.violations)
	return v
}

// ExtValue returns an Extended Port Control sub-register without an access
func (m *MockAccessor) ExtValue(devNum, phyAddr, pointer uint8) uint16 {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.mailbox(mailboxKey{devNum, phyAddr}).ext[pointer]
}

func (m *MockAccessor) SetExtValue(devNum, phyAddr, pointer uint8, data uint16) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.mailbox(mailboxKey{devNum, phyAddr}).ext[pointer] = data
}

// FlowCtrlValue returns a Flow-Control sub-register without an access
func (m *MockAccessor) FlowCtrlValue(devNum, phyAddr, pointer uint8) uint8 {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.mailbox(mailboxKey{devNum, phyAddr}).fc[pointer]
}

func (m *MockAccessor) SetFlowCtrlValue(devNum, phyAddr, pointer uint8, data uint8) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.mailbox(mailboxKey{devNum, phyAddr}).fc[pointer] = data
}

func (m *MockAccessor) isMailbox(regAddr uint8) bool {
	return regAddr == m.layout.ExtCommand || regAddr == m.layout.ExtData || regAddr == m.layout.FlowCtrl
}

func (m *MockAccessor) ReadRegister(devNum, phyAddr, regAddr uint8) (uint16, error) {
	if !m.isMailbox(regAddr) {
		return m.MockAccessor.ReadRegister(devNum, phyAddr, regAddr)
	}

	addr := register.Address{Device: devNum, Physical: phyAddr, Register: regAddr}
	if err := m.Fault(addr); err != nil {
		return 0, err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	key := mailboxKey{devNum, phyAddr}
	mb := m.mailbox(key)
	dev := m.device(devNum)

	m.check(dev, key, register.ReadOp, regAddr)

	var data uint16
	switch regAddr {
	case m.layout.ExtCommand:
		data = m.poll(&mb.extBusy, mb.extCmd)
		if data&busyBit == 0 && mb.extPending {
			mb.extPending = false
			if mb.extOpcode == extOpcodeRead {
				mb.extDone = true
			} else {
				dev.active = nil
			}
		}

	case m.layout.ExtData:
		if !mb.extDone {
			m.violate("%s: data register read without a completed READ", key)
		}
		mb.extDone = false
		if dev.active != nil && *dev.active == key {
			dev.active = nil
		}
		data = mb.extData

	case m.layout.FlowCtrl:
		data = m.poll(&mb.fcBusy, mb.fcReg)
		if data&busyBit == 0 && mb.fcPending {
			mb.fcPending = false
			dev.active = nil
		}
	}

	m.Record(register.Access{Op: register.ReadOp, Address: addr, Data: data})

	return data, nil
}

func (m *MockAccessor) WriteRegister(devNum, phyAddr, regAddr uint8, data uint16) error {
	if !m.isMailbox(regAddr) {
		return m.MockAccessor.WriteRegister(devNum, phyAddr, regAddr, data)
	}

	addr := register.Address{Device: devNum, Physical: phyAddr, Register: regAddr}
	if err := m.Fault(addr); err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	key := mailboxKey{devNum, phyAddr}
	mb := m.mailbox(key)
	dev := m.device(devNum)

	m.check(dev, key, register.WriteOp, regAddr)

	switch regAddr {
	case m.layout.ExtData:
		if dev.active != nil {
			m.violate("%s: data register written while %s in flight", key, dev.active)
		}
		mb.extData = data
		dev.active = &key
		dev.staged = true

	case m.layout.ExtCommand:
		if dev.active != nil && !(dev.staged && *dev.active == key) {
			m.violate("%s: command issued while %s in flight", key, dev.active)
		}
		dev.staged = false
		dev.active = &key

		cmd := new(extCommand)
		if err := decodeRegister(data, cmd); err != nil {
			return err
		}

		switch cmd.Opcode {
		case extOpcodeWrite:
			mb.ext[uint8(cmd.Pointer)] = mb.extData
		case extOpcodeRead:
			mb.extData = mb.ext[uint8(cmd.Pointer)]
		default:
			m.violate("%s: unknown opcode %d", key, cmd.Opcode)
		}

		mb.extCmd = data
		mb.extOpcode = cmd.Opcode
		mb.extPending = true
		mb.extDone = false
		mb.extBusy = m.latency

	case m.layout.FlowCtrl:
		if dev.active != nil {
			m.violate("%s: operation issued while %s in flight", key, dev.active)
		}
		dev.active = &key

		op := new(flowCtrlOperation)
		if err := decodeRegister(data, op); err != nil {
			return err
		}

		if op.Busy != 0 {
			mb.fc[uint8(op.Pointer)] = uint8(op.Data)
			mb.fcReg = data
		} else {
			mb.fcReg = op.Pointer<<8 | uint16(mb.fc[uint8(op.Pointer)])
		}

		mb.fcPending = true
		mb.fcBusy = m.latency
	}

	m.Record(register.Access{Op: register.WriteOp, Address: addr, Data: data})

	return nil
}

// poll returns the register as a busy bit poll sees it
func (m *MockAccessor) poll(busy *int, reg uint16) uint16 {
	if m.stuck {
		return reg | busyBit
	}

	if m.hold > 0 {
		m.hold--
		return reg | busyBit
	}

	if *busy > 0 {
		*busy--
		return reg | busyBit
	}

	return reg &^ busyBit
}

// check flags any access to a device other than the one that continues the
// transaction in flight.
func (m *MockAccessor) check(dev *mockDevice, key mailboxKey, op register.AccessOp, regAddr uint8) {
	if dev.active != nil && *dev.active != key {
		m.violate("%s: %s register %#02x while %s in flight", key, op, regAddr, dev.active)
		return
	}

	if dev.staged && !(op == register.WriteOp && regAddr == m.layout.ExtCommand) {
		m.violate("%s: %s register %#02x between data staging and WRITE issue", key, op, regAddr)
	}
}

func (m *MockAccessor) violate(format string, a ...interface{}) {
	m.violations = append(m.violations, fmt.Sprintf(format, a...))
}

func (m *MockAccessor) mailbox(key mailboxKey) *mockMailbox {
	mb, ok := m.mailboxes[key]
	if !ok {
		mb = &mockMailbox{
			ext: make(map[uint8]uint16),
			fc:  make(map[uint8]uint8),
		}
		m.mailboxes[key] = mb
	}
	return mb
}

func (m *MockAccessor) device(devNum uint8) *mockDevice {
	dev, ok := m.devices[devNum]
	if !ok {
		dev = new(mockDevice)
		m.devices[devNum] = dev
	}
	return dev
}
