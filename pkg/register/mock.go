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

package register

import (
	"fmt"
	"sync"
)

type AccessOp int

const (
	ReadOp AccessOp = iota
	WriteOp
)

func (op AccessOp) String() string {
	if op == WriteOp {
		return "W"
	}
	return "R"
}

// Address identifies a single register
type Address struct {
	Device   uint8
	Physical uint8
	Register uint8
}

func (a Address) String() string {
	return fmt.Sprintf("%d:%#02x:%#02x", a.Device, a.Physical, a.Register)
}

// Access is one recorded register operation
type Access struct {
	Op      AccessOp
	Address Address
	Data    uint16
}

func (a Access) String() string {
	return fmt.Sprintf("%s %s %#04x", a.Op, a.Address, a.Data)
}

// MockAccessor is an in-memory register file. Every access made through the
// Accessor interface is recorded in program order.
type MockAccessor struct {
	lock   sync.Mutex
	regs   map[Address]uint16
	errs   map[Address]error
	calls  []Access
	record bool
}

func NewMockAccessor() *MockAccessor {
	return &MockAccessor{
		regs:   make(map[Address]uint16),
		errs:   make(map[Address]error),
		record: true,
	}
}

func (m *MockAccessor) ReadRegister(devNum, phyAddr, regAddr uint8) (uint16, error) {
	addr := Address{Device: devNum, Physical: phyAddr, Register: regAddr}

	m.lock.Lock()
	defer m.lock.Unlock()

	if err, ok := m.errs[addr]; ok {
		return 0, err
	}

	data := m.regs[addr]
	m.appendLocked(Access{Op: ReadOp, Address: addr, Data: data})

	return data, nil
}

func (m *MockAccessor) WriteRegister(devNum, phyAddr, regAddr uint8, data uint16) error {
	addr := Address{Device: devNum, Physical: phyAddr, Register: regAddr}

	m.lock.Lock()
	defer m.lock.Unlock()

	if err, ok := m.errs[addr]; ok {
		return err
	}

	m.regs[addr] = data
	m.appendLocked(Access{Op: WriteOp, Address: addr, Data: data})

	return nil
}

// Load returns a register's value without recording an access
func (m *MockAccessor) Load(addr Address) uint16 {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.regs[addr]
}

// Store sets a register's value without recording an access
func (m *MockAccessor) Store(addr Address, data uint16) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.regs[addr] = data
}

// Record appends an access to the call log. Accessors layered on top of the
// register file use this to log accesses they serve themselves.
func (m *MockAccessor) Record(a Access) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.appendLocked(a)
}

func (m *MockAccessor) appendLocked(a Access) {
	if m.record {
		m.calls = append(m.calls, a)
	}
}

// InjectError makes every access to the register fail with err. A nil err
// clears the injected error.
func (m *MockAccessor) InjectError(addr Address, err error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err == nil {
		delete(m.errs, addr)
		return
	}

	m.errs[addr] = err
}

// Fault returns the error injected for the register, if any
func (m *MockAccessor) Fault(addr Address) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.errs[addr]
}

// Calls returns a copy of the recorded accesses
func (m *MockAccessor) Calls() []Access {
	m.lock.Lock()
	defer m.lock.Unlock()

	calls := make([]Access, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of recorded accesses
func (m *MockAccessor) CallCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.calls)
}

// ResetCalls clears the call log
func (m *MockAccessor) ResetCalls() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.calls = nil
}

// SetRecording enables or disables the call log
func (m *MockAccessor) SetRecording(enable bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.record = enable
}
