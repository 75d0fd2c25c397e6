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

// Package feature holds per-port settings reached through the indirect
// windows.
package feature

import (
	"fmt"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/register"
)

// Windows is the indirect access surface of an attached device
type Windows interface {
	ExtRead(port int, pointer uint8) (uint16, error)
	ExtWrite(port int, pointer uint8, data uint16) error
	ExtUpdate(port int, pointer uint8, fn func(uint16) uint16) error

	FlowCtrlRead(port int, pointer uint8) (uint8, error)
	FlowCtrlWrite(port int, pointer uint8, data uint8) error
	FlowCtrlUpdate(port int, pointer uint8, fn func(uint8) uint8) error
}

var _ Windows = (*indirect.Device)(nil)

// Extended Port Control pointers
const (
	EtherTypePointer uint8 = 0x00
	MTUPointer       uint8 = 0x01
	ECIDPointer      uint8 = 0x02
)

// Flow-Control / Limit-Pause pointers
const (
	PauseLimitInPointer        uint8 = 0x00
	PauseLimitOutPointer       uint8 = 0x01
	PriorityFlowControlPointer uint8 = 0x08
	QueueToPauseBase           uint8 = 0x10
)

const (
	MinMTU = 64
	MaxMTU = 10240

	MaxPriority = 7
)

var ecidField = register.Field{Offset: 0, Size: 12}

func badParam(format string, a ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), indirect.ErrBadParam)
}

func checkPriority(priority int) error {
	if priority < 0 || priority > MaxPriority {
		return badParam("priority %d out of range 0..%d", priority, MaxPriority)
	}
	return nil
}

// EtherType returns the port's ether type used for DSA tagged frames
func EtherType(w Windows, port int) (uint16, error) {
	return w.ExtRead(port, EtherTypePointer)
}

func SetEtherType(w Windows, port int, etherType uint16) error {
	return w.ExtWrite(port, EtherTypePointer, etherType)
}

// MTU returns the largest frame, in bytes, the port accepts
func MTU(w Windows, port int) (uint16, error) {
	return w.ExtRead(port, MTUPointer)
}

func SetMTU(w Windows, port int, mtu uint16) error {
	if mtu < MinMTU || mtu > MaxMTU {
		return badParam("mtu %d out of range %d..%d", mtu, MinMTU, MaxMTU)
	}

	return w.ExtWrite(port, MTUPointer, mtu)
}

// ECID returns the port's 12 bit E-Channel identifier
func ECID(w Windows, port int) (uint16, error) {
	reg, err := w.ExtRead(port, ECIDPointer)
	if err != nil {
		return 0, err
	}

	return ecidField.Extract(reg)
}

// SetECID writes the E-Channel identifier, preserving the remaining bits of
// the sub-register.
func SetECID(w Windows, port int, ecid uint16) error {
	if ecid >= 1<<ecidField.Size {
		return badParam("ecid %#x exceeds %d bits", ecid, ecidField.Size)
	}

	var insertErr error
	err := w.ExtUpdate(port, ECIDPointer, func(reg uint16) uint16 {
		v, err := ecidField.Insert(reg, ecid)
		if err != nil {
			insertErr = err
			return reg
		}
		return v
	})
	if err != nil {
		return err
	}

	return insertErr
}

func PauseLimitIn(w Windows, port int) (uint8, error) {
	return w.FlowCtrlRead(port, PauseLimitInPointer)
}

func SetPauseLimitIn(w Windows, port int, limit uint8) error {
	return w.FlowCtrlWrite(port, PauseLimitInPointer, limit)
}

func PauseLimitOut(w Windows, port int) (uint8, error) {
	return w.FlowCtrlRead(port, PauseLimitOutPointer)
}

func SetPauseLimitOut(w Windows, port int, limit uint8) error {
	return w.FlowCtrlWrite(port, PauseLimitOutPointer, limit)
}

// PriorityFlowControl reports whether 802.1Qbb flow control is enabled for
// the priority on the port.
func PriorityFlowControl(w Windows, port int, priority int) (bool, error) {
	if err := checkPriority(priority); err != nil {
		return false, err
	}

	v, err := w.FlowCtrlRead(port, PriorityFlowControlPointer)
	if err != nil {
		return false, err
	}

	return v&(1<<priority) != 0, nil
}

func SetPriorityFlowControl(w Windows, port int, priority int, enable bool) error {
	if err := checkPriority(priority); err != nil {
		return err
	}

	return w.FlowCtrlUpdate(port, PriorityFlowControlPointer, func(v uint8) uint8 {
		if enable {
			return v | 1<<priority
		}
		return v &^ (1 << priority)
	})
}

// QueueToPause returns the bit map of egress queues paused by a PFC frame
// for the priority.
func QueueToPause(w Windows, port int, priority int) (uint8, error) {
	if err := checkPriority(priority); err != nil {
		return 0, err
	}

	return w.FlowCtrlRead(port, QueueToPauseBase+uint8(priority))
}

func SetQueueToPause(w Windows, port int, priority int, queues uint8) error {
	if err := checkPriority(priority); err != nil {
		return err
	}

	return w.FlowCtrlWrite(port, QueueToPauseBase+uint8(priority), queues)
}
