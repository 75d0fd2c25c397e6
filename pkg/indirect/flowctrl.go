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
)

// FlowCtrlWrite writes an 8 bit value to a Flow-Control / Limit-Pause
// sub-register. The pointer must fit the 7 bit pointer field.
func (d *Device) FlowCtrlWrite(port int, pointer uint8, data uint8) error {
	t := transaction{window: FlowControl, op: "write", port: port, pointer: pointer}

	if err := checkFlowCtrlPointer(t); err != nil {
		return err
	}

	return d.run(t, func(phys uint8) error {
		if err := d.flowCtrlWrite(phys, pointer, data); err != nil {
			return err
		}

		d.notify(FlowControl, port, pointer, uint16(data))
		return nil
	})
}

// FlowCtrlRead latches a Flow-Control / Limit-Pause sub-register and returns
// its 8 bit value.
func (d *Device) FlowCtrlRead(port int, pointer uint8) (uint8, error) {
	t := transaction{window: FlowControl, op: "read", port: port, pointer: pointer}

	if err := checkFlowCtrlPointer(t); err != nil {
		return 0, err
	}

	var data uint8
	err := d.run(t, func(phys uint8) (err error) {
		data, err = d.flowCtrlRead(phys, pointer)
		return err
	})

	return data, err
}

// FlowCtrlUpdate reads the sub-register, applies fn, and writes the result back
// without releasing the device in between.
func (d *Device) FlowCtrlUpdate(port int, pointer uint8, fn func(uint8) uint8) error {
	t := transaction{window: FlowControl, op: "update", port: port, pointer: pointer}

	if err := checkFlowCtrlPointer(t); err != nil {
		return err
	}

	return d.run(t, func(phys uint8) error {
		old, err := d.flowCtrlRead(phys, pointer)
		if err != nil {
			return err
		}

		data := fn(old)
		if err := d.flowCtrlWrite(phys, pointer, data); err != nil {
			return err
		}

		d.notify(FlowControl, port, pointer, uint16(data))
		return nil
	})
}

func checkFlowCtrlPointer(t transaction) error {
	if t.pointer > FlowCtrlMaxPointer {
		return newError(StatusBadParam, t.window, t.op, t.port, t.pointer,
			fmt.Errorf("pointer %#02x exceeds %#02x: %w", t.pointer, FlowCtrlMaxPointer, ErrBadParam))
	}
	return nil
}

func (d *Device) flowCtrlWrite(phys, pointer, data uint8) error {
	if err := d.waitIdle(phys, d.layout.FlowCtrl, d.budgets.FlowCtrlWriteIdle); err != nil {
		return fmt.Errorf("waiting for idle: %w", err)
	}

	if err := d.flowCtrlIssue(phys, 1, pointer, data); err != nil {
		return err
	}

	if err := d.waitIdle(phys, d.layout.FlowCtrl, d.budgets.Completion); err != nil {
		return fmt.Errorf("waiting for completion: %w", err)
	}

	return nil
}

func (d *Device) flowCtrlRead(phys, pointer uint8) (uint8, error) {
	if err := d.waitIdle(phys, d.layout.FlowCtrl, d.budgets.FlowCtrlReadIdle); err != nil {
		return 0, fmt.Errorf("waiting for idle: %w", err)
	}

	// A pointer written with busy clear latches the sub-register into the
	// data field of the same register.
	if err := d.flowCtrlIssue(phys, 0, pointer, 0); err != nil {
		return 0, err
	}

	if err := d.waitIdle(phys, d.layout.FlowCtrl, d.budgets.Completion); err != nil {
		return 0, fmt.Errorf("waiting for completion: %w", err)
	}

	reg, err := d.readRegister(phys, d.layout.FlowCtrl)
	if err != nil {
		return 0, fmt.Errorf("reading operation register: %w", err)
	}

	op := new(flowCtrlOperation)
	if err := decodeRegister(reg, op); err != nil {
		return 0, fmt.Errorf("decoding operation register: %w", err)
	}

	return uint8(op.Data), nil
}

func (d *Device) flowCtrlIssue(phys uint8, busy uint16, pointer, data uint8) error {
	op, err := encodeRegister(&flowCtrlOperation{
		Busy:    busy,
		Pointer: uint16(pointer),
		Data:    uint16(data),
	})
	if err != nil {
		return fmt.Errorf("encoding operation: %w", err)
	}

	if err := d.writeRegister(phys, d.layout.FlowCtrl, op); err != nil {
		return fmt.Errorf("writing operation register: %w", err)
	}

	return nil
}
