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

// ExtWrite writes a 16 bit value to an Extended Port Control sub-register.
func (d *Device) ExtWrite(port int, pointer uint8, data uint16) error {
	t := transaction{window: ExtendedPortControl, op: "write", port: port, pointer: pointer}

	return d.run(t, func(phys uint8) error {
		if err := d.extWrite(phys, pointer, data); err != nil {
			return err
		}

		d.notify(ExtendedPortControl, port, pointer, data)
		return nil
	})
}

// ExtRead reads a 16 bit value from an Extended Port Control sub-register.
func (d *Device) ExtRead(port int, pointer uint8) (uint16, error) {
	t := transaction{window: ExtendedPortControl, op: "read", port: port, pointer: pointer}

	var data uint16
	err := d.run(t, func(phys uint8) (err error) {
		data, err = d.extRead(phys, pointer)
		return err
	})

	return data, err
}

// ExtUpdate reads the sub-register, applies fn, and writes the result back
// without releasing the device in between.
func (d *Device) ExtUpdate(port int, pointer uint8, fn func(uint16) uint16) error {
	t := transaction{window: ExtendedPortControl, op: "update", port: port, pointer: pointer}

	return d.run(t, func(phys uint8) error {
		old, err := d.extRead(phys, pointer)
		if err != nil {
			return err
		}

		data := fn(old)
		if err := d.extWrite(phys, pointer, data); err != nil {
			return err
		}

		d.notify(ExtendedPortControl, port, pointer, data)
		return nil
	})
}

func (d *Device) extWrite(phys, pointer uint8, data uint16) error {
	if err := d.waitIdle(phys, d.layout.ExtCommand, d.budgets.ExtWriteIdle); err != nil {
		return fmt.Errorf("waiting for idle: %w", err)
	}

	if err := d.writeRegister(phys, d.layout.ExtData, data); err != nil {
		return fmt.Errorf("writing data register: %w", err)
	}

	if err := d.extIssue(phys, extOpcodeWrite, pointer); err != nil {
		return err
	}

	if err := d.waitIdle(phys, d.layout.ExtCommand, d.budgets.Completion); err != nil {
		return fmt.Errorf("waiting for completion: %w", err)
	}

	return nil
}

func (d *Device) extRead(phys, pointer uint8) (uint16, error) {
	if err := d.waitIdle(phys, d.layout.ExtCommand, d.budgets.ExtReadIdle); err != nil {
		return 0, fmt.Errorf("waiting for idle: %w", err)
	}

	if err := d.extIssue(phys, extOpcodeRead, pointer); err != nil {
		return 0, err
	}

	if err := d.waitIdle(phys, d.layout.ExtCommand, d.budgets.Completion); err != nil {
		return 0, fmt.Errorf("waiting for completion: %w", err)
	}

	data, err := d.readRegister(phys, d.layout.ExtData)
	if err != nil {
		return 0, fmt.Errorf("reading data register: %w", err)
	}

	return data, nil
}

func (d *Device) extIssue(phys uint8, opcode uint16, pointer uint8) error {
	cmd, err := encodeRegister(&extCommand{
		Busy:    1,
		Opcode:  opcode,
		Pointer: uint16(pointer),
	})
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	if err := d.writeRegister(phys, d.layout.ExtCommand, cmd); err != nil {
		return fmt.Errorf("writing command register: %w", err)
	}

	return nil
}
