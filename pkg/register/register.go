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

// Package register provides direct access to the 16-bit registers of a switch
// device. Registers are addressed by the device number, the physical (SMI)
// address of the port or global block, and the register index within that
// address.
package register

import (
	"fmt"
)

const (
	// RegisterWidth is the width, in bits, of every directly addressable register
	RegisterWidth = 16

	// MaxPhysicalAddress is the largest address reachable on the SMI bus
	MaxPhysicalAddress = 0x1F

	// MaxRegisterAddress is the largest register index within a physical address
	MaxRegisterAddress = 0x1F
)

// Accessor defines the raw register operations unique to a particular transport.
//   - MDIO ioctl on a network interface (i.e. eth0)
//   - in-memory register file for test and simulation
type Accessor interface {
	ReadRegister(devNum, phyAddr, regAddr uint8) (uint16, error)
	WriteRegister(devNum, phyAddr, regAddr uint8, data uint16) error
}

// Field describes a bit-field of size bits starting at bit offset within a register
type Field struct {
	Offset uint8
	Size   uint8
}

func (f Field) mask() (uint16, error) {
	if f.Size == 0 || int(f.Offset)+int(f.Size) > RegisterWidth {
		return 0, fmt.Errorf("field offset %d size %d exceeds register width %d", f.Offset, f.Size, RegisterWidth)
	}

	return uint16((uint32(1)<<f.Size)-1) << f.Offset, nil
}

// Extract returns the field's value from the register value
func (f Field) Extract(reg uint16) (uint16, error) {
	mask, err := f.mask()
	if err != nil {
		return 0, err
	}

	return (reg & mask) >> f.Offset, nil
}

// Insert returns the register value with the field replaced by data. Data wider
// than the field is an error rather than being silently truncated.
func (f Field) Insert(reg uint16, data uint16) (uint16, error) {
	mask, err := f.mask()
	if err != nil {
		return 0, err
	}

	if uint32(data) >= uint32(1)<<f.Size {
		return 0, fmt.Errorf("value %#x does not fit in %d bit field", data, f.Size)
	}

	return (reg &^ mask) | ((data << f.Offset) & mask), nil
}

// ValidateAddress checks the physical and register address are reachable on the bus
func ValidateAddress(phyAddr, regAddr uint8) error {
	if phyAddr > MaxPhysicalAddress {
		return fmt.Errorf("physical address %#02x exceeds %#02x", phyAddr, MaxPhysicalAddress)
	}
	if regAddr > MaxRegisterAddress {
		return fmt.Errorf("register address %#02x exceeds %#02x", regAddr, MaxRegisterAddress)
	}
	return nil
}
