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
	"strconv"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
)

// parseUint accepts decimal or 0x prefixed values
func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid value '%s': %w", s, err)
	}

	return v, nil
}

// ExtCmd accesses the Extended Port Control window
type ExtCmd struct {
	Read  ExtReadCmd  `kong:"cmd,help='Read an Extended Port Control sub-register.'"`
	Write ExtWriteCmd `kong:"cmd,help='Write an Extended Port Control sub-register.'"`
}

type ExtReadCmd struct {
	Device  string `kong:"arg,required,help='Device name.'"`
	Port    int    `kong:"arg,required,help='Logical port.'"`
	Pointer string `kong:"arg,required,help='Sub-register pointer.'"`
}

func (cmd *ExtReadCmd) Run(ctx *Context) error {
	pointer, err := parseUint(cmd.Pointer, 8)
	if err != nil {
		return err
	}

	return runDevice(ctx, cmd.Device, func(_ *System, dev *indirect.Device) error {
		v, err := dev.ExtRead(cmd.Port, uint8(pointer))
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.out(), "%-16s : %#04x\n", fmt.Sprintf("Port %d [%#02x]", cmd.Port, pointer), v)
		return nil
	})
}

type ExtWriteCmd struct {
	Device  string `kong:"arg,required,help='Device name.'"`
	Port    int    `kong:"arg,required,help='Logical port.'"`
	Pointer string `kong:"arg,required,help='Sub-register pointer.'"`
	Value   string `kong:"arg,required,help='16 bit value.'"`
}

func (cmd *ExtWriteCmd) Run(ctx *Context) error {
	pointer, err := parseUint(cmd.Pointer, 8)
	if err != nil {
		return err
	}

	value, err := parseUint(cmd.Value, 16)
	if err != nil {
		return err
	}

	return runDevice(ctx, cmd.Device, func(_ *System, dev *indirect.Device) error {
		return dev.ExtWrite(cmd.Port, uint8(pointer), uint16(value))
	})
}

// FcCmd accesses the Flow-Control window
type FcCmd struct {
	Read  FcReadCmd  `kong:"cmd,help='Read a Flow-Control sub-register.'"`
	Write FcWriteCmd `kong:"cmd,help='Write a Flow-Control sub-register.'"`
}

type FcReadCmd struct {
	Device  string `kong:"arg,required,help='Device name.'"`
	Port    int    `kong:"arg,required,help='Logical port.'"`
	Pointer string `kong:"arg,required,help='Sub-register pointer (0-127).'"`
}

func (cmd *FcReadCmd) Run(ctx *Context) error {
	pointer, err := parseUint(cmd.Pointer, 8)
	if err != nil {
		return err
	}

	return runDevice(ctx, cmd.Device, func(_ *System, dev *indirect.Device) error {
		v, err := dev.FlowCtrlRead(cmd.Port, uint8(pointer))
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.out(), "%-16s : %#02x\n", fmt.Sprintf("Port %d [%#02x]", cmd.Port, pointer), v)
		return nil
	})
}

type FcWriteCmd struct {
	Device  string `kong:"arg,required,help='Device name.'"`
	Port    int    `kong:"arg,required,help='Logical port.'"`
	Pointer string `kong:"arg,required,help='Sub-register pointer (0-127).'"`
	Value   string `kong:"arg,required,help='8 bit value.'"`
}

func (cmd *FcWriteCmd) Run(ctx *Context) error {
	pointer, err := parseUint(cmd.Pointer, 8)
	if err != nil {
		return err
	}

	value, err := parseUint(cmd.Value, 8)
	if err != nil {
		return err
	}

	return runDevice(ctx, cmd.Device, func(_ *System, dev *indirect.Device) error {
		return dev.FlowCtrlWrite(cmd.Port, uint8(pointer), uint8(value))
	})
}

// StatusCmd reports the transaction status of a read of every port, as a
// quick check the windows respond.
type StatusCmd struct {
	Device string `kong:"arg,required,help='Device name.'"`
}

func (cmd *StatusCmd) Run(ctx *Context) error {
	return runDevice(ctx, cmd.Device, func(s *System, dev *indirect.Device) error {
		profile := s.Profile(dev.Name())

		for port := range profile.Ports {
			_, extErr := dev.ExtRead(port, 0)
			_, fcErr := dev.FlowCtrlRead(port, 0)

			fmt.Fprintf(ctx.out(), "Port %2d %-8s : ext %-9s fc %s\n", port, profile.Ports[port].Name,
				indirect.StatusOf(extErr), indirect.StatusOf(fcErr))
		}

		return nil
	})
}
