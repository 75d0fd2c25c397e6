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

	"github.com/NearNodeFlash/nnf-ethsw/pkg/chip"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/feature"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
)

// FeatureCmd gets and sets the named port features
type FeatureCmd struct {
	List FeatureListCmd `kong:"cmd,help='List the features.'"`
	Get  FeatureGetCmd  `kong:"cmd,help='Get a feature of a port.'"`
	Set  FeatureSetCmd  `kong:"cmd,help='Set a feature of a port.'"`
}

type FeatureListCmd struct{}

func (cmd *FeatureListCmd) Run(ctx *Context) error {
	for _, name := range feature.Names() {
		f, _ := feature.Lookup(name)

		indexed := ""
		if f.Indexed {
			indexed = "(indexed)"
		}

		fmt.Fprintf(ctx.out(), "%-16s %-20s %-10s %s\n", f.Name, f.Window, indexed, f.Description)
	}

	return nil
}

type FeatureGetCmd struct {
	Device  string `kong:"arg,required,help='Device name.'"`
	Port    int    `kong:"arg,required,help='Logical port.'"`
	Feature string `kong:"arg,required,help='Feature name.'"`
	Index   int    `kong:"optional,short='i',help='Priority of an indexed feature.'"`
}

func (cmd *FeatureGetCmd) Run(ctx *Context) error {
	f, err := feature.Lookup(cmd.Feature)
	if err != nil {
		return err
	}

	return runDevice(ctx, cmd.Device, func(_ *System, dev *indirect.Device) error {
		v, err := f.Get(dev, cmd.Port, cmd.Index)
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.out(), "%-16s : %d (%#x)\n", f.Name, v, v)
		return nil
	})
}

type FeatureSetCmd struct {
	Device  string `kong:"arg,required,help='Device name.'"`
	Port    int    `kong:"arg,required,help='Logical port.'"`
	Feature string `kong:"arg,required,help='Feature name.'"`
	Value   string `kong:"arg,required,help='Feature value.'"`
	Index   int    `kong:"optional,short='i',help='Priority of an indexed feature.'"`
}

func (cmd *FeatureSetCmd) Run(ctx *Context) error {
	f, err := feature.Lookup(cmd.Feature)
	if err != nil {
		return err
	}

	value, err := parseUint(cmd.Value, 16)
	if err != nil {
		return err
	}

	return runDevice(ctx, cmd.Device, func(_ *System, dev *indirect.Device) error {
		return f.Set(dev, cmd.Port, cmd.Index, uint16(value))
	})
}

// ChipsCmd lists the chips of the family
type ChipsCmd struct{}

func (cmd *ChipsCmd) Run(ctx *Context) error {
	profiles, err := chip.Profiles()
	if err != nil {
		return err
	}

	for idx := range profiles {
		p := &profiles[idx]
		layout := p.Layout()

		fmt.Fprintf(ctx.out(), "%s: %s\n", p.Name, p.Description)
		fmt.Fprintf(ctx.out(), "  %-24s : %d (cpu %d)\n", "Ports", p.PortCount(), p.CpuPort())
		fmt.Fprintf(ctx.out(), "  %-24s : %#02x\n", "Ext Command Register", layout.ExtCommand)
		fmt.Fprintf(ctx.out(), "  %-24s : %#02x\n", "Ext Data Register", layout.ExtData)
		fmt.Fprintf(ctx.out(), "  %-24s : %#02x\n", "Flow-Control Register", layout.FlowCtrl)
	}

	return nil
}
