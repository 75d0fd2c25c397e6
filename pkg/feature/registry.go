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

package feature

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
)

// Feature is a named setting with uniform accessors, used by the command line
// and the REST API. Indexed features take a priority; the rest ignore it.
type Feature struct {
	Name        string
	Description string
	Window      indirect.Window
	Indexed     bool

	Get func(w Windows, port int, index int) (uint16, error)
	Set func(w Windows, port int, index int, value uint16) error
}

func byte8(value uint16) (uint8, error) {
	if value > math.MaxUint8 {
		return 0, badParam("value %#x exceeds 8 bits", value)
	}
	return uint8(value), nil
}

func boolean(value uint16) (bool, error) {
	switch value {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, badParam("value %d is not a boolean", value)
}

var features = []Feature{
	{
		Name:        "ethertype",
		Description: "DSA ether type",
		Window:      indirect.ExtendedPortControl,
		Get:         func(w Windows, port, _ int) (uint16, error) { return EtherType(w, port) },
		Set:         func(w Windows, port, _ int, v uint16) error { return SetEtherType(w, port, v) },
	},
	{
		Name:        "mtu",
		Description: "Maximum frame size in bytes",
		Window:      indirect.ExtendedPortControl,
		Get:         func(w Windows, port, _ int) (uint16, error) { return MTU(w, port) },
		Set:         func(w Windows, port, _ int, v uint16) error { return SetMTU(w, port, v) },
	},
	{
		Name:        "ecid",
		Description: "12 bit E-Channel identifier",
		Window:      indirect.ExtendedPortControl,
		Get:         func(w Windows, port, _ int) (uint16, error) { return ECID(w, port) },
		Set:         func(w Windows, port, _ int, v uint16) error { return SetECID(w, port, v) },
	},
	{
		Name:        "pause-limit-in",
		Description: "Ingress pause limit",
		Window:      indirect.FlowControl,
		Get: func(w Windows, port, _ int) (uint16, error) {
			v, err := PauseLimitIn(w, port)
			return uint16(v), err
		},
		Set: func(w Windows, port, _ int, v uint16) error {
			b, err := byte8(v)
			if err != nil {
				return err
			}
			return SetPauseLimitIn(w, port, b)
		},
	},
	{
		Name:        "pause-limit-out",
		Description: "Egress pause limit",
		Window:      indirect.FlowControl,
		Get: func(w Windows, port, _ int) (uint16, error) {
			v, err := PauseLimitOut(w, port)
			return uint16(v), err
		},
		Set: func(w Windows, port, _ int, v uint16) error {
			b, err := byte8(v)
			if err != nil {
				return err
			}
			return SetPauseLimitOut(w, port, b)
		},
	},
	{
		Name:        "pfc",
		Description: "Priority flow control enable",
		Window:      indirect.FlowControl,
		Indexed:     true,
		Get: func(w Windows, port, priority int) (uint16, error) {
			enabled, err := PriorityFlowControl(w, port, priority)
			if enabled {
				return 1, err
			}
			return 0, err
		},
		Set: func(w Windows, port, priority int, v uint16) error {
			enable, err := boolean(v)
			if err != nil {
				return err
			}
			return SetPriorityFlowControl(w, port, priority, enable)
		},
	},
	{
		Name:        "queue-to-pause",
		Description: "Egress queues paused by a priority",
		Window:      indirect.FlowControl,
		Indexed:     true,
		Get: func(w Windows, port, priority int) (uint16, error) {
			v, err := QueueToPause(w, port, priority)
			return uint16(v), err
		},
		Set: func(w Windows, port, priority int, v uint16) error {
			b, err := byte8(v)
			if err != nil {
				return err
			}
			return SetQueueToPause(w, port, priority, b)
		},
	},
}

// Lookup finds a feature by name, ignoring case
func Lookup(name string) (*Feature, error) {
	for idx := range features {
		if strings.EqualFold(features[idx].Name, name) {
			return &features[idx], nil
		}
	}

	return nil, fmt.Errorf("feature %s not found", name)
}

// Names lists the features in alphabetical order
func Names() []string {
	names := make([]string, len(features))
	for idx, f := range features {
		names[idx] = f.Name
	}

	sort.Strings(names)
	return names
}
