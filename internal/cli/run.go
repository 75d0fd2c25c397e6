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
	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/persistent"
)

func run(ctx *Context, fn func(s *System) error) error {
	config := DefaultConfig()
	if len(ctx.Config) != 0 {
		var err error
		if config, err = LoadConfig(ctx.Config); err != nil {
			return err
		}
	}

	persistent.SetLogger(ctx.Log())

	s, err := OpenSystem(config, ctx.Log())
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s)
}

func runDevice(ctx *Context, name string, fn func(s *System, dev *indirect.Device) error) error {
	return run(ctx, func(s *System) error {
		dev, err := s.Device(name)
		if err != nil {
			return err
		}

		return fn(s, dev)
	})
}
