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
	"os"
	"os/signal"
	"syscall"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/api"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/ec"
)

// ServeCmd runs the REST element controller over the configured devices
type ServeCmd struct {
	ec.Options `kong:"embed"`

	Restore bool `kong:"optional,help='Replay each device journal before serving.'"`
}

func (cmd *ServeCmd) Run(ctx *Context) error {
	return run(ctx, func(s *System) error {
		log := ctx.Log()

		if cmd.Restore && s.Journal != nil {
			for _, dev := range s.Devices() {
				count, err := s.Journal.Restore(dev)
				if err != nil {
					return err
				}

				log.Info("Device restored", "device", dev.Name(), "entries", count)
			}
		}

		c := &ec.Controller{
			Name:    "Ethernet Switch",
			Version: "v1",
			Routers: ec.Routers{api.NewDefaultApiRouter(s.Manager)},
			Log:     log.WithName("ec"),
		}

		if err := c.Init(&cmd.Options); err != nil {
			return err
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer func() {
			signal.Stop(sig)
			close(sig)
		}()

		go func() {
			if _, ok := <-sig; ok {
				log.Info("Shutting down")
				c.Close()
			}
		}()

		return c.Run()
	})
}
