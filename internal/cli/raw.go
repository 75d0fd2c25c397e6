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
	"io"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/persistent"
)

// JournalRawCmd prints every record of the journal database without decoding
// it. The database is opened read-only and no device is attached.
type JournalRawCmd struct {
	Path string `kong:"optional,type='existingdir',help='Journal database; defaults to the configured journal.'"`
}

func (cmd *JournalRawCmd) Run(ctx *Context) error {
	path := cmd.Path
	if len(path) == 0 {
		if len(ctx.Config) == 0 {
			return fmt.Errorf("journal path required")
		}

		config, err := LoadConfig(ctx.Config)
		if err != nil {
			return err
		}

		if path = config.Journal; len(path) == 0 {
			return fmt.Errorf("journal not configured")
		}
	}

	persistent.SetLogger(ctx.Log())

	store, err := persistent.Open(path, true)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(ctx.out(), "Journal database '%s'\n", path)

	if err := store.Register(&rawRegistry{out: ctx.out()}); err != nil {
		return err
	}

	return store.Replay()
}

// rawRegistry claims every key in the store
type rawRegistry struct {
	out io.Writer
}

func (*rawRegistry) Prefix() string { return "" }

func (r *rawRegistry) NewReplay(id string) persistent.ReplayHandler {
	return &rawReplay{id: id, out: r.out}
}

type rawReplay struct {
	id      string
	out     io.Writer
	records int
}

func (r *rawReplay) Metadata(data []byte) error {
	fmt.Fprintf(r.out, "Key %s:\n", r.id)
	fmt.Fprintf(r.out, "|\tMetadata: %s\n", string(data))
	return nil
}

func (r *rawReplay) Entry(t uint32, data []byte) error {
	fmt.Fprintf(r.out, "|\t\tType: %d Data: % x\n", t, data)
	r.records++
	return nil
}

func (r *rawReplay) Done() (bool, error) {
	fmt.Fprintf(r.out, "|-Done %s (%d records)\n", r.id, r.records)
	return false, nil
}
