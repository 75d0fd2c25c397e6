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
	"encoding/json"
	"fmt"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/journal"
)

// JournalCmd inspects and replays the write journal
type JournalCmd struct {
	Dump    JournalDumpCmd    `kong:"cmd,help='Print the journal of a device.'"`
	Restore JournalRestoreCmd `kong:"cmd,help='Replay the journal onto a device.'"`
	Compact JournalCompactCmd `kong:"cmd,help='Drop overwritten journal entries.'"`
	Verify  JournalVerifyCmd  `kong:"cmd,help='Check every journal entry.'"`
	Raw     JournalRawCmd     `kong:"cmd,help='Print the undecoded journal database.'"`
}

func runJournal(ctx *Context, fn func(s *System, j *journal.Journal) error) error {
	return run(ctx, func(s *System) error {
		if s.Journal == nil {
			return fmt.Errorf("journal not configured")
		}

		return fn(s, s.Journal)
	})
}

type JournalDumpCmd struct {
	Device string `kong:"arg,required,help='Device name.'"`
	Json   bool   `kong:"optional,help='Print the entries as JSON.'"`
}

func (cmd *JournalDumpCmd) Run(ctx *Context) error {
	return runJournal(ctx, func(_ *System, j *journal.Journal) error {
		metadata, entries, err := j.Entries(cmd.Device)
		if err != nil {
			return err
		}

		if cmd.Json {
			enc := json.NewEncoder(ctx.out())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*journal.Metadata
				Entries []journal.Entry `json:"entries"`
			}{metadata, entries})
		}

		fmt.Fprintf(ctx.out(), "Device %s (%s) session %s created %s\n", metadata.Device, metadata.Chip, metadata.Session, metadata.Created)
		for idx, e := range entries {
			fmt.Fprintf(ctx.out(), "  %4d: %s\n", idx, e)
		}

		return nil
	})
}

type JournalRestoreCmd struct {
	Device string `kong:"arg,required,help='Device name.'"`
}

func (cmd *JournalRestoreCmd) Run(ctx *Context) error {
	return runJournal(ctx, func(s *System, j *journal.Journal) error {
		dev, err := s.Device(cmd.Device)
		if err != nil {
			return err
		}

		count, err := j.Restore(dev)
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.out(), "Restored %d entries\n", count)
		return nil
	})
}

type JournalCompactCmd struct {
	Device string `kong:"arg,required,help='Device name.'"`
}

func (cmd *JournalCompactCmd) Run(ctx *Context) error {
	return runJournal(ctx, func(_ *System, j *journal.Journal) error {
		dropped, err := j.Compact(cmd.Device)
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.out(), "Dropped %d entries\n", dropped)
		return nil
	})
}

type JournalVerifyCmd struct{}

func (cmd *JournalVerifyCmd) Run(ctx *Context) error {
	return runJournal(ctx, func(_ *System, j *journal.Journal) error {
		if err := j.Verify(); err != nil {
			return err
		}

		devices, err := j.Devices()
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.out(), "Verified %d device journals\n", len(devices))
		return nil
	})
}
