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

// Package journal records the indirect writes accepted by each device so the
// settings can be put back after the switch is reset.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/ec"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/persistent"
)

const registryPrefix = "JR"

// Metadata heads every device's ledger
type Metadata struct {
	Device  string    `json:"device"`
	Chip    string    `json:"chip"`
	Session string    `json:"session"`
	Created time.Time `json:"created"`
}

type Journal struct {
	store   *persistent.Store
	session string
	log     ec.Logger

	lock      sync.Mutex
	ledgers   map[string]*persistent.Ledger
	restoring map[string]bool
}

// Open opens the journal database at path; an empty path keeps the journal in
// memory.
func Open(path string, log ec.Logger) (*Journal, error) {
	store, err := persistent.Open(path, false)
	if err != nil {
		return nil, err
	}

	j := &Journal{
		store:     store,
		session:   uuid.New().String(),
		log:       log.WithName("journal"),
		ledgers:   make(map[string]*persistent.Ledger),
		restoring: make(map[string]bool),
	}

	if err := store.Register(j); err != nil {
		store.Close()
		return nil, err
	}

	j.log.V(1).Info("Journal opened", "path", path, "session", j.session)

	return j, nil
}

func (j *Journal) Close() error {
	return j.store.Close()
}

func (j *Journal) Session() string { return j.session }

func (j *Journal) key(name string) string {
	return j.store.MakeKey(j, name)
}

// Track starts journaling the device's writes. The device's existing ledger is
// continued; a device seen for the first time gets a new one.
func (j *Journal) Track(dev *indirect.Device, chip string) error {
	if err := j.openLedger(dev.Name(), chip); err != nil {
		return err
	}

	// The device calls back into the journal with its lock held; the journal
	// lock must not be held here.
	dev.AddObserver(j)

	return nil
}

func (j *Journal) openLedger(name, chip string) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	if _, ok := j.ledgers[name]; ok {
		return fmt.Errorf("device %s already tracked", name)
	}

	ledger, err := j.store.OpenKey(j.key(name))
	if errors.Is(err, persistent.ErrKeyNotFound) {
		metadata, err := json.Marshal(Metadata{Device: name, Chip: chip, Session: j.session, Created: time.Now().UTC()})
		if err != nil {
			return err
		}

		ledger, err = j.store.NewKey(j.key(name), metadata)
		if err != nil {
			return err
		}

		j.log.Info("Created device ledger", "device", name, "chip", chip)
	} else if err != nil {
		return err
	}

	j.ledgers[name] = ledger

	return nil
}

// Written logs an accepted write. Writes made by Restore are not logged again.
func (j *Journal) Written(dev *indirect.Device, w indirect.Window, port int, pointer uint8, value uint16) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	name := dev.Name()
	if j.restoring[name] {
		return nil
	}

	ledger, ok := j.ledgers[name]
	if !ok {
		return fmt.Errorf("device %s not tracked", name)
	}

	e := Entry{Window: w, Port: port, Pointer: pointer, Value: value}
	if err := ledger.Log(uint32(w), e.bytes()); err != nil {
		return fmt.Errorf("device %s: logging %s: %w", name, e, err)
	}

	j.log.V(2).Info("Logged write", "device", name, "entry", e.String())

	return nil
}

// Entries returns the metadata and entries of the named device's ledger, in the
// order they were logged.
func (j *Journal) Entries(name string) (*Metadata, []Entry, error) {
	ledger, err := j.store.OpenKey(j.key(name))
	if err != nil {
		return nil, nil, fmt.Errorf("device %s: %w", name, err)
	}

	data, records, err := ledger.Records()
	if err != nil {
		return nil, nil, fmt.Errorf("device %s: %w", name, err)
	}

	metadata := new(Metadata)
	if err := json.Unmarshal(data, metadata); err != nil {
		return nil, nil, fmt.Errorf("device %s metadata: %w", name, err)
	}

	entries := make([]Entry, 0, len(records))
	for idx, r := range records {
		e, err := decodeEntry(r.Type, r.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("device %s entry %d: %w", name, idx, err)
		}

		entries = append(entries, e)
	}

	return metadata, entries, nil
}

// Restore replays the device's ledger onto the device in order. Nothing is
// written if any entry is corrupt. It returns the number of entries applied.
//
// The device is held for the whole replay. Writes from other callers wait
// for it and are logged as usual once it completes.
func (j *Journal) Restore(dev *indirect.Device) (count int, err error) {
	name := dev.Name()

	err = dev.Exclusive(func() error {
		_, entries, err := j.Entries(name)
		if err != nil {
			return err
		}

		j.setRestoring(name, true)
		defer j.setRestoring(name, false)

		for _, e := range entries {
			if err := e.apply(dev); err != nil {
				return fmt.Errorf("device %s: restoring %s: %w", name, e, err)
			}
			count++
		}

		return nil
	})

	if err == nil {
		j.log.Info("Restored device", "device", name, "entries", count)
	}

	return count, err
}

// setRestoring marks the device's writes as replayed. It is only called with
// the device held, so no other caller's write is seen while it is set.
func (j *Journal) setRestoring(name string, restoring bool) {
	j.lock.Lock()
	defer j.lock.Unlock()

	j.restoring[name] = restoring
}

// Compact drops every entry overwritten by a later write to the same
// sub-register, keeping the remaining entries in order.
func (j *Journal) Compact(name string) (int, error) {
	j.lock.Lock()
	defer j.lock.Unlock()

	ledger, err := j.ledger(name)
	if err != nil {
		return 0, err
	}

	_, records, err := ledger.Records()
	if err != nil {
		return 0, err
	}

	type target struct {
		window  indirect.Window
		port    int
		pointer uint8
	}

	last := make(map[target]int)
	for idx, r := range records {
		e, err := decodeEntry(r.Type, r.Value)
		if err != nil {
			return 0, fmt.Errorf("device %s entry %d: %w", name, idx, err)
		}
		last[target{e.Window, e.Port, e.Pointer}] = idx
	}

	kept := make([]persistent.Record, 0, len(last))
	for idx, r := range records {
		e, _ := decodeEntry(r.Type, r.Value)
		if last[target{e.Window, e.Port, e.Pointer}] == idx {
			kept = append(kept, r)
		}
	}

	if err := ledger.Rewrite(kept); err != nil {
		return 0, err
	}

	dropped := len(records) - len(kept)
	j.log.V(1).Info("Compacted device ledger", "device", name, "dropped", dropped)

	return dropped, nil
}

// ledger returns the tracked ledger of the device, or the stored one
func (j *Journal) ledger(name string) (*persistent.Ledger, error) {
	if ledger, ok := j.ledgers[name]; ok {
		return ledger, nil
	}

	return j.store.OpenKey(j.key(name))
}

// Clear deletes the device's ledger. A tracked device starts a new ledger on
// its next write.
func (j *Journal) Clear(name string, chip string) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	if err := j.store.DeleteKey(j.key(name)); err != nil {
		return fmt.Errorf("device %s: %w", name, err)
	}

	if _, ok := j.ledgers[name]; ok {
		metadata, err := json.Marshal(Metadata{Device: name, Chip: chip, Session: j.session, Created: time.Now().UTC()})
		if err != nil {
			return err
		}

		ledger, err := j.store.NewKey(j.key(name), metadata)
		if err != nil {
			return err
		}

		j.ledgers[name] = ledger
	}

	return nil
}

// Devices lists the devices with a ledger
func (j *Journal) Devices() ([]string, error) {
	keys, err := j.store.Keys(j)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(keys))
	for idx, key := range keys {
		names[idx] = key[len(registryPrefix):]
	}

	return names, nil
}

// Prefix and NewReplay make the journal a persistent.Registry
func (j *Journal) Prefix() string { return registryPrefix }

func (j *Journal) NewReplay(id string) persistent.ReplayHandler {
	return &replay{log: j.log.WithValues("device", id)}
}

// replay checks a ledger on store replay
type replay struct {
	log     logr.Logger
	entries int
}

func (r *replay) Metadata(data []byte) error {
	metadata := new(Metadata)
	if err := json.Unmarshal(data, metadata); err != nil {
		return err
	}

	r.log.V(1).Info("Replaying ledger", "chip", metadata.Chip, "session", metadata.Session)
	return nil
}

func (r *replay) Entry(t uint32, data []byte) error {
	if _, err := decodeEntry(t, data); err != nil {
		return err
	}

	r.entries++
	return nil
}

func (r *replay) Done() (bool, error) {
	r.log.V(1).Info("Ledger verified", "entries", r.entries)
	return false, nil
}

// Verify checks every ledger in the journal
func (j *Journal) Verify() error {
	return j.store.Replay()
}
