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

package journal

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sigurn/crc8"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
)

var ErrCorrupt = errors.New("journal entry corrupt")

var crcTable = crc8.MakeTable(crc8.CRC8_MAXIM)

const entryLength = 6

// Entry is one accepted indirect write
type Entry struct {
	Window  indirect.Window `json:"window"`
	Port    int             `json:"port"`
	Pointer uint8           `json:"pointer"`
	Value   uint16          `json:"value"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%s port %d pointer %#02x = %#04x", e.Window, e.Port, e.Pointer, e.Value)
}

// Entries are logged as the ledger record type (the window) and the value
//
//	[0:2] port, [2] pointer, [3:5] value, [5] crc8 of bytes 0:5
func (e Entry) bytes() []byte {
	b := make([]byte, entryLength)
	binary.LittleEndian.PutUint16(b[0:2], uint16(e.Port))
	b[2] = e.Pointer
	binary.LittleEndian.PutUint16(b[3:5], e.Value)
	b[5] = crc8.Checksum(b[0:5], crcTable)
	return b
}

func decodeEntry(t uint32, b []byte) (Entry, error) {
	if len(b) != entryLength {
		return Entry{}, fmt.Errorf("entry length %d: %w", len(b), ErrCorrupt)
	}

	if crc := crc8.Checksum(b[0:5], crcTable); crc != b[5] {
		return Entry{}, fmt.Errorf("entry crc %#02x expected %#02x: %w", b[5], crc, ErrCorrupt)
	}

	w := indirect.Window(t)
	if w != indirect.ExtendedPortControl && w != indirect.FlowControl {
		return Entry{}, fmt.Errorf("entry window %d: %w", t, ErrCorrupt)
	}

	return Entry{
		Window:  w,
		Port:    int(binary.LittleEndian.Uint16(b[0:2])),
		Pointer: b[2],
		Value:   binary.LittleEndian.Uint16(b[3:5]),
	}, nil
}

// apply replays the entry onto the device
func (e Entry) apply(dev *indirect.Device) error {
	switch e.Window {
	case indirect.ExtendedPortControl:
		return dev.ExtWrite(e.Port, e.Pointer, e.Value)
	case indirect.FlowControl:
		return dev.FlowCtrlWrite(e.Port, e.Pointer, uint8(e.Value))
	}

	return fmt.Errorf("unknown window %s", e.Window)
}
