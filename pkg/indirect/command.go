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

package indirect

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/HewlettPackard/structex"
)

// Window identifies one of the two indirect register windows of a device
type Window int

const (
	ExtendedPortControl Window = iota
	FlowControl
)

func (w Window) String() string {
	switch w {
	case ExtendedPortControl:
		return "ExtendedPortControl"
	case FlowControl:
		return "FlowControl"
	}
	return fmt.Sprintf("Window(%d)", int(w))
}

// Layout gives the register indices, within a port's physical address, of the
// mailbox registers backing the two windows.
type Layout struct {
	ExtCommand uint8 // Extended Port Control command register
	ExtData    uint8 // Extended Port Control data register
	FlowCtrl   uint8 // Flow-Control / Limit-Pause operation register
}

func (l Layout) Validate() error {
	if l.ExtCommand == l.ExtData || l.ExtCommand == l.FlowCtrl || l.ExtData == l.FlowCtrl {
		return fmt.Errorf("window registers must be distinct: %+v", l)
	}
	return nil
}

const (
	busyBit uint16 = 1 << 15

	extOpcodeWrite uint16 = 3
	extOpcodeRead  uint16 = 4

	// FlowCtrlMaxPointer is the largest sub-address the 7 bit pointer field holds
	FlowCtrlMaxPointer = 0x7F
)

// extCommand is the Extended Port Control command register.
type extCommand struct {
	Pointer  uint16 `bitfield:"8"`          // Bits 7:0 sub-register pointer
	Reserved uint16 `bitfield:"4,reserved"` // Bits 11:8
	Opcode   uint16 `bitfield:"3"`          // Bits 14:12 operation
	Busy     uint16 `bitfield:"1"`          // Bit 15 busy
}

// flowCtrlOperation is the Flow-Control / Limit-Pause operation register; the
// data field carries the payload on write and answers in place on read.
type flowCtrlOperation struct {
	Data    uint16 `bitfield:"8"` // Bits 7:0
	Pointer uint16 `bitfield:"7"` // Bits 14:8
	Busy    uint16 `bitfield:"1"` // Bit 15 update / busy
}

func encodeRegister(v interface{}) (uint16, error) {
	buf := structex.NewBuffer(v)
	if err := structex.Encode(buf, v); err != nil {
		return 0, err
	}

	b := buf.Bytes()
	if len(b) != 2 {
		return 0, fmt.Errorf("register encoded to %d bytes", len(b))
	}

	return binary.LittleEndian.Uint16(b), nil
}

func decodeRegister(reg uint16, v interface{}) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, reg)
	return structex.DecodeByteBuffer(bytes.NewBuffer(b), v)
}

func isBusy(reg uint16) bool { return reg&busyBit != 0 }
