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

package persistent

import (
	"encoding/binary"
	"errors"
)

const (
	metadataTlvType uint32 = 0xFFFFFFFF

	tlvHeaderLength = 8
)

var ErrTruncated = errors.New("ledger truncated")

// Records are stored back to back as little endian type, length, value
type tlv struct {
	t uint32
	l uint32
	v []byte
}

func newTlv(t uint32, v []byte) tlv {
	return tlv{t: t, l: uint32(len(v)), v: v}
}

func (tlv tlv) bytes() []byte {
	b := make([]byte, tlvHeaderLength+int(tlv.l))
	binary.LittleEndian.PutUint32(b[0:4], tlv.t)
	binary.LittleEndian.PutUint32(b[4:8], tlv.l)
	copy(b[tlvHeaderLength:], tlv.v)
	return b
}

type tlvIterator struct {
	index int
	v     []byte
}

func newIterator(v []byte) *tlvIterator {
	return &tlvIterator{index: 0, v: v}
}

func (it *tlvIterator) Next() (tlv, bool, error) {
	remaining := len(it.v) - it.index
	if remaining == 0 {
		return tlv{}, true, nil
	}

	if remaining < tlvHeaderLength {
		return tlv{}, false, ErrTruncated
	}

	b := it.v[it.index:]
	tlv := tlv{
		t: binary.LittleEndian.Uint32(b[0:4]),
		l: binary.LittleEndian.Uint32(b[4:8]),
	}

	if uint64(tlv.l) > uint64(remaining-tlvHeaderLength) {
		return tlv, false, ErrTruncated
	}

	tlv.v = b[tlvHeaderLength : tlvHeaderLength+int(tlv.l)]
	it.index += tlvHeaderLength + int(tlv.l)

	return tlv, false, nil
}
