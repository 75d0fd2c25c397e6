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
	"errors"
	"fmt"
)

// Status is the outcome of an indirect transaction
type Status int

const (
	StatusOK Status = iota
	StatusBadParam
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadParam:
		return "BAD_PARAM"
	case StatusFail:
		return "FAIL"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

var (
	// ErrBadParam reports a malformed request detected before any register access
	ErrBadParam = errors.New("bad parameter")

	// ErrFail reports a busy bit that never cleared or a register access error
	ErrFail = errors.New("indirect access failed")

	// ErrDetached reports use of a device after Detach
	ErrDetached = errors.New("device detached")

	errTimeout = errors.New("busy bit did not clear within retry budget")
)

// Error describes a failed indirect transaction. It matches ErrBadParam or
// ErrFail under errors.Is according to its Status.
type Error struct {
	Status  Status
	Window  Window
	Op      string
	Port    int
	Pointer uint8

	err error
}

func newError(status Status, w Window, op string, port int, pointer uint8, err error) *Error {
	return &Error{Status: status, Window: w, Op: op, Port: port, Pointer: pointer, err: err}
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s %s port %d pointer %#02x: %s", e.Window, e.Op, e.Port, e.Pointer, e.Status)
	if e.err != nil {
		s += fmt.Sprintf(": %s", e.err)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadParam:
		return e.Status == StatusBadParam
	case ErrFail:
		return e.Status == StatusFail
	}
	return false
}

// IsTimeout returns true if the transaction failed because the busy bit never cleared
func (e *Error) IsTimeout() bool {
	return errors.Is(e.err, errTimeout)
}

// StatusOf returns the transaction status carried by err
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrBadParam):
		return StatusBadParam
	default:
		return StatusFail
	}
}
