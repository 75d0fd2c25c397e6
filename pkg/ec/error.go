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

package ec

import (
	"fmt"
	"net/http"
)

// ControllerError is an error carrying the HTTP status a request fails with
type ControllerError struct {
	statusCode   int
	cause        string
	resourceType string
	err          error
}

func NewControllerError(sc int) *ControllerError {
	return &ControllerError{statusCode: sc}
}

func (e *ControllerError) Error() string {
	errorString := fmt.Sprintf("Error %d: %s", e.statusCode, http.StatusText(e.statusCode))
	if len(e.resourceType) != 0 {
		errorString += fmt.Sprintf(", Resource: %s", e.resourceType)
	}
	if len(e.cause) != 0 {
		errorString += fmt.Sprintf(", Cause: %s", e.cause)
	}
	if e.err != nil {
		errorString += fmt.Sprintf(", Internal Error: %s", e.err)
	}
	return errorString
}

func (e *ControllerError) Unwrap() error {
	return e.err
}

func (e *ControllerError) StatusCode() int      { return e.statusCode }
func (e *ControllerError) Cause() string        { return e.cause }
func (e *ControllerError) ResourceType() string { return e.resourceType }

func (e *ControllerError) WithError(err error) *ControllerError {
	e.err = err
	return e
}

func (e *ControllerError) WithCause(cause string) *ControllerError {
	e.cause = cause
	return e
}

func (e *ControllerError) WithResourceType(t string) *ControllerError {
	e.resourceType = t
	return e
}

func NewErrNotFound() *ControllerError {
	return NewControllerError(http.StatusNotFound)
}

func NewErrBadRequest() *ControllerError {
	return NewControllerError(http.StatusBadRequest)
}

func NewErrNotAcceptable() *ControllerError {
	return NewControllerError(http.StatusNotAcceptable)
}

func NewErrInternalServerError() *ControllerError {
	return NewControllerError(http.StatusInternalServerError)
}

// ErrorResponse is the body of every unsuccessful request
type ErrorResponse struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Cause     string `json:"cause,omitempty"`
	Details   string `json:"details,omitempty"`
	RequestId string `json:"requestId,omitempty"`
}

func NewErrorResponse(e *ControllerError, requestId string) *ErrorResponse {
	var details string
	if e.Unwrap() != nil {
		details = e.Unwrap().Error()
	}

	return &ErrorResponse{
		Status:    e.statusCode,
		Error:     http.StatusText(e.statusCode),
		Cause:     e.cause,
		Details:   details,
		RequestId: requestId,
	}
}
