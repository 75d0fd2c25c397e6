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

// Package api exposes the switch windows and features over the element
// controller's REST interface.
package api

import (
	"net/http"
)

// Api is the set of handlers served by the router. Each handler is named after
// its path.
type Api interface {
	EthswV1DevicesGet(w http.ResponseWriter, r *http.Request)
	EthswV1DevicesDeviceIdGet(w http.ResponseWriter, r *http.Request)

	EthswV1DevicesDeviceIdPortsPortIdExtPointerGet(w http.ResponseWriter, r *http.Request)
	EthswV1DevicesDeviceIdPortsPortIdExtPointerPut(w http.ResponseWriter, r *http.Request)
	EthswV1DevicesDeviceIdPortsPortIdFcPointerGet(w http.ResponseWriter, r *http.Request)
	EthswV1DevicesDeviceIdPortsPortIdFcPointerPut(w http.ResponseWriter, r *http.Request)

	EthswV1DevicesDeviceIdPortsPortIdFeaturesGet(w http.ResponseWriter, r *http.Request)
	EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdGet(w http.ResponseWriter, r *http.Request)
	EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdPut(w http.ResponseWriter, r *http.Request)

	EthswV1DevicesDeviceIdJournalGet(w http.ResponseWriter, r *http.Request)
	EthswV1DevicesDeviceIdJournalActionsRestorePost(w http.ResponseWriter, r *http.Request)
	EthswV1DevicesDeviceIdJournalActionsCompactPost(w http.ResponseWriter, r *http.Request)
}
