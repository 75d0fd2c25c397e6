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

package api

import (
	"github.com/NearNodeFlash/nnf-ethsw/pkg/ec"
)

// DefaultApiRouter -
type DefaultApiRouter struct {
	servicer Api
	manager  *Manager
}

// NewDefaultApiRouter -
func NewDefaultApiRouter(m *Manager) ec.Router {
	return &DefaultApiRouter{servicer: NewDefaultApiService(m), manager: m}
}

func (*DefaultApiRouter) Name() string { return "Ethernet Switch" }

func (r *DefaultApiRouter) Init(log ec.Logger) error {
	r.manager.log = log
	return nil
}

func (r *DefaultApiRouter) Start() error {
	for _, name := range r.manager.names() {
		r.manager.log.V(1).Info("Serving device", "device", name)
	}
	return nil
}

func (*DefaultApiRouter) Close() error { return nil }

// Routes -
func (r *DefaultApiRouter) Routes() ec.Routes {
	s := r.servicer
	return ec.Routes{
		{
			Name:        "EthswV1DevicesGet",
			Method:      ec.GET_METHOD,
			Path:        "/ethsw/v1/Devices",
			HandlerFunc: s.EthswV1DevicesGet,
		},
		{
			Name:        "EthswV1DevicesDeviceIdGet",
			Method:      ec.GET_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}",
			HandlerFunc: s.EthswV1DevicesDeviceIdGet,
		},
		{
			Name:        "EthswV1DevicesDeviceIdPortsPortIdExtPointerGet",
			Method:      ec.GET_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Ports/{PortId}/Ext/{Pointer}",
			HandlerFunc: s.EthswV1DevicesDeviceIdPortsPortIdExtPointerGet,
		},
		{
			Name:        "EthswV1DevicesDeviceIdPortsPortIdExtPointerPut",
			Method:      ec.PUT_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Ports/{PortId}/Ext/{Pointer}",
			HandlerFunc: s.EthswV1DevicesDeviceIdPortsPortIdExtPointerPut,
		},
		{
			Name:        "EthswV1DevicesDeviceIdPortsPortIdFcPointerGet",
			Method:      ec.GET_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Ports/{PortId}/Fc/{Pointer}",
			HandlerFunc: s.EthswV1DevicesDeviceIdPortsPortIdFcPointerGet,
		},
		{
			Name:        "EthswV1DevicesDeviceIdPortsPortIdFcPointerPut",
			Method:      ec.PUT_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Ports/{PortId}/Fc/{Pointer}",
			HandlerFunc: s.EthswV1DevicesDeviceIdPortsPortIdFcPointerPut,
		},
		{
			Name:        "EthswV1DevicesDeviceIdPortsPortIdFeaturesGet",
			Method:      ec.GET_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Ports/{PortId}/Features",
			HandlerFunc: s.EthswV1DevicesDeviceIdPortsPortIdFeaturesGet,
		},
		{
			Name:        "EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdGet",
			Method:      ec.GET_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Ports/{PortId}/Features/{FeatureId}",
			HandlerFunc: s.EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdGet,
		},
		{
			Name:        "EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdPut",
			Method:      ec.PUT_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Ports/{PortId}/Features/{FeatureId}",
			HandlerFunc: s.EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdPut,
		},
		{
			Name:        "EthswV1DevicesDeviceIdJournalGet",
			Method:      ec.GET_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Journal",
			HandlerFunc: s.EthswV1DevicesDeviceIdJournalGet,
		},
		{
			Name:        "EthswV1DevicesDeviceIdJournalActionsRestorePost",
			Method:      ec.POST_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Journal/Actions/Restore",
			HandlerFunc: s.EthswV1DevicesDeviceIdJournalActionsRestorePost,
		},
		{
			Name:        "EthswV1DevicesDeviceIdJournalActionsCompactPost",
			Method:      ec.POST_METHOD,
			Path:        "/ethsw/v1/Devices/{DeviceId}/Journal/Actions/Compact",
			HandlerFunc: s.EthswV1DevicesDeviceIdJournalActionsCompactPost,
		},
	}
}
