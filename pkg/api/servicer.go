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
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/ec"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/feature"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
)

// DefaultApiService -
type DefaultApiService struct {
	manager *Manager
}

// NewDefaultApiService -
func NewDefaultApiService(m *Manager) Api {
	return &DefaultApiService{manager: m}
}

func parsePort(params map[string]string) (int, error) {
	port, err := strconv.Atoi(params["PortId"])
	if err != nil {
		return 0, ec.NewErrBadRequest().WithError(err).WithResourceType(ResourcePort).WithCause(fmt.Sprintf("Port '%s' is not a number", params["PortId"]))
	}

	return port, nil
}

// parseRegister reads the port and pointer of a register path. Pointers may be
// given in decimal or 0x prefixed hex.
func parseRegister(params map[string]string, model *RegisterModel) error {
	port, err := parsePort(params)
	if err != nil {
		return err
	}

	pointer, err := strconv.ParseUint(params["Pointer"], 0, 8)
	if err != nil {
		return ec.NewErrBadRequest().WithError(err).WithResourceType(ResourcePort).WithCause(fmt.Sprintf("Pointer '%s' is not an 8 bit number", params["Pointer"]))
	}

	model.Port = port
	model.Pointer = uint8(pointer)

	return nil
}

func parseIndex(r *http.Request) (int, error) {
	index := r.URL.Query().Get("Index")
	if len(index) == 0 {
		return 0, nil
	}

	idx, err := strconv.Atoi(index)
	if err != nil {
		return 0, ec.NewErrBadRequest().WithError(err).WithResourceType(ResourceFeature).WithCause(fmt.Sprintf("Index '%s' is not a number", index))
	}

	return idx, nil
}

// EthswV1DevicesGet -
func (s *DefaultApiService) EthswV1DevicesGet(w http.ResponseWriter, r *http.Request) {
	model := DeviceCollectionModel{
		OdataId: "/ethsw/v1/Devices",
		Members: s.manager.names(),
	}

	ec.EncodeResponse(model, nil, w)
}

// EthswV1DevicesDeviceIdGet -
func (s *DefaultApiService) EthswV1DevicesDeviceIdGet(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	deviceId := params["DeviceId"]

	model := DeviceModel{
		OdataId: fmt.Sprintf("/ethsw/v1/Devices/%s", deviceId),
	}

	err := s.manager.deviceGet(deviceId, &model)

	ec.EncodeResponse(model, err, w)
}

func (s *DefaultApiService) registerGet(window indirect.Window, segment string, w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	deviceId := params["DeviceId"]

	model := RegisterModel{
		OdataId: fmt.Sprintf("/ethsw/v1/Devices/%s/Ports/%s/%s/%s", deviceId, params["PortId"], segment, params["Pointer"]),
		Window:  window.String(),
	}

	if err := parseRegister(params, &model); err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	err := s.manager.registerGet(deviceId, window, &model)

	ec.EncodeResponse(model, err, w)
}

func (s *DefaultApiService) registerPut(window indirect.Window, segment string, w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	deviceId := params["DeviceId"]

	var model RegisterModel

	if err := ec.DecodeRequest(r, &model); err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	if err := parseRegister(params, &model); err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	if err := s.manager.registerPut(deviceId, window, &model); err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	model.OdataId = fmt.Sprintf("/ethsw/v1/Devices/%s/Ports/%s/%s/%s", deviceId, params["PortId"], segment, params["Pointer"])
	model.Window = window.String()

	ec.EncodeResponse(model, nil, w)
}

// EthswV1DevicesDeviceIdPortsPortIdExtPointerGet -
func (s *DefaultApiService) EthswV1DevicesDeviceIdPortsPortIdExtPointerGet(w http.ResponseWriter, r *http.Request) {
	s.registerGet(indirect.ExtendedPortControl, "Ext", w, r)
}

// EthswV1DevicesDeviceIdPortsPortIdExtPointerPut -
func (s *DefaultApiService) EthswV1DevicesDeviceIdPortsPortIdExtPointerPut(w http.ResponseWriter, r *http.Request) {
	s.registerPut(indirect.ExtendedPortControl, "Ext", w, r)
}

// EthswV1DevicesDeviceIdPortsPortIdFcPointerGet -
func (s *DefaultApiService) EthswV1DevicesDeviceIdPortsPortIdFcPointerGet(w http.ResponseWriter, r *http.Request) {
	s.registerGet(indirect.FlowControl, "Fc", w, r)
}

// EthswV1DevicesDeviceIdPortsPortIdFcPointerPut -
func (s *DefaultApiService) EthswV1DevicesDeviceIdPortsPortIdFcPointerPut(w http.ResponseWriter, r *http.Request) {
	s.registerPut(indirect.FlowControl, "Fc", w, r)
}

// EthswV1DevicesDeviceIdPortsPortIdFeaturesGet -
func (s *DefaultApiService) EthswV1DevicesDeviceIdPortsPortIdFeaturesGet(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	deviceId := params["DeviceId"]
	portId := params["PortId"]

	model := FeatureCollectionModel{
		OdataId: fmt.Sprintf("/ethsw/v1/Devices/%s/Ports/%s/Features", deviceId, portId),
		Members: feature.Names(),
	}

	_, err := s.manager.findSwitch(deviceId)

	ec.EncodeResponse(model, err, w)
}

// EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdGet -
func (s *DefaultApiService) EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdGet(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	deviceId := params["DeviceId"]
	featureId := params["FeatureId"]

	model := FeatureModel{
		OdataId: fmt.Sprintf("/ethsw/v1/Devices/%s/Ports/%s/Features/%s", deviceId, params["PortId"], featureId),
		Id:      featureId,
	}

	port, err := parsePort(params)
	if err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	if model.Index, err = parseIndex(r); err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	err = s.manager.featureGet(deviceId, port, &model)

	ec.EncodeResponse(model, err, w)
}

// EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdPut -
func (s *DefaultApiService) EthswV1DevicesDeviceIdPortsPortIdFeaturesFeatureIdPut(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	deviceId := params["DeviceId"]
	featureId := params["FeatureId"]

	var model FeatureModel

	if err := ec.DecodeRequest(r, &model); err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	port, err := parsePort(params)
	if err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	if index, err := parseIndex(r); err != nil {
		ec.EncodeResponse(model, err, w)
		return
	} else if index != 0 {
		model.Index = index
	}

	model.Id = featureId

	if err := s.manager.featurePut(deviceId, port, &model); err != nil {
		ec.EncodeResponse(model, err, w)
		return
	}

	model.OdataId = fmt.Sprintf("/ethsw/v1/Devices/%s/Ports/%s/Features/%s", deviceId, params["PortId"], model.Id)

	ec.EncodeResponse(model, nil, w)
}

// EthswV1DevicesDeviceIdJournalGet -
func (s *DefaultApiService) EthswV1DevicesDeviceIdJournalGet(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	deviceId := params["DeviceId"]

	model := JournalModel{
		OdataId: fmt.Sprintf("/ethsw/v1/Devices/%s/Journal", deviceId),
	}

	err := s.manager.journalGet(deviceId, &model)

	ec.EncodeResponse(model, err, w)
}

// EthswV1DevicesDeviceIdJournalActionsRestorePost -
func (s *DefaultApiService) EthswV1DevicesDeviceIdJournalActionsRestorePost(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)

	var model JournalActionModel

	err := s.manager.journalRestore(params["DeviceId"], &model)

	ec.EncodeResponse(model, err, w)
}

// EthswV1DevicesDeviceIdJournalActionsCompactPost -
func (s *DefaultApiService) EthswV1DevicesDeviceIdJournalActionsCompactPost(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)

	var model JournalActionModel

	err := s.manager.journalCompact(params["DeviceId"], &model)

	ec.EncodeResponse(model, err, w)
}
