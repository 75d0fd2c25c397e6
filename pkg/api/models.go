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
	"github.com/NearNodeFlash/nnf-ethsw/pkg/journal"
)

type DeviceCollectionModel struct {
	OdataId string   `json:"@odata.id"`
	Members []string `json:"Members"`
}

type DeviceModel struct {
	OdataId string      `json:"@odata.id"`
	Id      string      `json:"Id"`
	Chip    string      `json:"Chip"`
	Number  uint8       `json:"Number"`
	Base    uint8       `json:"Base"`
	Ports   []PortModel `json:"Ports"`
}

type PortModel struct {
	Port     int    `json:"Port"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	Physical uint8  `json:"Physical"`
}

// RegisterModel is a sub-register of one of the windows. Only Value is read
// from a PUT request.
type RegisterModel struct {
	OdataId string `json:"@odata.id,omitempty"`
	Window  string `json:"Window,omitempty"`
	Port    int    `json:"Port"`
	Pointer uint8  `json:"Pointer"`
	Value   uint16 `json:"Value"`
}

type FeatureCollectionModel struct {
	OdataId string   `json:"@odata.id"`
	Members []string `json:"Members"`
}

// FeatureModel is a feature of a port. Indexed features take the priority in
// the Index query parameter.
type FeatureModel struct {
	OdataId     string `json:"@odata.id,omitempty"`
	Id          string `json:"Id,omitempty"`
	Description string `json:"Description,omitempty"`
	Index       int    `json:"Index,omitempty"`
	Value       uint16 `json:"Value"`
}

type JournalModel struct {
	OdataId string          `json:"@odata.id"`
	Chip    string          `json:"Chip"`
	Session string          `json:"Session"`
	Entries []journal.Entry `json:"Entries"`
}

type JournalActionModel struct {
	Entries int `json:"Entries"`
}
