//go:build !linux

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

package register

import "fmt"

type MdioAccessor struct{}

func OpenMdio(interfaces map[uint8]string) (*MdioAccessor, error) {
	return nil, fmt.Errorf("mdio access is only supported on linux")
}

func (*MdioAccessor) Close() error { return nil }

func (*MdioAccessor) ReadRegister(devNum, phyAddr, regAddr uint8) (uint16, error) {
	return 0, fmt.Errorf("mdio access is only supported on linux")
}

func (*MdioAccessor) WriteRegister(devNum, phyAddr, regAddr uint8, data uint16) error {
	return fmt.Errorf("mdio access is only supported on linux")
}
