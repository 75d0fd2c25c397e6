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

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// miiRequest mirrors struct ifreq with the struct mii_ioctl_data union member
type miiRequest struct {
	name   [unix.IFNAMSIZ]byte
	phyID  uint16
	regNum uint16
	valIn  uint16
	valOut uint16
	_      [16]byte
}

// MdioAccessor reaches switch registers through the MII ioctls of the network
// interface the switch's SMI bus hangs off. Each device number maps to one
// interface.
type MdioAccessor struct {
	lock       sync.Mutex
	fd         int
	interfaces map[uint8]string
}

// OpenMdio opens a control socket for the MII ioctls. The interfaces map
// associates a device number with the name of its network interface.
func OpenMdio(interfaces map[uint8]string) (*MdioAccessor, error) {
	for devNum, name := range interfaces {
		if len(name) == 0 || len(name) >= unix.IFNAMSIZ {
			return nil, fmt.Errorf("device %d: invalid interface name '%s'", devNum, name)
		}
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("mdio socket: %w", err)
	}

	ifaces := make(map[uint8]string, len(interfaces))
	for devNum, name := range interfaces {
		ifaces[devNum] = name
	}

	return &MdioAccessor{fd: fd, interfaces: ifaces}, nil
}

func (m *MdioAccessor) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.fd < 0 {
		return nil
	}

	err := unix.Close(m.fd)
	m.fd = -1
	return err
}

func (m *MdioAccessor) newRequest(devNum, phyAddr, regAddr uint8) (*miiRequest, error) {
	if err := ValidateAddress(phyAddr, regAddr); err != nil {
		return nil, err
	}

	name, ok := m.interfaces[devNum]
	if !ok {
		return nil, fmt.Errorf("device %d has no mdio interface", devNum)
	}

	req := &miiRequest{phyID: uint16(phyAddr), regNum: uint16(regAddr)}
	copy(req.name[:], name)

	return req, nil
}

func (m *MdioAccessor) ioctl(op uintptr, req *miiRequest) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.fd < 0 {
		return fmt.Errorf("mdio accessor closed")
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(m.fd), op, uintptr(unsafe.Pointer(req)))
	if errno != 0 {
		return errno
	}

	return nil
}

func (m *MdioAccessor) ReadRegister(devNum, phyAddr, regAddr uint8) (uint16, error) {
	req, err := m.newRequest(devNum, phyAddr, regAddr)
	if err != nil {
		return 0, err
	}

	if err := m.ioctl(unix.SIOCGMIIREG, req); err != nil {
		return 0, fmt.Errorf("mdio read %d:%#02x:%#02x: %w", devNum, phyAddr, regAddr, err)
	}

	return req.valOut, nil
}

func (m *MdioAccessor) WriteRegister(devNum, phyAddr, regAddr uint8, data uint16) error {
	req, err := m.newRequest(devNum, phyAddr, regAddr)
	if err != nil {
		return err
	}

	req.valIn = data

	if err := m.ioctl(unix.SIOCSMIIREG, req); err != nil {
		return fmt.Errorf("mdio write %d:%#02x:%#02x: %w", devNum, phyAddr, regAddr, err)
	}

	return nil
}
