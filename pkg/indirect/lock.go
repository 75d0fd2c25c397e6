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
	"sync"

	"go.chromium.org/luci/common/runtime/goroutine"
)

// deviceLock serializes all indirect window activity on a device. The mailbox
// register pairs are shared by every port of the device, so a transaction must
// own the device from its first idle poll through fetching its result.
//
// The lock is re-entrant for the owning goroutine. A caller holding the device
// through Exclusive issues ordinary window transactions, each of which takes
// the lock again on its own.
type deviceLock struct {
	mainLock  sync.Mutex   // Held while any goroutine owns the device
	innerLock sync.Mutex   // Guards the ownership fields below
	cond      *sync.Cond   // Signalled when ownership /might/ be available
	id        goroutine.ID // Owning goroutine
	count     int          // Nesting depth of the owner
}

func newDeviceLock() *deviceLock {
	l := new(deviceLock)

	l.id = goroutine.ID(^uint64(0))
	l.count = 0
	l.cond = sync.NewCond(&l.innerLock)

	return l
}

// Lock blocks until the calling goroutine owns the device. There is no timeout.
func (l *deviceLock) Lock() {
	id := goroutine.CurID()

	l.innerLock.Lock()

	for {
		if l.count == 0 {
			l.id = id
			break
		}

		if l.id == id {
			break
		}

		l.cond.Wait()
	}

	l.count++
	if l.count == 1 {
		l.mainLock.Lock()
	}

	l.innerLock.Unlock()
}

func (l *deviceLock) Unlock() {
	l.innerLock.Lock()

	l.count--
	if l.count == 0 {
		l.id = goroutine.ID(^uint64(0))
		l.mainLock.Unlock()
		l.cond.Signal()
	}

	l.innerLock.Unlock()
}
