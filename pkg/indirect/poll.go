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
	"time"

	"github.com/jpillora/backoff"
)

// pollUntil evaluates ready at most attempts times. It returns nil on the first
// ready evaluation, the error of the first failed evaluation, or errTimeout
// once the budget is spent.
func pollUntil(ready func() (bool, error), attempts int, b *backoff.Backoff) error {
	for i := 0; i < attempts; i++ {
		ok, err := ready()
		if err != nil {
			return err
		}

		if ok {
			return nil
		}

		if b != nil && i+1 < attempts {
			time.Sleep(b.Duration())
		}
	}

	return errTimeout
}

func (d *Device) pollUntil(ready func() (bool, error), attempts int) error {
	var b *backoff.Backoff
	if d.pollMax > 0 {
		b = &backoff.Backoff{
			Min:    d.pollMin,
			Max:    d.pollMax,
			Factor: 2,
			Jitter: false,
		}
	}

	return pollUntil(ready, attempts, b)
}
