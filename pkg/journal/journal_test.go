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

package journal_test

import (
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/chip"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/feature"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/journal"
)

type observerFunc func(dev *indirect.Device, w indirect.Window, port int, pointer uint8, value uint16) error

func (f observerFunc) Written(dev *indirect.Device, w indirect.Window, port int, pointer uint8, value uint16) error {
	return f(dev, w, port, pointer, value)
}

var _ = Describe("Write Journal", func() {

	var profile *chip.Profile

	attach := func(name string) (*indirect.MockAccessor, *indirect.Device) {
		mock := indirect.NewMockAccessor(profile.Layout())
		dev, err := indirect.Attach(mock, profile.Config(name, 0, 0))
		Expect(err).NotTo(HaveOccurred())
		return mock, dev
	}

	BeforeEach(func() {
		var err error
		profile, err = chip.Lookup("Oak")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Recording", func() {

		var j *journal.Journal

		BeforeEach(func() {
			var err error
			j, err = journal.Open("", logr.Discard())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(j.Close()).To(Succeed())
		})

		It("records accepted writes in order", func() {
			mock, dev := attach("sw0")
			Expect(j.Track(dev, profile.Name)).To(Succeed())

			Expect(feature.SetMTU(dev, 1, 9216)).To(Succeed())
			Expect(feature.SetPauseLimitIn(dev, 2, 0x40)).To(Succeed())
			Expect(feature.SetPriorityFlowControl(dev, 2, 3, true)).To(Succeed())

			mock.SetStuck(true)
			Expect(feature.SetMTU(dev, 1, 1500)).NotTo(Succeed())
			mock.SetStuck(false)

			metadata, entries, err := j.Entries("sw0")
			Expect(err).NotTo(HaveOccurred())
			Expect(metadata.Chip).To(Equal("Oak"))
			Expect(metadata.Session).To(Equal(j.Session()))

			Expect(entries).To(Equal([]journal.Entry{
				{Window: indirect.ExtendedPortControl, Port: 1, Pointer: feature.MTUPointer, Value: 9216},
				{Window: indirect.FlowControl, Port: 2, Pointer: feature.PauseLimitInPointer, Value: 0x40},
				{Window: indirect.FlowControl, Port: 2, Pointer: feature.PriorityFlowControlPointer, Value: 0x08},
			}))

			Expect(j.Verify()).To(Succeed())
		})

		It("refuses to track a device twice", func() {
			_, dev := attach("sw0")
			Expect(j.Track(dev, profile.Name)).To(Succeed())
			Expect(j.Track(dev, profile.Name)).NotTo(Succeed())
		})

		It("compacts overwritten entries", func() {
			_, dev := attach("sw0")
			Expect(j.Track(dev, profile.Name)).To(Succeed())

			for _, mtu := range []uint16{1500, 9000, 9216} {
				Expect(feature.SetMTU(dev, 0, mtu)).To(Succeed())
			}
			Expect(feature.SetEtherType(dev, 0, 0xDADA)).To(Succeed())
			Expect(feature.SetMTU(dev, 1, 1518)).To(Succeed())

			dropped, err := j.Compact("sw0")
			Expect(err).NotTo(HaveOccurred())
			Expect(dropped).To(Equal(2))

			_, entries, err := j.Entries("sw0")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].Value).To(Equal(uint16(9216)))

			// Writes after compaction continue the same ledger
			Expect(feature.SetMTU(dev, 2, 2000)).To(Succeed())
			_, entries, err = j.Entries("sw0")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(4))
		})

		It("clears a device's ledger", func() {
			_, dev := attach("sw0")
			Expect(j.Track(dev, profile.Name)).To(Succeed())

			Expect(feature.SetMTU(dev, 0, 1500)).To(Succeed())
			Expect(j.Clear("sw0", profile.Name)).To(Succeed())

			_, entries, err := j.Entries("sw0")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())

			Expect(j.Devices()).To(Equal([]string{"sw0"}))
		})
	})

	Describe("Restore", func() {

		It("puts the settings back on a reset device", func() {
			path := filepath.Join(GinkgoT().TempDir(), "journal.db")

			{
				j, err := journal.Open(path, logr.Discard())
				Expect(err).NotTo(HaveOccurred())

				_, dev := attach("sw0")
				Expect(j.Track(dev, profile.Name)).To(Succeed())

				Expect(feature.SetMTU(dev, 3, 9216)).To(Succeed())
				Expect(feature.SetQueueToPause(dev, 3, 5, 0x20)).To(Succeed())
				Expect(feature.SetECID(dev, 4, 0x123)).To(Succeed())

				Expect(j.Close()).To(Succeed())
			}

			j, err := journal.Open(path, logr.Discard())
			Expect(err).NotTo(HaveOccurred())
			defer j.Close()

			Expect(j.Verify()).To(Succeed())

			mock, dev := attach("sw0")
			Expect(j.Track(dev, profile.Name)).To(Succeed())

			count, err := j.Restore(dev)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(3))

			Expect(mock.ExtValue(0, 0x13, feature.MTUPointer)).To(Equal(uint16(9216)))
			Expect(mock.FlowCtrlValue(0, 0x13, feature.QueueToPauseBase+5)).To(Equal(uint8(0x20)))
			Expect(mock.ExtValue(0, 0x14, feature.ECIDPointer)).To(Equal(uint16(0x123)))
			Expect(mock.Violations()).To(BeEmpty())

			// The restored writes are not logged a second time
			_, entries, err := j.Entries("sw0")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
		})

		It("logs writes made by other callers during a restore", func() {
			j, err := journal.Open("", logr.Discard())
			Expect(err).NotTo(HaveOccurred())
			defer j.Close()

			mock, dev := attach("sw0")
			Expect(j.Track(dev, profile.Name)).To(Succeed())

			const logged = 64
			for i := 0; i < logged; i++ {
				Expect(feature.SetMTU(dev, i%4, uint16(1500+i))).To(Succeed())
			}

			mock.SetRecording(false)
			mock.SetLatency(2)

			// Another caller starts writing once the replay is under way
			const concurrent = 16
			var once sync.Once
			var wg sync.WaitGroup
			dev.AddObserver(observerFunc(func(*indirect.Device, indirect.Window, int, uint8, uint16) error {
				once.Do(func() {
					wg.Add(1)
					go func() {
						defer GinkgoRecover()
						defer wg.Done()

						for i := 0; i < concurrent; i++ {
							Expect(feature.SetEtherType(dev, 5, uint16(0x8800+i))).To(Succeed())
						}
					}()
				})
				return nil
			}))

			count, err := j.Restore(dev)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(logged))

			wg.Wait()

			_, entries, err := j.Entries("sw0")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(logged + concurrent))

			for i, e := range entries[logged:] {
				Expect(e).To(Equal(journal.Entry{Window: indirect.ExtendedPortControl, Port: 5, Pointer: feature.EtherTypePointer, Value: uint16(0x8800 + i)}))
			}

			Expect(mock.Violations()).To(BeEmpty())
		})
	})
})
