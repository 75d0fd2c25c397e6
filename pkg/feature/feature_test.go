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

package feature_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/chip"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/feature"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
)

var _ = Describe("Port Features", func() {

	var mock *indirect.MockAccessor
	var dev *indirect.Device

	BeforeEach(func() {
		p, err := chip.Lookup("Bonsai")
		Expect(err).NotTo(HaveOccurred())

		mock = indirect.NewMockAccessor(p.Layout())
		dev, err = indirect.Attach(mock, p.Config("sw0", 0, 0))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(mock.Violations()).To(BeEmpty())
	})

	It("sets the MTU within range", func() {
		Expect(feature.SetMTU(dev, 2, 9216)).To(Succeed())

		mtu, err := feature.MTU(dev, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(mtu).To(Equal(uint16(9216)))
		Expect(mock.ExtValue(0, 2, feature.MTUPointer)).To(Equal(uint16(9216)))

		mock.ResetCalls()
		Expect(feature.SetMTU(dev, 2, 63)).To(MatchError(indirect.ErrBadParam))
		Expect(feature.SetMTU(dev, 2, 10241)).To(MatchError(indirect.ErrBadParam))
		Expect(mock.CallCount()).To(Equal(0))
	})

	It("sets the ether type", func() {
		Expect(feature.SetEtherType(dev, 0, 0xDADA)).To(Succeed())

		v, err := feature.EtherType(dev, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint16(0xDADA)))
	})

	It("sets the E-CID without disturbing the upper bits", func() {
		mock.SetExtValue(0, 5, feature.ECIDPointer, 0xA000)

		Expect(feature.SetECID(dev, 5, 0x123)).To(Succeed())
		Expect(mock.ExtValue(0, 5, feature.ECIDPointer)).To(Equal(uint16(0xA123)))

		v, err := feature.ECID(dev, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint16(0x123)))

		Expect(feature.SetECID(dev, 5, 0x1000)).To(MatchError(indirect.ErrBadParam))
	})

	It("sets the pause limits", func() {
		Expect(feature.SetPauseLimitIn(dev, 1, 0x40)).To(Succeed())
		Expect(feature.SetPauseLimitOut(dev, 1, 0x20)).To(Succeed())

		in, err := feature.PauseLimitIn(dev, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(in).To(Equal(uint8(0x40)))

		out, err := feature.PauseLimitOut(dev, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(uint8(0x20)))
	})

	It("enables priority flow control per priority", func() {
		Expect(feature.SetPriorityFlowControl(dev, 3, 3, true)).To(Succeed())
		Expect(feature.SetPriorityFlowControl(dev, 3, 7, true)).To(Succeed())
		Expect(mock.FlowCtrlValue(0, 3, feature.PriorityFlowControlPointer)).To(Equal(uint8(0x88)))

		Expect(feature.SetPriorityFlowControl(dev, 3, 3, false)).To(Succeed())
		Expect(mock.FlowCtrlValue(0, 3, feature.PriorityFlowControlPointer)).To(Equal(uint8(0x80)))

		enabled, err := feature.PriorityFlowControl(dev, 3, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(enabled).To(BeTrue())

		enabled, err = feature.PriorityFlowControl(dev, 3, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(enabled).To(BeFalse())

		Expect(feature.SetPriorityFlowControl(dev, 3, 8, true)).To(MatchError(indirect.ErrBadParam))
	})

	It("maps priorities to paused queues", func() {
		for priority := 0; priority <= feature.MaxPriority; priority++ {
			Expect(feature.SetQueueToPause(dev, 4, priority, uint8(1)<<priority)).To(Succeed())
		}

		for priority := 0; priority <= feature.MaxPriority; priority++ {
			q, err := feature.QueueToPause(dev, 4, priority)
			Expect(err).NotTo(HaveOccurred())
			Expect(q).To(Equal(uint8(1) << priority))
			Expect(mock.FlowCtrlValue(0, 4, feature.QueueToPauseBase+uint8(priority))).To(Equal(q))
		}

		_, err := feature.QueueToPause(dev, 4, -1)
		Expect(err).To(MatchError(indirect.ErrBadParam))
	})

	It("reports BAD_PARAM for a port the chip does not have", func() {
		_, err := feature.MTU(dev, 11)
		Expect(indirect.StatusOf(err)).To(Equal(indirect.StatusBadParam))
	})

	Describe("Registry", func() {

		It("finds features by name", func() {
			f, err := feature.Lookup("MTU")
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Window).To(Equal(indirect.ExtendedPortControl))

			Expect(f.Set(dev, 0, 0, 1500)).To(Succeed())
			v, err := f.Get(dev, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint16(1500)))

			_, err = feature.Lookup("speed")
			Expect(err).To(HaveOccurred())

			Expect(feature.Names()).To(ContainElements("ecid", "mtu", "pfc", "queue-to-pause"))
		})

		It("range checks 8 bit and boolean values", func() {
			f, err := feature.Lookup("pause-limit-in")
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Set(dev, 0, 0, 0x100)).To(MatchError(indirect.ErrBadParam))

			f, err = feature.Lookup("pfc")
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Indexed).To(BeTrue())
			Expect(f.Set(dev, 0, 2, 2)).To(MatchError(indirect.ErrBadParam))
			Expect(f.Set(dev, 0, 2, 1)).To(Succeed())

			v, err := f.Get(dev, 0, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint16(1)))
		})
	})
})
