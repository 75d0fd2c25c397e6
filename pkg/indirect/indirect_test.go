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

package indirect_test

import (
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/indirect"
	"github.com/NearNodeFlash/nnf-ethsw/pkg/register"
)

const (
	extCommand uint8 = 0x10
	extData    uint8 = 0x11
	flowCtrl   uint8 = 0x1A
)

var layout = indirect.Layout{ExtCommand: extCommand, ExtData: extData, FlowCtrl: flowCtrl}

// Ports 0..count-1 map directly onto physical addresses
type linearPorts int

func (count linearPorts) Physical(port int) (uint8, bool) {
	if port < 0 || port >= int(count) {
		return 0, false
	}
	return uint8(port), true
}

type recordedWrite struct {
	window  indirect.Window
	port    int
	pointer uint8
	value   uint16
}

type recorder struct {
	writes []recordedWrite
	err    error
}

func (r *recorder) Written(dev *indirect.Device, w indirect.Window, port int, pointer uint8, value uint16) error {
	r.writes = append(r.writes, recordedWrite{w, port, pointer, value})
	return r.err
}

func access(op register.AccessOp, port uint8, reg uint8, data uint16) register.Access {
	return register.Access{Op: op, Address: register.Address{Device: 0, Physical: port, Register: reg}, Data: data}
}

var _ = Describe("Indirect Transaction Engine", func() {

	var mock *indirect.MockAccessor
	var dev *indirect.Device

	BeforeEach(func() {
		var err error
		mock = indirect.NewMockAccessor(layout)
		dev, err = indirect.Attach(mock, indirect.Config{Name: "sw0", Number: 0, Base: 0, Layout: layout, Ports: linearPorts(11)})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(mock.Violations()).To(BeEmpty())
	})

	Describe("Extended Port Control", func() {

		It("writes and reads back a value", func() {
			Expect(dev.ExtWrite(3, 0x20, 0x1234)).To(Succeed())
			Expect(mock.ExtValue(0, 3, 0x20)).To(Equal(uint16(0x1234)))

			Expect(mock.Calls()).To(Equal([]register.Access{
				access(register.ReadOp, 3, extCommand, 0x0000),
				access(register.WriteOp, 3, extData, 0x1234),
				access(register.WriteOp, 3, extCommand, 0xB020),
				access(register.ReadOp, 3, extCommand, 0xB020),
				access(register.ReadOp, 3, extCommand, 0x3020),
			}))

			mock.ResetCalls()

			v, err := dev.ExtRead(3, 0x20)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint16(0x1234)))

			Expect(mock.Calls()).To(Equal([]register.Access{
				access(register.ReadOp, 3, extCommand, 0x3020),
				access(register.WriteOp, 3, extCommand, 0xC020),
				access(register.ReadOp, 3, extCommand, 0xC020),
				access(register.ReadOp, 3, extCommand, 0x4020),
				access(register.ReadOp, 3, extData, 0x1234),
			}))
		})

		It("reads what was written for every pointer", func() {
			for pointer := 0; pointer <= 0xFF; pointer += 0x11 {
				value := uint16(pointer)<<8 | uint16(0xFF-pointer)
				Expect(dev.ExtWrite(7, uint8(pointer), value)).To(Succeed())

				v, err := dev.ExtRead(7, uint8(pointer))
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(value), fmt.Sprintf("pointer %#02x", pointer))
			}
		})

		It("keeps ports independent", func() {
			Expect(dev.ExtWrite(1, 0x01, 1500)).To(Succeed())
			Expect(dev.ExtWrite(2, 0x01, 9000)).To(Succeed())

			v, err := dev.ExtRead(1, 0x01)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint16(1500)))
		})

		It("updates a value in place", func() {
			mock.SetExtValue(0, 4, 0x02, 0xF00F)

			Expect(dev.ExtUpdate(4, 0x02, func(v uint16) uint16 { return v&0xF000 | 0x0ABC })).To(Succeed())
			Expect(mock.ExtValue(0, 4, 0x02)).To(Equal(uint16(0xFABC)))
		})
	})

	Describe("Flow-Control / Limit-Pause", func() {

		It("writes and reads back a value", func() {
			Expect(dev.FlowCtrlWrite(3, 0x10, 0x55)).To(Succeed())
			Expect(mock.FlowCtrlValue(0, 3, 0x10)).To(Equal(uint8(0x55)))

			Expect(mock.Calls()).To(Equal([]register.Access{
				access(register.ReadOp, 3, flowCtrl, 0x0000),
				access(register.WriteOp, 3, flowCtrl, 0x9055),
				access(register.ReadOp, 3, flowCtrl, 0x9055),
				access(register.ReadOp, 3, flowCtrl, 0x1055),
			}))

			mock.ResetCalls()

			v, err := dev.FlowCtrlRead(3, 0x10)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint8(0x55)))

			Expect(mock.Calls()).To(Equal([]register.Access{
				access(register.ReadOp, 3, flowCtrl, 0x1055),
				access(register.WriteOp, 3, flowCtrl, 0x1000),
				access(register.ReadOp, 3, flowCtrl, 0x9055),
				access(register.ReadOp, 3, flowCtrl, 0x1055),
				access(register.ReadOp, 3, flowCtrl, 0x1055),
			}))
		})

		It("reads what was written for every pointer", func() {
			for pointer := 0; pointer <= indirect.FlowCtrlMaxPointer; pointer += 0x0F {
				value := uint8(0xFF - pointer)
				Expect(dev.FlowCtrlWrite(0, uint8(pointer), value)).To(Succeed())

				v, err := dev.FlowCtrlRead(0, uint8(pointer))
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(value), fmt.Sprintf("pointer %#02x", pointer))
			}
		})

		It("updates a value in place", func() {
			mock.SetFlowCtrlValue(0, 5, 0x08, 0x01)

			Expect(dev.FlowCtrlUpdate(5, 0x08, func(v uint8) uint8 { return v | 0x80 })).To(Succeed())
			Expect(mock.FlowCtrlValue(0, 5, 0x08)).To(Equal(uint8(0x81)))
		})

		It("rejects a pointer wider than 7 bits", func() {
			err := dev.FlowCtrlWrite(3, 0x80, 0x55)
			Expect(err).To(MatchError(indirect.ErrBadParam))
			Expect(indirect.StatusOf(err)).To(Equal(indirect.StatusBadParam))

			_, err = dev.FlowCtrlRead(3, 0xFF)
			Expect(err).To(MatchError(indirect.ErrBadParam))

			Expect(mock.CallCount()).To(Equal(0))
		})
	})

	Describe("Port validation", func() {

		DescribeTable("fails fast on an invalid port",
			func(port int) {
				Expect(indirect.StatusOf(dev.ExtWrite(port, 0x20, 0x1234))).To(Equal(indirect.StatusBadParam))

				_, err := dev.ExtRead(port, 0x20)
				Expect(err).To(MatchError(indirect.ErrBadParam))

				Expect(indirect.StatusOf(dev.FlowCtrlWrite(port, 0x10, 0x55))).To(Equal(indirect.StatusBadParam))

				_, err = dev.FlowCtrlRead(port, 0x10)
				Expect(err).To(MatchError(indirect.ErrBadParam))

				Expect(mock.CallCount()).To(Equal(0))
			},
			Entry("negative", -1),
			Entry("one past the last", 11),
			Entry("far out of range", 1000),
		)

		It("rejects a port beyond the physical address space", func() {
			far, err := indirect.Attach(mock, indirect.Config{Name: "sw1", Number: 1, Base: 0x18, Layout: layout, Ports: linearPorts(11)})
			Expect(err).NotTo(HaveOccurred())

			Expect(far.ExtWrite(7, 0x00, 0x8100)).To(Succeed())
			Expect(far.ExtWrite(8, 0x00, 0x8100)).To(MatchError(indirect.ErrBadParam))
		})
	})

	Describe("Retry budgets", func() {

		DescribeTable("fail after exactly the idle budget and release the device",
			func(op func() error, reg uint8, polls int) {
				mock.SetStuck(true)

				err := op()
				Expect(err).To(MatchError(indirect.ErrFail))
				Expect(indirect.StatusOf(err)).To(Equal(indirect.StatusFail))

				var ierr *indirect.Error
				Expect(errors.As(err, &ierr)).To(BeTrue())
				Expect(ierr.IsTimeout()).To(BeTrue())

				calls := mock.Calls()
				Expect(calls).To(HaveLen(polls))
				for _, call := range calls {
					Expect(call.Op).To(Equal(register.ReadOp))
					Expect(call.Address.Register).To(Equal(reg))
				}

				mock.SetStuck(false)
				Expect(op()).To(Succeed())
			},
			Entry("extended write", func() error { return dev.ExtWrite(3, 0x20, 0x1234) }, extCommand, 5),
			Entry("extended read", func() error { _, err := dev.ExtRead(3, 0x20); return err }, extCommand, 16),
			Entry("flow-control write", func() error { return dev.FlowCtrlWrite(3, 0x10, 0x55) }, flowCtrl, 5),
			Entry("flow-control read", func() error { _, err := dev.FlowCtrlRead(3, 0x10); return err }, flowCtrl, 16),
		)

		It("succeeds on the last idle poll of the budget", func() {
			mock.SetExtValue(0, 2, 0x01, 9216)

			mock.HoldBusy(15)
			v, err := dev.ExtRead(2, 0x01)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint16(9216)))

			mock.HoldBusy(4)
			Expect(dev.ExtWrite(2, 0x01, 1518)).To(Succeed())

			mock.HoldBusy(5)
			Expect(dev.ExtWrite(2, 0x01, 1518)).To(MatchError(indirect.ErrFail))
		})

		It("fails when the command never completes", func() {
			mock.SetLatency(4)
			Expect(dev.FlowCtrlWrite(6, 0x01, 0x20)).To(Succeed())

			mock.SetLatency(5)
			err := dev.FlowCtrlWrite(6, 0x01, 0x30)
			Expect(err).To(MatchError(indirect.ErrFail))

			mock.SetLatency(1)
			v, err := dev.FlowCtrlRead(6, 0x01)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint8(0x30)))
		})

		It("honors configured budgets", func() {
			d, err := indirect.Attach(mock, indirect.Config{Name: "sw2", Number: 2, Layout: layout, Ports: linearPorts(4)},
				indirect.WithBudgets(indirect.Budgets{ExtWriteIdle: 2, ExtReadIdle: 3, FlowCtrlWriteIdle: 2, FlowCtrlReadIdle: 3, Completion: 2}))
			Expect(err).NotTo(HaveOccurred())

			mock.SetStuck(true)
			_, err = d.ExtRead(0, 0x00)
			Expect(err).To(MatchError(indirect.ErrFail))
			Expect(mock.CallCount()).To(Equal(3))
			mock.SetStuck(false)
		})
	})

	Describe("Register access errors", func() {

		It("reports FAIL with the cause and releases the device", func() {
			fault := errors.New("mdio timeout")
			addr := register.Address{Device: 0, Physical: 3, Register: extData}

			mock.InjectError(addr, fault)

			err := dev.ExtWrite(3, 0x20, 0x1234)
			Expect(err).To(MatchError(indirect.ErrFail))
			Expect(errors.Is(err, fault)).To(BeTrue())
			Expect(mock.ExtValue(0, 3, 0x20)).To(Equal(uint16(0)))

			mock.InjectError(addr, nil)
			Expect(dev.ExtWrite(3, 0x20, 0x1234)).To(Succeed())
		})

		It("stops polling on the first failed poll", func() {
			mock.InjectError(register.Address{Device: 0, Physical: 1, Register: flowCtrl}, errors.New("bus error"))

			_, err := dev.FlowCtrlRead(1, 0x00)
			Expect(err).To(MatchError(indirect.ErrFail))

			var ierr *indirect.Error
			Expect(errors.As(err, &ierr)).To(BeTrue())
			Expect(ierr.IsTimeout()).To(BeFalse())
			Expect(ierr.Window).To(Equal(indirect.FlowControl))
			Expect(ierr.Port).To(Equal(1))
		})
	})

	Describe("Observers", func() {

		It("sees accepted writes only", func() {
			r := new(recorder)
			dev.AddObserver(r)

			Expect(dev.ExtWrite(1, 0x01, 9000)).To(Succeed())
			Expect(dev.FlowCtrlWrite(1, 0x10, 0x03)).To(Succeed())
			_, err := dev.ExtRead(1, 0x01)
			Expect(err).NotTo(HaveOccurred())

			mock.SetStuck(true)
			Expect(dev.ExtWrite(1, 0x01, 1500)).NotTo(Succeed())
			mock.SetStuck(false)

			Expect(r.writes).To(Equal([]recordedWrite{
				{indirect.ExtendedPortControl, 1, 0x01, 9000},
				{indirect.FlowControl, 1, 0x10, 0x03},
			}))
		})

		It("does not fail the write when the observer fails", func() {
			r := &recorder{err: errors.New("journal full")}
			dev.AddObserver(r)

			Expect(dev.FlowCtrlWrite(2, 0x00, 0x10)).To(Succeed())
			Expect(r.writes).To(HaveLen(1))
		})
	})

	Describe("Detach", func() {

		It("fails every later operation without touching the hardware", func() {
			Expect(dev.Detach()).To(Succeed())

			err := dev.ExtWrite(3, 0x20, 0x1234)
			Expect(err).To(MatchError(indirect.ErrFail))
			Expect(errors.Is(err, indirect.ErrDetached)).To(BeTrue())

			_, err = dev.FlowCtrlRead(3, 0x10)
			Expect(err).To(MatchError(indirect.ErrDetached))

			Expect(mock.CallCount()).To(Equal(0))
			Expect(dev.Detach()).To(MatchError(indirect.ErrDetached))
		})
	})

	Describe("Attach", func() {

		It("rejects overlapping window registers", func() {
			_, err := indirect.Attach(mock, indirect.Config{Name: "bad", Layout: indirect.Layout{ExtCommand: 0x10, ExtData: 0x10, FlowCtrl: 0x1A}, Ports: linearPorts(1)})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an empty budget", func() {
			b := indirect.DefaultBudgets()
			b.Completion = 0

			_, err := indirect.Attach(mock, indirect.Config{Name: "bad", Layout: layout, Ports: linearPorts(1)}, indirect.WithBudgets(b))
			Expect(err).To(HaveOccurred())
		})

		It("requires a port mapper", func() {
			_, err := indirect.Attach(mock, indirect.Config{Name: "bad", Layout: layout})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Concurrency", func() {

		It("never has two transactions in flight on a device", func() {
			mock.SetRecording(false)
			mock.SetLatency(2)

			const iterations = 25

			var wg sync.WaitGroup
			errs := make(chan error, 11*iterations*4)

			for port := 0; port < 11; port++ {
				wg.Add(1)
				go func(port int) {
					defer GinkgoRecover()
					defer wg.Done()

					for i := 0; i < iterations; i++ {
						ext := uint16(port<<8 | i)
						fc := uint8(port*16 + i)

						if err := dev.ExtWrite(port, 0x20, ext); err != nil {
							errs <- err
						}
						if err := dev.FlowCtrlWrite(port, 0x10, fc); err != nil {
							errs <- err
						}

						if v, err := dev.ExtRead(port, 0x20); err != nil {
							errs <- err
						} else if v != ext {
							errs <- fmt.Errorf("port %d: ext read %#04x expected %#04x", port, v, ext)
						}

						if v, err := dev.FlowCtrlRead(port, 0x10); err != nil {
							errs <- err
						} else if v != fc {
							errs <- fmt.Errorf("port %d: fc read %#02x expected %#02x", port, v, fc)
						}
					}
				}(port)
			}

			wg.Wait()
			close(errs)

			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("holds the device across an update", func() {
			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()

					Expect(dev.ExtUpdate(0, 0x30, func(v uint16) uint16 { return v + 1 })).To(Succeed())
				}()
			}
			wg.Wait()

			Expect(mock.ExtValue(0, 0, 0x30)).To(Equal(uint16(32)))
		})

		It("keeps other callers out of an exclusive hold", func() {
			held := make(chan struct{})
			release := make(chan struct{})
			finished := make(chan struct{})

			go func() {
				defer GinkgoRecover()
				defer close(finished)

				Expect(dev.Exclusive(func() error {
					close(held)
					<-release

					// The holder's own transactions take the lock again
					return dev.ExtWrite(5, 0x40, 0x1111)
				})).To(Succeed())
			}()

			Eventually(held).Should(BeClosed())

			done := make(chan error, 1)
			go func() { done <- dev.ExtWrite(5, 0x40, 0x2222) }()

			Consistently(done, "100ms").ShouldNot(Receive())

			close(release)

			var err error
			Eventually(done).Should(Receive(&err))
			Expect(err).NotTo(HaveOccurred())
			Eventually(finished).Should(BeClosed())

			Expect(mock.ExtValue(0, 5, 0x40)).To(Equal(uint16(0x2222)))
		})
	})
})

var _ = Describe("Status", func() {
	It("prints the status names", func() {
		Expect(indirect.StatusOK.String()).To(Equal("OK"))
		Expect(indirect.StatusBadParam.String()).To(Equal("BAD_PARAM"))
		Expect(indirect.StatusFail.String()).To(Equal("FAIL"))
		Expect(indirect.StatusOf(nil)).To(Equal(indirect.StatusOK))
	})
})
