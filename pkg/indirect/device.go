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

// Package indirect implements the indirect register transactions of the switch
// family. Logical sub-registers that are not in the primary register file are
// reached through two mailboxes per port address: the Extended Port Control
// window (command + data register) and the Flow-Control / Limit-Pause window
// (one combined operation register). Completion is found only by polling the
// busy bit, bounded by a fixed retry budget.
package indirect

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/NearNodeFlash/nnf-ethsw/pkg/register"
)

// PortMapper translates a logical port to the device-local physical address
// offset. ok is false for ports the device does not have.
type PortMapper interface {
	Physical(port int) (addr uint8, ok bool)
}

// Observer is notified of every indirect write accepted by the hardware. It is
// called while the device is still locked, so observers see writes in the order
// the hardware did.
type Observer interface {
	Written(dev *Device, w Window, port int, pointer uint8, value uint16) error
}

// Budgets are the retry budgets, in register reads, of the busy bit polls.
// The write and read pre-issue budgets differ in the hardware reference
// sequences and are kept separate.
type Budgets struct {
	ExtWriteIdle      int // Idle poll before issuing an Extended Port Control write
	ExtReadIdle       int // Idle poll before issuing an Extended Port Control read
	FlowCtrlWriteIdle int // Idle poll before issuing a Flow-Control write
	FlowCtrlReadIdle  int // Idle poll before issuing a Flow-Control read latch
	Completion        int // Poll for completion after any command is issued
}

func DefaultBudgets() Budgets {
	return Budgets{
		ExtWriteIdle:      5,
		ExtReadIdle:       16,
		FlowCtrlWriteIdle: 5,
		FlowCtrlReadIdle:  16,
		Completion:        5,
	}
}

func (b Budgets) validate() error {
	for name, v := range map[string]int{
		"ExtWriteIdle":      b.ExtWriteIdle,
		"ExtReadIdle":       b.ExtReadIdle,
		"FlowCtrlWriteIdle": b.FlowCtrlWriteIdle,
		"FlowCtrlReadIdle":  b.FlowCtrlReadIdle,
		"Completion":        b.Completion,
	} {
		if v <= 0 {
			return fmt.Errorf("retry budget %s must be positive: %d", name, v)
		}
	}
	return nil
}

// Config describes a device to attach
type Config struct {
	Name   string     // Name used in logs and by registries
	Number uint8      // Device number on the register access bus
	Base   uint8      // Physical address base of the device's ports
	Layout Layout     // Mailbox register indices
	Ports  PortMapper // Logical port translation
}

type Option func(*Device)

func WithLogger(log logr.Logger) Option {
	return func(d *Device) { d.log = log }
}

func WithBudgets(b Budgets) Option {
	return func(d *Device) { d.budgets = b }
}

// WithPollInterval paces the busy bit polls with an exponential backoff between
// min and max. The default is no delay; the register round trip paces the poll.
func WithPollInterval(min, max time.Duration) Option {
	return func(d *Device) {
		d.pollMin = min
		d.pollMax = max
	}
}

func WithObserver(o Observer) Option {
	return func(d *Device) { d.observers = append(d.observers, o) }
}

// Device is the handle of one attached switch chip. It owns the single lock
// guarding both indirect windows of the chip.
type Device struct {
	name   string
	number uint8
	base   uint8
	layout Layout
	ports  PortMapper
	acc    register.Accessor

	budgets Budgets
	pollMin time.Duration
	pollMax time.Duration

	log       logr.Logger
	observers []Observer

	lock     *deviceLock
	detached bool
}

// Attach creates the device handle and its lock
func Attach(acc register.Accessor, config Config, opts ...Option) (*Device, error) {
	if acc == nil {
		return nil, fmt.Errorf("device %s: register accessor required", config.Name)
	}

	if config.Ports == nil {
		return nil, fmt.Errorf("device %s: port mapper required", config.Name)
	}

	if err := config.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("device %s: %w", config.Name, err)
	}

	d := &Device{
		name:    config.Name,
		number:  config.Number,
		base:    config.Base,
		layout:  config.Layout,
		ports:   config.Ports,
		acc:     acc,
		budgets: DefaultBudgets(),
		log:     logr.Discard(),
		lock:    newDeviceLock(),
	}

	for _, opt := range opts {
		opt(d)
	}

	if err := d.budgets.validate(); err != nil {
		return nil, fmt.Errorf("device %s: %w", config.Name, err)
	}

	if d.pollMin < 0 || d.pollMax < d.pollMin {
		return nil, fmt.Errorf("device %s: invalid poll interval %s..%s", config.Name, d.pollMin, d.pollMax)
	}

	d.log = d.log.WithValues("device", d.name, "number", d.number)
	d.log.V(1).Info("Device attached", "base", d.base, "layout", d.layout)

	return d, nil
}

// Detach waits for any in-flight transaction and retires the device. Later
// operations fail without accessing the hardware.
func (d *Device) Detach() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.detached {
		return ErrDetached
	}

	d.detached = true
	d.log.V(1).Info("Device detached")

	return nil
}

func (d *Device) Name() string      { return d.name }
func (d *Device) Number() uint8     { return d.number }
func (d *Device) Base() uint8       { return d.base }
func (d *Device) Layout() Layout    { return d.layout }
func (d *Device) Budgets() Budgets  { return d.budgets }
func (d *Device) Ports() PortMapper { return d.ports }

// AddObserver registers an observer of accepted writes
func (d *Device) AddObserver(o Observer) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.observers = append(d.observers, o)
}

// Physical returns the physical address of a logical port
func (d *Device) Physical(port int) (uint8, error) {
	offset, ok := d.ports.Physical(port)
	if !ok {
		return 0, fmt.Errorf("device %s has no port %d: %w", d.name, port, ErrBadParam)
	}

	addr := int(d.base) + int(offset)
	if addr > register.MaxPhysicalAddress {
		return 0, fmt.Errorf("device %s port %d address %#x out of range: %w", d.name, port, addr, ErrBadParam)
	}

	return uint8(addr), nil
}

// Exclusive runs fn with the device locked. Window calls fn makes on the same
// goroutine proceed; calls from any other goroutine wait until fn returns.
func (d *Device) Exclusive(fn func() error) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	return fn()
}

// transaction describes one pass through the indirect state machine
type transaction struct {
	window  Window
	op      string
	port    int
	pointer uint8
}

// run resolves the port, then executes fn with the device locked. The lock is
// released on every exit path. fn returns the raw cause of a failure; run
// classifies it.
func (d *Device) run(t transaction, fn func(phys uint8) error) error {
	phys, err := d.Physical(t.port)
	if err != nil {
		return newError(StatusBadParam, t.window, t.op, t.port, t.pointer, err)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.detached {
		return newError(StatusFail, t.window, t.op, t.port, t.pointer, ErrDetached)
	}

	if err := fn(phys); err != nil {
		d.log.Error(err, "Indirect transaction failed", "window", t.window, "op", t.op, "port", t.port, "pointer", t.pointer)
		return newError(StatusFail, t.window, t.op, t.port, t.pointer, err)
	}

	return nil
}

func (d *Device) notify(w Window, port int, pointer uint8, value uint16) {
	for _, o := range d.observers {
		if err := o.Written(d, w, port, pointer, value); err != nil {
			d.log.Error(err, "Write observer failed", "window", w, "port", port, "pointer", pointer)
		}
	}
}

func (d *Device) readRegister(phys, reg uint8) (uint16, error) {
	return d.acc.ReadRegister(d.number, phys, reg)
}

func (d *Device) writeRegister(phys, reg uint8, data uint16) error {
	return d.acc.WriteRegister(d.number, phys, reg, data)
}

// waitIdle polls the busy bit of the mailbox register until it clears
func (d *Device) waitIdle(phys, reg uint8, attempts int) error {
	return d.pollUntil(func() (bool, error) {
		v, err := d.readRegister(phys, reg)
		if err != nil {
			return false, err
		}
		return !isBusy(v), nil
	}, attempts)
}
