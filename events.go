// Package s7ua is the Service Coordinator: the orchestration layer
// callers drive, wiring the Data Store, the Main Client, the Discovery
// Engine, and the Type Codec Registry into the five operations named in
// spec.md §4.6.
package s7ua

import (
	"sync"

	"github.com/s7ua-go/s7ua/opcuaclient"
	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/store"
)

// VariableValueChanged is emitted whenever a read cycle, a re-type, or
// a monitored-item notification finds a variable's value differs from
// what the store held (spec.md §4.6).
type VariableValueChanged struct {
	Path string
	Old  *store.Variable
	New  *store.Variable
}

// MonitoredItemChanged is emitted for every monitored-item notification,
// independent of whether the decoded value actually differs from the
// store (spec.md §4.4: "On every notification ... emit a
// monitored-item-changed event").
type MonitoredItemChanged struct {
	DisplayName string
	NodeID      string
	Raw         ports.Value
}

// ConnectionStateChanged forwards the Main Client's lifecycle
// transitions to the coordinator's own subscribers (spec.md §4.6:
// "forwards connection lifecycle events").
type ConnectionStateChanged struct {
	From opcuaclient.ConnState
	To   opcuaclient.ConnState
}

// Unsubscribe detaches a previously registered handler. Calling it more
// than once is a no-op.
type Unsubscribe func()

// EventBus is an explicit registration/deregistration list per event
// type — the redesign of the teacher's address-keyed multicast Delegate
// (delegate.go) into one ordered callback slice per concrete event,
// since this module has no equivalent of an IEC object address to key
// on (spec.md §9). Handlers run synchronously, in registration order,
// on the caller's own goroutine.
type EventBus struct {
	mu sync.Mutex

	variableChanged []func(VariableValueChanged)
	itemChanged     []func(MonitoredItemChanged)
	connChanged     []func(ConnectionStateChanged)
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus { return &EventBus{} }

// OnVariableChanged registers a handler, returning the function that
// detaches it.
func (b *EventBus) OnVariableChanged(h func(VariableValueChanged)) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.variableChanged = append(b.variableChanged, h)
	idx := len(b.variableChanged) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.variableChanged) {
			b.variableChanged[idx] = nil
		}
	}
}

// OnMonitoredItemChanged registers a handler, returning the function
// that detaches it.
func (b *EventBus) OnMonitoredItemChanged(h func(MonitoredItemChanged)) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.itemChanged = append(b.itemChanged, h)
	idx := len(b.itemChanged) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.itemChanged) {
			b.itemChanged[idx] = nil
		}
	}
}

// OnConnectionStateChanged registers a handler, returning the function
// that detaches it.
func (b *EventBus) OnConnectionStateChanged(h func(ConnectionStateChanged)) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connChanged = append(b.connChanged, h)
	idx := len(b.connChanged) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.connChanged) {
			b.connChanged[idx] = nil
		}
	}
}

func (b *EventBus) emitVariableChanged(e VariableValueChanged) {
	b.mu.Lock()
	handlers := append([]func(VariableValueChanged){}, b.variableChanged...)
	b.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(e)
		}
	}
}

func (b *EventBus) emitMonitoredItemChanged(e MonitoredItemChanged) {
	b.mu.Lock()
	handlers := append([]func(MonitoredItemChanged){}, b.itemChanged...)
	b.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(e)
		}
	}
}

func (b *EventBus) emitConnectionStateChanged(e ConnectionStateChanged) {
	b.mu.Lock()
	handlers := append([]func(ConnectionStateChanged){}, b.connChanged...)
	b.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(e)
		}
	}
}
