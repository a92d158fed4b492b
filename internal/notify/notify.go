// Package notify shows the adjustment readout as a desktop notification.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyCall = busName + ".Notify"
	closeCall  = busName + ".CloseNotification"
)

// Caller is the part of dbus.BusObject the notifier uses.
type Caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier keeps a single notification on screen and replaces its text on
// every Show. D-Bus calls happen on a background goroutine; a newer text
// supersedes one that has not been sent yet.
type Notifier struct {
	obj     Caller
	appName string
	timeout time.Duration
	logger  *slog.Logger

	mu sync.Mutex
	id uint32

	pending chan string
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSessionNotifier connects to the session bus.
func NewSessionNotifier(appName string, timeout time.Duration, logger *slog.Logger) (*Notifier, error) {
	bus, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	return New(bus.Object(busName, objectPath), appName, timeout, logger), nil
}

// New starts a notifier that talks to obj.
func New(obj Caller, appName string, timeout time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		obj:     obj,
		appName: appName,
		timeout: timeout,
		logger:  logger,
		pending: make(chan string, 1),
		done:    make(chan struct{}),
	}
	n.wg.Add(1)
	go n.loop()
	return n
}

// Show queues text for display without blocking.
func (n *Notifier) Show(text string) {
	for {
		select {
		case n.pending <- text:
			return
		default:
		}
		// Drop the stale text and retry.
		select {
		case <-n.pending:
		default:
		}
	}
}

// Close stops the sender goroutine and withdraws the notification.
func (n *Notifier) Close() {
	close(n.done)
	n.wg.Wait()

	n.mu.Lock()
	id := n.id
	n.id = 0
	n.mu.Unlock()
	if id != 0 {
		if err := n.obj.Call(closeCall, 0, id).Err; err != nil {
			n.logger.Debug("close notification failed", "id", id, "error", err)
		}
	}
}

// ID returns the id of the notification currently owned, 0 if none.
func (n *Notifier) ID() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.id
}

func (n *Notifier) loop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case text := <-n.pending:
			if err := n.notify(text); err != nil {
				n.logger.Warn("notification failed", "error", err)
			}
		}
	}
}

// notify sends text, replacing the previous notification.
func (n *Notifier) notify(text string) error {
	n.mu.Lock()
	replaces := n.id
	n.mu.Unlock()

	hints := map[string]dbus.Variant{
		"transient": dbus.MakeVariant(true),
		"urgency":   dbus.MakeVariant(byte(0)),
	}
	call := n.obj.Call(notifyCall, 0,
		n.appName, replaces, "", text, "", []string{}, hints, int32(n.timeout/time.Millisecond))
	if call.Err != nil {
		return call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("decode notification id: %w", err)
	}

	n.mu.Lock()
	n.id = id
	n.mu.Unlock()
	return nil
}
