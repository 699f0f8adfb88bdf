package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/analogdevicesinc/automl-embedded/pkg/controller"
	"github.com/analogdevicesinc/automl-embedded/pkg/util"
)

// Mailbox queues messages for the view until a client fetches them
type Mailbox struct {
	mu       sync.Mutex
	visible  bool
	messages []json.RawMessage
}

// NewMailbox creates a visible, empty mailbox
func NewMailbox() *Mailbox {
	return &Mailbox{visible: true}
}

func (m *Mailbox) Post(msg controller.Outbound) {
	data, err := controller.Encode(msg)
	if err != nil {
		util.ComponentLogger("server").Error(err, "Dropping view message", "type", msg.Type())
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, data)
}

func (m *Mailbox) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// SetVisible records whether a client currently shows the view
func (m *Mailbox) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = visible
}

// Drain returns and forgets the queued messages
func (m *Mailbox) Drain() []json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.messages
	m.messages = nil
	if out == nil {
		out = []json.RawMessage{}
	}
	return out
}

// Notification is an informational or error dialog raised by the controller
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notifications collects dialogs for HTTP clients. File dialogs cannot be
// shown remotely and always report a cancellation; clients send updateField
// with the chosen path instead.
type Notifications struct {
	mu    sync.Mutex
	items []Notification
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (n *Notifications) add(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notification{Level: level, Message: msg})
}

func (n *Notifications) ShowInfo(msg string)  { n.add("info", msg) }
func (n *Notifications) ShowError(msg string) { n.add("error", msg) }

func (n *Notifications) OpenFile(context.Context, controller.OpenOptions) (string, bool) {
	return "", false
}

func (n *Notifications) SaveFile(context.Context, controller.SaveOptions) (string, bool) {
	return "", false
}

// Drain returns and forgets the collected notifications
func (n *Notifications) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.items
	n.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// OutputLog is the output channel exposed over HTTP. Clients read it
// incrementally by offset.
type OutputLog struct {
	mu  sync.Mutex
	buf []byte
}

func NewOutputLog() *OutputLog {
	return &OutputLog{}
}

func (o *OutputLog) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf = append(o.buf, p...)
	return len(p), nil
}

// ReadFrom returns the output written after offset and the next offset
func (o *OutputLog) ReadFrom(offset int) (string, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if offset < 0 || offset > len(o.buf) {
		offset = 0
	}
	return string(o.buf[offset:]), len(o.buf)
}
