// Package notify sends replenishment requests through a configured channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/labstock/internal/model"
)

var (
	// ErrMissingInput is returned when neither an item id nor a name is given.
	ErrMissingInput = errors.New("item id or item name is required")
	// ErrNotConfigured is returned when no usable transport is configured.
	ErrNotConfigured = errors.New("notification channel not configured")
)

// TransportError wraps a failure reported by a transport.
type TransportError struct {
	Channel string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Request is one replenishment request.
type Request struct {
	ItemID       string `json:"itemId"`
	ItemName     string `json:"itemName"`
	Note         string `json:"note"`
	Link         string `json:"-"`
	PurchaseLink string `json:"-"`
}

// Subject returns the item name, falling back to the id.
func (r Request) Subject() string {
	if r.ItemName != "" {
		return r.ItemName
	}
	return r.ItemID
}

// Result is the outcome of a successful dispatch.
type Result struct {
	Channel     string   `json:"channel"`
	Accepted    []string `json:"accepted"`
	Rejected    []string `json:"rejected"`
	TransportID string   `json:"transportId,omitempty"`
}

// Transport delivers a request over one channel.
type Transport interface {
	Name() string
	// Configured reports whether credentials and a destination are present.
	Configured() bool
	Send(ctx context.Context, req Request) (*Result, error)
}

// Journal records dispatch attempts.
type Journal interface {
	Record(ctx context.Context, n model.Notification) error
}

// Dispatcher validates requests and hands them to a transport. It makes a
// single attempt per call.
type Dispatcher struct {
	transport Transport
	journal   Journal
}

// NewDispatcher creates a dispatcher. Both arguments may be nil.
func NewDispatcher(t Transport, j Journal) *Dispatcher {
	return &Dispatcher{transport: t, journal: j}
}

// Channel returns the transport name, or "" when none is set.
func (d *Dispatcher) Channel() string {
	if d == nil || d.transport == nil {
		return ""
	}
	return d.transport.Name()
}

// Configured reports whether Dispatch can reach a transport.
func (d *Dispatcher) Configured() bool {
	return d != nil && d.transport != nil && d.transport.Configured()
}

// Dispatch sends req once.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.ItemName = strings.TrimSpace(req.ItemName)
	req.Note = strings.TrimSpace(req.Note)
	if req.ItemID == "" && req.ItemName == "" {
		return nil, ErrMissingInput
	}
	if !d.Configured() {
		return nil, ErrNotConfigured
	}

	channel := d.transport.Name()
	res, err := d.transport.Send(ctx, req)
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			te = &TransportError{Channel: channel, Err: err}
		}
		slog.Error("failed to send notification", "channel", channel, "item", req.ItemID, "error", te.Err)
		d.record(ctx, req, model.Notification{Channel: channel, Status: model.NotificationFailed, Error: te.Err.Error()})
		return nil, te
	}

	slog.Info("notification sent", "channel", channel, "item", req.ItemID, "transport_id", res.TransportID)
	d.record(ctx, req, model.Notification{Channel: channel, Status: model.NotificationSent, TransportID: res.TransportID})
	return res, nil
}

func (d *Dispatcher) record(ctx context.Context, req Request, n model.Notification) {
	if d.journal == nil || req.ItemID == "" {
		return
	}
	n.ItemID = req.ItemID
	if err := d.journal.Record(context.WithoutCancel(ctx), n); err != nil {
		slog.Warn("failed to record notification", "item", req.ItemID, "error", err)
	}
}

// Message is a composed plain-text notification.
type Message struct {
	Subject string
	Lines   []string
}

// Body joins the message lines.
func (m Message) Body() string {
	return strings.Join(m.Lines, "\n")
}

// Compose builds the email form of a request. Lines whose value is missing
// are omitted.
func Compose(req Request) Message {
	subject := req.Subject()
	lines := []string{
		"Hey, this is an automated message from the Lab Inventory Management System.",
		fmt.Sprintf("It's been notified that %s should be replenished.", subject),
	}
	if req.Link != "" {
		lines = append(lines, "Item link: "+req.Link)
	}
	if req.PurchaseLink != "" {
		lines = append(lines, "Buy link: "+req.PurchaseLink)
	}
	if req.Note != "" {
		lines = append(lines, "Note: "+req.Note)
	}
	return Message{Subject: "Replenish request: " + subject, Lines: lines}
}

// Channel names.
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// NewTransport selects a transport by channel name. An empty name picks
// the first configured one, preferring email.
func NewTransport(channel string, email EmailConfig, webhookURL string) (Transport, error) {
	e := NewEmail(email)
	w := NewWebhook(webhookURL)

	switch channel {
	case ChannelEmail:
		return e, nil
	case ChannelWebhook:
		return w, nil
	case "":
		if !e.Configured() && w.Configured() {
			return w, nil
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown notification channel %q", channel)
	}
}
