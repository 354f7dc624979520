// Package notify is the local notification store: preferences, a capped
// in-app notification log, permission-gated native alerts, event reminders
// and digests. It never talks to the backend.
//
// Storage and alerter failures are logged and the operation falls back to
// defaults or an empty log instead of returning an error.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/communityhub/internal/client/storage"
	"github.com/dmitrijs2005/communityhub/internal/logging"
	"github.com/dmitrijs2005/communityhub/internal/metrics"
	"github.com/google/uuid"
)

const (
	KeyPreferences   = "notification_preferences"
	KeyNotifications = "notifications"

	// MaxNotifications is the size of the in-app log.
	MaxNotifications = 50
)

// Metric channel labels.
const (
	channelInApp = "in_app"
	channelPush  = "push"
)

type Kind string

const (
	KindEvent      Kind = "event"
	KindDiscussion Kind = "discussion"
	KindReminder   Kind = "reminder"
	KindDigest     Kind = "digest"
	KindSystem     Kind = "system"
)

// Notification is one entry of the in-app log.
type Notification struct {
	ID        string    `json:"id"`
	Type      Kind      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	ActionURL string    `json:"actionUrl,omitempty"`
}

// NewNotification holds the caller-provided fields of a Notification.
type NewNotification struct {
	Type      Kind
	Title     string
	Message   string
	ActionURL string
}

// afterFunc arms f after d and returns its stop function.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

type Option func(*Center)

// WithAlerter sets the native alert capability. Nil means unsupported.
func WithAlerter(a Alerter) Option {
	return func(c *Center) { c.alerter = a }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Center) { c.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Center) { c.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

type Center struct {
	kv      storage.KV
	alerter Alerter
	logger  logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	after   afterFunc

	// mu serializes read-modify-write cycles on the persisted log and
	// preferences.
	mu sync.Mutex

	tasksMu sync.Mutex
	tasks   map[string]*Task
	closed  bool
}

func NewCenter(kv storage.KV, opts ...Option) *Center {
	c := &Center{
		kv:     kv,
		logger: logging.Nop(),
		now:    time.Now,
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
		tasks: make(map[string]*Task),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestPermission asks for native alert permission. It returns false
// without an alerter or after an earlier denial, and never prompts twice
// once the user has decided.
func (c *Center) RequestPermission(ctx context.Context) bool {
	if c.alerter == nil {
		return false
	}
	switch c.alerter.Permission() {
	case PermissionGranted:
		return true
	case PermissionDenied:
		return false
	}

	p, err := c.alerter.RequestPermission(ctx)
	if err != nil {
		c.logger.Warn(ctx, "notification permission request failed", "error", err)
		return false
	}
	return p == PermissionGranted
}

// SendBrowserNotification shows a native alert when push notifications are
// enabled and permission is granted. It reports whether the alert was shown.
func (c *Center) SendBrowserNotification(ctx context.Context, title string, opts AlertOptions) bool {
	if !c.LoadPreferences(ctx).PushNotifications ||
		c.alerter == nil || c.alerter.Permission() != PermissionGranted {
		c.metrics.IncNotification(channelPush, metrics.OutcomeSuppressed)
		return false
	}

	if opts.Icon == "" {
		opts.Icon = DefaultIcon
	}
	if opts.Badge == "" {
		opts.Badge = DefaultIcon
	}
	if err := c.alerter.Show(ctx, title, opts); err != nil {
		c.logger.Warn(ctx, "failed to show notification", "error", err)
		c.metrics.IncNotification(channelPush, metrics.OutcomeFailed)
		return false
	}
	c.metrics.IncNotification(channelPush, metrics.OutcomeDelivered)
	return true
}

// SendInAppNotification prepends a new unread record to the log when in-app
// notifications are enabled. It returns nil when suppressed.
func (c *Center) SendInAppNotification(ctx context.Context, n NewNotification) *Notification {
	if !c.LoadPreferences(ctx).InAppNotifications {
		c.metrics.IncNotification(channelInApp, metrics.OutcomeSuppressed)
		return nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	rec := Notification{
		ID:        id.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Timestamp: c.now(),
		ActionURL: n.ActionURL,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	log := append([]Notification{rec}, c.readLog(ctx)...)
	if len(log) > MaxNotifications {
		log = log[:MaxNotifications]
	}
	c.writeLog(ctx, log)
	c.metrics.IncNotification(channelInApp, metrics.OutcomeDelivered)
	return &rec
}

// Notifications returns the log, newest first.
func (c *Center) Notifications(ctx context.Context) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLog(ctx)
}

// MarkAsRead marks the record with id as read. Unknown ids are ignored.
func (c *Center) MarkAsRead(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.readLog(ctx)
	for i := range log {
		if log[i].ID == id {
			if !log[i].Read {
				log[i].Read = true
				c.writeLog(ctx, log)
			}
			return
		}
	}
}

func (c *Center) MarkAllAsRead(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.readLog(ctx)
	for i := range log {
		log[i].Read = true
	}
	c.writeLog(ctx, log)
}

func (c *Center) UnreadCount(ctx context.Context) int {
	n := 0
	for _, rec := range c.Notifications(ctx) {
		if !rec.Read {
			n++
		}
	}
	return n
}

func (c *Center) ClearNotifications(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Remove(ctx, KeyNotifications); err != nil {
		c.logger.Error(ctx, "failed to clear notifications", "error", err)
	}
}

// readLog must be called with mu held.
func (c *Center) readLog(ctx context.Context) []Notification {
	raw, err := c.kv.Get(ctx, KeyNotifications)
	if err != nil {
		c.logger.Warn(ctx, "failed to read notifications", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var log []Notification
	if err := json.Unmarshal(raw, &log); err != nil {
		c.logger.Warn(ctx, "malformed notification log, starting empty", "error", err)
		return nil
	}
	return log
}

// writeLog must be called with mu held.
func (c *Center) writeLog(ctx context.Context, log []Notification) {
	raw, err := json.Marshal(log)
	if err == nil {
		err = c.kv.Set(ctx, KeyNotifications, raw)
	}
	if err != nil {
		c.logger.Error(ctx, "failed to save notifications", "error", err)
	}
}
