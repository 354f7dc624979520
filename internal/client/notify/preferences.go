package notify

import (
	"context"
	"encoding/json"
)

// Timing is the time of day digests are delivered.
type Timing string

const (
	TimingMorning   Timing = "morning"
	TimingAfternoon Timing = "afternoon"
	TimingEvening   Timing = "evening"
)

// Hour returns the local delivery hour of t.
func (t Timing) Hour() int {
	switch t {
	case TimingAfternoon:
		return 14
	case TimingEvening:
		return 19
	default:
		return 9
	}
}

func (t Timing) Valid() bool {
	switch t {
	case TimingMorning, TimingAfternoon, TimingEvening:
		return true
	}
	return false
}

type Preferences struct {
	EmailDigest        bool   `json:"emailDigest"`
	WeeklySummary      bool   `json:"weeklySummary"`
	InAppNotifications bool   `json:"inAppNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
	SMSAlerts          bool   `json:"smsAlerts"`
	CustomTiming       Timing `json:"customTiming"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		EmailDigest:        true,
		WeeklySummary:      true,
		InAppNotifications: true,
		PushNotifications:  false,
		SMSAlerts:          false,
		CustomTiming:       TimingMorning,
	}
}

// PreferencesUpdate is a partial set of preferences. Nil fields are left
// as they are. It is also the shape persisted preferences are read into,
// so keys missing from storage keep their defaults.
type PreferencesUpdate struct {
	EmailDigest        *bool   `json:"emailDigest,omitempty"`
	WeeklySummary      *bool   `json:"weeklySummary,omitempty"`
	InAppNotifications *bool   `json:"inAppNotifications,omitempty"`
	PushNotifications  *bool   `json:"pushNotifications,omitempty"`
	SMSAlerts          *bool   `json:"smsAlerts,omitempty"`
	CustomTiming       *Timing `json:"customTiming,omitempty"`
}

// Apply returns p with the non-nil fields of u. An unknown timing falls
// back to the default.
func (p Preferences) Apply(u PreferencesUpdate) Preferences {
	if u.EmailDigest != nil {
		p.EmailDigest = *u.EmailDigest
	}
	if u.WeeklySummary != nil {
		p.WeeklySummary = *u.WeeklySummary
	}
	if u.InAppNotifications != nil {
		p.InAppNotifications = *u.InAppNotifications
	}
	if u.PushNotifications != nil {
		p.PushNotifications = *u.PushNotifications
	}
	if u.SMSAlerts != nil {
		p.SMSAlerts = *u.SMSAlerts
	}
	if u.CustomTiming != nil {
		p.CustomTiming = *u.CustomTiming
	}
	if !p.CustomTiming.Valid() {
		p.CustomTiming = DefaultPreferences().CustomTiming
	}
	return p
}

// LoadPreferences returns the persisted preferences overlaid on the
// defaults. Unreadable data yields the defaults.
func (c *Center) LoadPreferences(ctx context.Context) Preferences {
	defaults := DefaultPreferences()

	raw, err := c.kv.Get(ctx, KeyPreferences)
	if err != nil {
		c.logger.Warn(ctx, "failed to read notification preferences", "error", err)
		return defaults
	}
	if raw == nil {
		return defaults
	}

	var stored PreferencesUpdate
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.logger.Warn(ctx, "malformed notification preferences, using defaults", "error", err)
		return defaults
	}
	return defaults.Apply(stored)
}

// SavePreferences merges u into the current preferences and persists the
// result. A failed write is logged; the merged value is returned either way.
func (c *Center) SavePreferences(ctx context.Context, u PreferencesUpdate) Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefs := c.LoadPreferences(ctx).Apply(u)
	raw, err := json.Marshal(prefs)
	if err == nil {
		err = c.kv.Set(ctx, KeyPreferences, raw)
	}
	if err != nil {
		c.logger.Error(ctx, "failed to save notification preferences", "error", err)
	}
	return prefs
}
