package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/communityhub/internal/client/notify"
)

// Notifications prints the in-app log, newest first.
func (a *App) Notifications(ctx context.Context, _ []string) error {
	log := a.center.Notifications(ctx)
	if len(log) == 0 {
		fmt.Fprintln(a.out, "No notifications.")
		return nil
	}
	for i, n := range log {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s%3d. %s  %s: %s\n", mark, i+1, n.Timestamp.Local().Format(dateLayout), n.Title, n.Message)
	}
	fmt.Fprintf(a.out, "%d unread\n", a.center.UnreadCount(ctx))
	return nil
}

// Read marks one notification as read. The argument is either the position
// shown by "notifications" or the notification id.
func (a *App) Read(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: read <number|id>")
		return errUsage
	}
	id := args[0]
	if n, err := strconv.Atoi(id); err == nil {
		log := a.center.Notifications(ctx)
		if n < 1 || n > len(log) {
			fmt.Fprintln(a.out, "No such notification.")
			return errUsage
		}
		id = log[n-1].ID
	}
	a.center.MarkAsRead(ctx, id)
	return nil
}

func (a *App) ReadAll(ctx context.Context, _ []string) error {
	a.center.MarkAllAsRead(ctx)
	fmt.Fprintln(a.out, "All notifications marked as read.")
	return nil
}

func (a *App) Clear(ctx context.Context, _ []string) error {
	a.center.ClearNotifications(ctx)
	fmt.Fprintln(a.out, "Notifications cleared.")
	return nil
}

// Prefs prints the notification preferences.
func (a *App) Prefs(ctx context.Context, _ []string) error {
	p := a.center.LoadPreferences(ctx)
	fmt.Fprintf(a.out, "emailDigest    %t\n", p.EmailDigest)
	fmt.Fprintf(a.out, "weeklySummary  %t\n", p.WeeklySummary)
	fmt.Fprintf(a.out, "inApp          %t\n", p.InAppNotifications)
	fmt.Fprintf(a.out, "push           %t\n", p.PushNotifications)
	fmt.Fprintf(a.out, "sms            %t\n", p.SMSAlerts)
	fmt.Fprintf(a.out, "timing         %s\n", p.CustomTiming)
	return nil
}

// Set changes one preference, e.g. "set push on" or "set timing evening".
// A timing change moves the digest schedule.
func (a *App) Set(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: set <emailDigest|weeklySummary|inApp|push|sms|timing> <value>")
		return errUsage
	}
	u, err := parsePreference(args[0], args[1])
	if err != nil {
		a.printErr(err)
		return err
	}
	a.center.SavePreferences(ctx, u)
	if u.CustomTiming != nil && a.config.DigestEnabled {
		if err := a.scheduler.Reschedule(ctx); err != nil {
			a.logger.Warn(ctx, "digest reschedule failed", "error", err)
		}
	}
	return a.Prefs(ctx, nil)
}

func parsePreference(key, value string) (notify.PreferencesUpdate, error) {
	var u notify.PreferencesUpdate
	if strings.EqualFold(key, "timing") {
		t := notify.Timing(strings.ToLower(value))
		if !t.Valid() {
			return u, fmt.Errorf("unknown timing %q, use morning, afternoon or evening", value)
		}
		u.CustomTiming = &t
		return u, nil
	}

	on, err := parseSwitch(value)
	if err != nil {
		return u, err
	}
	switch strings.ToLower(key) {
	case "emaildigest":
		u.EmailDigest = &on
	case "weeklysummary":
		u.WeeklySummary = &on
	case "inapp":
		u.InAppNotifications = &on
	case "push":
		u.PushNotifications = &on
	case "sms":
		u.SMSAlerts = &on
	default:
		return u, fmt.Errorf("unknown preference %q", key)
	}
	return u, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// Allow asks for permission to show native alerts.
func (a *App) Allow(ctx context.Context, _ []string) error {
	if a.center.RequestPermission(ctx) {
		fmt.Fprintln(a.out, "Alerts enabled.")
	} else {
		fmt.Fprintln(a.out, "Alerts are not available.")
	}
	return nil
}

// Digest sends the daily digest, or the weekly summary with "weekly", now
// instead of at the scheduled time.
func (a *App) Digest(ctx context.Context, args []string) error {
	var n *notify.Notification
	if len(args) > 0 && strings.HasPrefix(strings.ToLower(args[0]), "w") {
		n = a.scheduler.RunWeekly(ctx)
	} else {
		n = a.scheduler.RunDaily(ctx)
	}
	if n == nil {
		fmt.Fprintln(a.out, "Nothing to report.")
		return nil
	}
	fmt.Fprintf(a.out, "%s: %s\n", n.Title, n.Message)
	return nil
}

// validationMessage renders one backend validation entry. Entries are
// usually objects with a message and the offending field.
func validationMessage(raw json.RawMessage) string {
	var v struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Field   string `json:"field"`
		Path    string `json:"path"`
		Param   string `json:"param"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return string(raw)
	}
	msg := v.Msg
	if msg == "" {
		msg = v.Message
	}
	field := v.Field
	if field == "" {
		field = v.Path
	}
	if field == "" {
		field = v.Param
	}
	switch {
	case msg == "":
		return string(raw)
	case field != "":
		return field + ": " + msg
	default:
		return msg
	}
}
