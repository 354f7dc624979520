package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

// SendDailyDigest emits one in-app summary with the number of events
// happening today when the email digest preference is on, even when the
// count is zero.
func (c *Center) SendDailyDigest(ctx context.Context, events []models.Event) *Notification {
	if !c.LoadPreferences(ctx).EmailDigest {
		return nil
	}

	start := startOfDay(c.now())
	n := countBetween(events, start, start.AddDate(0, 0, 1))
	return c.SendInAppNotification(ctx, NewNotification{
		Type:    KindDigest,
		Title:   "Daily Digest",
		Message: fmt.Sprintf("You have %d %s today", n, plural(n, "event", "events")),
	})
}

// SendWeeklySummary emits one in-app summary of the events of the current
// week, which starts on Sunday.
func (c *Center) SendWeeklySummary(ctx context.Context, events []models.Event) *Notification {
	if !c.LoadPreferences(ctx).WeeklySummary {
		return nil
	}

	start := startOfWeek(c.now())
	n := countBetween(events, start, start.AddDate(0, 0, 7))
	return c.SendInAppNotification(ctx, NewNotification{
		Type:    KindDigest,
		Title:   "Weekly Summary",
		Message: fmt.Sprintf("%d %s this week", n, plural(n, "event", "events")),
	})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}

// countBetween counts events in [from, to), compared in from's location.
func countBetween(events []models.Event, from, to time.Time) int {
	n := 0
	for _, e := range events {
		d := e.Date.In(from.Location())
		if !d.Before(from) && d.Before(to) {
			n++
		}
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
