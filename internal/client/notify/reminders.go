package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultReminderMinutes = 15

// Task is an armed one-shot reminder. Tasks live in memory only and are
// lost when the process exits.
type Task struct {
	ID         string
	EventTitle string
	FireAt     time.Time

	center *Center
	once   sync.Once
	stop   func() bool
}

// Cancel disarms the task. It reports whether the task was still pending.
func (t *Task) Cancel() bool {
	stopped := false
	t.once.Do(func() {
		stopped = t.stop()
		t.center.dropTask(t.ID)
	})
	return stopped
}

// ScheduleEventReminder arms a reminder minutes before eventDate. When that
// instant has already passed nothing is scheduled and ok is false.
func (c *Center) ScheduleEventReminder(ctx context.Context, eventTitle string, eventDate time.Time, minutes int) (*Task, bool) {
	fireAt := eventDate.Add(-time.Duration(minutes) * time.Minute)
	delay := fireAt.Sub(c.now())
	if delay <= 0 {
		return nil, false
	}

	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()
	if c.closed {
		return nil, false
	}

	t := &Task{ID: uuid.NewString(), EventTitle: eventTitle, FireAt: fireAt, center: c}
	fireCtx := context.WithoutCancel(ctx)
	t.stop = c.after(delay, func() {
		t.once.Do(func() {
			c.dropTask(t.ID)
			c.fireReminder(fireCtx, eventTitle, minutes)
		})
	})
	c.tasks[t.ID] = t
	c.metrics.SetPendingReminders(len(c.tasks))
	return t, true
}

// PendingReminders lists armed reminders by fire time.
func (c *Center) PendingReminders() []*Task {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()

	out := make([]*Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// Close cancels every pending reminder. Later schedules are refused.
func (c *Center) Close() error {
	c.tasksMu.Lock()
	c.closed = true
	tasks := make([]*Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		tasks = append(tasks, t)
	}
	c.tasksMu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	return nil
}

func (c *Center) dropTask(id string) {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()
	delete(c.tasks, id)
	c.metrics.SetPendingReminders(len(c.tasks))
}

func (c *Center) fireReminder(ctx context.Context, eventTitle string, minutes int) {
	body := fmt.Sprintf("%s starts in %d minutes", eventTitle, minutes)

	c.SendBrowserNotification(ctx, "Event Reminder", AlertOptions{
		Body:               body,
		Tag:                "event-reminder",
		RequireInteraction: true,
	})
	c.SendInAppNotification(ctx, NewNotification{
		Type:    KindReminder,
		Title:   "Event Reminder",
		Message: body,
	})
}
