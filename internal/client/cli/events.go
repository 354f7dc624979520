package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/communityhub/internal/client/fetch"
	"github.com/dmitrijs2005/communityhub/internal/client/models"
	"github.com/dmitrijs2005/communityhub/internal/client/notify"
)

const dateLayout = "Mon Jan 2 2006 15:04"

var errUsage = errors.New("invalid arguments")

// Events loads the first page of events. An optional argument filters by
// category.
func (a *App) Events(ctx context.Context, args []string) error {
	query := fetch.Query{}
	if len(args) > 0 {
		query["category"] = strings.Join(args, " ")
	}
	if err := a.events.Refresh(ctx, query); err != nil {
		a.printErr(err)
		return err
	}
	st := a.events.State()
	printEvents(a, st.Items, 0)
	a.printPageFooter(st.Pagination, a.events.HasMore())
	return nil
}

// More appends the next page of events, or of discussions with the
// "discussions" argument.
func (a *App) More(ctx context.Context, args []string) error {
	if len(args) > 0 && strings.HasPrefix(args[0], "d") {
		return loadMore(ctx, a, a.discussions, printDiscussions)
	}
	return loadMore(ctx, a, a.events, printEvents)
}

func loadMore[T any](ctx context.Context, a *App, p *fetch.Paginator[T], show func(*App, []T, int)) error {
	if !p.HasMore() {
		fmt.Fprintln(a.out, "Nothing more to load.")
		return nil
	}
	before := len(p.State().Items)
	if err := p.LoadMore(ctx); err != nil {
		a.printErr(err)
		return err
	}
	st := p.State()
	if before > len(st.Items) {
		before = 0
	}
	show(a, st.Items[before:], before)
	a.printPageFooter(st.Pagination, p.HasMore())
	return nil
}

func (a *App) printPageFooter(pg *models.Pagination, more bool) {
	if pg != nil {
		fmt.Fprintf(a.out, "Page %d of %d (%d total)\n", pg.Current, pg.Pages, pg.Total)
	}
	if more {
		fmt.Fprintln(a.out, "Type 'more' to load the next page.")
	}
}

func printEvents(a *App, events []models.Event, offset int) {
	if len(events) == 0 && offset == 0 {
		fmt.Fprintln(a.out, "No events found.")
		return
	}
	for i, e := range events {
		where := e.Location
		if e.IsOnline {
			where = "online"
		}
		fmt.Fprintf(a.out, "%3d. [%s] %s  %s  %s\n", offset+i+1, e.ID, e.Title, e.Date.Local().Format(dateLayout), where)
	}
}

// Event shows a single event.
func (a *App) Event(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: event <id>")
		return errUsage
	}
	e, err := a.eventDetail.Execute(ctx, args[0])
	if err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "%s\n%s\n", e.Title, e.Date.Local().Format(dateLayout))
	if e.Location != "" {
		fmt.Fprintln(a.out, "Location:", e.Location)
	}
	if e.IsOnline {
		fmt.Fprintln(a.out, "Online event")
	}
	if e.Category != "" {
		fmt.Fprintln(a.out, "Category:", e.Category)
	}
	if e.Capacity > 0 {
		fmt.Fprintf(a.out, "Seats: %d/%d\n", e.Attendees, e.Capacity)
	}
	if e.Description != "" {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, e.Description)
	}
	return nil
}

// Join registers the user for an event, prefilling the form from the
// session user.
func (a *App) Join(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: join <event-id>")
		return errUsage
	}

	var name, email string
	if u := a.session.Snapshot().User; u != nil {
		name, email = u.Name, u.Email
	}

	var form models.EventRegistration
	var err error
	for _, f := range []struct {
		label, def string
		dst        *string
	}{
		{"Name", name, &form.Name},
		{"Email", email, &form.Email},
		{"Phone", "", &form.Phone},
		{"Organization", "", &form.Organization},
		{"Notes", "", &form.Notes},
	} {
		if *f.dst, err = a.promptOptional(f.label, f.def); err != nil {
			a.printErr(err)
			return err
		}
	}

	msg, err := a.join.Submit(ctx, joinParams{EventID: args[0], Form: form})
	if err != nil {
		a.printErr(err)
		return err
	}
	if msg == "" {
		msg = "You are registered."
	}
	fmt.Fprintln(a.out, msg)
	a.center.SendInAppNotification(ctx, notify.NewNotification{
		Type:      notify.KindEvent,
		Title:     "Registration confirmed",
		Message:   msg,
		ActionURL: "/events/" + args[0],
	})
	return nil
}

// Remind schedules a reminder before an event. Without arguments it lists
// the pending reminders.
func (a *App) Remind(ctx context.Context, args []string) error {
	if len(args) == 0 {
		tasks := a.center.PendingReminders()
		if len(tasks) == 0 {
			fmt.Fprintln(a.out, "No pending reminders.")
		}
		for _, t := range tasks {
			fmt.Fprintf(a.out, "%s  %s\n", t.FireAt.Local().Format(dateLayout), t.EventTitle)
		}
		return nil
	}

	minutes := notify.DefaultReminderMinutes
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			fmt.Fprintln(a.out, "Usage: remind <event-id> [minutes]")
			return errUsage
		}
		minutes = n
	}

	e, err := a.eventDetail.Execute(ctx, args[0])
	if err != nil {
		a.printErr(err)
		return err
	}
	t, ok := a.center.ScheduleEventReminder(ctx, e.Title, e.Date, minutes)
	if !ok {
		fmt.Fprintln(a.out, "Too late for a reminder, the event starts soon or has started.")
		return nil
	}
	fmt.Fprintf(a.out, "Reminder set for %s (in %s).\n", t.FireAt.Local().Format(dateLayout), time.Until(t.FireAt).Round(time.Minute))
	return nil
}
