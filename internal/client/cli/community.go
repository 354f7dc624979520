package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/communityhub/internal/client/api"
	"github.com/dmitrijs2005/communityhub/internal/client/fetch"
	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

// Discussions loads the first page of discussions. An optional argument
// filters by category.
func (a *App) Discussions(ctx context.Context, args []string) error {
	query := fetch.Query{}
	if len(args) > 0 {
		query["category"] = strings.Join(args, " ")
	}
	if err := a.discussions.Refresh(ctx, query); err != nil {
		a.printErr(err)
		return err
	}
	st := a.discussions.State()
	printDiscussions(a, st.Items, 0)
	a.printPageFooter(st.Pagination, a.discussions.HasMore())
	return nil
}

func printDiscussions(a *App, items []models.Discussion, offset int) {
	if len(items) == 0 && offset == 0 {
		fmt.Fprintln(a.out, "No discussions yet.")
		return
	}
	for i, d := range items {
		author := "anonymous"
		if d.Author != nil && d.Author.Name != "" {
			author = d.Author.Name
		}
		fmt.Fprintf(a.out, "%3d. %s  by %s, %d replies\n", offset+i+1, d.Title, author, d.Replies)
	}
}

// Discuss starts a new discussion.
func (a *App) Discuss(ctx context.Context, _ []string) error {
	var d models.Discussion
	var err error
	if d.Title, err = a.prompt("Title"); err != nil {
		a.printErr(err)
		return err
	}
	if d.Content, err = getMultiline(a.reader, "Content", a.out); err != nil {
		a.printErr(err)
		return err
	}
	if d.Category, err = a.promptOptional("Category", "general"); err != nil {
		a.printErr(err)
		return err
	}
	tags, err := a.promptOptional("Tags, comma separated", "")
	if err != nil {
		a.printErr(err)
		return err
	}
	d.Tags = splitTags(tags)

	created, err := a.discuss.Submit(ctx, d)
	if err != nil {
		a.printErr(err)
		return err
	}
	if created != nil && created.ID != "" {
		fmt.Fprintf(a.out, "Discussion %s posted.\n", created.ID)
	} else {
		fmt.Fprintln(a.out, "Discussion posted.")
	}
	return nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Apply sends a speaker application with an optional attachment.
func (a *App) Apply(ctx context.Context, _ []string) error {
	var app models.SpeakerApplication
	var name, email string
	if u := a.session.Snapshot().User; u != nil {
		name, email = u.Name, u.Email
	}

	var err error
	if app.Name, err = a.promptOptional("Name", name); err != nil {
		a.printErr(err)
		return err
	}
	if app.Email, err = a.promptOptional("Email", email); err != nil {
		a.printErr(err)
		return err
	}
	if app.Topic, err = a.prompt("Talk topic"); err != nil {
		a.printErr(err)
		return err
	}
	if app.Abstract, err = getMultiline(a.reader, "Abstract", a.out); err != nil {
		a.printErr(err)
		return err
	}
	if app.Experience, err = a.promptOptional("Speaking experience", ""); err != nil {
		a.printErr(err)
		return err
	}
	if app.LinkedIn, err = a.promptOptional("LinkedIn profile", ""); err != nil {
		a.printErr(err)
		return err
	}
	path, err := a.promptOptional("Resume file path", "")
	if err != nil {
		a.printErr(err)
		return err
	}

	params := applyParams{Application: app}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			a.printErr(err)
			return err
		}
		defer f.Close()
		params.Attachment = &api.File{Name: filepath.Base(path), Reader: f}
	}

	msg, err := a.apply.Submit(ctx, params)
	if err != nil {
		a.printErr(err)
		return err
	}
	if msg == "" {
		msg = "Application received."
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Contact sends a message to the organisers.
func (a *App) Contact(ctx context.Context, _ []string) error {
	var m models.ContactMessage
	var name, email string
	if u := a.session.Snapshot().User; u != nil {
		name, email = u.Name, u.Email
	}

	var err error
	if m.Name, err = a.promptOptional("Name", name); err != nil {
		a.printErr(err)
		return err
	}
	if m.Email, err = a.promptOptional("Email", email); err != nil {
		a.printErr(err)
		return err
	}
	if m.Subject, err = a.promptOptional("Subject", ""); err != nil {
		a.printErr(err)
		return err
	}
	if m.Message, err = getMultiline(a.reader, "Message", a.out); err != nil {
		a.printErr(err)
		return err
	}

	msg, err := a.contact.Submit(ctx, m)
	if err != nil {
		a.printErr(err)
		return err
	}
	if msg == "" {
		msg = "Message sent."
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Subscribe adds an address to the newsletter. The address may be given
// as the first argument.
func (a *App) Subscribe(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var def string
		if u := a.session.Snapshot().User; u != nil {
			def = u.Email
		}
		var err error
		if email, err = a.promptOptional("Email", def); err != nil {
			a.printErr(err)
			return err
		}
	}

	msg, err := a.subscribe.Submit(ctx, email)
	if err != nil {
		a.printErr(err)
		return err
	}
	if msg == "" {
		msg = "Subscribed."
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
