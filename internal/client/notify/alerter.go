package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

const DefaultIcon = "/favicon.ico"

// AlertOptions mirror the native notification options. Empty Icon and
// Badge get DefaultIcon.
type AlertOptions struct {
	Body               string
	Icon               string
	Badge              string
	Tag                string
	RequireInteraction bool
}

// Alerter is an OS-level notification capability. A Center without one
// treats native alerts as unsupported.
type Alerter interface {
	Permission() Permission
	// RequestPermission prompts the user and returns the resulting permission.
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, title string, opts AlertOptions) error
}

// TerminalAlerter prints alerts to a terminal. Permission is asked with a
// y/N prompt on the input.
type TerminalAlerter struct {
	in  *bufio.Reader
	out io.Writer

	mu         sync.Mutex
	permission Permission
}

func NewTerminalAlerter(in io.Reader, out io.Writer) *TerminalAlerter {
	return &TerminalAlerter{in: bufio.NewReader(in), out: out, permission: PermissionDefault}
}

func (a *TerminalAlerter) Permission() Permission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.permission
}

func (a *TerminalAlerter) RequestPermission(_ context.Context) (Permission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	fmt.Fprint(a.out, "Allow desktop notifications? [y/N]: ")
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return a.permission, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		a.permission = PermissionGranted
	default:
		a.permission = PermissionDenied
	}
	return a.permission, nil
}

func (a *TerminalAlerter) Show(_ context.Context, title string, opts AlertOptions) error {
	msg := "\a[notification] " + title
	if opts.Body != "" {
		msg += ": " + opts.Body
	}
	_, err := fmt.Fprintln(a.out, msg)
	return err
}
