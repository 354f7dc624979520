package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL chrome output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
// Handlers report their own errors, the REPL ignores the returned value.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Resend(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context, args []string) error
	Refresh(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error

	Events(ctx context.Context, args []string) error
	More(ctx context.Context, args []string) error
	Event(ctx context.Context, args []string) error
	Join(ctx context.Context, args []string) error
	Remind(ctx context.Context, args []string) error

	Discussions(ctx context.Context, args []string) error
	Discuss(ctx context.Context, args []string) error
	Apply(ctx context.Context, args []string) error
	Contact(ctx context.Context, args []string) error
	Subscribe(ctx context.Context, args []string) error

	Notifications(ctx context.Context, args []string) error
	Read(ctx context.Context, args []string) error
	ReadAll(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
	Prefs(ctx context.Context, args []string) error
	Set(ctx context.Context, args []string) error
	Allow(ctx context.Context, args []string) error
	Digest(ctx context.Context, args []string) error
}

const (
	helpGuest = "Available commands: register, verify, resend, login, events, more, event, discussions, " +
		"apply, contact, subscribe, notifications, read, readall, clear, prefs, set, allow, digest, remind, exit"
	helpMember = "Available commands: whoami, refresh, rename, logout, events, more, event, join, remind, " +
		"discussions, discuss, apply, contact, subscribe, notifications, read, readall, clear, prefs, set, " +
		"allow, digest, exit"
)

// memberOnly lists commands that need an authenticated session.
var memberOnly = map[string]bool{
	"whoami":  true,
	"refresh": true,
	"rename":  true,
	"logout":  true,
	"join":    true,
	"discuss": true,
}

// runREPL reads commands from reader until EOF, "exit"/"quit" or ctx
// cancellation. The first token of a line is the command, the rest are its
// arguments. The prompt shows the current status from statusFn.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("hub %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		if memberOnly[cmd] && !a.isLoggedIn() {
			printlnFn("Please login first.")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpMember)
			} else {
				printlnFn(helpGuest)
			}

		case "register":
			_ = a.Register(ctx, args)
		case "verify":
			_ = a.Verify(ctx, args)
		case "resend":
			_ = a.Resend(ctx, args)
		case "login":
			_ = a.Login(ctx, args)
		case "logout":
			_ = a.Logout(ctx, args)
		case "whoami":
			_ = a.WhoAmI(ctx, args)
		case "refresh":
			_ = a.Refresh(ctx, args)
		case "rename":
			_ = a.Rename(ctx, args)

		case "events", "e":
			_ = a.Events(ctx, args)
		case "more":
			_ = a.More(ctx, args)
		case "event":
			_ = a.Event(ctx, args)
		case "join":
			_ = a.Join(ctx, args)
		case "remind":
			_ = a.Remind(ctx, args)

		case "discussions", "d":
			_ = a.Discussions(ctx, args)
		case "discuss":
			_ = a.Discuss(ctx, args)
		case "apply":
			_ = a.Apply(ctx, args)
		case "contact":
			_ = a.Contact(ctx, args)
		case "subscribe":
			_ = a.Subscribe(ctx, args)

		case "notifications", "n":
			_ = a.Notifications(ctx, args)
		case "read":
			_ = a.Read(ctx, args)
		case "readall":
			_ = a.ReadAll(ctx, args)
		case "clear":
			_ = a.Clear(ctx, args)
		case "prefs":
			_ = a.Prefs(ctx, args)
		case "set":
			_ = a.Set(ctx, args)
		case "allow":
			_ = a.Allow(ctx, args)
		case "digest":
			_ = a.Digest(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
