package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

// getSimpleText, getOptionalText, getMultiline and getPassword are
// indirections used to facilitate testing. They point to interactive input
// helpers and can be swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getOptionalText = GetOptionalText
	getMultiline    = GetMultiline
	getPassword     = GetPassword
)

var errPasswordMismatch = errors.New("passwords do not match")

// Register prompts for the account details and creates the account. When
// the backend asks for email verification the address is remembered for
// a following "verify".
func (a *App) Register(ctx context.Context, _ []string) error {
	req, err := a.readRegistration()
	if err != nil {
		a.printErr(err)
		return err
	}

	res, err := a.session.Register(ctx, req)
	if err != nil {
		a.printErr(err)
		return err
	}
	return a.reportAuth(res)
}

func (a *App) readRegistration() (models.RegisterRequest, error) {
	var req models.RegisterRequest
	var err error

	if req.Name, err = a.prompt("Enter name"); err != nil {
		return req, err
	}
	if req.Email, err = a.prompt("Enter email"); err != nil {
		return req, err
	}

	pw, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return req, err
	}
	defer wipe(pw)
	confirm, err := getPassword(a.reader, "Confirm password", a.out)
	if err != nil {
		return req, err
	}
	defer wipe(confirm)
	if string(pw) != string(confirm) {
		return req, errPasswordMismatch
	}
	req.Password, req.ConfirmPassword = string(pw), string(confirm)

	if req.Phone, err = a.promptOptional("Phone", ""); err != nil {
		return req, err
	}
	if req.Organization, err = a.promptOptional("Organization", ""); err != nil {
		return req, err
	}
	return req, nil
}

// Verify submits the emailed one-time code. The code may be given as the
// first argument.
func (a *App) Verify(ctx context.Context, args []string) error {
	email, err := a.promptOptional("Email", a.pendingEmail)
	if err != nil {
		a.printErr(err)
		return err
	}
	var code string
	if len(args) > 0 {
		code = args[0]
	} else if code, err = a.prompt("Enter verification code"); err != nil {
		a.printErr(err)
		return err
	}

	res, err := a.session.VerifyOTP(ctx, email, code)
	if err != nil {
		a.printErr(err)
		return err
	}
	return a.reportAuth(res)
}

// Resend asks the backend to email a new verification code.
func (a *App) Resend(ctx context.Context, _ []string) error {
	email, err := a.promptOptional("Email", a.pendingEmail)
	if err != nil {
		a.printErr(err)
		return err
	}
	msg, err := a.auth.ResendOTP(ctx, email)
	if err != nil {
		a.printErr(err)
		return err
	}
	if msg == "" {
		msg = "Verification code sent."
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Login prompts for credentials and establishes a session.
func (a *App) Login(ctx context.Context, _ []string) error {
	email, err := a.prompt("Enter email")
	if err != nil {
		a.printErr(err)
		return err
	}
	pw, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		a.printErr(err)
		return err
	}
	defer wipe(pw)

	res, err := a.session.Login(ctx, email, string(pw))
	if err != nil {
		a.printErr(err)
		return err
	}
	return a.reportAuth(res)
}

func (a *App) reportAuth(res *models.AuthResult) error {
	switch {
	case res.RequiresVerification:
		a.pendingEmail = res.Email
		fmt.Fprintf(a.out, "Verification code sent to %s. Use 'verify <code>' to finish.\n", res.Email)
	case res.HasSession():
		a.pendingEmail = ""
		fmt.Fprintf(a.out, "Welcome, %s!\n", res.User.Name)
	default:
		fmt.Fprintln(a.out, "Success!")
	}
	return nil
}

// Logout ends the session. Local state is cleared even when the backend
// cannot be reached.
func (a *App) Logout(ctx context.Context, _ []string) error {
	a.session.Logout(ctx)
	a.events.Reset()
	a.discussions.Reset()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// WhoAmI prints the cached user record.
func (a *App) WhoAmI(_ context.Context, _ []string) error {
	snap := a.session.Snapshot()
	if snap.User == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	u := snap.User
	fmt.Fprintf(a.out, "Name:  %s\nEmail: %s\n", u.Name, u.Email)
	if u.Role != "" {
		fmt.Fprintf(a.out, "Role:  %s\n", u.Role)
	}
	if !snap.TokenExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Session expires %s\n", snap.TokenExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

// Refresh reloads the user record from the backend.
func (a *App) Refresh(ctx context.Context, args []string) error {
	a.session.RefreshUser(ctx)
	return a.WhoAmI(ctx, args)
}

// Rename changes the display name of the cached user.
func (a *App) Rename(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		var err error
		if name, err = a.prompt("Enter new name"); err != nil {
			a.printErr(err)
			return err
		}
	}
	if err := a.session.UpdateUser(ctx, map[string]any{"name": name}); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "Name set to %s.\n", name)
	return nil
}
