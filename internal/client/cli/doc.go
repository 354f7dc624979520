// Package cli provides the interactive community hub command-line client.
//
// It wires configuration, local storage, the REST API client, the session
// manager and the notification center behind a line-oriented REPL.
// Typical flow: restore the persisted session, start the optional
// background workers (session watcher, digest scheduler, status server)
// and execute user commands.
//
// Key features:
//   - Register / Verify / Login / Logout
//   - Browse events and discussions page by page
//   - Join events, schedule reminders, post discussions
//   - Speaker applications, contact form, newsletter
//   - In-app notifications and notification preferences
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
