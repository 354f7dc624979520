package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/communityhub/internal/client/config"
	"github.com/dmitrijs2005/communityhub/internal/client/notify"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHub is a minimal community backend. Last* fields record what the
// client sent.
type fakeHub struct {
	mu sync.Mutex

	events       []map[string]any
	requireOTP   bool
	rejectJoin   bool
	LastLogin    map[string]string
	LastJoin     map[string]string
	LastDiscuss  map[string]any
	LastApply    map[string]string
	LastResume   string
	LastContact  map[string]string
	LastSubEmail string
	LastQuery    map[string]string
	LogoutCalls  int
}

func envelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody[T any](r *http.Request) T {
	var v T
	_ = json.NewDecoder(r.Body).Decode(&v)
	return v
}

var ada = map[string]any{"id": "u1", "name": "Ada", "email": "ada@example.org", "role": "member"}

func (h *fakeHub) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody[map[string]string](r)
			h.mu.Lock()
			h.LastLogin = body
			h.mu.Unlock()
			if body["password"] != "secret" {
				envelope(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
				return
			}
			envelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"user": ada, "token": "tok-1"}})
		})
		r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody[map[string]string](r)
			if h.requireOTP {
				envelope(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"requiresVerification": true}})
				return
			}
			u := map[string]any{"id": "u2", "name": body["name"], "email": body["email"]}
			envelope(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"user": u, "token": "tok-2"}})
		})
		r.Post("/auth/verify-otp", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody[map[string]string](r)
			if body["otp"] != "123456" {
				envelope(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid code"})
				return
			}
			envelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"user": ada, "token": "tok-3"}})
		})
		r.Post("/auth/resend-otp", func(w http.ResponseWriter, r *http.Request) {
			envelope(w, http.StatusOK, map[string]any{"success": true, "message": "Code resent"})
		})
		r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			h.mu.Lock()
			h.LogoutCalls++
			h.mu.Unlock()
			envelope(w, http.StatusOK, map[string]any{"success": true})
		})
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				envelope(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "no token"})
				return
			}
			envelope(w, http.StatusOK, map[string]any{"success": true, "data": ada})
		})

		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			q := map[string]string{}
			for k := range r.URL.Query() {
				q[k] = r.URL.Query().Get(k)
			}
			h.mu.Lock()
			h.LastQuery = q
			all := h.events
			h.mu.Unlock()

			page, _ := strconv.Atoi(q["page"])
			limit, _ := strconv.Atoi(q["limit"])
			from := (page - 1) * limit
			to := min(from+limit, len(all))
			items := []map[string]any{}
			if from < len(all) {
				items = all[from:to]
			}
			pages := (len(all) + limit - 1) / limit
			envelope(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    items,
				"pagination": map[string]any{
					"current": page, "pages": pages, "total": len(all),
					"hasNext": page < pages, "hasPrev": page > 1,
				},
			})
		})
		r.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			h.mu.Lock()
			defer h.mu.Unlock()
			for _, e := range h.events {
				if e["id"] == id {
					envelope(w, http.StatusOK, map[string]any{"success": true, "data": e})
					return
				}
			}
			envelope(w, http.StatusNotFound, map[string]any{"success": false, "message": "Event not found"})
		})
		r.Post("/events/{id}/register", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody[map[string]string](r)
			h.mu.Lock()
			h.LastJoin = body
			reject := h.rejectJoin
			h.mu.Unlock()
			if reject {
				envelope(w, http.StatusBadRequest, map[string]any{
					"success": false,
					"message": "Validation failed",
					"errors":  []any{map[string]any{"path": "phone", "msg": "Phone is invalid"}},
				})
				return
			}
			envelope(w, http.StatusOK, map[string]any{"success": true, "message": "Registered for event"})
		})

		r.Get("/discussions", func(w http.ResponseWriter, r *http.Request) {
			envelope(w, http.StatusOK, map[string]any{
				"success": true,
				"data": []any{
					map[string]any{"id": "d1", "title": "Go generics", "content": "...", "replies": 3, "author": ada, "createdAt": time.Now()},
				},
				"pagination": map[string]any{"current": 1, "pages": 1, "total": 1},
			})
		})
		r.Post("/discussions", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody[map[string]any](r)
			h.mu.Lock()
			h.LastDiscuss = body
			h.mu.Unlock()
			body["id"] = "d2"
			envelope(w, http.StatusCreated, map[string]any{"success": true, "data": body})
		})
		r.Post("/speakers/apply", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				envelope(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
				return
			}
			fields := map[string]string{}
			for k, v := range r.MultipartForm.Value {
				fields[k] = v[0]
			}
			h.mu.Lock()
			h.LastApply = fields
			if f, _, err := r.FormFile("resume"); err == nil {
				b, _ := io.ReadAll(f)
				h.LastResume = string(b)
				f.Close()
			}
			h.mu.Unlock()
			envelope(w, http.StatusOK, map[string]any{"success": true, "message": "Application received"})
		})
		r.Post("/contact", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody[map[string]string](r)
			h.mu.Lock()
			h.LastContact = body
			h.mu.Unlock()
			envelope(w, http.StatusOK, map[string]any{"success": true, "message": "Thanks for reaching out"})
		})
		r.Post("/newsletter/subscribe", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody[map[string]string](r)
			h.mu.Lock()
			h.LastSubEmail = body["email"]
			h.mu.Unlock()
			envelope(w, http.StatusOK, map[string]any{"success": true, "message": "Subscribed"})
		})
	})
	return r
}

func makeEvents(n int, start time.Time) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, map[string]any{
			"id":       fmt.Sprintf("e%d", i),
			"title":    fmt.Sprintf("Meetup #%d", i),
			"date":     start.Add(time.Duration(i) * time.Hour),
			"location": "Riga",
		})
	}
	return out
}

type testApp struct {
	*App
	hub *fakeHub
	in  *bytes.Buffer
	out *bytes.Buffer
}

// newTestApp builds an App over an in-memory store and a fake backend.
// Input written to ta.in before a command is consumed by its prompts.
func newTestApp(t *testing.T, hub *fakeHub) *testApp {
	t.Helper()
	srv := httptest.NewServer(hub.routes())
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = srv.URL + "/api"
	cfg.Storage.Backend = config.BackendMemory
	cfg.PageSize = 2
	cfg.DigestEnabled = false
	require.NoError(t, cfg.Validate())

	in, out := &bytes.Buffer{}, &bytes.Buffer{}
	a, err := NewApp(context.Background(), cfg, Options{In: in, Out: out})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &testApp{App: a, hub: hub, in: in, out: out}
}

func stubPassword(t *testing.T, passwords ...string) {
	t.Helper()
	old := getPassword
	t.Cleanup(func() { getPassword = old })
	i := 0
	getPassword = func(_ *bufio.Reader, _ string, _ io.Writer) ([]byte, error) {
		pw := passwords[i%len(passwords)]
		i++
		return []byte(pw), nil
	}
}

func (ta *testApp) login(t *testing.T) {
	t.Helper()
	stubPassword(t, "secret")
	ta.in.WriteString("ada@example.org\n")
	require.NoError(t, ta.Login(context.Background(), nil))
	require.True(t, ta.isLoggedIn())
	ta.out.Reset()
}

func TestApp_LoginAndWhoAmI(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})
	ta.login(t)

	assert.Equal(t, "ada@example.org", ta.hub.LastLogin["email"])
	assert.Equal(t, "(Ada)", ta.getStatus())

	require.NoError(t, ta.WhoAmI(ctx, nil))
	assert.Contains(t, ta.out.String(), "Name:  Ada")
	assert.Contains(t, ta.out.String(), "Role:  member")
}

func TestApp_LoginFailurePrintsError(t *testing.T) {
	ta := newTestApp(t, &fakeHub{})
	stubPassword(t, "wrong")
	ta.in.WriteString("ada@example.org\n")

	err := ta.Login(context.Background(), nil)
	require.Error(t, err)
	assert.False(t, ta.isLoggedIn())
	assert.Contains(t, ta.out.String(), "Error: Invalid credentials")
}

func TestApp_RegisterWithVerification(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{requireOTP: true})
	stubPassword(t, "secret")
	ta.in.WriteString("Ada\nada@example.org\n\n\n")

	require.NoError(t, ta.Register(ctx, nil))
	assert.Equal(t, "ada@example.org", ta.pendingEmail)
	assert.Contains(t, ta.out.String(), "Verification code sent to ada@example.org")
	assert.False(t, ta.isLoggedIn())

	ta.in.WriteString("\n")
	require.Error(t, ta.Verify(ctx, []string{"000000"}))
	assert.False(t, ta.isLoggedIn())

	ta.in.WriteString("\n")
	require.NoError(t, ta.Verify(ctx, []string{"123456"}))
	assert.True(t, ta.isLoggedIn())
	assert.Empty(t, ta.pendingEmail)
	assert.Contains(t, ta.out.String(), "Welcome, Ada!")
}

func TestApp_RegisterPasswordMismatch(t *testing.T) {
	ta := newTestApp(t, &fakeHub{})
	stubPassword(t, "one", "two")
	ta.in.WriteString("Ada\nada@example.org\n")

	err := ta.Register(context.Background(), nil)
	require.ErrorIs(t, err, errPasswordMismatch)
	assert.False(t, ta.isLoggedIn())
}

func TestApp_LogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})
	ta.login(t)

	require.NoError(t, ta.Logout(ctx, nil))
	assert.False(t, ta.isLoggedIn())
	assert.Equal(t, 1, ta.hub.LogoutCalls)
	assert.Equal(t, "(guest)", ta.getStatus())
}

func TestApp_RenameUpdatesCachedUser(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})
	ta.login(t)

	require.NoError(t, ta.Rename(ctx, []string{"Ada", "Lovelace"}))
	assert.Equal(t, "Ada Lovelace", ta.session.Snapshot().User.Name)
}

func TestApp_EventsPaginate(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{events: makeEvents(3, time.Now())})

	require.NoError(t, ta.Events(ctx, []string{"tech"}))
	assert.Equal(t, "tech", ta.hub.LastQuery["category"])
	assert.Equal(t, "2", ta.hub.LastQuery["limit"])
	assert.Contains(t, ta.out.String(), "Meetup #1")
	assert.Contains(t, ta.out.String(), "Meetup #2")
	assert.Contains(t, ta.out.String(), "Type 'more'")

	ta.out.Reset()
	require.NoError(t, ta.More(ctx, nil))
	assert.Contains(t, ta.out.String(), "  3. [e3] Meetup #3")
	assert.Equal(t, "tech", ta.hub.LastQuery["category"], "load more keeps the filter")
	assert.Len(t, ta.events.State().Items, 3)

	ta.out.Reset()
	require.NoError(t, ta.More(ctx, nil))
	assert.Contains(t, ta.out.String(), "Nothing more to load.")
}

func TestApp_EventDetailNotFound(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{events: makeEvents(1, time.Now())})

	require.NoError(t, ta.Event(ctx, []string{"e1"}))
	assert.Contains(t, ta.out.String(), "Location: Riga")

	require.Error(t, ta.Event(ctx, []string{"nope"}))
	assert.Contains(t, ta.out.String(), "Error: Event not found")

	require.ErrorIs(t, ta.Event(ctx, nil), errUsage)
}

func TestApp_JoinPrefillsFromSession(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{events: makeEvents(1, time.Now())})
	ta.login(t)

	ta.in.WriteString("\n\n+371 2000000\n\n\n")
	require.NoError(t, ta.Join(ctx, []string{"e1"}))

	assert.Equal(t, "Ada", ta.hub.LastJoin["name"])
	assert.Equal(t, "ada@example.org", ta.hub.LastJoin["email"])
	assert.Equal(t, "+371 2000000", ta.hub.LastJoin["phone"])
	assert.True(t, ta.join.Succeeded())

	log := ta.center.Notifications(ctx)
	require.Len(t, log, 1)
	assert.Equal(t, notify.KindEvent, log[0].Type)
	assert.Equal(t, "Registered for event", log[0].Message)
}

func TestApp_JoinShowsValidationErrors(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{rejectJoin: true})
	ta.login(t)

	ta.in.WriteString("\n\nbad\n\n\n")
	require.Error(t, ta.Join(ctx, []string{"e1"}))
	assert.Contains(t, ta.out.String(), "Error: Validation failed")
	assert.Contains(t, ta.out.String(), "  - phone: Phone is invalid")
	assert.False(t, ta.join.Succeeded())
	assert.Len(t, ta.join.State().ValidationErrors, 1)
}

func TestApp_Remind(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	hub := &fakeHub{events: []map[string]any{
		{"id": "soon", "title": "Lightning talks", "date": now.Add(5 * time.Minute)},
		{"id": "later", "title": "Go night", "date": now.Add(3 * time.Hour)},
	}}
	ta := newTestApp(t, hub)

	require.NoError(t, ta.Remind(ctx, []string{"soon"}))
	assert.Contains(t, ta.out.String(), "Too late for a reminder")
	assert.Empty(t, ta.center.PendingReminders())

	require.NoError(t, ta.Remind(ctx, []string{"later", "30"}))
	tasks := ta.center.PendingReminders()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Go night", tasks[0].EventTitle)
	assert.WithinDuration(t, now.Add(150*time.Minute), tasks[0].FireAt, time.Second)

	ta.out.Reset()
	require.NoError(t, ta.Remind(ctx, nil))
	assert.Contains(t, ta.out.String(), "Go night")

	require.ErrorIs(t, ta.Remind(ctx, []string{"later", "x"}), errUsage)
}

func TestApp_DiscussionsAndDiscuss(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})
	ta.login(t)

	require.NoError(t, ta.Discussions(ctx, nil))
	assert.Contains(t, ta.out.String(), "Go generics  by Ada, 3 replies")

	ta.in.WriteString("Hello\nfirst line\nsecond line\n\n\ngo, community ,\n")
	require.NoError(t, ta.Discuss(ctx, nil))
	assert.Equal(t, "Hello", ta.hub.LastDiscuss["title"])
	assert.Equal(t, "first line\nsecond line", ta.hub.LastDiscuss["content"])
	assert.Equal(t, "general", ta.hub.LastDiscuss["category"])
	assert.Equal(t, []any{"go", "community"}, ta.hub.LastDiscuss["tags"])
	assert.Contains(t, ta.out.String(), "Discussion d2 posted.")

	log := ta.center.Notifications(ctx)
	require.Len(t, log, 1)
	assert.Equal(t, notify.KindDiscussion, log[0].Type)
}

func TestApp_ApplyWithResume(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})

	path := t.TempDir() + "/cv.txt"
	require.NoError(t, os.WriteFile(path, []byte("curriculum"), 0o600))

	ta.in.WriteString("Ada\nada@example.org\nEngines\nAnalytical\nengines\n\n\n\n" + path + "\n")
	require.NoError(t, ta.Apply(ctx, nil))

	assert.Equal(t, "Engines", ta.hub.LastApply["topic"])
	assert.Equal(t, "Analytical\nengines", ta.hub.LastApply["abstract"])
	assert.NotContains(t, ta.hub.LastApply, "linkedin")
	assert.Equal(t, "curriculum", ta.hub.LastResume)
	assert.Contains(t, ta.out.String(), "Application received")
}

func TestApp_ContactAndSubscribe(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})

	ta.in.WriteString("Bob\nbob@example.org\nHi\nHello there\n\n")
	require.NoError(t, ta.Contact(ctx, nil))
	assert.Equal(t, map[string]string{"name": "Bob", "email": "bob@example.org", "subject": "Hi", "message": "Hello there"}, ta.hub.LastContact)

	require.NoError(t, ta.Subscribe(ctx, []string{"bob@example.org"}))
	assert.Equal(t, "bob@example.org", ta.hub.LastSubEmail)
	assert.Contains(t, ta.out.String(), "Subscribed")
}

func TestApp_NotificationCommands(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})
	for _, title := range []string{"one", "two", "three"} {
		ta.center.SendInAppNotification(ctx, notify.NewNotification{Type: notify.KindSystem, Title: title})
	}
	assert.Equal(t, "(guest, 3 unread)", ta.getStatus())

	require.NoError(t, ta.Notifications(ctx, nil))
	assert.Contains(t, ta.out.String(), "*  1.")
	assert.Contains(t, ta.out.String(), "3 unread")

	require.NoError(t, ta.Read(ctx, []string{"1"}))
	assert.Equal(t, 2, ta.center.UnreadCount(ctx))
	assert.True(t, ta.center.Notifications(ctx)[0].Read)

	require.ErrorIs(t, ta.Read(ctx, []string{"9"}), errUsage)

	id := ta.center.Notifications(ctx)[2].ID
	require.NoError(t, ta.Read(ctx, []string{id}))
	assert.Equal(t, 1, ta.center.UnreadCount(ctx))

	require.NoError(t, ta.ReadAll(ctx, nil))
	assert.Zero(t, ta.center.UnreadCount(ctx))

	require.NoError(t, ta.Clear(ctx, nil))
	assert.Empty(t, ta.center.Notifications(ctx))
}

func TestApp_SetPreferences(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})

	require.NoError(t, ta.Set(ctx, []string{"push", "on"}))
	require.NoError(t, ta.Set(ctx, []string{"timing", "Evening"}))
	require.NoError(t, ta.Set(ctx, []string{"inApp", "false"}))

	p := ta.center.LoadPreferences(ctx)
	assert.True(t, p.PushNotifications)
	assert.Equal(t, notify.TimingEvening, p.CustomTiming)
	assert.False(t, p.InAppNotifications)

	require.Error(t, ta.Set(ctx, []string{"timing", "midnight"}))
	require.Error(t, ta.Set(ctx, []string{"colour", "on"}))
	require.Error(t, ta.Set(ctx, []string{"push", "maybe"}))
	require.ErrorIs(t, ta.Set(ctx, []string{"push"}), errUsage)
	assert.Equal(t, notify.TimingEvening, ta.center.LoadPreferences(ctx).CustomTiming)
}

func TestApp_AllowWithoutAlerter(t *testing.T) {
	ta := newTestApp(t, &fakeHub{})
	require.NoError(t, ta.Allow(context.Background(), nil))
	assert.Contains(t, ta.out.String(), "Alerts are not available.")
}

func TestApp_DigestNow(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, &fakeHub{})

	require.NoError(t, ta.Digest(ctx, nil))
	assert.Contains(t, ta.out.String(), "Daily Digest: You have 0 events today")

	today := time.Now()
	ta.hub.mu.Lock()
	ta.hub.events = []map[string]any{{"id": "t", "title": "Today", "date": today}}
	ta.hub.mu.Unlock()

	ta.out.Reset()
	require.NoError(t, ta.Digest(ctx, []string{"weekly"}))
	assert.Contains(t, ta.out.String(), "1 event this week")

	off := false
	ta.center.SavePreferences(ctx, notify.PreferencesUpdate{EmailDigest: &off})
	ta.out.Reset()
	require.NoError(t, ta.Digest(ctx, nil))
	assert.Contains(t, ta.out.String(), "Nothing to report.")
	assert.Equal(t, "true", ta.hub.LastQuery["upcoming"])
}

func TestValidationMessage(t *testing.T) {
	cases := map[string]string{
		`{"path":"email","msg":"Email is invalid"}`: "email: Email is invalid",
		`{"field":"name","message":"Required"}`:     "name: Required",
		`{"msg":"Too many"}`:                        "Too many",
		`"plain"`:                                   "plain",
		`{"code":7}`:                                `{"code":7}`,
		`42`:                                        `42`,
	}
	for in, want := range cases {
		assert.Equal(t, want, validationMessage(json.RawMessage(in)), in)
	}
}

func TestApp_RunBootstrapsAndExits(t *testing.T) {
	capturePrintln(t)
	ta := newTestApp(t, &fakeHub{})
	ta.login(t)

	ta.in.WriteString("whoami\nexit\n")
	require.NoError(t, ta.Run(context.Background()))
	assert.Contains(t, ta.out.String(), "Community Hub CLI")
	assert.Contains(t, ta.out.String(), "Name:  Ada")
}
