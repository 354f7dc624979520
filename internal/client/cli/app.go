package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/communityhub/internal/client/api"
	"github.com/dmitrijs2005/communityhub/internal/client/config"
	"github.com/dmitrijs2005/communityhub/internal/client/fetch"
	"github.com/dmitrijs2005/communityhub/internal/client/models"
	"github.com/dmitrijs2005/communityhub/internal/client/notify"
	"github.com/dmitrijs2005/communityhub/internal/client/services"
	"github.com/dmitrijs2005/communityhub/internal/client/session"
	"github.com/dmitrijs2005/communityhub/internal/client/statusserver"
	"github.com/dmitrijs2005/communityhub/internal/client/storage"
	"github.com/dmitrijs2005/communityhub/internal/logging"
	"github.com/dmitrijs2005/communityhub/internal/metrics"
)

// digestWindow is how many upcoming events the digests look at.
const digestWindow = 50

// Options carries the process-level dependencies of an App. Zero values
// fall back to stdin, stdout, no native alerts and a no-op logger.
type Options struct {
	In      io.Reader
	Out     io.Writer
	Alerter notify.Alerter
	// TerminalAlerts shows native alerts as prompts on In and Out when no
	// Alerter is given.
	TerminalAlerts bool
	Logger         logging.Logger
}

type joinParams struct {
	EventID string
	Form    models.EventRegistration
}

type applyParams struct {
	Application models.SpeakerApplication
	Attachment  *api.File
}

type App struct {
	config  *config.Config
	reader  *bufio.Reader
	out     io.Writer
	logger  logging.Logger
	store   storage.Backend
	metrics *metrics.Metrics

	auth        *api.AuthAPI
	eventsAPI   *api.EventsAPI
	session     *services.SessionManager
	center      *notify.Center
	scheduler   *notify.DigestScheduler
	status      *statusserver.Server
	unsubscribe func()

	events      *fetch.Paginator[models.Event]
	discussions *fetch.Paginator[models.Discussion]
	eventDetail *fetch.Request[string, *models.Event]
	join        *fetch.Submitter[joinParams, string]
	discuss     *fetch.Submitter[models.Discussion, *models.Discussion]
	apply       *fetch.Submitter[applyParams, string]
	contact     *fetch.Submitter[models.ContactMessage, string]
	subscribe   *fetch.Submitter[string, string]

	// pendingEmail is the address waiting for an OTP after register or login.
	pendingEmail string
}

// NewApp opens local storage and wires the API client, session manager and
// notification center described by c.
func NewApp(ctx context.Context, c *config.Config, opts Options) (*App, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	store, err := storage.Open(ctx, c.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	m := metrics.New()
	sessionStore := session.NewStore(store)

	client, err := api.New(ctx, c.APIBaseURL, sessionStore,
		api.WithTimeout(c.RequestTimeout),
		api.WithRateLimit(c.RateLimit, c.RateBurst),
		api.WithMetrics(m),
		api.WithLogger(opts.Logger.With("component", "api")),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		config:    c,
		reader:    bufio.NewReader(opts.In),
		out:       opts.Out,
		logger:    opts.Logger,
		store:     store,
		metrics:   m,
		auth:      api.NewAuthAPI(client),
		eventsAPI: api.NewEventsAPI(client),
	}

	a.session = services.NewSessionManager(a.auth, client, sessionStore,
		services.WithLogger(opts.Logger.With("component", "session")),
		services.WithMetrics(m),
		services.WithReconcileTimeout(c.ReconcileTimeout),
		services.WithBootstrapTimeout(c.BootstrapTimeout),
	)

	alerter := opts.Alerter
	if alerter == nil && opts.TerminalAlerts {
		alerter = notify.NewTerminalAlerter(a.reader, a.out)
	}
	a.center = notify.NewCenter(store,
		notify.WithAlerter(alerter),
		notify.WithLogger(opts.Logger.With("component", "notify")),
		notify.WithMetrics(m),
	)
	a.scheduler = notify.NewDigestScheduler(a.center, notify.EventSourceFunc(a.upcomingEvents), opts.Logger.With("component", "digest"))

	if c.StatusAddr != "" {
		a.status = statusserver.New(c.StatusAddr, statusserver.NewRouter(m, a.session, opts.Logger), opts.Logger)
	}

	discussionsAPI := api.NewDiscussionsAPI(client)
	speakersAPI := api.NewSpeakersAPI(client)
	contactAPI := api.NewContactAPI(client)

	a.events = fetch.NewPaginator[models.Event](a.eventsAPI.List, fetch.WithPageSize(c.PageSize))
	a.discussions = fetch.NewPaginator[models.Discussion](discussionsAPI.List, fetch.WithPageSize(c.PageSize))
	a.eventDetail = fetch.NewRequest[string, *models.Event](a.eventsAPI.Get)
	a.join = fetch.NewSubmitter[joinParams, string](func(ctx context.Context, p joinParams) (string, error) {
		return a.eventsAPI.Register(ctx, p.EventID, p.Form)
	})
	a.discuss = fetch.NewSubmitter[models.Discussion, *models.Discussion](discussionsAPI.Create,
		fetch.OnSuccess(func(d *models.Discussion) {
			a.center.SendInAppNotification(context.Background(), notify.NewNotification{
				Type:    notify.KindDiscussion,
				Title:   "Discussion posted",
				Message: d.Title,
			})
		}),
	)
	a.apply = fetch.NewSubmitter[applyParams, string](func(ctx context.Context, p applyParams) (string, error) {
		return speakersAPI.Apply(ctx, p.Application, p.Attachment)
	})
	a.contact = fetch.NewSubmitter[models.ContactMessage, string](contactAPI.Send)
	a.subscribe = fetch.NewSubmitter[string, string](contactAPI.Subscribe)

	return a, nil
}

// upcomingEvents feeds the digest scheduler with the first page of events.
func (a *App) upcomingEvents(ctx context.Context) ([]models.Event, error) {
	page, err := a.eventsAPI.List(ctx, 1, digestWindow, api.Params{"upcoming": true})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Run restores the session, starts the background workers enabled in the
// configuration and blocks in the REPL until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Community Hub CLI (type 'help' for commands)")

	snap := a.session.Bootstrap(ctx)
	if snap.IsAuthenticated && snap.User != nil {
		fmt.Fprintf(a.out, "Welcome back, %s!\n", snap.User.Name)
	}

	a.unsubscribe = a.session.Subscribe(func(s services.Snapshot) {
		a.logger.Debug(ctx, "session changed", "state", s.State, "authenticated", s.IsAuthenticated)
	})

	if a.config.SessionRefreshInterval > 0 {
		go a.session.StartSessionWatcher(ctx, a.config.SessionRefreshInterval)
	}
	if a.config.DigestEnabled {
		if err := a.scheduler.Start(ctx); err != nil {
			a.logger.Warn(ctx, "digest scheduler not started", "error", err)
		}
	}
	if a.status != nil {
		a.status.Start(ctx)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// Close stops background work and releases local storage.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.scheduler.Stop()
	_ = a.center.Close()

	var errs []error
	if a.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.status.Shutdown(ctx))
		cancel()
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

// getStatus renders the prompt decoration: the user name, or "guest", and
// the number of unread notifications when there are any.
func (a *App) getStatus() string {
	name := "guest"
	if snap := a.session.Snapshot(); snap.IsAuthenticated && snap.User != nil {
		name = snap.User.Name
		if name == "" {
			name = snap.User.Email
		}
	}
	if n := a.center.UnreadCount(context.Background()); n > 0 {
		return fmt.Sprintf("(%s, %d unread)", name, n)
	}
	return fmt.Sprintf("(%s)", name)
}

func (a *App) prompt(label string) (string, error) {
	return getSimpleText(a.reader, label, a.out)
}

func (a *App) promptOptional(label, def string) (string, error) {
	return getOptionalText(a.reader, label, def, a.out)
}

// printErr reports a failed command together with any field-level
// validation messages the backend returned.
func (a *App) printErr(err error) {
	fmt.Fprintln(a.out, "Error:", err.Error())
	for _, v := range api.ValidationErrors(err) {
		fmt.Fprintln(a.out, "  -", validationMessage(v))
	}
}
