// Package router is the single entry point for messages from UI surfaces
// and content scripts. It decodes the envelope, dispatches on the action and
// guarantees at most one response per message.
//
// Status checks, toggles and logout finish before Handle returns. Actions
// that call the backend or read durable storage run on their own goroutine
// and Handle reports the response as pending. Messages with an unknown action
// get no response at all.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/trace/internal/client/identity"
	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/client/retry"
	"github.com/dmitrijs2005/trace/internal/client/session"
	"github.com/dmitrijs2005/trace/internal/client/storage"
	"github.com/dmitrijs2005/trace/internal/client/tabs"
	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/dmitrijs2005/trace/internal/message"
)

// Backend is the remote API as seen by the router. *gateway.Client
// implements it.
type Backend interface {
	Authenticate(ctx context.Context, providerToken string, profile models.ProviderUser) (string, *models.User, error)
	VerifyToken(ctx context.Context, token string) (*models.User, error)
	SubscriptionStatus(ctx context.Context, token string) (models.Subscription, error)
	RefreshSubscription(ctx context.Context, token string) (models.Subscription, string, error)
	CreateCheckoutSession(ctx context.Context, token, priceID string) (models.Checkout, error)
	CancelSubscription(ctx context.Context, token string) (string, error)
	Summarize(ctx context.Context, token string, req models.SummarizeRequest) (models.Summary, error)
	GetPreferences(ctx context.Context, token string) (models.Preferences, error)
	SavePreferences(ctx context.Context, token string, prefs models.Preferences) (models.Preferences, error)
	SubmitFeedback(ctx context.Context, token string, fb models.Feedback) error
	UsageStats(ctx context.Context, token string) (models.UsageStats, error)
	Test(ctx context.Context) (models.Health, error)
}

// SessionStore is implemented by *session.Store.
type SessionStore interface {
	retry.Session
	Set(ctx context.Context, token string, user *models.User) error
	UpdateUser(ctx context.Context, token string, user *models.User) error
	Snapshot() session.Session
}

type Deps struct {
	Session  SessionStore
	Backend  Backend
	Identity identity.Provider
	Storage  storage.Store
	Tabs     *tabs.Registry
	Logger   logging.Logger
}

type handlerFunc func(ctx context.Context, req message.Request, sender message.Sender) message.Response

type handler struct {
	// async handlers do I/O and answer after Handle has returned.
	async bool
	fn    handlerFunc
}

type Router struct {
	session  SessionStore
	backend  Backend
	retry    *retry.Coordinator
	identity identity.Provider
	kv       storage.Store
	tabs     *tabs.Registry
	logger   logging.Logger
	now      func() time.Time

	enabled  atomic.Bool
	handlers map[message.Action]handler
	inflight sync.WaitGroup
}

func New(d Deps) *Router {
	if d.Tabs == nil {
		d.Tabs = tabs.NewRegistry()
	}
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	r := &Router{
		session:  d.Session,
		backend:  d.Backend,
		retry:    retry.NewCoordinator(d.Session, d.Logger),
		identity: d.Identity,
		kv:       d.Storage,
		tabs:     d.Tabs,
		logger:   d.Logger.With("module", "router"),
		now:      time.Now,
	}
	r.enabled.Store(true)
	r.handlers = r.routes()
	return r
}

func inline(fn handlerFunc) handler     { return handler{fn: fn} }
func background(fn handlerFunc) handler { return handler{async: true, fn: fn} }

// on adapts a handler for one request variant to the dispatch table.
func on[T message.Request](fn func(ctx context.Context, req T, sender message.Sender) message.Response) handlerFunc {
	return func(ctx context.Context, req message.Request, sender message.Sender) message.Response {
		return fn(ctx, req.(T), sender)
	}
}

func (r *Router) routes() map[message.Action]handler {
	return map[message.Action]handler{
		message.ActionCheckAuth:                 inline(on(r.checkAuth)),
		message.ActionGoogleAuth:                background(on(r.googleAuth)),
		message.ActionVerifyAuth:                background(on(r.verifyAuth)),
		message.ActionLogout:                    inline(on(r.logout)),
		message.ActionGetSubscriptionStatus:     background(on(r.getSubscriptionStatus)),
		message.ActionRefreshSubscriptionStatus: background(on(r.refreshSubscriptionStatus)),
		message.ActionCreateCheckoutSession:     background(on(r.createCheckoutSession)),
		message.ActionCancelSubscription:        background(on(r.cancelSubscription)),
		message.ActionSummarizePage:             background(on(r.summarizePage)),
		message.ActionSavePreferences:           background(on(r.savePreferences)),
		message.ActionLoadPreferences:           background(on(r.loadPreferences)),
		message.ActionSendFeedback:              background(on(r.sendFeedback)),
		message.ActionGetUsageStats:             background(on(r.getUsageStats)),
		message.ActionTestConnection:            background(on(r.testConnection)),
		message.ActionToggleExtension:           inline(on(r.toggleExtension)),
		message.ActionGetExtensionStatus:        inline(on(r.getExtensionStatus)),
		message.ActionGetOnboardingStatus:       background(on(r.getOnboardingStatus)),
		message.ActionSetOnboardingStep:         background(on(r.setOnboardingStep)),
		message.ActionCompleteOnboarding:        background(on(r.completeOnboarding)),
		message.ActionWake:                      background(on(r.wake)),
	}
}

// Init loads the session and the enabled flag from durable storage. It is
// called once at worker start.
func (r *Router) Init(ctx context.Context) {
	r.session.Load(ctx)
	r.enabled.Store(storage.Bool(ctx, r.kv, common.KeyExtensionEnabled, true))
	r.logger.Info(ctx, "router ready", "authenticated", r.session.Token() != "", "enabled", r.enabled.Load())
}

// Handle dispatches one raw envelope. reply is called at most once. The
// result reports whether the response is still pending when Handle returns.
func (r *Router) Handle(ctx context.Context, raw []byte, sender message.Sender, reply func(message.Response)) bool {
	pending, _ := r.handle(ctx, raw, sender, reply, func() {})
	return pending
}

// Dispatch is a blocking form of Handle. It returns common.ErrUnknownAction
// for a message Handle would drop, and a nil response for actions that do
// not answer.
func (r *Router) Dispatch(ctx context.Context, raw []byte, sender message.Sender) (message.Response, error) {
	var resp message.Response
	finished := make(chan struct{})

	_, known := r.handle(ctx, raw, sender, func(m message.Response) { resp = m }, func() { close(finished) })
	if !known {
		return nil, common.ErrUnknownAction
	}

	select {
	case <-finished:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handle reports whether the answer is pending and whether the action was
// recognised. done runs once the handler returned, for recognised actions.
func (r *Router) handle(ctx context.Context, raw []byte, sender message.Sender, reply func(message.Response), done func()) (pending, known bool) {
	req, err := message.Decode(raw)
	if errors.Is(err, common.ErrValidation) {
		r.logger.Warn(ctx, "malformed message", "error", err, "surface", sender.Surface)
		reply(message.Fail(err.Error()))
		done()
		return false, true
	}
	if err != nil {
		r.logger.Warn(ctx, "dropping message", "error", err, "surface", sender.Surface)
		return false, false
	}

	r.observe(sender)

	var once sync.Once
	send := func(resp message.Response) {
		once.Do(func() { reply(resp) })
	}

	h := r.handlers[req.Action()]
	r.logger.Debug(ctx, "message received", "action", req.Action(), "surface", sender.Surface, "async", h.async)

	if !h.async {
		r.run(ctx, h.fn, req, sender, send)
		done()
		return false, true
	}

	// Closing the requesting surface does not cancel the call.
	ctx = context.WithoutCancel(ctx)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer done()
		r.run(ctx, h.fn, req, sender, send)
	}()
	return true, true
}

// Wait blocks until every pending handler has finished.
func (r *Router) Wait() {
	r.inflight.Wait()
}

func (r *Router) run(ctx context.Context, fn handlerFunc, req message.Request, sender message.Sender, send func(message.Response)) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error(ctx, "handler panicked", "action", req.Action(), "panic", p)
			send(message.Fail(fmt.Sprintf("internal error: %v", p)))
		}
	}()
	if resp := fn(ctx, req, sender); resp != nil {
		send(resp)
	}
}

func (r *Router) observe(s message.Sender) {
	if s.TabID != 0 {
		r.tabs.Observe(tabs.Tab{ID: s.TabID, URL: s.TabURL, Title: s.TabTitle})
	}
}

// Enabled reports the in-memory extension flag.
func (r *Router) Enabled() bool {
	return r.enabled.Load()
}

// errorText is the string a surface renders for err.
func errorText(err error) string {
	if errors.Is(err, common.ErrAuthRequired) {
		return common.ErrAuthRequired.Error()
	}
	return err.Error()
}

// call runs one authenticated backend call through the retry coordinator.
func call[T any](ctx context.Context, r *Router, action message.Action, fn func(ctx context.Context, token string) (T, error)) (T, error) {
	out, _, err := callAs(ctx, r, action, fn)
	return out, err
}

// callAs is call that also reports the token of the successful attempt, so
// results can be written back to the session they were fetched for.
func callAs[T any](ctx context.Context, r *Router, action message.Action, fn func(ctx context.Context, token string) (T, error)) (T, string, error) {
	var (
		out  T
		used string
	)
	err := r.retry.Do(ctx, retry.NewPendingRequest(string(action)), func(ctx context.Context, token string) error {
		v, err := fn(ctx, token)
		if err == nil {
			out, used = v, token
		}
		return err
	})
	return out, used, err
}
