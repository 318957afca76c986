// Package retry makes a single authenticated backend call self-heal once
// after an expired-token answer.
//
// A call moves through Idle, Sent and then either Success or Failed401Once.
// After the first 401 the session is reloaded from durable storage (another
// surface may have stored a fresh token) and the identical call is resent
// with the reloaded token. A second 401 clears the session. There is never a
// third send.
package retry

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/google/uuid"
)

// Session is the part of the session store the coordinator needs.
type Session interface {
	Token() string
	Load(ctx context.Context)
	Clear(ctx context.Context) error
}

// State names a step of a coordinated call, for logging.
type State string

const (
	StateIdle          State = "idle"
	StateSent          State = "sent"
	StateSuccess       State = "success"
	StateFailed401Once State = "failed_401_once"
	StateRefreshing    State = "refreshing"
	StateResent        State = "resent"
	StateFailed        State = "failed"
)

// PendingRequest is one logical call. Its retried flag is raised at most
// once, so the call is replayed at most once even if several goroutines
// observe its 401.
type PendingRequest struct {
	ID      uuid.UUID
	Action  string
	retried atomic.Bool
}

func NewPendingRequest(action string) *PendingRequest {
	return &PendingRequest{ID: uuid.New(), Action: action}
}

// Retried reports whether the request has used its single replay.
func (r *PendingRequest) Retried() bool {
	return r.retried.Load()
}

// Call performs one network attempt with the given bearer token.
type Call func(ctx context.Context, token string) error

type Coordinator struct {
	session Session
	logger  logging.Logger
}

func NewCoordinator(s Session, l logging.Logger) *Coordinator {
	return &Coordinator{session: s, logger: l.With("module", "retry")}
}

// Do runs call for req. Without a token it fails with common.ErrAuthRequired
// and makes no call. Errors other than an expired token pass through
// untouched.
func (c *Coordinator) Do(ctx context.Context, req *PendingRequest, call Call) error {
	log := c.logger.With("request_id", req.ID.String(), "action", req.Action)

	token := c.session.Token()
	if token == "" {
		log.Debug(ctx, "no session, not sending", "state", StateIdle)
		return common.ErrAuthRequired
	}

	log.Debug(ctx, "sending", "state", StateSent)
	err := call(ctx, token)
	if !errors.Is(err, common.ErrAuthExpired) {
		if err == nil {
			log.Debug(ctx, "call finished", "state", StateSuccess)
		}
		return err
	}

	log.Info(ctx, "backend rejected token", "state", StateFailed401Once)
	if !req.retried.CompareAndSwap(false, true) {
		return c.giveUp(ctx, log)
	}

	log.Debug(ctx, "reloading session", "state", StateRefreshing)
	c.session.Load(ctx)
	token = c.session.Token()
	if token == "" {
		return c.giveUp(ctx, log)
	}

	log.Debug(ctx, "resending", "state", StateResent)
	err = call(ctx, token)
	if errors.Is(err, common.ErrAuthExpired) {
		return c.giveUp(ctx, log)
	}
	if err == nil {
		log.Debug(ctx, "call finished after retry", "state", StateSuccess)
	}
	return err
}

func (c *Coordinator) giveUp(ctx context.Context, log logging.Logger) error {
	log.Warn(ctx, "token could not be refreshed, clearing session", "state", StateFailed)
	if err := c.session.Clear(ctx); err != nil {
		log.Error(ctx, "clearing session failed", "error", err)
	}
	return common.ErrAuthRequired
}
