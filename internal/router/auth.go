package router

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/message"
)

func (r *Router) checkAuth(_ context.Context, _ *message.CheckAuth, _ message.Sender) message.Response {
	s := r.session.Snapshot()
	if !s.Authenticated() {
		return message.AuthStatus{}
	}
	return message.AuthStatus{Authenticated: true, User: s.User}
}

func (r *Router) googleAuth(ctx context.Context, _ *message.GoogleAuth, _ message.Sender) message.Response {
	if r.identity == nil {
		return message.Fail("sign-in is not available")
	}
	creds, err := r.identity.SignIn(ctx)
	if err != nil {
		r.logger.Warn(ctx, "provider sign-in failed", "error", err)
		return message.Fail(err.Error())
	}

	token, user, err := r.backend.Authenticate(ctx, creds.AccessToken, creds.Profile)
	if err != nil {
		r.logger.Warn(ctx, "backend authentication failed", "error", err)
		return message.Fail(errorText(err))
	}
	if err := r.session.Set(ctx, token, user); err != nil {
		r.logger.Error(ctx, "could not store session", "error", err)
		return message.Fail(err.Error())
	}
	if user.Preferences != nil {
		r.cachePreferences(ctx, *user.Preferences)
	}
	return message.AuthResult{Success: true, User: user, Token: token}
}

// verifyAuth re-reads the user from the backend. A rejected token ends in
// the logged-out state.
func (r *Router) verifyAuth(ctx context.Context, _ *message.VerifyAuth, _ message.Sender) message.Response {
	user, token, err := callAs(ctx, r, message.ActionVerifyAuth, r.backend.VerifyToken)
	if err != nil {
		return message.Fail(errorText(err))
	}
	if user == nil {
		return message.VerifyResult{Success: true, User: r.session.Snapshot().User}
	}
	if err := r.session.UpdateUser(ctx, token, user); err != nil {
		r.logger.Warn(ctx, "could not store verified user", "error", err)
	}
	return message.VerifyResult{Success: true, User: user}
}

func (r *Router) logout(ctx context.Context, _ *message.Logout, _ message.Sender) message.Response {
	if err := r.session.Clear(ctx); err != nil {
		r.logger.Warn(ctx, "stored session could not be removed", "error", err)
	}
	return message.Ack{Success: true}
}

func (r *Router) wake(ctx context.Context, _ *message.Wake, _ message.Sender) message.Response {
	r.session.Load(ctx)
	r.enabled.Store(r.readBool(ctx, common.KeyExtensionEnabled, true))
	return message.WakeResult{Success: true, Authenticated: r.session.Token() != ""}
}

// currentUser returns a copy of the signed-in user, or an error when
// logged out.
func (r *Router) currentUser() (*models.User, error) {
	s := r.session.Snapshot()
	if !s.Authenticated() {
		return nil, errors.New("not signed in")
	}
	return s.User, nil
}

// userFor is currentUser restricted to the session holding token.
func (r *Router) userFor(token string) (*models.User, error) {
	s := r.session.Snapshot()
	if !s.Authenticated() || s.Token != token {
		return nil, errors.New("session changed")
	}
	return s.User, nil
}
