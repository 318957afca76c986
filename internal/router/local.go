package router

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/trace/internal/client/storage"
	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/message"
)

func (r *Router) sendFeedback(ctx context.Context, req *message.SendFeedback, _ message.Sender) message.Response {
	if req.Feedback == nil || strings.TrimSpace(req.Feedback.Message) == "" {
		return message.Fail("feedback message required")
	}
	fb := *req.Feedback
	if user, err := r.currentUser(); err == nil {
		if fb.UserID == 0 {
			fb.UserID = user.ID
		}
		if fb.UserEmail == "" {
			fb.UserEmail = user.Email
		}
		if fb.UserName == "" {
			fb.UserName = user.Name
		}
	}
	if fb.Timestamp == "" {
		fb.Timestamp = r.now().UTC().Format("2006-01-02T15:04:05.000Z")
	}

	_, err := call(ctx, r, message.ActionSendFeedback, func(ctx context.Context, token string) (struct{}, error) {
		return struct{}{}, r.backend.SubmitFeedback(ctx, token, fb)
	})
	if err != nil {
		return message.Fail(errorText(err))
	}
	return message.Ack{Success: true}
}

func (r *Router) testConnection(ctx context.Context, _ *message.TestConnection, _ message.Sender) message.Response {
	h, err := r.backend.Test(ctx)
	if err != nil {
		return message.Fail(errorText(err))
	}
	return message.ConnectionResult{Success: true, Status: h.Status, Message: h.Message}
}

// toggleExtension answers nothing.
func (r *Router) toggleExtension(ctx context.Context, req *message.ToggleExtension, _ message.Sender) message.Response {
	r.enabled.Store(req.Enabled)
	if err := storage.SetJSON(ctx, r.kv, common.KeyExtensionEnabled, req.Enabled); err != nil {
		r.logger.Warn(ctx, "could not persist extension flag", "error", err)
	}
	r.logger.Info(ctx, "extension toggled", "enabled", req.Enabled)
	return nil
}

func (r *Router) getExtensionStatus(_ context.Context, _ *message.GetExtensionStatus, _ message.Sender) message.Response {
	return message.ExtensionStatus{Enabled: r.enabled.Load()}
}

func (r *Router) getOnboardingStatus(ctx context.Context, _ *message.GetOnboardingStatus, _ message.Sender) message.Response {
	return message.OnboardingStatus{
		Success:   true,
		Completed: r.readBool(ctx, common.KeyOnboardingCompleted, false),
		Step:      storage.Int(ctx, r.kv, common.KeyOnboardingStep, 0),
	}
}

func (r *Router) setOnboardingStep(ctx context.Context, req *message.SetOnboardingStep, _ message.Sender) message.Response {
	if req.Step < 0 {
		return message.Fail("step must not be negative")
	}
	if err := storage.SetJSON(ctx, r.kv, common.KeyOnboardingStep, req.Step); err != nil {
		return message.Fail(err.Error())
	}
	return message.Ack{Success: true}
}

func (r *Router) completeOnboarding(ctx context.Context, _ *message.CompleteOnboarding, _ message.Sender) message.Response {
	if err := storage.SetJSON(ctx, r.kv, common.KeyOnboardingCompleted, true); err != nil {
		return message.Fail(err.Error())
	}
	return message.Ack{Success: true}
}

func (r *Router) readBool(ctx context.Context, key string, def bool) bool {
	return storage.Bool(ctx, r.kv, key, def)
}
