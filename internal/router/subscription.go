package router

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/client/storage"
	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/message"
)

func (r *Router) getSubscriptionStatus(ctx context.Context, _ *message.GetSubscriptionStatus, _ message.Sender) message.Response {
	sub, token, err := callAs(ctx, r, message.ActionGetSubscriptionStatus, r.backend.SubscriptionStatus)
	if err != nil {
		return message.Fail(errorText(err))
	}
	r.recordSubscription(ctx, token, sub)
	return message.SubscriptionResult{Success: true, Subscription: sub}
}

func (r *Router) refreshSubscriptionStatus(ctx context.Context, _ *message.RefreshSubscriptionStatus, _ message.Sender) message.Response {
	type refreshed struct {
		sub models.Subscription
		msg string
	}
	out, token, err := callAs(ctx, r, message.ActionRefreshSubscriptionStatus, func(ctx context.Context, token string) (refreshed, error) {
		sub, msg, err := r.backend.RefreshSubscription(ctx, token)
		return refreshed{sub, msg}, err
	})
	if err != nil {
		return message.Fail(errorText(err))
	}
	r.recordSubscription(ctx, token, out.sub)
	return message.SubscriptionResult{Success: true, Message: out.msg, Subscription: out.sub}
}

func (r *Router) createCheckoutSession(ctx context.Context, req *message.CreateCheckoutSession, _ message.Sender) message.Response {
	priceID := strings.TrimSpace(req.PriceID)
	if priceID == "" {
		return message.Fail("price ID required")
	}
	co, err := call(ctx, r, message.ActionCreateCheckoutSession, func(ctx context.Context, token string) (models.Checkout, error) {
		return r.backend.CreateCheckoutSession(ctx, token, priceID)
	})
	if err != nil {
		return message.Fail(errorText(err))
	}
	return message.CheckoutResult{Success: true, CheckoutURL: co.URL, SessionID: co.SessionID}
}

func (r *Router) cancelSubscription(ctx context.Context, _ *message.CancelSubscription, _ message.Sender) message.Response {
	msg, err := call(ctx, r, message.ActionCancelSubscription, r.backend.CancelSubscription)
	if err != nil {
		return message.Fail(errorText(err))
	}
	return message.Ack{Success: true, Message: msg}
}

func (r *Router) getUsageStats(ctx context.Context, _ *message.GetUsageStats, _ message.Sender) message.Response {
	stats, err := call(ctx, r, message.ActionGetUsageStats, r.backend.UsageStats)
	if err != nil {
		return message.Fail(errorText(err))
	}
	return message.UsageStatsResult{Success: true, UsageStats: stats}
}

// recordSubscription caches sub in the session's user record until the next
// verify or refresh, and stamps the time of the check.
func (r *Router) recordSubscription(ctx context.Context, token string, sub models.Subscription) {
	if user, err := r.userFor(token); err == nil {
		user.SubscriptionStatus = sub.Status
		user.CurrentPeriodEnd = sub.CurrentPeriodEnd
		user.PlanID = sub.PlanID
		if err := r.session.UpdateUser(ctx, token, user); err != nil {
			r.logger.Warn(ctx, "could not cache subscription status", "error", err)
		}
	}
	if err := storage.SetJSON(ctx, r.kv, common.KeyLastSubscriptionCheck, r.now().UTC().Format(time.RFC3339)); err != nil {
		r.logger.Warn(ctx, "could not record subscription check", "error", err)
	}
}
