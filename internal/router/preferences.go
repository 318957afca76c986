package router

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/trace/internal/client/gateway"
	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/client/storage"
	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/message"
)

func (r *Router) savePreferences(ctx context.Context, req *message.SavePreferences, _ message.Sender) message.Response {
	if req.Preferences == nil {
		return message.Fail("preferences required")
	}
	prefs := *req.Preferences
	if err := prefs.Validate(); err != nil {
		return message.Fail(err.Error())
	}

	saved, token, err := callAs(ctx, r, message.ActionSavePreferences, func(ctx context.Context, token string) (models.Preferences, error) {
		return r.backend.SavePreferences(ctx, token, prefs)
	})
	if err != nil {
		return message.Fail(errorText(err))
	}
	if saved.SummaryStyle == "" {
		saved = prefs
	}
	saved = withLocalFields(saved, prefs)
	r.cachePreferences(ctx, saved)
	r.syncUserPreferences(ctx, token, saved)
	return message.PreferencesResult{Success: true, Preferences: saved}
}

// loadPreferences falls back to the local cache when the backend cannot
// answer. An authentication failure is reported, not masked.
func (r *Router) loadPreferences(ctx context.Context, _ *message.LoadPreferences, _ message.Sender) message.Response {
	prefs, err := call(ctx, r, message.ActionLoadPreferences, r.backend.GetPreferences)
	if err == nil {
		prefs = withLocalFields(prefs, r.cachedPreferences(ctx))
		r.cachePreferences(ctx, prefs)
		return message.PreferencesResult{Success: true, Preferences: prefs}
	}

	var be *gateway.BackendError
	if errors.Is(err, common.ErrNetwork) || errors.As(err, &be) {
		r.logger.Info(ctx, "serving cached preferences", "error", err)
		return message.PreferencesResult{Success: true, Preferences: r.cachedPreferences(ctx), Cached: true}
	}
	return message.Fail(errorText(err))
}

// withLocalFields fills the reader profile from fallback. The backend
// stores and echoes only style and the two toggles.
func withLocalFields(p, fallback models.Preferences) models.Preferences {
	if p.ReaderType == "" {
		p.ReaderType = fallback.ReaderType
	}
	if p.ReadingLevel == "" {
		p.ReadingLevel = fallback.ReadingLevel
	}
	return p
}

func (r *Router) cachePreferences(ctx context.Context, p models.Preferences) {
	values := map[string]any{
		common.KeySummaryStyle:         p.SummaryStyle,
		common.KeyAutoSummarizeEnabled: p.AutoSummarizeEnabled,
		common.KeyNotificationsEnabled: p.NotificationsEnabled,
		common.KeyReaderType:           p.ReaderType,
		common.KeyReadingLevel:         p.ReadingLevel,
	}
	if err := storage.SetManyJSON(ctx, r.kv, values); err != nil {
		r.logger.Warn(ctx, "could not cache preferences", "error", err)
	}
}

func (r *Router) cachedPreferences(ctx context.Context) models.Preferences {
	def := models.DefaultPreferences()
	return models.Preferences{
		SummaryStyle:         models.SummaryStyle(storage.String(ctx, r.kv, common.KeySummaryStyle, string(def.SummaryStyle))),
		AutoSummarizeEnabled: storage.Bool(ctx, r.kv, common.KeyAutoSummarizeEnabled, def.AutoSummarizeEnabled),
		NotificationsEnabled: storage.Bool(ctx, r.kv, common.KeyNotificationsEnabled, def.NotificationsEnabled),
		ReaderType:           models.ReaderType(storage.String(ctx, r.kv, common.KeyReaderType, "")),
		ReadingLevel:         models.ReadingLevel(storage.String(ctx, r.kv, common.KeyReadingLevel, "")),
	}
}

func (r *Router) syncUserPreferences(ctx context.Context, token string, p models.Preferences) {
	user, err := r.userFor(token)
	if err != nil {
		return
	}
	user.Preferences = &p
	if err := r.session.UpdateUser(ctx, token, user); err != nil {
		r.logger.Warn(ctx, "could not update user preferences", "error", err)
	}
}
