package router

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/message"
)

func (r *Router) summarizePage(ctx context.Context, req *message.SummarizePage, _ message.Sender) message.Response {
	if !r.enabled.Load() {
		return message.Fail("Trace is turned off")
	}

	in := models.SummarizeRequest{URL: req.URL, HTML: req.HTML, CustomPrompt: req.CustomPrompt}
	if in.URL == "" && in.HTML == "" {
		tab, ok := r.tabs.Lookup(req.TabID)
		if !ok || tab.URL == "" {
			return message.Fail(fmt.Sprintf("no page known for tab %d", req.TabID))
		}
		in.URL = tab.URL
	}

	out, err := call(ctx, r, message.ActionSummarizePage, func(ctx context.Context, token string) (models.Summary, error) {
		return r.backend.Summarize(ctx, token, in)
	})
	if err != nil {
		r.logger.Info(ctx, "summarize failed", "tab_id", req.TabID, "error", err)
		return message.Fail(errorText(err))
	}
	return message.SummaryResult{
		Success:     true,
		Summary:     out.Summary,
		SummaryData: out.SummaryData,
		IsArticle:   out.IsArticle,
	}
}
