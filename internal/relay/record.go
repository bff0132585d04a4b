package relay

import (
	"context"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/availability"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/price"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/gloriamundo/gloriamundo/internal/utils/tokenizer"
)

// record collects what a single /chat call did, for the relay log and the
// metrics.
type record struct {
	log        model.RelayLog
	start      time.Time
	firstToken time.Time
	prompt     string
	output     string
	meta       model.MessageMeta
}

func newRecord(who model.Identity, req model.ChatRequest) *record {
	return &record{
		start: time.Now(),
		log: model.RelayLog{
			UserID:           who.UserIDPtr(),
			RequestModelName: req.Model,
		},
	}
}

func (rec *record) resolved(res availability.Resolution) {
	rec.log.ActualModelName = res.Selected
	rec.log.ContentClass = string(res.Class)
	rec.log.FallbackApplied = res.NeedsFallback()
}

func (rec *record) usage(meta model.MessageMeta) {
	rec.meta = meta
	if meta.ModelID != nil {
		rec.log.ActualModelName = *meta.ModelID
	}
}

// finish fills timings, tokens and cost, then hands the entry to the store
// and the metrics. Tokens are estimated locally when upstream sent no usage.
func (r *Relay) finish(ctx context.Context, rec *record, outcome string, err error) {
	end := time.Now()
	rec.log.UseTime = int(end.Sub(rec.start).Milliseconds())
	if !rec.firstToken.IsZero() {
		rec.log.Ftut = int(rec.firstToken.Sub(rec.start).Milliseconds())
	}
	if err != nil {
		rec.log.Error = err.Error()
	}

	if !rec.log.FallbackDeferred && rec.prompt != "" {
		if rec.meta.PromptTokens != nil && rec.meta.CompletionTokens != nil {
			rec.log.InputTokens = *rec.meta.PromptTokens
			rec.log.OutputTokens = *rec.meta.CompletionTokens
		} else {
			rec.log.InputTokens = tokenizer.CountTokens(rec.prompt)
			rec.log.OutputTokens = tokenizer.CountTokens(rec.output)
			rec.log.TokensEstimated = true
		}
		if d, ok := r.store.Describe(rec.log.ActualModelName); ok {
			rec.log.Cost = price.Cost(d, rec.log.InputTokens, rec.log.OutputTokens)
		}
	}

	r.metrics.Stream(outcome)
	if outcome == "completed" {
		r.metrics.Tokens(rec.log.ActualModelName, rec.log.InputTokens, rec.log.OutputTokens)
		var first time.Duration
		if !rec.firstToken.IsZero() {
			first = rec.firstToken.Sub(rec.start)
		}
		r.metrics.Latency(rec.log.ActualModelName, first, end.Sub(rec.start))
	}

	if err := r.store.RelayLogAdd(context.WithoutCancel(ctx), rec.log); err != nil {
		log.Warnf("failed to record relay log: %v", err)
	}
}
