package model

type RelayLog struct {
	ID               int64   `json:"id" gorm:"primaryKey;autoIncrement:false"` // snowflake id
	Time             int64   `json:"time"`                                     // unix seconds
	UserID           *uint   `json:"user_id,omitempty"`
	ConversationID   uint    `json:"conversation_id"`
	RequestModelName string  `json:"request_model_name"`
	ActualModelName  string  `json:"actual_model_name"`
	ContentClass     string  `json:"content_class"`
	FallbackMode     string  `json:"fallback_mode"`
	FallbackApplied  bool    `json:"fallback_applied"`
	FallbackDeferred bool    `json:"fallback_deferred"` // a model_fallback event was sent instead of a stream
	InputTokens      int     `json:"input_tokens"`
	OutputTokens     int     `json:"output_tokens"`
	TokensEstimated  bool    `json:"tokens_estimated"`
	Ftut             int     `json:"ftut"`     // first token, ms
	UseTime          int     `json:"use_time"` // ms
	Cost             float64 `json:"cost"`
	Error            string  `json:"error"`
}

// RelayLogQuery filters the relay log listing. Zero values disable a filter.
type RelayLogQuery struct {
	Start        int64  `form:"start_time"`
	End          int64  `form:"end_time"`
	Model        string `form:"model"` // requested or served model id
	FallbackOnly bool   `form:"fallback_only"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

func (q RelayLogQuery) Match(l RelayLog) bool {
	if q.Start > 0 && l.Time < q.Start {
		return false
	}
	if q.End > 0 && l.Time > q.End {
		return false
	}
	if q.Model != "" && l.RequestModelName != q.Model && l.ActualModelName != q.Model {
		return false
	}
	return !q.FallbackOnly || l.FallbackApplied
}
