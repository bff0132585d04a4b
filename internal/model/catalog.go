package model

import "time"

// ModelDescriptor is the mirrored OpenRouter catalog entry. ModelID has the
// form vendor/name.
type ModelDescriptor struct {
	ModelID               string    `json:"model_id" gorm:"primaryKey;size:191"`
	DisplayName           string    `json:"display_name"`
	IsMultimodal          bool      `json:"is_multimodal"`
	IsFree                bool      `json:"is_free"`
	SupportsReasoning     bool      `json:"supports_reasoning"`
	SupportsPDF           bool      `json:"supports_pdf"`
	InputPricePerMillion  float64   `json:"input_price_per_million"`
	OutputPricePerMillion float64   `json:"output_price_per_million"`
	CostBand              string    `json:"cost_band" gorm:"size:16"`
	ContextLength         int       `json:"context_length"`
	Active                bool      `json:"active" gorm:"index"`
	LastFetchedAt         time.Time `json:"last_fetched_at"`
}

func (ModelDescriptor) TableName() string {
	return "openrouter_models"
}

type OpenRouterPricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
	Request    string `json:"request,omitempty"`
	Image      string `json:"image,omitempty"`
}

type OpenRouterArchitecture struct {
	Modality         string   `json:"modality"`
	InputModalities  []string `json:"input_modalities"`
	OutputModalities []string `json:"output_modalities"`
	Tokenizer        string   `json:"tokenizer"`
}

type OpenRouterTopProvider struct {
	ContextLength       int  `json:"context_length"`
	MaxCompletionTokens int  `json:"max_completion_tokens"`
	IsModerated         bool `json:"is_moderated"`
}

type OpenRouterModel struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	Created             int64                  `json:"created"`
	Description         string                 `json:"description"`
	ContextLength       int                    `json:"context_length"`
	Architecture        OpenRouterArchitecture `json:"architecture"`
	Pricing             OpenRouterPricing      `json:"pricing"`
	TopProvider         OpenRouterTopProvider  `json:"top_provider"`
	SupportedParameters []string               `json:"supported_parameters"`
}

type OpenRouterModelList struct {
	Data []OpenRouterModel `json:"data"`
}

type CatalogSyncResult struct {
	Total       int      `json:"total"`
	Added       []string `json:"added"`
	Deactivated []string `json:"deactivated"`
	SyncedAt    string   `json:"synced_at"`
}
