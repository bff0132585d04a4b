package model

import "time"

type UserChatSettings struct {
	UserID              uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	AutoFallbackEnabled bool      `json:"auto_fallback_enabled" gorm:"not null"`
	Temperature         *float32  `json:"temperature,omitempty"`
	TopP                *float32  `json:"top_p,omitempty"`
	MaxTokens           *int      `json:"max_tokens,omitempty"`
	SystemPrompt        string    `json:"system_prompt" gorm:"type:text"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type UserChatSettingsUpdate struct {
	AutoFallbackEnabled *bool    `json:"auto_fallback_enabled"`
	Temperature         *float32 `json:"temperature" binding:"omitempty,gte=0,lte=2"`
	TopP                *float32 `json:"top_p" binding:"omitempty,gte=0,lte=1"`
	MaxTokens           *int     `json:"max_tokens" binding:"omitempty,gte=1"`
	SystemPrompt        *string  `json:"system_prompt"`
}

func DefaultChatSettings(userID uint) UserChatSettings {
	return UserChatSettings{UserID: userID}
}

func (s *UserChatSettings) Apply(u UserChatSettingsUpdate) {
	if u.AutoFallbackEnabled != nil {
		s.AutoFallbackEnabled = *u.AutoFallbackEnabled
	}
	if u.Temperature != nil {
		s.Temperature = u.Temperature
	}
	if u.TopP != nil {
		s.TopP = u.TopP
	}
	if u.MaxTokens != nil {
		s.MaxTokens = u.MaxTokens
	}
	if u.SystemPrompt != nil {
		s.SystemPrompt = *u.SystemPrompt
	}
}
