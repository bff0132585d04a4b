package model

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Conversation struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      *uint     `json:"user_id,omitempty" gorm:"index"`
	AnonymousID string    `json:"-" gorm:"index;size:64"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message metadata columns stay nullable: usage can arrive late or never.
type Message struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	ConversationID   uint      `json:"conversation_id" gorm:"index;not null"`
	Role             Role      `json:"role" gorm:"size:16;not null"`
	Content          string    `json:"content" gorm:"type:text"`
	ModelIDUsed      *string   `json:"model_id_used,omitempty" gorm:"size:191"`
	PromptTokens     *int      `json:"prompt_tokens,omitempty"`
	CompletionTokens *int      `json:"completion_tokens,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MessageMeta is the best-effort usage patch for an assistant message. Nil
// fields are left untouched.
type MessageMeta struct {
	PromptTokens     *int
	CompletionTokens *int
	ModelID          *string
}

func (m MessageMeta) Empty() bool {
	return m.PromptTokens == nil && m.CompletionTokens == nil && m.ModelID == nil
}

type ConversationDetail struct {
	Conversation
	Messages []Message `json:"messages"`
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentFile  AttachmentType = "file"
)

type Attachment struct {
	Type     AttachmentType `json:"type"`
	URL      string         `json:"url"`
	Filename string         `json:"filename,omitempty"`
	MimeType string         `json:"mime_type,omitempty"`
}

type HistoryMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message         string           `json:"message"`
	Model           string           `json:"model"`
	History         []HistoryMessage `json:"history"`
	ConversationID  *uint            `json:"conversation_id,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"`
	Attachments     []Attachment     `json:"attachments,omitempty"`
	DocumentContext []string         `json:"document_context,omitempty"`
}
