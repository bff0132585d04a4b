package migrate

import (
	"gorm.io/gorm"
)

func init() {
	RegisterAfterAutoMigration(Migration{
		Version: 3,
		Up:      createMissingChatSettings,
	})
}

// 003: every existing user gets a settings row with auto fallback off.
func createMissingChatSettings(db *gorm.DB) error {
	return db.Exec(`INSERT INTO user_chat_settings (user_id, auto_fallback_enabled, system_prompt, updated_at)
SELECT u.id, ?, '', CURRENT_TIMESTAMP FROM users u
WHERE NOT EXISTS (SELECT 1 FROM user_chat_settings s WHERE s.user_id = u.id)`, false).Error
}
