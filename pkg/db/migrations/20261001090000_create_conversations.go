package migrations

import (
	"database/sql"

	"github.com/jingkaihe/skillrunner/pkg/db"
	"github.com/pkg/errors"
)

// Migration20261001090000CreateConversations creates the conversations table.
func Migration20261001090000CreateConversations() db.Migration {
	return db.Migration{
		Version:     20261001090000,
		Description: "Create conversations table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS conversations (
					id TEXT PRIMARY KEY,
					provider TEXT NOT NULL,
					model TEXT NOT NULL,
					first_message TEXT NOT NULL,
					message_count INTEGER NOT NULL,
					messages TEXT NOT NULL,
					tool_results TEXT NOT NULL,
					usage TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)
			`)
			return errors.Wrap(err, "failed to create conversations table")
		},
		Down: func(tx *sql.Tx) error {
			_, err := tx.Exec("DROP TABLE IF EXISTS conversations")
			return errors.Wrap(err, "failed to drop conversations table")
		},
	}
}
