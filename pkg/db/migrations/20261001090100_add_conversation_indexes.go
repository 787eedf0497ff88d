package migrations

import (
	"database/sql"

	"github.com/jingkaihe/skillrunner/pkg/db"
	"github.com/pkg/errors"
)

// Migration20261001090100AddConversationIndexes indexes the columns used to
// list and search conversations.
func Migration20261001090100AddConversationIndexes() db.Migration {
	return db.Migration{
		Version:     20261001090100,
		Description: "Add conversation list indexes",
		Up: func(tx *sql.Tx) error {
			for _, stmt := range []string{
				"CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC)",
				"CREATE INDEX IF NOT EXISTS idx_conversations_created_at ON conversations(created_at DESC)",
			} {
				if _, err := tx.Exec(stmt); err != nil {
					return errors.Wrapf(err, "failed to execute %q", stmt)
				}
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			for _, stmt := range []string{
				"DROP INDEX IF EXISTS idx_conversations_updated_at",
				"DROP INDEX IF EXISTS idx_conversations_created_at",
			} {
				if _, err := tx.Exec(stmt); err != nil {
					return errors.Wrapf(err, "failed to execute %q", stmt)
				}
			}
			return nil
		},
	}
}
