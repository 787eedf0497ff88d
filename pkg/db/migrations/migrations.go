// Package migrations holds the schema of the conversation store.
package migrations

import "github.com/jingkaihe/skillrunner/pkg/db"

// All returns every migration. Append new ones at the end.
func All() []db.Migration {
	return []db.Migration{
		Migration20261001090000CreateConversations(),
		Migration20261001090100AddConversationIndexes(),
	}
}
