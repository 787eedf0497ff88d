package conversations

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/jingkaihe/skillrunner/pkg/db"
	"github.com/jingkaihe/skillrunner/pkg/db/migrations"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// JSONField stores a value as a JSON text column.
type JSONField[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface for reading from database
func (j *JSONField[T]) Scan(value any) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.Errorf("cannot scan %T into JSONField", value)
	}

	return json.Unmarshal(bytes, &j.Data)
}

// Value implements the driver.Valuer interface for writing to database
func (j JSONField[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type dbConversation struct {
	ID           string                                               `db:"id"`
	Provider     string                                               `db:"provider"`
	Model        string                                               `db:"model"`
	FirstMessage string                                               `db:"first_message"`
	MessageCount int                                                  `db:"message_count"`
	Messages     JSONField[[]llmtypes.Message]                        `db:"messages"`
	ToolResults  JSONField[map[string]tooltypes.StructuredToolResult] `db:"tool_results"`
	Usage        JSONField[llmtypes.Usage]                            `db:"usage"`
	CreatedAt    time.Time                                            `db:"created_at"`
	UpdatedAt    time.Time                                            `db:"updated_at"`
}

type dbSummary struct {
	ID           string                    `db:"id"`
	Provider     string                    `db:"provider"`
	Model        string                    `db:"model"`
	FirstMessage string                    `db:"first_message"`
	MessageCount int                       `db:"message_count"`
	Usage        JSONField[llmtypes.Usage] `db:"usage"`
	CreatedAt    time.Time                 `db:"created_at"`
	UpdatedAt    time.Time                 `db:"updated_at"`
}

func fromRecord(r Record) dbConversation {
	toolResults := r.ToolResults
	if toolResults == nil {
		toolResults = map[string]tooltypes.StructuredToolResult{}
	}
	messages := r.Messages
	if messages == nil {
		messages = []llmtypes.Message{}
	}
	return dbConversation{
		ID:           r.ID,
		Provider:     r.Provider,
		Model:        r.Model,
		FirstMessage: r.FirstMessage(),
		MessageCount: len(r.Messages),
		Messages:     JSONField[[]llmtypes.Message]{Data: messages},
		ToolResults:  JSONField[map[string]tooltypes.StructuredToolResult]{Data: toolResults},
		Usage:        JSONField[llmtypes.Usage]{Data: r.Usage},
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (d dbConversation) toRecord() Record {
	toolResults := d.ToolResults.Data
	if toolResults == nil {
		toolResults = map[string]tooltypes.StructuredToolResult{}
	}
	return Record{
		ID:          d.ID,
		Provider:    d.Provider,
		Model:       d.Model,
		Messages:    d.Messages.Data,
		ToolResults: toolResults,
		Usage:       d.Usage.Data,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d dbSummary) toSummary() Summary {
	return Summary{
		ID:           d.ID,
		Provider:     d.Provider,
		Model:        d.Model,
		FirstMessage: d.FirstMessage,
		MessageCount: d.MessageCount,
		Usage:        d.Usage.Data,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// SQLiteStore is a Store backed by SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens the database at dbPath and migrates it.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	sqlDB, err := db.OpenAndMigrate(ctx, dbPath, migrations.All())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open conversation store")
	}
	return &SQLiteStore{db: sqlDB}, nil
}

// NewDefaultSQLiteStore opens the store at the default database path.
func NewDefaultSQLiteStore(ctx context.Context) (*SQLiteStore, error) {
	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(ctx, dbPath)
}

// Save inserts or replaces a conversation. created_at is kept from the
// first save.
func (s *SQLiteStore) Save(ctx context.Context, record Record) error {
	if record.ID == "" {
		return errors.New("conversation ID is required")
	}
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO conversations (
			id, provider, model, first_message, message_count,
			messages, tool_results, usage, created_at, updated_at
		) VALUES (
			:id, :provider, :model, :first_message, :message_count,
			:messages, :tool_results, :usage, :created_at, :updated_at
		)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			first_message = excluded.first_message,
			message_count = excluded.message_count,
			messages = excluded.messages,
			tool_results = excluded.tool_results,
			usage = excluded.usage,
			updated_at = excluded.updated_at
	`, fromRecord(record))
	return errors.Wrap(err, "failed to save conversation")
}

// Load returns the conversation with the given ID.
func (s *SQLiteStore) Load(ctx context.Context, id string) (Record, error) {
	var row dbConversation
	err := s.db.GetContext(ctx, &row, `
		SELECT id, provider, model, first_message, message_count,
			messages, tool_results, usage, created_at, updated_at
		FROM conversations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, errors.Wrapf(ErrNotFound, "%s", id)
	}
	if err != nil {
		return Record{}, errors.Wrap(err, "failed to load conversation")
	}
	return row.toRecord(), nil
}

// Delete removes a conversation.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete conversation")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "%s", id)
	}
	return nil
}

// Query lists conversation summaries.
func (s *SQLiteStore) Query(ctx context.Context, options QueryOptions) (QueryResult, error) {
	var conditions []string
	args := map[string]any{}

	if options.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *options.StartDate
	}
	if options.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *options.EndDate
	}
	if options.SearchTerm != "" {
		conditions = append(conditions, "LOWER(first_message) LIKE :search_term")
		args["search_term"] = "%" + strings.ToLower(options.SearchTerm) + "%"
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	sortOrder := "DESC"
	if strings.EqualFold(options.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	query := `SELECT id, provider, model, first_message, message_count, usage, created_at, updated_at
		FROM conversations` + where + " ORDER BY updated_at " + sortOrder
	if options.Limit > 0 {
		query += " LIMIT :limit OFFSET :offset"
		args["limit"] = options.Limit
		args["offset"] = options.Offset
	}

	var rows []dbSummary
	if err := s.namedSelect(ctx, &rows, query, args); err != nil {
		return QueryResult{}, errors.Wrap(err, "failed to query conversations")
	}

	var total []int
	if err := s.namedSelect(ctx, &total, "SELECT COUNT(*) FROM conversations"+where, args); err != nil {
		return QueryResult{}, errors.Wrap(err, "failed to count conversations")
	}

	result := QueryResult{Summaries: make([]Summary, len(rows))}
	for i, row := range rows {
		result.Summaries[i] = row.toSummary()
	}
	if len(total) > 0 {
		result.Total = total[0]
	}
	return result, nil
}

func (s *SQLiteStore) namedSelect(ctx context.Context, dest any, query string, args map[string]any) error {
	bound, values, err := sqlx.Named(query, args)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.db.Rebind(bound), values...)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
