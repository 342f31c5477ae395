// Package schema brings the submission tables to their current shape.
//
// Every table is described as an ordered list of versioned columns and
// indexes. Ensure applies the idempotent steps derived from that description
// and never fails the caller: a step that errors is logged and retried on the
// next call.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/submission-ticker-api/internal/models"
)

// Execer is the subset of *sql.DB the manager needs
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Column is a column definition tagged with the schema version that introduced it
type Column struct {
	Name       string
	Definition string
	Since      int
}

// Index is a named index over a column expression
type Index struct {
	Name string
	On   string
}

// Step is a single idempotent DDL statement
type Step struct {
	Name string
	SQL  string
}

// Table describes the current shape of a submission table
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
}

// CreateSteps returns the statements for a table that doesn't exist yet
func (t Table) CreateSteps() []Step {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, c.Name+" "+c.Definition)
	}
	steps := []Step{{
		Name: "create_table",
		SQL:  fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", ")),
	}}
	return append(steps, t.indexSteps()...)
}

// MigrateSteps returns the additive statements for a table created by an older version
func (t Table) MigrateSteps() []Step {
	var steps []Step
	for _, c := range t.Columns {
		if c.Since <= 1 {
			continue
		}
		steps = append(steps, Step{
			Name: "add_column_" + c.Name,
			SQL:  fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", t.Name, c.Name, c.Definition),
		})
	}
	return append(steps, t.indexSteps()...)
}

func (t Table) indexSteps() []Step {
	steps := make([]Step, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		steps = append(steps, Step{
			Name: "create_index_" + idx.Name,
			SQL:  fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.Name, t.Name, idx.On),
		})
	}
	return steps
}

var moderationColumns = []Column{
	{Name: "is_active", Definition: "BOOLEAN NOT NULL DEFAULT TRUE", Since: 1},
	{Name: "created_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()", Since: 1},
	{Name: "status", Definition: "VARCHAR(16) NOT NULL DEFAULT 'pending'", Since: 2},
	{Name: "published_at", Definition: "TIMESTAMPTZ", Since: 2},
	{Name: "rejection_reason", Definition: "TEXT", Since: 2},
	{Name: "updated_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()", Since: 2},
}

func submissionTable(name string, profile ...Column) Table {
	cols := []Column{
		{Name: "id", Definition: "UUID PRIMARY KEY", Since: 1},
		{Name: "content", Definition: "TEXT NOT NULL", Since: 1},
	}
	cols = append(cols, profile...)
	cols = append(cols, moderationColumns...)
	return Table{
		Name:    name,
		Columns: cols,
		Indexes: []Index{
			{Name: "idx_" + name + "_status", On: "status"},
			{Name: "idx_" + name + "_created_at", On: "created_at DESC"},
		},
	}
}

var (
	Announcements = submissionTable(models.ResourceAnnouncements.Table())

	Testimonials = submissionTable(models.ResourceTestimonials.Table(),
		Column{Name: "full_name", Definition: "TEXT NOT NULL", Since: 1},
		Column{Name: "email", Definition: "TEXT", Since: 1},
		Column{Name: "location", Definition: "TEXT", Since: 1},
		Column{Name: "category", Definition: "TEXT", Since: 1},
		Column{Name: "rating", Definition: "SMALLINT CHECK (rating BETWEEN 1 AND 5)", Since: 1},
		Column{Name: "photo_url", Definition: "TEXT", Since: 1},
	)
)

// Manager ensures tables exist and carry every required column and index.
// The table set is fixed at construction; only the ensured flags change.
type Manager struct {
	db      Execer
	log     zerolog.Logger
	tables  map[string]Table
	ensured map[string]*atomic.Bool
}

// NewManager creates a manager for the given tables, defaulting to both submission tables
func NewManager(db Execer, log zerolog.Logger, tables ...Table) *Manager {
	if len(tables) == 0 {
		tables = []Table{Announcements, Testimonials}
	}
	m := &Manager{
		db:      db,
		log:     log.With().Str("component", "schema").Logger(),
		tables:  make(map[string]Table, len(tables)),
		ensured: make(map[string]*atomic.Bool, len(tables)),
	}
	for _, t := range tables {
		m.tables[t.Name] = t
		m.ensured[t.Name] = &atomic.Bool{}
	}
	return m
}

// Ensure brings the named table to its current shape. Failures are logged, never returned.
func (m *Manager) Ensure(ctx context.Context, name string) {
	table, ok := m.tables[name]
	flag := m.ensured[name]

	if !ok {
		m.log.Warn().Str("table", name).Msg("Ensure called for unknown table")
		return
	}
	if flag.Load() {
		return
	}

	exists, err := m.tableExists(ctx, name)
	if err != nil {
		m.logStepError(err, name, "check_table").Msg("Schema check failed")
		return
	}

	steps := table.MigrateSteps()
	if !exists {
		m.log.Info().Str("table", name).Msg("Creating table")
		steps = table.CreateSteps()
	}

	failed := 0
	for _, step := range steps {
		if _, err := m.db.ExecContext(ctx, step.SQL); err != nil {
			failed++
			m.logStepError(err, name, step.Name).Msg("Schema step failed")
		}
	}

	if failed > 0 {
		return
	}
	flag.Store(true)
	m.log.Debug().Str("table", name).Int("steps", len(steps)).Msg("Schema ensured")
}

// EnsureAll runs Ensure for every registered table
func (m *Manager) EnsureAll(ctx context.Context) {
	for name := range m.tables {
		m.Ensure(ctx, name)
	}
}

// Ensured reports whether the table passed a full ensure since start
func (m *Manager) Ensured(name string) bool {
	flag, ok := m.ensured[name]
	return ok && flag.Load()
}

func (m *Manager) tableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", name).Scan(&exists)
	return exists, err
}

func (m *Manager) logStepError(err error, table, step string) *zerolog.Event {
	event := m.log.Warn().Err(err).Str("table", table).Str("step", step)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		event = event.Str("pg_code", string(pqErr.Code)).Str("pg_message", pqErr.Message)
	}
	return event
}
