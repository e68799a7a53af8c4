// Package sqldriver provides a database-agnostic storage.Driver over
// database/sql. Queries are built with ent's dialect-aware SQL builder and
// the schema is migrated through ent's schema package, so the same code
// serves SQLite and PostgreSQL.
package sqldriver

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"github.com/google/uuid"

	"github.com/papercomputeco/storysprout/pkg/beat"
	"github.com/papercomputeco/storysprout/pkg/storage"
	"github.com/papercomputeco/storysprout/pkg/story"
)

// Driver implements storage.Driver on an ent SQL driver.
type Driver struct {
	drv     *sql.Driver
	dialect string
	now     func() time.Time
}

var _ storage.Driver = (*Driver)(nil)

// New wraps db for the given ent dialect and migrates the schema.
func New(ctx context.Context, db *stdsql.DB, dialectName string) (*Driver, error) {
	drv := sql.OpenDB(dialectName, db)

	migrate, err := schema.NewMigrate(drv)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare migration: %w", err)
	}
	if err := migrate.Create(ctx, Tables...); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{
		drv:     drv,
		dialect: dialectName,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// DB returns the underlying database handle.
func (d *Driver) DB() *stdsql.DB {
	return d.drv.DB()
}

func (d *Driver) builder() *sql.DialectBuilder {
	return sql.Dialect(d.dialect)
}

func (d *Driver) CreateStory(ctx context.Context, styleSlug, themeSlug string) (*story.Story, error) {
	now := d.now()
	s := &story.Story{
		ID:        uuid.NewString(),
		StyleSlug: styleSlug,
		ThemeSlug: themeSlug,
		CreatedAt: now,
		UpdatedAt: now,
		Beats:     []story.Beat{},
	}

	query, args := d.builder().Insert(storiesTable).
		Columns(columnNames(storiesColumns)...).
		Values(s.ID, s.StyleSlug, s.ThemeSlug, s.CurrentBeat, s.IsComplete, s.CreatedAt, s.UpdatedAt).
		Query()
	if _, err := d.DB().ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("could not create story: %w", err)
	}

	return s, nil
}

func (d *Driver) GetStory(ctx context.Context, id string) (*story.Story, error) {
	query, args := d.builder().Select(columnNames(storiesColumns)...).
		From(sql.Table(storiesTable)).
		Where(sql.EQ("id", id)).
		Query()

	s, err := scanStory(d.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: "story", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	query, args = d.builder().Select(columnNames(beatsColumns)...).
		From(sql.Table(beatsTable)).
		Where(sql.EQ("story_id", id)).
		OrderBy(sql.Asc("beat_number")).
		Query()

	rows, err := d.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query beats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBeat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan beat: %w", err)
		}
		s.Beats = append(s.Beats, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate beats: %w", err)
	}

	return s, nil
}

func (d *Driver) ListStories(ctx context.Context) ([]*story.Story, error) {
	query, args := d.builder().Select(columnNames(storiesColumns)...).
		From(sql.Table(storiesTable)).
		OrderBy(sql.Desc("created_at")).
		Query()

	rows, err := d.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var out []*story.Story
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *Driver) PersistBeat(ctx context.Context, storyID string, beatNumber int, resp *beat.Response, provider, raw string) (*story.Beat, error) {
	b := story.NewBeat(storyID, resp, provider, raw)
	b.ID = uuid.NewString()
	b.BeatNumber = beatNumber
	b.CreatedAt = d.now()

	options, err := json.Marshal(b.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal options: %w", err)
	}

	tx, err := d.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := d.builder().Select("id").
		From(sql.Table(storiesTable)).
		Where(sql.EQ("id", storyID)).
		Query()
	var found string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return nil, storage.NotFoundError{Kind: "story", ID: storyID}
		}
		return nil, fmt.Errorf("failed to check story: %w", err)
	}

	query, args = d.builder().Select(sql.Count("*")).
		From(sql.Table(beatsTable)).
		Where(sql.And(sql.EQ("story_id", storyID), sql.EQ("beat_number", beatNumber))).
		Query()
	var existing int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to check beat: %w", err)
	}
	if existing > 0 {
		return nil, storage.ErrBeatExists
	}

	query, args = d.builder().Insert(beatsTable).
		Columns(columnNames(beatsColumns)...).
		Values(b.ID, b.StoryID, b.BeatNumber, b.Segment, nullable(b.Question), string(options),
			nullable(b.ChosenOption), b.Provider, b.RawJSON, b.CreatedAt).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("could not insert beat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit beat: %w", err)
	}
	return &b, nil
}

func (d *Driver) SetChosenOption(ctx context.Context, beatID, option string) error {
	query, args := d.builder().Update(beatsTable).
		Set("chosen_option", option).
		Where(sql.EQ("id", beatID)).
		Query()

	return d.execOne(ctx, query, args, storage.NotFoundError{Kind: "beat", ID: beatID})
}

func (d *Driver) MarkStory(ctx context.Context, storyID string, currentBeat int, isComplete bool) error {
	query, args := d.builder().Update(storiesTable).
		Set("current_beat", currentBeat).
		Set("is_complete", isComplete).
		Set("updated_at", d.now()).
		Where(sql.EQ("id", storyID)).
		Query()

	return d.execOne(ctx, query, args, storage.NotFoundError{Kind: "story", ID: storyID})
}

// execOne runs an update and returns notFound when no row matched.
func (d *Driver) execOne(ctx context.Context, query string, args []any, notFound error) error {
	res, err := d.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.drv.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (*story.Story, error) {
	s := &story.Story{Beats: []story.Beat{}}
	if err := row.Scan(&s.ID, &s.StyleSlug, &s.ThemeSlug, &s.CurrentBeat, &s.IsComplete, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func scanBeat(row scanner) (*story.Beat, error) {
	var (
		b        story.Beat
		question stdsql.NullString
		chosen   stdsql.NullString
		options  string
	)
	if err := row.Scan(&b.ID, &b.StoryID, &b.BeatNumber, &b.Segment, &question, &options,
		&chosen, &b.Provider, &b.RawJSON, &b.CreatedAt); err != nil {
		return nil, err
	}

	if question.Valid {
		b.Question = &question.String
	}
	if chosen.Valid {
		b.ChosenOption = &chosen.String
	}
	b.Options = []string{}
	if err := json.Unmarshal([]byte(options), &b.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	b.CreatedAt = b.CreatedAt.UTC()

	return &b, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
