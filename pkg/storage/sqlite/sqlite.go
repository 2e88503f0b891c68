package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/storage"
	"github.com/kasuboski/umaru/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/umaru/pkg/storage/sqlite/schema/gen/table"
	_ "github.com/mattn/go-sqlite3"
)

var _ storage.LedgerStorage = (*SQLite)(nil)

type SQLite struct {
	db *sql.DB
	mu *sync.Mutex
}

// New creates a new sqlite ledger given a path to the database file
func New(ctx context.Context, filePath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}

	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &SQLite{
		db: db,
		mu: &sync.Mutex{},
	}, nil
}

// Init brings the schema up to date
func (s *SQLite) Init(ctx context.Context) error {
	return s.RunMigrations(ctx)
}

// RunMigrations applies any pending embedded migrations
func (s *SQLite) RunMigrations(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	if err := runMigrations(s.db); err != nil {
		log.Errorw("failed to run migrations", "error", err)
		return err
	}

	return nil
}

// ListEpisodes returns every ledger record
func (s *SQLite) ListEpisodes(ctx context.Context) (map[string]int, error) {
	rows := make([]*model.DownloadLedger, 0)

	stmt := table.DownloadLedger.
		SELECT(table.DownloadLedger.AllColumns).
		FROM(table.DownloadLedger).
		ORDER_BY(table.DownloadLedger.Title.ASC())

	if err := stmt.QueryContext(ctx, s.db, &rows); err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}

	episodes := make(map[string]int, len(rows))
	for _, r := range rows {
		episodes[r.Title] = int(r.Episode)
	}
	return episodes, nil
}

// GetEpisode returns the stored episode for title
func (s *SQLite) GetEpisode(ctx context.Context, title string) (int, error) {
	var row model.DownloadLedger

	stmt := table.DownloadLedger.
		SELECT(table.DownloadLedger.AllColumns).
		FROM(table.DownloadLedger).
		WHERE(table.DownloadLedger.Title.EQ(sqlite.String(title)))

	err := stmt.QueryContext(ctx, s.db, &row)
	if errors.Is(err, qrm.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get ledger record: %w", err)
	}

	return int(row.Episode), nil
}

// PutEpisode inserts or replaces the record for title
func (s *SQLite) PutEpisode(ctx context.Context, title string, episode int) error {
	stmt := table.DownloadLedger.
		INSERT(table.DownloadLedger.Title, table.DownloadLedger.Episode).
		VALUES(title, episode).
		ON_CONFLICT(table.DownloadLedger.Title).
		DO_UPDATE(sqlite.SET(
			table.DownloadLedger.Episode.SET(table.DownloadLedger.EXCLUDED.Episode),
		))

	_, err := s.handleStatement(ctx, stmt)
	return err
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) handleStatement(ctx context.Context, stmt sqlite.Statement) (sql.Result, error) {
	log := logger.FromCtx(ctx)
	var result sql.Result

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Debugw("failed to init transaction", "error", err)
		return result, err
	}

	result, err = stmt.ExecContext(ctx, tx)
	if err != nil {
		log.Debugw("failed to execute statement", "query", stmt.DebugSql(), "error", err)
		tx.Rollback()
		return result, err
	}

	return result, tx.Commit()
}
