package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/civic-analytics/streetmatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS segments (
	tlid       TEXT PRIMARY KEY,
	full_name  TEXT NOT NULL DEFAULT '',
	from_node  TEXT NOT NULL DEFAULT '',
	to_node    TEXT NOT NULL DEFAULT '',
	road_flag  TEXT NOT NULL DEFAULT '',
	geometry   TEXT NOT NULL DEFAULT '',
	left_face  TEXT NOT NULL DEFAULT '',
	right_face TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS faces (
	tfid     TEXT PRIMARY KEY,
	block_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS addresses (
	mafid       TEXT PRIMARY KEY,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	street_name TEXT NOT NULL DEFAULT '',
	block_id    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS candidates (
	mafid TEXT PRIMARY KEY,
	tlids TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	mafid  TEXT PRIMARY KEY,
	tlid   TEXT NOT NULL,
	method TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS walk_runs (
	id         TEXT PRIMARY KEY,
	metric     TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	restarts   INTEGER NOT NULL,
	segments   INTEGER NOT NULL,
	decisions  TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_segments_road_flag ON segments(road_flag);
CREATE INDEX IF NOT EXISTS idx_faces_block_id ON faces(block_id);
CREATE INDEX IF NOT EXISTS idx_addresses_block_id ON addresses(block_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// insertBatch runs one statement for each row inside a transaction.
func (s *SQLiteStore) insertBatch(ctx context.Context, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrap(err, "sqlite: insert row")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) InsertSegments(ctx context.Context, segments []model.Segment) error {
	rows := make([][]any, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, []any{
			seg.TLID, seg.FullName, seg.FromNode, seg.ToNode,
			seg.RoadFlag, seg.Geometry, seg.LeftFace, seg.RightFace,
		})
	}
	return s.insertBatch(ctx, `INSERT OR REPLACE INTO segments
		(tlid, full_name, from_node, to_node, road_flag, geometry, left_face, right_face)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, rows)
}

func (s *SQLiteStore) ListSegments(ctx context.Context, roadsOnly bool) ([]model.Segment, error) {
	query := `SELECT tlid, full_name, from_node, to_node, road_flag, geometry, left_face, right_face
		FROM segments`
	if roadsOnly {
		query += ` WHERE road_flag = 'Y'`
	}
	query += ` ORDER BY tlid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list segments")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Segment
	for rows.Next() {
		var seg model.Segment
		if err := rows.Scan(&seg.TLID, &seg.FullName, &seg.FromNode, &seg.ToNode,
			&seg.RoadFlag, &seg.Geometry, &seg.LeftFace, &seg.RightFace); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan segment")
		}
		out = append(out, seg)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list segments iterate")
}

func (s *SQLiteStore) InsertFaces(ctx context.Context, faces []model.Face) error {
	rows := make([][]any, 0, len(faces))
	for _, f := range faces {
		rows = append(rows, []any{f.TFID, f.BlockID})
	}
	return s.insertBatch(ctx, `INSERT OR REPLACE INTO faces (tfid, block_id) VALUES (?, ?)`, rows)
}

func (s *SQLiteStore) ListFaces(ctx context.Context) ([]model.Face, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tfid, block_id FROM faces ORDER BY tfid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list faces")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Face
	for rows.Next() {
		var f model.Face
		if err := rows.Scan(&f.TFID, &f.BlockID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan face")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list faces iterate")
}

func (s *SQLiteStore) InsertAddresses(ctx context.Context, addresses []model.Address) error {
	rows := make([][]any, 0, len(addresses))
	for _, a := range addresses {
		rows = append(rows, []any{a.MAFID, a.Latitude, a.Longitude, a.StreetName, a.BlockID})
	}
	return s.insertBatch(ctx, `INSERT OR REPLACE INTO addresses
		(mafid, latitude, longitude, street_name, block_id) VALUES (?, ?, ?, ?, ?)`, rows)
}

func (s *SQLiteStore) ListAddresses(ctx context.Context) ([]model.Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mafid, latitude, longitude, street_name, block_id FROM addresses ORDER BY mafid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list addresses")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Address
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(&a.MAFID, &a.Latitude, &a.Longitude, &a.StreetName, &a.BlockID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan address")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list addresses iterate")
}

func (s *SQLiteStore) SaveCandidates(ctx context.Context, candidates model.CandidateSet) error {
	rows := make([][]any, 0, len(candidates))
	for mafid, tlids := range candidates {
		data, err := json.Marshal(tlids)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal candidates for %s", mafid)
		}
		rows = append(rows, []any{mafid, string(data)})
	}
	return s.insertBatch(ctx, `INSERT OR REPLACE INTO candidates (mafid, tlids) VALUES (?, ?)`, rows)
}

func (s *SQLiteStore) GetCandidates(ctx context.Context) (model.CandidateSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mafid, tlids FROM candidates`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get candidates")
	}
	defer rows.Close() //nolint:errcheck

	out := make(model.CandidateSet)
	for rows.Next() {
		var mafid, data string
		if err := rows.Scan(&mafid, &data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidates")
		}
		var tlids []string
		if err := json.Unmarshal([]byte(data), &tlids); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal candidates for %s", mafid)
		}
		out[mafid] = tlids
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get candidates iterate")
}

func (s *SQLiteStore) SaveMatches(ctx context.Context, matches []model.ResolvedMatch) error {
	rows := make([][]any, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []any{m.MAFID, m.TLID, m.Method})
	}
	return s.insertBatch(ctx, `INSERT OR REPLACE INTO matches (mafid, tlid, method) VALUES (?, ?, ?)`, rows)
}

func (s *SQLiteStore) ListMatches(ctx context.Context) ([]model.ResolvedMatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mafid, tlid, method FROM matches ORDER BY mafid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ResolvedMatch
	for rows.Next() {
		var m model.ResolvedMatch
		if err := rows.Scan(&m.MAFID, &m.TLID, &m.Method); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list matches iterate")
}

func (s *SQLiteStore) CreateWalkRun(ctx context.Context, run *model.WalkRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	decisions, err := json.Marshal(run.Decisions)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal decisions")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO walk_runs (id, metric, seed, restarts, segments, decisions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Metric, run.Seed, run.Restarts, run.Segments, string(decisions), run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert walk run")
}

func (s *SQLiteStore) GetWalkRun(ctx context.Context, id string) (*model.WalkRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, metric, seed, restarts, segments, decisions, created_at FROM walk_runs WHERE id = ?`, id)

	var run model.WalkRun
	var decisions string
	err := row.Scan(&run.ID, &run.Metric, &run.Seed, &run.Restarts, &run.Segments, &decisions, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("walk run not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get walk run")
	}
	if err := json.Unmarshal([]byte(decisions), &run.Decisions); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal decisions")
	}
	return &run, nil
}

func (s *SQLiteStore) ListWalkRuns(ctx context.Context, limit int) ([]model.WalkRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, metric, seed, restarts, segments, decisions, created_at
		 FROM walk_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list walk runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.WalkRun
	for rows.Next() {
		var run model.WalkRun
		var decisions string
		if err := rows.Scan(&run.ID, &run.Metric, &run.Seed, &run.Restarts,
			&run.Segments, &decisions, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan walk run")
		}
		if err := json.Unmarshal([]byte(decisions), &run.Decisions); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal decisions")
		}
		out = append(out, run)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list walk runs iterate")
}
