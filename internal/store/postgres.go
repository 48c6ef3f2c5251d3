package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/civic-analytics/streetmatch/internal/db"
	"github.com/civic-analytics/streetmatch/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
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
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	street_name TEXT NOT NULL DEFAULT '',
	block_id    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS candidates (
	mafid TEXT PRIMARY KEY,
	tlids JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	mafid  TEXT PRIMARY KEY,
	tlid   TEXT NOT NULL,
	method TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS walk_runs (
	id         TEXT PRIMARY KEY,
	metric     TEXT NOT NULL,
	seed       BIGINT NOT NULL,
	restarts   INTEGER NOT NULL,
	segments   INTEGER NOT NULL,
	decisions  JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_segments_road_flag ON segments(road_flag);
CREATE INDEX IF NOT EXISTS idx_faces_block_id ON faces(block_id);
CREATE INDEX IF NOT EXISTS idx_addresses_block_id ON addresses(block_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

var segmentColumns = []string{
	"tlid", "full_name", "from_node", "to_node",
	"road_flag", "geometry", "left_face", "right_face",
}

// InsertSegments bulk-loads via COPY. COPY cannot upsert, so reloading
// a county that is already present fails on the primary key; drop the
// rows first when re-ingesting.
func (s *PostgresStore) InsertSegments(ctx context.Context, segments []model.Segment) error {
	rows := make([][]any, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, []any{
			seg.TLID, seg.FullName, seg.FromNode, seg.ToNode,
			seg.RoadFlag, seg.Geometry, seg.LeftFace, seg.RightFace,
		})
	}
	_, err := db.CopyFrom(ctx, s.pool, "segments", segmentColumns, rows)
	return err
}

func (s *PostgresStore) ListSegments(ctx context.Context, roadsOnly bool) ([]model.Segment, error) {
	query := `SELECT tlid, full_name, from_node, to_node, road_flag, geometry, left_face, right_face
		FROM segments`
	if roadsOnly {
		query += ` WHERE road_flag = 'Y'`
	}
	query += ` ORDER BY tlid`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list segments")
	}
	defer rows.Close()

	var out []model.Segment
	for rows.Next() {
		var seg model.Segment
		if err := rows.Scan(&seg.TLID, &seg.FullName, &seg.FromNode, &seg.ToNode,
			&seg.RoadFlag, &seg.Geometry, &seg.LeftFace, &seg.RightFace); err != nil {
			return nil, eris.Wrap(err, "postgres: scan segment")
		}
		out = append(out, seg)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list segments iterate")
}

func (s *PostgresStore) InsertFaces(ctx context.Context, faces []model.Face) error {
	rows := make([][]any, 0, len(faces))
	for _, f := range faces {
		rows = append(rows, []any{f.TFID, f.BlockID})
	}
	_, err := db.CopyFrom(ctx, s.pool, "faces", []string{"tfid", "block_id"}, rows)
	return err
}

func (s *PostgresStore) ListFaces(ctx context.Context) ([]model.Face, error) {
	rows, err := s.pool.Query(ctx, `SELECT tfid, block_id FROM faces ORDER BY tfid`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list faces")
	}
	defer rows.Close()

	var out []model.Face
	for rows.Next() {
		var f model.Face
		if err := rows.Scan(&f.TFID, &f.BlockID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan face")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list faces iterate")
}

func (s *PostgresStore) InsertAddresses(ctx context.Context, addresses []model.Address) error {
	rows := make([][]any, 0, len(addresses))
	for _, a := range addresses {
		rows = append(rows, []any{a.MAFID, a.Latitude, a.Longitude, a.StreetName, a.BlockID})
	}
	_, err := db.CopyFrom(ctx, s.pool, "addresses",
		[]string{"mafid", "latitude", "longitude", "street_name", "block_id"}, rows)
	return err
}

func (s *PostgresStore) ListAddresses(ctx context.Context) ([]model.Address, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT mafid, latitude, longitude, street_name, block_id FROM addresses ORDER BY mafid`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list addresses")
	}
	defer rows.Close()

	var out []model.Address
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(&a.MAFID, &a.Latitude, &a.Longitude, &a.StreetName, &a.BlockID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan address")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list addresses iterate")
}

// upsertRows executes one upsert per row inside a transaction.
func (s *PostgresStore) upsertRows(ctx context.Context, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, row := range rows {
		if _, err := tx.Exec(ctx, query, row...); err != nil {
			return eris.Wrap(err, "postgres: upsert row")
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) SaveCandidates(ctx context.Context, candidates model.CandidateSet) error {
	rows := make([][]any, 0, len(candidates))
	for mafid, tlids := range candidates {
		data, err := json.Marshal(tlids)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal candidates for %s", mafid)
		}
		rows = append(rows, []any{mafid, string(data)})
	}
	return s.upsertRows(ctx, `INSERT INTO candidates (mafid, tlids) VALUES ($1, $2)
		ON CONFLICT (mafid) DO UPDATE SET tlids = EXCLUDED.tlids`, rows)
}

func (s *PostgresStore) GetCandidates(ctx context.Context) (model.CandidateSet, error) {
	rows, err := s.pool.Query(ctx, `SELECT mafid, tlids FROM candidates`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get candidates")
	}
	defer rows.Close()

	out := make(model.CandidateSet)
	for rows.Next() {
		var mafid, data string
		if err := rows.Scan(&mafid, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidates")
		}
		var tlids []string
		if err := json.Unmarshal([]byte(data), &tlids); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal candidates for %s", mafid)
		}
		out[mafid] = tlids
	}
	return out, eris.Wrap(rows.Err(), "postgres: get candidates iterate")
}

func (s *PostgresStore) SaveMatches(ctx context.Context, matches []model.ResolvedMatch) error {
	rows := make([][]any, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []any{m.MAFID, m.TLID, m.Method})
	}
	return s.upsertRows(ctx, `INSERT INTO matches (mafid, tlid, method) VALUES ($1, $2, $3)
		ON CONFLICT (mafid) DO UPDATE SET tlid = EXCLUDED.tlid, method = EXCLUDED.method`, rows)
}

func (s *PostgresStore) ListMatches(ctx context.Context) ([]model.ResolvedMatch, error) {
	rows, err := s.pool.Query(ctx, `SELECT mafid, tlid, method FROM matches ORDER BY mafid`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var out []model.ResolvedMatch
	for rows.Next() {
		var m model.ResolvedMatch
		if err := rows.Scan(&m.MAFID, &m.TLID, &m.Method); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list matches iterate")
}

func (s *PostgresStore) CreateWalkRun(ctx context.Context, run *model.WalkRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	decisions, err := json.Marshal(run.Decisions)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal decisions")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO walk_runs (id, metric, seed, restarts, segments, decisions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.Metric, run.Seed, run.Restarts, run.Segments, string(decisions), run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert walk run")
}

func (s *PostgresStore) GetWalkRun(ctx context.Context, id string) (*model.WalkRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, metric, seed, restarts, segments, decisions, created_at FROM walk_runs WHERE id = $1`, id)

	var run model.WalkRun
	var decisions string
	err := row.Scan(&run.ID, &run.Metric, &run.Seed, &run.Restarts, &run.Segments, &decisions, &run.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Errorf("walk run not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get walk run")
	}
	if err := json.Unmarshal([]byte(decisions), &run.Decisions); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal decisions")
	}
	return &run, nil
}

func (s *PostgresStore) ListWalkRuns(ctx context.Context, limit int) ([]model.WalkRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, metric, seed, restarts, segments, decisions, created_at
		 FROM walk_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list walk runs")
	}
	defer rows.Close()

	var out []model.WalkRun
	for rows.Next() {
		var run model.WalkRun
		var decisions string
		if err := rows.Scan(&run.ID, &run.Metric, &run.Seed, &run.Restarts,
			&run.Segments, &decisions, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan walk run")
		}
		if err := json.Unmarshal([]byte(decisions), &run.Decisions); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal decisions")
		}
		out = append(out, run)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list walk runs iterate")
}
