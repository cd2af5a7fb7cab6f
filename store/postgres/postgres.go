package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/gr-butler/highlow/apperr"
	"github.com/gr-butler/highlow/config"
	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/samples"
	"github.com/gr-butler/highlow/store"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	logger "github.com/sirupsen/logrus"
)

const storageID = 1

type dsnOptions struct {
	SSLMode         string `url:"sslmode,omitempty"`
	ConnectTimeout  int    `url:"connect_timeout,omitempty"`
	ApplicationName string `url:"application_name,omitempty"`
}

// DSN builds a lib/pq connection url from the database settings.
func DSN(cfg config.DatabaseConfig) (string, error) {
	opts, err := query.Values(dsnOptions{
		SSLMode:         cfg.SSLMode,
		ConnectTimeout:  cfg.ConnectTimeout,
		ApplicationName: cfg.ApplicationName,
	})
	if err != nil {
		return "", fmt.Errorf("encode connection options: %w", err)
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.DBName,
		RawQuery: opts.Encode(),
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	return u.String(), nil
}

// Gateway stores rows, samples and the snapshot in Postgres.
type Gateway struct {
	db *sqlx.DB
}

func Open(ctx context.Context, cfg config.DatabaseConfig) (*Gateway, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}
	logger.Infof("Connected to postgres [%v:%v/%v]", cfg.Host, cfg.Port, cfg.DBName)
	return New(db), nil
}

// New wraps an open connection.
func New(db *sqlx.DB) *Gateway {
	return &Gateway{db: db}
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

func persistence(msg string, err error) error {
	return apperr.NewPersistenceError(msg, err)
}

func (g *Gateway) SchemaVersion(ctx context.Context) (int, error) {
	if _, err := g.db.ExecContext(ctx, createVersionTable); err != nil {
		return 0, persistence("create schema_version", err)
	}
	var v int
	err := g.db.GetContext(ctx, &v, `SELECT version FROM schema_version WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, persistence("read schema version", err)
	}
	return v, nil
}

func (g *Gateway) SetSchemaVersion(ctx context.Context, v int) error {
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO schema_version (id, version) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version`, v)
	if err != nil {
		return persistence("write schema version", err)
	}
	return nil
}

func (g *Gateway) UpgradeTo(ctx context.Context, v int) error {
	stmts, ok := migrations[v]
	if !ok {
		return fmt.Errorf("no migration to version [%v]", v)
	}
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistence("begin upgrade", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return persistence(fmt.Sprintf("upgrade to version %d", v), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return persistence("commit upgrade", err)
	}
	return nil
}

func (g *Gateway) Initialize(ctx context.Context, sensors []extremum.Sensor) error {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistence("begin initialize", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, s := range sensors {
		var seed sql.NullFloat64
		if s.ZeroBased {
			seed = sql.NullFloat64{Float64: 0, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO high_low (sensorid, max_day, min_day) VALUES ($1, $2, $3)
			ON CONFLICT (sensorid) DO NOTHING`, s.ID, seed, seed)
		if err != nil {
			return persistence(fmt.Sprintf("insert row for [%v]", s.ID), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return persistence("commit initialize", err)
	}
	return nil
}

// rowColumns lists the high_low columns in the order Row scans them.
func rowColumns() []string {
	cols := []string{"sensorid"}
	for _, f := range extremum.Fields() {
		if f == extremum.RolledOver {
			cols = append(cols, f.Column())
			continue
		}
		cols = append(cols, f.Column(), f.TimeColumn())
	}
	return cols
}

func (g *Gateway) Row(ctx context.Context, sensorID string) (extremum.Row, error) {
	fields := extremum.Fields()
	values := make([]sql.NullFloat64, len(fields))
	times := make([]sql.NullTime, len(fields))
	var id string
	dest := []interface{}{&id}
	for i, f := range fields {
		if f == extremum.RolledOver {
			dest = append(dest, &times[i])
			continue
		}
		dest = append(dest, &values[i], &times[i])
	}

	q := fmt.Sprintf(`SELECT %s FROM high_low WHERE sensorid = $1`, strings.Join(rowColumns(), ", "))
	err := g.db.QueryRowxContext(ctx, q, sensorID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return extremum.Row{}, apperr.NewNotFoundError(fmt.Sprintf("no row for sensor [%v]", sensorID), nil)
	}
	if err != nil {
		return extremum.Row{}, persistence(fmt.Sprintf("read row [%v]", sensorID), err)
	}

	row := extremum.Row{SensorID: id}
	u := extremum.Update{}
	for i, f := range fields {
		if f == extremum.RolledOver {
			if times[i].Valid {
				u[f] = extremum.Bound{Time: times[i].Time, Set: true}
			}
			continue
		}
		u[f] = toBound(values[i], times[i])
	}
	row.Apply(u)
	return row, nil
}

func toBound(v sql.NullFloat64, t sql.NullTime) extremum.Bound {
	if !v.Valid {
		return extremum.Unset()
	}
	b := extremum.Bound{Value: v.Float64, Set: true}
	if t.Valid {
		b.Time = t.Time
	}
	return b
}

func nullable(b extremum.Bound) (sql.NullFloat64, sql.NullTime) {
	if !b.Set {
		return sql.NullFloat64{}, sql.NullTime{}
	}
	return sql.NullFloat64{Float64: b.Value, Valid: true}, sql.NullTime{Time: b.Time, Valid: !b.Time.IsZero()}
}

// Apply writes an update in one statement. Column names come from the fixed
// field set, values are always bound parameters.
func (g *Gateway) Apply(ctx context.Context, sensorID string, u extremum.Update) error {
	if len(u) == 0 {
		return nil
	}
	if err := u.Validate(); err != nil {
		return apperr.NewValidationError("bad update", err)
	}
	fields := make([]extremum.Field, 0, len(u))
	for f := range u {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	var (
		sets []string
		args []interface{}
	)
	for _, f := range fields {
		b := u[f]
		if f == extremum.RolledOver {
			args = append(args, sql.NullTime{Time: b.Time, Valid: b.Set && !b.Time.IsZero()})
			sets = append(sets, fmt.Sprintf("%s = $%d", f.Column(), len(args)))
			continue
		}
		v, t := nullable(b)
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column(), len(args)))
		args = append(args, t)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.TimeColumn(), len(args)))
	}
	args = append(args, sensorID)
	q := fmt.Sprintf(`UPDATE high_low SET %s WHERE sensorid = $%d`, strings.Join(sets, ", "), len(args))

	res, err := g.db.ExecContext(ctx, q, args...)
	if err != nil {
		return persistence(fmt.Sprintf("update row [%v]", sensorID), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NewNotFoundError(fmt.Sprintf("no row for sensor [%v]", sensorID), nil)
	}
	return nil
}

type storageRow struct {
	RainToday             float64         `db:"rain_today"`
	RainYesterday         float64         `db:"rain_yesterday"`
	RainStart             sql.NullTime    `db:"rain_start"`
	RainDurationToday     float64         `db:"rain_duration_today"`
	RainDurationYesterday float64         `db:"rain_duration_yesterday"`
	LightningCount        int             `db:"lightning_count"`
	LightningCountToday   int             `db:"lightning_count_today"`
	LastLightningTime     sql.NullTime    `db:"last_lightning_time"`
	LastLightningDistance sql.NullFloat64 `db:"last_lightning_distance"`
	LastLightningEnergy   sql.NullFloat64 `db:"last_lightning_energy"`
	RolledOver            sql.NullTime    `db:"rolled_over"`
	ID                    int             `db:"id"`
}

func (g *Gateway) Snapshot(ctx context.Context) (store.Snapshot, error) {
	var r storageRow
	err := g.db.GetContext(ctx, &r, `SELECT * FROM storage WHERE id = $1`, storageID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, nil
	}
	if err != nil {
		return store.Snapshot{}, persistence("read storage", err)
	}
	return store.Snapshot{
		RainToday:             r.RainToday,
		RainYesterday:         r.RainYesterday,
		RainStart:             r.RainStart.Time,
		RainDurationToday:     r.RainDurationToday,
		RainDurationYesterday: r.RainDurationYesterday,
		LightningCount:        r.LightningCount,
		LightningCountToday:   r.LightningCountToday,
		LastLightningTime:     r.LastLightningTime.Time,
		LastLightningDistance: r.LastLightningDistance.Float64,
		LastLightningEnergy:   r.LastLightningEnergy.Float64,
		RolledOver:            r.RolledOver.Time,
	}, nil
}

func (g *Gateway) PutSnapshot(ctx context.Context, s store.Snapshot) error {
	r := storageRow{
		ID:                    storageID,
		RainToday:             s.RainToday,
		RainYesterday:         s.RainYesterday,
		RainStart:             sql.NullTime{Time: s.RainStart, Valid: !s.RainStart.IsZero()},
		RainDurationToday:     s.RainDurationToday,
		RainDurationYesterday: s.RainDurationYesterday,
		LightningCount:        s.LightningCount,
		LightningCountToday:   s.LightningCountToday,
		LastLightningTime:     sql.NullTime{Time: s.LastLightningTime, Valid: !s.LastLightningTime.IsZero()},
		LastLightningDistance: sql.NullFloat64{Float64: s.LastLightningDistance, Valid: true},
		LastLightningEnergy:   sql.NullFloat64{Float64: s.LastLightningEnergy, Valid: true},
		RolledOver:            sql.NullTime{Time: s.RolledOver, Valid: !s.RolledOver.IsZero()},
	}
	_, err := g.db.NamedExecContext(ctx, upsertStorage, r)
	if err != nil {
		return persistence("write storage", err)
	}
	return nil
}

func (g *Gateway) Append(ctx context.Context, s samples.Sample) error {
	var v sql.NullFloat64
	if s.Value != nil {
		v = sql.NullFloat64{Float64: *s.Value, Valid: true}
	}
	_, err := g.db.ExecContext(ctx, `INSERT INTO samples (kind, ts, value) VALUES ($1, $2, $3)`, string(s.Kind), s.Time, v)
	if err != nil {
		return persistence(fmt.Sprintf("insert %v sample", s.Kind), err)
	}
	return nil
}

type sampleRow struct {
	TS    time.Time       `db:"ts"`
	Value sql.NullFloat64 `db:"value"`
}

func (g *Gateway) Latest(ctx context.Context, kind samples.Kind, before time.Time) (samples.Sample, bool, error) {
	var r sampleRow
	err := g.db.GetContext(ctx, &r, `
		SELECT ts, value FROM samples
		WHERE kind = $1 AND ts < $2
		ORDER BY ts DESC LIMIT 1`, string(kind), before)
	if errors.Is(err, sql.ErrNoRows) {
		return samples.Sample{}, false, nil
	}
	if err != nil {
		return samples.Sample{}, false, persistence(fmt.Sprintf("read %v sample", kind), err)
	}
	s := samples.Sample{Kind: kind, Time: r.TS}
	if r.Value.Valid {
		v := r.Value.Float64
		s.Value = &v
	}
	return s, true, nil
}

func (g *Gateway) CountSince(ctx context.Context, kind samples.Kind, after time.Time) (int, error) {
	var n int
	err := g.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM samples WHERE kind = $1 AND ts > $2`, string(kind), after)
	if err != nil {
		return 0, persistence(fmt.Sprintf("count %v samples", kind), err)
	}
	return n, nil
}

func (g *Gateway) DeleteThrough(ctx context.Context, kind samples.Kind, cutoff time.Time) (int64, error) {
	res, err := g.db.ExecContext(ctx, `DELETE FROM samples WHERE kind = $1 AND ts <= $2`, string(kind), cutoff)
	if err != nil {
		return 0, persistence(fmt.Sprintf("delete %v samples", kind), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistence("rows affected", err)
	}
	return n, nil
}

var (
	_ store.Gateway = (*Gateway)(nil)
	_ store.Schema  = (*Gateway)(nil)
)
