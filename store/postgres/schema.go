package postgres

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    id      INTEGER PRIMARY KEY,
    version INTEGER NOT NULL
)`

// migrations holds the statements that bring the schema to each version.
var migrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS high_low (
    sensorid        TEXT PRIMARY KEY,
    latest          DOUBLE PRECISION NULL,
    latest_time     TIMESTAMPTZ NULL,
    max_day         DOUBLE PRECISION NULL,
    max_day_time    TIMESTAMPTZ NULL,
    min_day         DOUBLE PRECISION NULL,
    min_day_time    TIMESTAMPTZ NULL,
    max_week        DOUBLE PRECISION NULL,
    max_week_time   TIMESTAMPTZ NULL,
    min_week        DOUBLE PRECISION NULL,
    min_week_time   TIMESTAMPTZ NULL,
    max_month       DOUBLE PRECISION NULL,
    max_month_time  TIMESTAMPTZ NULL,
    min_month       DOUBLE PRECISION NULL,
    min_month_time  TIMESTAMPTZ NULL,
    max_year        DOUBLE PRECISION NULL,
    max_year_time   TIMESTAMPTZ NULL,
    min_year        DOUBLE PRECISION NULL,
    min_year_time   TIMESTAMPTZ NULL,
    max_all         DOUBLE PRECISION NULL,
    max_all_time    TIMESTAMPTZ NULL,
    min_all         DOUBLE PRECISION NULL,
    min_all_time    TIMESTAMPTZ NULL
)`,
		`CREATE TABLE IF NOT EXISTS samples (
    kind  TEXT NOT NULL,
    ts    TIMESTAMPTZ NOT NULL,
    value DOUBLE PRECISION NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_kind_ts ON samples (kind, ts DESC)`,
		`CREATE TABLE IF NOT EXISTS storage (
    id                      INTEGER PRIMARY KEY,
    rain_today              DOUBLE PRECISION NOT NULL DEFAULT 0,
    rain_yesterday          DOUBLE PRECISION NOT NULL DEFAULT 0,
    rain_start              TIMESTAMPTZ NULL,
    rain_duration_today     DOUBLE PRECISION NOT NULL DEFAULT 0,
    rain_duration_yesterday DOUBLE PRECISION NOT NULL DEFAULT 0,
    lightning_count         INTEGER NOT NULL DEFAULT 0,
    lightning_count_today   INTEGER NOT NULL DEFAULT 0,
    last_lightning_time     TIMESTAMPTZ NULL,
    last_lightning_distance DOUBLE PRECISION NULL,
    last_lightning_energy   DOUBLE PRECISION NULL
)`,
		`INSERT INTO storage (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
	},
	// yesterday's high and low
	2: {
		`ALTER TABLE high_low
    ADD COLUMN IF NOT EXISTS max_yday DOUBLE PRECISION NULL,
    ADD COLUMN IF NOT EXISTS max_yday_time TIMESTAMPTZ NULL,
    ADD COLUMN IF NOT EXISTS min_yday DOUBLE PRECISION NULL,
    ADD COLUMN IF NOT EXISTS min_yday_time TIMESTAMPTZ NULL`,
	},
	// rollover marker
	3: {
		`ALTER TABLE high_low ADD COLUMN IF NOT EXISTS rolled_over TIMESTAMPTZ NULL`,
	},
	// day the storage totals were last rolled
	4: {
		`ALTER TABLE storage ADD COLUMN IF NOT EXISTS rolled_over TIMESTAMPTZ NULL`,
	},
}

const upsertStorage = `
INSERT INTO storage (
    id, rain_today, rain_yesterday, rain_start, rain_duration_today, rain_duration_yesterday,
    lightning_count, lightning_count_today, last_lightning_time, last_lightning_distance, last_lightning_energy,
    rolled_over
) VALUES (
    :id, :rain_today, :rain_yesterday, :rain_start, :rain_duration_today, :rain_duration_yesterday,
    :lightning_count, :lightning_count_today, :last_lightning_time, :last_lightning_distance, :last_lightning_energy,
    :rolled_over
)
ON CONFLICT (id) DO UPDATE SET
    rain_today = EXCLUDED.rain_today,
    rain_yesterday = EXCLUDED.rain_yesterday,
    rain_start = EXCLUDED.rain_start,
    rain_duration_today = EXCLUDED.rain_duration_today,
    rain_duration_yesterday = EXCLUDED.rain_duration_yesterday,
    lightning_count = EXCLUDED.lightning_count,
    lightning_count_today = EXCLUDED.lightning_count_today,
    last_lightning_time = EXCLUDED.last_lightning_time,
    last_lightning_distance = EXCLUDED.last_lightning_distance,
    last_lightning_energy = EXCLUDED.last_lightning_energy,
    rolled_over = EXCLUDED.rolled_over`
