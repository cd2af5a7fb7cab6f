package env

import "time"

const (
	// pressure history used to work out the trend, the classifier looks back this far
	TrendWindow = time.Hour * 3
	// lightning strikes older than this are no longer reported
	StrikeWindow = time.Hour * 3
	// samples are kept a little past their window so the trend always has an old value to compare against
	PruneMargin = time.Minute

	// pressure delta that counts as a change, hPa and inHg
	MetricTrendThreshold   = 1.0
	ImperialTrendThreshold = 0.0295

	UnitsMetric   = "metric"
	UnitsImperial = "imperial"

	// version of the persisted layout, see store.Upgrade
	SchemaVersion = 4

	// how often the scheduler checks for a new calendar day
	RolloverCheckPeriod = time.Minute

	RetryAttempts = 3
	RetryDelay    = time.Millisecond * 250

	LegacyStorageFile = ".storage.json"
)
