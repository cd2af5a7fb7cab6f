package store

import (
	"context"
	"fmt"

	"github.com/gr-butler/highlow/extremum"
	logger "github.com/sirupsen/logrus"
)

// Upgrade brings the schema up to target one step at a time and returns the
// version it started from. The version is written after every step so an
// interrupted upgrade resumes where it stopped.
func Upgrade(ctx context.Context, s Schema, target int) (int, error) {
	from, err := s.SchemaVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if from > target {
		return from, fmt.Errorf("schema version [%v] is newer than this build [%v]", from, target)
	}
	for v := from + 1; v <= target; v++ {
		logger.Infof("Upgrading the database to version [%v]", v)
		if err := s.UpgradeTo(ctx, v); err != nil {
			return from, fmt.Errorf("upgrade to version %d: %w", v, err)
		}
		if err := s.SetSchemaVersion(ctx, v); err != nil {
			return from, fmt.Errorf("record version %d: %w", v, err)
		}
	}
	if from != target {
		logger.Infof("Database now version [%v]", target)
	}
	return from, nil
}

// Prepare gets a gateway ready to serve: schema upgraded, one row per sensor,
// and on a brand new database the legacy storage file imported.
func Prepare(ctx context.Context, gw Gateway, s Schema, target int, sensors []extremum.Sensor, legacyFile string) error {
	from, err := Upgrade(ctx, s, target)
	if err != nil {
		return err
	}
	if err := gw.Initialize(ctx, sensors); err != nil {
		return fmt.Errorf("initialize rows: %w", err)
	}
	if from == 0 && legacyFile != "" {
		if err := MigrateLegacy(ctx, gw, legacyFile); err != nil {
			// the old file is a convenience, a fresh station starts from zero
			logger.Warnf("Could not migrate legacy storage [%v]", err)
		}
	}
	return nil
}
