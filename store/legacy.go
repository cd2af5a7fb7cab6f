package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	logger "github.com/sirupsen/logrus"
)

const legacyRainStartLayout = "2006-01-02T15:04:05"

type legacyStorage struct {
	RainToday             float64 `json:"rain_today"`
	RainYesterday         float64 `json:"rain_yesterday"`
	RainStart             string  `json:"rain_start"`
	RainDurationToday     float64 `json:"rain_duration_today"`
	RainDurationYesterday float64 `json:"rain_duration_yesterday"`
	LightningCount        int     `json:"lightning_count"`
	LightningCountToday   int     `json:"lightning_count_today"`
	LastLightningTime     float64 `json:"last_lightning_time"`
	LastLightningDistance float64 `json:"last_lightning_distance"`
	LastLightningEnergy   float64 `json:"last_lightning_energy"`
}

// MigrateLegacy copies the counters of an old json storage file into the snapshot.
func MigrateLegacy(ctx context.Context, gw Gateway, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read legacy storage: %w", err)
	}
	var old legacyStorage
	if err := json.Unmarshal(raw, &old); err != nil {
		return fmt.Errorf("decode legacy storage: %w", err)
	}

	s := Snapshot{
		RainToday:             old.RainToday,
		RainYesterday:         old.RainYesterday,
		RainDurationToday:     old.RainDurationToday,
		RainDurationYesterday: old.RainDurationYesterday,
		LightningCount:        old.LightningCount,
		LightningCountToday:   old.LightningCountToday,
		LastLightningDistance: old.LastLightningDistance,
		LastLightningEnergy:   old.LastLightningEnergy,
	}
	if old.RainStart != "" {
		start, err := time.ParseInLocation(legacyRainStartLayout, old.RainStart, time.UTC)
		if err != nil {
			return fmt.Errorf("parse rain_start [%v]: %w", old.RainStart, err)
		}
		s.RainStart = start
	}
	if old.LastLightningTime > 0 {
		sec := int64(old.LastLightningTime)
		s.LastLightningTime = time.Unix(sec, 0).UTC()
	}

	if err := gw.PutSnapshot(ctx, s); err != nil {
		return err
	}
	logger.Infof("Migrated legacy storage from [%v]", path)
	return nil
}
