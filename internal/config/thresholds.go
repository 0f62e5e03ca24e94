package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mmynk/bizlens/internal/analytics"
)

// LoadThresholds returns the default analyzer thresholds overlaid with the
// values in path. Any format viper understands works (YAML, TOML, JSON).
// An empty path returns the defaults unchanged.
func LoadThresholds(path string) (analytics.Config, error) {
	cfg := analytics.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read thresholds file: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode thresholds: %w", err)
	}
	if err := validateThresholds(cfg); err != nil {
		return cfg, fmt.Errorf("invalid thresholds in %s: %w", path, err)
	}
	return cfg, nil
}

func validateThresholds(cfg analytics.Config) error {
	var sum float64
	for _, w := range cfg.Forecast.WeekWeights {
		if w < 0 {
			return errors.New("forecast.week_weights must not be negative")
		}
		sum += w
	}
	if sum == 0 {
		return errors.New("forecast.week_weights must not all be zero")
	}
	if cfg.Anomaly.BaselineDays <= 0 {
		return errors.New("anomaly.baseline_days must be positive")
	}
	if cfg.Restock.ShortWindowDays <= 0 || cfg.Restock.LongWindowDays <= 0 {
		return errors.New("restock windows must be positive")
	}
	if cfg.Pricing.TargetMargin >= 1 {
		return errors.New("pricing.target_margin must be below 1")
	}
	c := cfg.Churn
	if !(c.HighRiskScore >= c.MediumRiskScore && c.MediumRiskScore >= c.LowRiskScore) {
		return errors.New("churn risk scores must be ordered high >= medium >= low")
	}
	return nil
}
