package app

import (
	"log/slog"

	"github.com/newrelic/go-agent/v3/newrelic"

	"rideshare/internal/config"
)

// NewNewRelic starts the New Relic agent, or returns nil when it is disabled
// or fails to start.
func NewNewRelic(cfg config.NewRelicConfig) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		slog.Warn("failed to initialize New Relic", "error", err)
		return nil
	}

	slog.Info("New Relic enabled", "app", cfg.AppName)
	return nrApp
}
