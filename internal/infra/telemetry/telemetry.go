package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hongquyngo/authority-management-system/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	buildInfo prometheus.Gauge
}

// Attach registers process-level metrics and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	buildInfo := promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ams",
		Name:      "build_info",
		Help:      "Static series carrying service identity labels",
		ConstLabels: prometheus.Labels{
			"service": cfg.App.Name,
			"env":     cfg.App.Env,
		},
	})
	buildInfo.Set(1)

	return &Provider{
		buildInfo: buildInfo,
	}, nil
}

// BuildInfo exposes the service identity metric.
func (p *Provider) BuildInfo() prometheus.Gauge {
	if p == nil {
		return prometheus.NewGauge(prometheus.GaugeOpts{})
	}
	return p.buildInfo
}
