package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/ipfs-force-community/metrics"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/stats/view"
)

var log = logging.Logger("metrics")

// SetupMetrics registers the views and starts the configured exporter.
// uiClients is sampled periodically into the attached-clients gauge.
func SetupMetrics(ctx context.Context, metricsConfig *metrics.MetricsConfig, uiClients func() int) error {
	log.Infof("metrics config: enabled: %v, exporter type: %s",
		metricsConfig.Enabled, metricsConfig.Exporter.Type)

	if !metricsConfig.Enabled {
		return nil
	}

	if err := view.Register(views...); err != nil {
		return fmt.Errorf("cannot register the view: %w", err)
	}

	switch metricsConfig.Exporter.Type {
	case metrics.ETPrometheus:
		go func() {
			if err := metrics.RegisterPrometheusExporter(ctx, metricsConfig.Exporter.Prometheus); err != nil {
				log.Errorf("failed to register prometheus exporter err: %v", err)
			}
			log.Infof("prometheus exporter server graceful shutdown successful")
		}()

	case metrics.ETGraphite:
		if err := metrics.RegisterGraphiteExporter(ctx, metricsConfig.Exporter.Graphite); err != nil {
			log.Errorf("failed to register graphite exporter: %v", err)
		}
	default:
		log.Warnf("invalid exporter type: %s", metricsConfig.Exporter.Type)
	}

	if uiClients != nil {
		go recordMetricsLoop(ctx, uiClients)
	}

	return nil
}

func recordMetricsLoop(ctx context.Context, uiClients func() int) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			UIClients.Set(ctx, int64(uiClients()))
		case <-ctx.Done():
			log.Infof("context done, stop record metrics")
			return
		}
	}
}
