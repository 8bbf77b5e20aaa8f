package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/leadflow/internal/config"
)

func provide() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// registerListener serves /metrics on cfg.MetricsAddr. An empty address
// disables the listener.
func registerListener(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) {
	if cfg.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("metrics listener started", zap.String("addr", cfg.MetricsAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("metrics listener failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("metrics",
	fx.Provide(provide),
	fx.Invoke(registerListener),
)
