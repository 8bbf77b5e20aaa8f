package dispatcher

import (
	"context"

	"go.uber.org/fx"

	"github.com/smallbiznis/leadflow/internal/config"
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.Dispatcher.RunInterval,
		BatchSize:   cfg.Dispatcher.BatchSize,
		Concurrency: cfg.Dispatcher.Concurrency,
	}.withDefaults()
}

var Module = fx.Module("dispatcher",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(Run),
)

func Run(lc fx.Lifecycle, d *Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go d.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
