package cmd

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/naka-gawa/repo-profiles/internal/api"
	"github.com/naka-gawa/repo-profiles/internal/config"
	"github.com/naka-gawa/repo-profiles/internal/gateway"
	"github.com/naka-gawa/repo-profiles/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves profiles over HTTP",
	Long:  `Starts the HTTP API exposing GET /v1/profiles/{profile} and GET /healthcheck until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup(cmd)
		if err != nil {
			return err
		}
		defer l.Sync()

		app := fx.New(
			fx.Supply(cfg, l),
			fx.Decorate(func(l *zap.Logger) *zap.Logger {
				return l.With(zap.String("service", "repo-profiles"))
			}),
			fx.Provide(
				provideProviders,
				provideAggregator,
				provideServer,
			),
			fx.Invoke(api.Run),
			fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
				return &fxevent.ZapLogger{
					Logger: l,
				}
			}),
		)
		app.Run()
		return app.Err()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// provideProviders opens the provider clients for the lifetime of the application.
func provideProviders(lc fx.Lifecycle, cfg *config.Config, l *zap.Logger) ([]gateway.Provider, error) {
	providers, err := newProviders(cfg, l)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Info("closing provider clients")
			closeProviders(providers)
			return nil
		},
	})
	return providers, nil
}

func provideAggregator(cfg *config.Config, l *zap.Logger, providers []gateway.Provider) *usecase.Aggregator {
	return usecase.NewAggregator(providers, cfg.Fetch.ProfileTimeout, l)
}

func provideServer(cfg *config.Config, l *zap.Logger, aggregator *usecase.Aggregator) *echo.Echo {
	return api.NewServer(cfg, l, aggregator)
}
