package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/streamly/internal/artwork"
	"github.com/genricoloni/streamly/internal/audio"
	"github.com/genricoloni/streamly/internal/config"
	"github.com/genricoloni/streamly/internal/domain"
	"github.com/genricoloni/streamly/internal/engine"
	"github.com/genricoloni/streamly/internal/fetcher"
	"github.com/genricoloni/streamly/internal/library"
	"github.com/genricoloni/streamly/internal/mpris"
	"github.com/genricoloni/streamly/internal/player"
	"github.com/genricoloni/streamly/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AppOptions wires the whole daemon; tests build the same graph
var AppOptions = fx.Options(
	// Logger configuration
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	// Provide dependencies
	fx.Provide(
		newLogger,
		fx.Annotate(config.NewAppConfig, fx.As(new(domain.Config))),
		fx.Annotate(fetcher.NewImageFetcher, fx.As(new(domain.Fetcher)), fx.ResultTags(`name:"image"`)),
		fx.Annotate(fetcher.NewAudioFetcher, fx.As(new(domain.Fetcher)), fx.ResultTags(`name:"audio"`)),
		fx.Annotate(source.NewRouter, fx.ParamTags(``, `name:"audio"`), fx.As(new(domain.SourceResolver))),
		fx.Annotate(audio.NewSpeakerSink, fx.As(new(audio.Sink))),
		fx.Annotate(newAudioService, fx.As(fx.Self()), fx.As(new(domain.AudioService))),
		fx.Annotate(player.NewCoordinator,
			fx.As(fx.Self()),
			fx.As(new(engine.Player)),
			fx.As(new(mpris.Controller))),
		fx.Annotate(library.NewStore,
			fx.As(fx.Self()),
			fx.As(new(domain.TrackLibrary)),
			fx.As(new(mpris.TrackStore))),
		fx.Annotate(artwork.NewCache, fx.ParamTags(``, `name:"image"`), fx.As(new(domain.ArtworkResolver))),
		mpris.NewBridge,
		engine.NewEngine,
	),

	// Lifecycle hooks
	fx.Invoke(registerHooks),
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd runs the daemon by default; subcommands edit the library
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "streamly",
		Short:        "Streamly playback daemon",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
	rootCmd.AddCommand(newPlaylistCmd(openLibrary), newTrackCmd(openLibrary))
	return rootCmd
}

// runDaemon starts the fx application and blocks until a signal or an MPRIS Quit
func runDaemon() error {
	app := fx.New(AppOptions)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	return app.Stop(context.Background())
}

// newLogger creates a new zap logger instance; STREAMLY_DEBUG=1 selects the development config
func newLogger() (*zap.Logger, error) {
	if os.Getenv("STREAMLY_DEBUG") == "1" {
		return zap.NewDevelopment()
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func newAudioService(logger *zap.Logger, resolver domain.SourceResolver, sink audio.Sink, cfg domain.Config) *audio.Service {
	return audio.NewService(logger, resolver, sink, cfg.GetPollInterval())
}

type hookParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Shutdowner  fx.Shutdowner
	Logger      *zap.Logger
	Config      domain.Config
	Audio       *audio.Service
	Coordinator *player.Coordinator
	Library     *library.Store
	Engine      *engine.Engine
	Bridge      *mpris.Bridge
}

// registerHooks sets up application lifecycle hooks
func registerHooks(p hookParams) {
	p.Bridge.SetQuit(func() {
		if err := p.Shutdowner.Shutdown(); err != nil {
			p.Logger.Warn("Shutdown request failed", zap.Error(err))
		}
	})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Audio.Start(ctx); err != nil {
				return err
			}
			if err := p.Engine.Start(ctx); err != nil {
				return err
			}
			if p.Config.MprisEnabled() {
				// Media keys are optional; playback works without a session bus
				if err := p.Bridge.Start(ctx); err != nil {
					p.Logger.Warn("MPRIS bridge unavailable", zap.Error(err))
				}
			}
			p.Logger.Info("Streamly started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Shutting down")
			return multierr.Combine(
				p.Bridge.Stop(ctx),
				p.Engine.Stop(ctx),
				p.Coordinator.Close(),
				p.Audio.Close(),
				p.Library.Close(),
			)
		},
	})
}
