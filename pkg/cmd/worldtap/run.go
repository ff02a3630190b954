package worldtap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-logr/logr"
	"github.com/gookit/color"
	"github.com/robinbraemer/event"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/atomic"

	"go.minekube.com/worldtap/pkg/config"
	"go.minekube.com/worldtap/pkg/handler"
	"go.minekube.com/worldtap/pkg/internal/reload"
	"go.minekube.com/worldtap/pkg/proto/packetid"
	"go.minekube.com/worldtap/pkg/proxy"
	"go.minekube.com/worldtap/pkg/session"
	"go.minekube.com/worldtap/pkg/telemetry"
	"go.minekube.com/worldtap/pkg/version"
)

// RunOptions configure Run.
type RunOptions struct {
	// Viper is re-read when ConfigFile changes.
	Viper      *viper.Viper
	ConfigFile string
	Config     *config.Config // the config already loaded from Viper
	Fs         afero.Fs       // Defaults to the OS filesystem.
	Event      event.Manager  // Defaults to a new manager.
}

// Run serves the proxy until ctx is canceled.
func Run(ctx context.Context, opts RunOptions) error {
	log := logr.FromContextOrDiscard(ctx)
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Event == nil {
		opts.Event = event.New()
	}
	mgr := opts.Event

	names, err := loadNames(opts.Fs, opts.Config.ProtocolFile)
	if err != nil {
		return err
	}
	tables, err := handler.Default()
	if err != nil {
		return err
	}
	if err = tables.Validate(names); err != nil {
		return fmt.Errorf("packet id table does not cover every intercepted packet: %w", err)
	}

	cleanup, err := telemetry.Init(ctx, opts.Config.Telemetry.Enabled, version.String())
	if err != nil {
		return err
	}
	defer cleanup()
	instrumentation, err := telemetry.Instrument(mgr, telemetry.Options{})
	if err != nil {
		return fmt.Errorf("error instrumenting sessions: %w", err)
	}
	defer instrumentation.Close()

	var current atomic.Pointer[config.Config]
	current.Store(opts.Config)
	if err = watchConfig(ctx, opts, &current); err != nil {
		return err
	}

	event.Subscribe(mgr, 0, func(e *proxy.ReadyEvent) {
		fmt.Printf("%s listening on %s, forwarding to %s\n",
			color.Green.Sprint("worldtap"), color.Cyan.Sprint(e.Addr), color.Cyan.Sprint(current.Load().Backend))
	})
	event.Subscribe(mgr, 0, func(e *session.SnapshotEvent) {
		if e.Written {
			fmt.Printf("%s world of session %s to %s\n",
				color.Green.Sprint("saved"), e.Session.ID(), color.Cyan.Sprint(e.Path))
		}
	})

	p, err := proxy.New(proxy.Options{
		Config: current.Load,
		Tables: tables,
		Names:  names,
		Fs:     opts.Fs,
		Logger: log.WithName("proxy"),
		Event:  mgr,
	})
	if err != nil {
		return err
	}
	return p.ListenAndServe(ctx)
}

func loadNames(fs afero.Fs, protocolFile string) (*packetid.Table, error) {
	if protocolFile == "" {
		return packetid.Default()
	}
	return packetid.LoadFile(fs, protocolFile)
}

// watchConfig reloads the config file into current when it changes.
// Listener settings only apply after a restart.
func watchConfig(ctx context.Context, opts RunOptions, current *atomic.Pointer[config.Config]) error {
	if opts.Viper == nil || opts.ConfigFile == "" {
		return nil
	}
	if _, err := os.Stat(opts.ConfigFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	log := logr.FromContextOrDiscard(ctx)

	reload.Subscribe(opts.Event, func(e *reload.ConfigUpdateEvent[config.Config]) {
		if e.Prev == nil {
			return
		}
		if e.Config.Bind != e.Prev.Bind || e.Config.MaxSessions != e.Prev.MaxSessions ||
			e.Config.Quota != e.Prev.Quota {
			log.Info("listener settings changed, restart to apply them")
		}
		if e.Config.ExtendedViewDistance != e.Prev.ExtendedViewDistance {
			log.Info("extended view distance changed, applies to new logins",
				"extendedViewDistance", e.Config.ExtendedViewDistance)
		}
	})

	return reload.Watch(ctx, opts.ConfigFile, func() error {
		next, warns, err := config.Load(opts.Viper)
		if err != nil {
			return err
		}
		for _, w := range warns {
			log.Info("config warning", "warning", w.Error())
		}
		prev := current.Swap(next)
		reload.FireConfigUpdate(opts.Event, next, prev)
		return nil
	})
}
