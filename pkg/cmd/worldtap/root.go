// Package worldtap is the command line interface of the worldtap proxy.
package worldtap

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.minekube.com/worldtap/pkg/config"
	"go.minekube.com/worldtap/pkg/version"
)

// Execute runs App with the process arguments and exits on failure.
func Execute() {
	if err := App().Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// App returns the worldtap cli application.
func App() *cli.App {
	// Use -V for version, -v is verbosity.
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	app := cli.NewApp()
	app.Name = "worldtap"
	app.Usage = "A Minecraft proxy that records the world a server sends."
	app.Description = `worldtap sits between a Minecraft client and a server,
passes every packet through and stores the dimensions, dimension types
and biomes the server announces as a datapack per session.

Run it with a config file:

	worldtap -c config.yml

Print the default config with 'worldtap config'.`
	app.Version = version.String()
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage: `config file (default: ./config.yml)
Supports: yaml/yml, json, toml`,
			EnvVars: []string{config.EnvPrefix + "_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug mode and highest log verbosity",
			EnvVars: []string{config.EnvPrefix + "_DEBUG"},
		},
		&cli.IntFlag{
			Name:    "verbosity",
			Aliases: []string{"v"},
			Usage:   "The higher the verbosity the more logs are shown",
			EnvVars: []string{config.EnvPrefix + "_VERBOSITY"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Aliases: []string{"b"},
			Usage:   "The address to listen for connections, overrides the config",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "The server to forward clients to, overrides the config",
		},
	}
	app.Commands = []*cli.Command{
		configCommand(),
		tablesCommand(),
	}
	app.Action = func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		v := viper.New()
		configFile := c.String("config")
		if configFile == "" {
			configFile = "config.yml"
		}
		v.SetConfigFile(configFile)
		for _, name := range []string{"bind", "backend"} {
			if c.IsSet(name) {
				v.Set(name, c.String(name))
			}
		}
		if c.Bool("debug") {
			v.Set("debug", true)
		}

		cfg, warns, err := config.Load(v)
		if err != nil {
			return cli.Exit(err, 1)
		}

		verbosity := c.Int("verbosity")
		if cfg.Debug {
			verbosity = max(verbosity, 2)
		}
		log, err := newLogger(cfg.Debug, verbosity)
		if err != nil {
			return cli.Exit(fmt.Errorf("error creating logger: %w", err), 1)
		}
		for _, w := range warns {
			log.Info("config warning", "warning", w.Error())
		}
		ctx = logr.NewContext(ctx, log)

		if err = Run(ctx, RunOptions{Viper: v, ConfigFile: configFile, Config: cfg}); err != nil {
			return cli.Exit(fmt.Errorf("error running worldtap: %w", err), 1)
		}
		return nil
	}
	return app
}

// newLogger returns a zap backed logger. zapr maps V(n) to zap level -n.
func newLogger(debug bool, verbosity int) (logr.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbosity > 0 {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	}

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}
