package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/godilite/wellness-eval/internal/app"
	"github.com/godilite/wellness-eval/internal/config"
	"github.com/godilite/wellness-eval/internal/report"
	"github.com/godilite/wellness-eval/internal/service"
)

const (
	formatTable = "table"
	formatJSON  = "json"

	defaultConfigFile = ".evalctl.yaml"
)

type rootOptions struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "evalctl",
		Short:         "Inspect and seed the wellness evaluation catalogue",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default ./"+defaultConfigFile+" when present)")
	flags.String("db", "./data/wellness.db", "Catalogue database path")
	flags.String("driver", "sqlite3", "database/sql driver name")
	flags.String("dimensions", "", "YAML tier table overriding the embedded one")
	flags.StringP("format", "f", formatTable, "Output format (table|json)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.BoolP("verbose", "v", false, "Log to stderr")

	for _, name := range []string{"config", "db", "driver", "dimensions", "format", "no-color", "verbose"} {
		_ = opts.v.BindPFlag(name, flags.Lookup(name))
	}
	opts.v.SetEnvPrefix("EVALCTL")
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.v.AutomaticEnv()

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newListCmd(opts),
		newScorecardCmd(opts),
		newOutcomesCmd(opts),
		newCompareCmd(opts),
	)
	return root
}

func (o *rootOptions) initConfig() error {
	path := o.v.GetString("config")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return nil
		}
		path = defaultConfigFile
	}
	o.v.SetConfigFile(path)
	if err := o.v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.v.GetBool("verbose") {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *rootOptions) format() (string, error) {
	switch f := strings.ToLower(o.v.GetString("format")); f {
	case formatTable, formatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table or json)", f)
	}
}

// openService connects to the catalogue and returns a ready service plus a
// cleanup func.
func (o *rootOptions) openService(ctx context.Context, svcOpts ...service.Option) (*service.EvaluationService, func(), error) {
	logger := o.logger()
	cfg := &config.Config{
		DBDriver: o.v.GetString("driver"),
		DBPath:   o.v.GetString("db"),
	}
	if cfg.DBPath == "" {
		return nil, nil, errors.New("--db is required")
	}

	table, err := app.LoadDimensions(o.v.GetString("dimensions"), logger)
	if err != nil {
		return nil, nil, err
	}
	db, repo, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
		_ = logger.Sync()
	}
	return service.NewEvaluationService(repo, table, logger, svcOpts...), cleanup, nil
}

// emit writes v as indented JSON, or hands it to the table renderer.
func (o *rootOptions) emit(v any, table func(r *report.Renderer) error) error {
	format, err := o.format()
	if err != nil {
		return err
	}
	if format == formatJSON {
		enc := json.NewEncoder(o.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return table(report.New(o.out, !o.v.GetBool("no-color")))
}
