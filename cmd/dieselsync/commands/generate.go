package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bfv/dieselsync/codegen"
	"github.com/bfv/dieselsync/config"
	"github.com/bfv/dieselsync/reconcile"
)

// watchDebounce groups the burst of events editors emit for a single save.
const watchDebounce = 200 * time.Millisecond

// NewGenerateCmd builds and returns the 'generate' cobra command.
func NewGenerateCmd() *cobra.Command {
	v := newGenerateViper()

	cmd := &cobra.Command{
		Use:   "generate <schema.rs> <output-dir>",
		Short: "Generate Rust models for every table and remove models of deleted tables",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bind the cobra flags into viper so flags and DIESELSYNC_* env
			// vars are read uniformly.
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := buildConfig(v)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), args[0], args[1], cfg, v.GetBool("watch"))
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "YAML file with per-table options")
	flags.String("connection-type", "", "Connection type: postgres, mysql, sqlite or a Rust type path")
	flags.StringSlice("autogenerated-columns", nil, "Default autogenerated column names (e.g. created_at,updated_at)")
	flags.StringSlice("ignore", nil, "Tables to skip")
	flags.Bool("tsync", false, "Add #[tsync::tsync] to generated structs")
	flags.Bool("async", false, "Generate diesel_async functions")
	flags.BoolP("watch", "w", false, "Regenerate whenever the schema file changes")
	return cmd
}

// newGenerateViper reads unset flags from DIESELSYNC_* environment variables,
// e.g. DIESELSYNC_CONNECTION_TYPE.
func newGenerateViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DIESELSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// buildConfig loads the config file, if any, and applies command-line
// overrides to its defaults.
func buildConfig(v *viper.Viper) (config.GenerationConfig, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.GenerationConfig{}, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		log.Debug().Str("path", path).Int("tables", len(cfg.Tables)).Msg("config loaded")
	}

	if v.IsSet("connection-type") {
		cfg.ConnectionType = v.GetString("connection-type")
	}
	if v.IsSet("autogenerated-columns") {
		cfg.Defaults = cfg.Defaults.WithAutogeneratedColumns(v.GetStringSlice("autogenerated-columns")...)
	}
	if v.IsSet("tsync") {
		cfg.Defaults = cfg.Defaults.WithTsync(v.GetBool("tsync"))
	}
	if v.IsSet("async") {
		cfg.Defaults = cfg.Defaults.WithAsync(v.GetBool("async"))
	}
	for _, name := range v.GetStringSlice("ignore") {
		if key, ok := cfg.TableKey(name); ok {
			name = key
		}
		cfg.Tables[name] = cfg.Tables[name].WithIgnore(true)
	}

	log.Debug().
		Str("connectionType", cfg.ConnectionType).
		Strs("autogenerated", cfg.Defaults.Autogenerated()).
		Bool("tsync", cfg.Defaults.UsesTsync()).
		Bool("async", cfg.Defaults.UsesAsync()).
		Msg("configuration resolved")
	return cfg, nil
}

// runGenerate is the entry point for the generate command.
func runGenerate(ctx context.Context, schemaPath, outDir string, cfg config.GenerationConfig, watch bool) error {
	log.Debug().Str("schema", schemaPath).Str("output", outDir).Bool("watch", watch).Msg("generate started")

	driver := reconcile.NewDriver(cfg, codegen.NewGenerator(cfg.ConnectionType))
	if err := generateOnce(driver, schemaPath, outDir); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	w, err := newSchemaWatcher(schemaPath, watchDebounce, func() {
		if err := generateOnce(driver, schemaPath, outDir); err != nil {
			log.Error().Err(err).Msg("regeneration failed")
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	log.Info().Str("schema", schemaPath).Msg("watching for changes")
	return w.Start(ctx)
}

func generateOnce(driver *reconcile.Driver, schemaPath, outDir string) error {
	report, err := driver.RunFile(schemaPath, outDir)
	if err != nil {
		return err
	}
	for _, name := range report.Ignored {
		log.Debug().Str("table", name).Msg("table ignored")
	}
	log.Info().
		Int("tables", len(report.Generated)).
		Int("removed", len(report.Removed)).
		Int("filesWritten", len(report.Written)).
		Msg("models synchronised")
	return nil
}
