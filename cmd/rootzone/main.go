// Command rootzone models how trees lower the founding depth of nearby
// foundations. It serves the model over HTTP and computes single sites from
// the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RyanHill92/rootzone/internal/config"
	"github.com/RyanHill92/rootzone/internal/reference"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rootzone",
	Short: "Tree root influence zones for foundation design",
	Long: `rootzone turns the trees on a site into influence cones and composes
them into the lowest founding level a foundation must reach.

Each tree lowers the surface around it according to its species, the soil
plasticity and its distance, down to a floor set by the soil.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err = newLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "rootzone.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, computeCmd, speciesCmd)
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// execute runs the root command and flushes the logger whether or not the
// command failed.
func execute() error {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	return err
}

func newLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Level != "" {
		level, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if lc.Format == "text" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	return zc.Build()
}

// loadCatalog reads the configured reference tables, or the built-in ones
// when no path is set.
func loadCatalog(path string) (reference.Catalog, error) {
	if path == "" {
		return reference.NewCatalog(reference.Default()), nil
	}
	tables, err := reference.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("reference data loaded",
		zap.String("path", path),
		zap.Int("species", len(tables.Species)),
		zap.Int("curves", len(tables.Curves)))
	return reference.NewCatalog(tables), nil
}
