package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/makecodes/dbmlgen/internal/loader"
	"github.com/makecodes/dbmlgen/registry"
)

// Persistent flag values, set on the root command.
var (
	modelsDir string
	verbose   bool
)

// resolveModelsDir returns the models directory from the --models-dir
// flag, the models_dir config key (or DBMLGEN_MODELS_DIR), or ./models
// as fallback.
func resolveModelsDir() string {
	if modelsDir != "" {
		return modelsDir
	}
	if dir := viper.GetString("models_dir"); dir != "" {
		return dir
	}
	return "./models"
}

// newLogger builds the stderr logger used for warnings during
// collection and rendering. --verbose wins over the logging.level
// config key.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch viper.GetString("logging.level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadRegistry builds the model registry from the definition files in
// the resolved models directory.
func loadRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := loader.LoadDir(reg, resolveModelsDir()); err != nil {
		return nil, err
	}
	return reg, nil
}
