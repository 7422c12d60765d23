package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/subosito/gotenv"
)

const envDir = "config/envs"

// LoadEnvFrom loads dir/.env.<env> and then dir/.env into the process
// environment and returns the files it read. Missing files are skipped.
// Variables already set are never overwritten, so the OS environment beats
// the env-specific file, which beats the shared one.
func LoadEnvFrom(dir, env string) ([]string, error) {
	candidates := []string{filepath.Join(dir, ".env."+env), filepath.Join(dir, ".env")}

	var loaded []string
	for _, file := range candidates {
		if err := gotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("load %s: %w", file, err)
		}
		loaded = append(loaded, file)
	}
	return loaded, nil
}

// LoadEnv loads the env files under config/envs. Failures are logged and the
// process carries on with the OS environment.
func LoadEnv(env string) {
	loaded, err := LoadEnvFrom(envDir, env)
	switch {
	case err != nil:
		slog.Warn("[Config] Failed to read env file", slog.String("error", err.Error()))
	case len(loaded) == 0:
		slog.Info("[Config] No env file found, using OS environment",
			slog.String("env", env), slog.String("dir", envDir))
	default:
		slog.Info("[Config] Loaded env files", slog.Any("files", loaded))
	}
}
