package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const homeEnv = "LECTIO_HOME"

type Config struct {
	HomePath      string
	DBPath        string
	BooksDir      string
	DaemonDir     string
	SettingsPath  string
	ExtensionsDir string
}

func New(homePath string) (Config, error) {
	if homePath == "" {
		return Config{}, fmt.Errorf("home path is required")
	}
	return Config{
		HomePath:      homePath,
		DBPath:        filepath.Join(homePath, "lectio.db"),
		BooksDir:      filepath.Join(homePath, "books"),
		DaemonDir:     filepath.Join(homePath, "daemon"),
		SettingsPath:  filepath.Join(homePath, "settings.yaml"),
		ExtensionsDir: filepath.Join(homePath, "extensions"),
	}, nil
}

// Resolve picks the home directory from the flag value, the LECTIO_HOME
// environment variable, or ~/.lectio, in that order.
func Resolve(flagValue string) (Config, error) {
	if flagValue != "" {
		return New(flagValue)
	}
	if env := os.Getenv(homeEnv); env != "" {
		return New(env)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve user home: %w", err)
	}
	return New(filepath.Join(userHome, ".lectio"))
}
