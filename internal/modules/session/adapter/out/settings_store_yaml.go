package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
)

type yamlSettings struct {
	PomodoroEnabled           bool   `yaml:"pomodoro_enabled"`
	WorkMinutes               int    `yaml:"work_minutes"`
	BreakMinutes              int    `yaml:"break_minutes"`
	AFKTimeoutMinutes         int    `yaml:"afk_timeout_minutes"`
	MicrobreakIntervalMinutes int    `yaml:"microbreak_interval_minutes"`
	WrapUpHighlights          int    `yaml:"wrapup_highlights"`
	MicrobreakDisabledOn      string `yaml:"microbreak_disabled_on,omitempty"`
}

// YAMLSettingsStore reads and writes the user settings file. A missing
// file means defaults; malformed values fall back per field.
type YAMLSettingsStore struct {
	path string
}

func NewYAMLSettingsStore(path string) sessionout.SettingsStore {
	return &YAMLSettingsStore{path: path}
}

func (s *YAMLSettingsStore) Load(_ context.Context) (domain.Settings, error) {
	defaults := domain.DefaultSettings()
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return domain.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	decoded := yamlSettings{
		PomodoroEnabled:           defaults.PomodoroEnabled,
		WorkMinutes:               defaults.WorkMinutes,
		BreakMinutes:              defaults.BreakMinutes,
		AFKTimeoutMinutes:         defaults.AFKTimeoutMinutes,
		MicrobreakIntervalMinutes: defaults.MicrobreakIntervalMinutes,
		WrapUpHighlights:          defaults.WrapUpHighlights,
	}
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	settings := domain.Settings{
		PomodoroEnabled:           decoded.PomodoroEnabled,
		WorkMinutes:               decoded.WorkMinutes,
		BreakMinutes:              decoded.BreakMinutes,
		AFKTimeoutMinutes:         decoded.AFKTimeoutMinutes,
		MicrobreakIntervalMinutes: decoded.MicrobreakIntervalMinutes,
		WrapUpHighlights:          decoded.WrapUpHighlights,
		MicrobreakDisabledOn:      decoded.MicrobreakDisabledOn,
	}
	if settings.WorkMinutes <= 0 {
		settings.WorkMinutes = defaults.WorkMinutes
	}
	if settings.BreakMinutes <= 0 {
		settings.BreakMinutes = defaults.BreakMinutes
	}
	if settings.AFKTimeoutMinutes <= 0 {
		settings.AFKTimeoutMinutes = defaults.AFKTimeoutMinutes
	}
	if settings.MicrobreakIntervalMinutes < 0 {
		settings.MicrobreakIntervalMinutes = defaults.MicrobreakIntervalMinutes
	}
	if settings.WrapUpHighlights <= 0 {
		settings.WrapUpHighlights = defaults.WrapUpHighlights
	}
	return settings, nil
}

func (s *YAMLSettingsStore) Save(_ context.Context, settings domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	encoded := yamlSettings{
		PomodoroEnabled:           settings.PomodoroEnabled,
		WorkMinutes:               settings.WorkMinutes,
		BreakMinutes:              settings.BreakMinutes,
		AFKTimeoutMinutes:         settings.AFKTimeoutMinutes,
		MicrobreakIntervalMinutes: settings.MicrobreakIntervalMinutes,
		WrapUpHighlights:          settings.WrapUpHighlights,
		MicrobreakDisabledOn:      settings.MicrobreakDisabledOn,
	}
	raw, err := yaml.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
