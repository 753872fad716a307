package models

import (
	"encoding/json"
	"fmt"
)

// Setting keys stored in the settings table.
const (
	SettingTheme           = "theme"
	SettingDefaultWeight   = "defaultWeight"
	SettingDefaultReps     = "defaultReps"
	SettingDefaultSets     = "defaultSets"
	SettingDefaultRestTime = "defaultRestTime"
	SettingSoundEnabled    = "soundEnabled"
	SettingStepGoal        = "stepGoal"
)

// DefaultSettings are seeded once for each key that is absent.
var DefaultSettings = map[string]any{
	SettingTheme:           "dark",
	SettingDefaultWeight:   24,
	SettingDefaultReps:     10,
	SettingDefaultSets:     3,
	SettingDefaultRestTime: 60,
	SettingSoundEnabled:    true,
	SettingStepGoal:        10000,
}

// Settings is the typed view of the settings table.
type Settings struct {
	Theme           string  `json:"theme"`
	DefaultWeight   float64 `json:"defaultWeight"`
	DefaultReps     int     `json:"defaultReps"`
	DefaultSets     int     `json:"defaultSets"`
	DefaultRestTime int     `json:"defaultRestTime"`
	SoundEnabled    bool    `json:"soundEnabled"`
	StepGoal        int     `json:"stepGoal"`
}

// SettingsFromMap decodes raw JSON values keyed by setting name. Unknown keys
// are ignored; missing keys keep their defaults.
func SettingsFromMap(raw map[string]json.RawMessage) (Settings, error) {
	s := Settings{
		Theme:           "dark",
		DefaultWeight:   24,
		DefaultReps:     10,
		DefaultSets:     3,
		DefaultRestTime: 60,
		SoundEnabled:    true,
		StepGoal:        10000,
	}
	targets := map[string]any{
		SettingTheme:           &s.Theme,
		SettingDefaultWeight:   &s.DefaultWeight,
		SettingDefaultReps:     &s.DefaultReps,
		SettingDefaultSets:     &s.DefaultSets,
		SettingDefaultRestTime: &s.DefaultRestTime,
		SettingSoundEnabled:    &s.SoundEnabled,
		SettingStepGoal:        &s.StepGoal,
	}
	for key, dst := range targets {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return s, fmt.Errorf("decoding setting %s: %w", key, err)
		}
	}
	return s, nil
}

// WorkoutConfig builds the initial quick-workout configuration from the defaults.
func (s Settings) WorkoutConfig() WorkoutConfig {
	cfg := DefaultWorkoutConfig()
	cfg.Weight = s.DefaultWeight
	cfg.Reps = s.DefaultReps
	cfg.Sets = s.DefaultSets
	cfg.RestTime = s.DefaultRestTime
	if cfg.Validate() != nil {
		return DefaultWorkoutConfig()
	}
	return cfg
}

// KnownSetting reports whether key is a recognised setting.
func KnownSetting(key string) bool {
	_, ok := DefaultSettings[key]
	return ok
}
