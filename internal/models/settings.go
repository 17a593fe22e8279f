package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Theme selects the presentation palette
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Settings holds user preferences
type Settings struct {
	Currency     string `json:"currency"`
	WeekStartDay int    `json:"weekStartDay"` // 0 = Sunday ... 6 = Saturday
	Theme        Theme  `json:"theme"`
}

// DefaultSettings returns the preferences used when none are stored
func DefaultSettings() Settings {
	return Settings{
		Currency:     "€",
		WeekStartDay: 1, // Monday
		Theme:        ThemeLight,
	}
}

// Validate checks field ranges
func (s Settings) Validate() error {
	var problems []string
	if strings.TrimSpace(s.Currency) == "" {
		problems = append(problems, "currency must not be empty")
	}
	if s.WeekStartDay < 0 || s.WeekStartDay > 6 {
		problems = append(problems, fmt.Sprintf("weekStartDay %d out of range 0-6", s.WeekStartDay))
	}
	if s.Theme != ThemeLight && s.Theme != ThemeDark {
		problems = append(problems, fmt.Sprintf("theme %q must be %q or %q", s.Theme, ThemeLight, ThemeDark))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}
