package services

import "lemonade/internal/storage"

// Theme names.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// PreferenceService holds lightweight user preferences, currently just
// the visual theme, persisted to the durable store.
type PreferenceService struct {
	store storage.Store
	theme string
}

// NewPreferenceService creates a PreferenceService, restoring the saved
// theme or defaulting to light.
func NewPreferenceService(store storage.Store) *PreferenceService {
	theme := ThemeLight
	if saved, ok := store.Get(storage.KeyTheme); ok && saved != "" {
		theme = saved
	}
	return &PreferenceService{store: store, theme: theme}
}

// Theme returns the current theme.
func (s *PreferenceService) Theme() string {
	return s.theme
}

// ToggleTheme flips between light and dark and persists the choice.
func (s *PreferenceService) ToggleTheme() string {
	if s.theme == ThemeLight {
		s.theme = ThemeDark
	} else {
		s.theme = ThemeLight
	}
	s.store.Set(storage.KeyTheme, s.theme)
	return s.theme
}
