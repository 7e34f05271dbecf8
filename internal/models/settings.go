package models

// UserSettings holds per-user display and audio preferences
type UserSettings struct {
	FontSize          string `json:"fontSize"` // normal, large, extra-large
	Theme             string `json:"theme"`    // light, dark, high-contrast
	SoundEnabled      bool   `json:"soundEnabled"`
	MusicEnabled      bool   `json:"musicEnabled"`
	AnimationsEnabled bool   `json:"animationsEnabled"`
	SimplifiedMode    bool   `json:"simplifiedMode"`
	LowStimulusMode   bool   `json:"lowStimulusMode"`
	Language          string `json:"language"` // en, zh, both
}

// DefaultSettings returns the settings applied to new profiles
func DefaultSettings() UserSettings {
	return UserSettings{
		FontSize:          "normal",
		Theme:             "light",
		SoundEnabled:      true,
		MusicEnabled:      false,
		AnimationsEnabled: true,
		SimplifiedMode:    false,
		LowStimulusMode:   false,
		Language:          "both",
	}
}
