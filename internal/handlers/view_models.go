package handlers

import (
	"time"

	"wordquest/internal/content"
	"wordquest/internal/models"
)

// UserView is a profile as exposed over the API. Credentials stay internal.
type UserView struct {
	ID          string              `json:"id"`
	Username    string              `json:"username"`
	DisplayName string              `json:"displayName"`
	Avatar      string              `json:"avatar,omitempty"`
	Role        models.UserRole     `json:"role"`
	IsGuest     bool                `json:"isGuest"`
	CreatedAt   time.Time           `json:"createdAt"`
	LastLogin   time.Time           `json:"lastLogin"`
	Settings    models.UserSettings `json:"settings"`
	TotalXP     int                 `json:"totalXP"`
	TotalBadges []string            `json:"totalBadges"`
	GlobalStats models.GlobalStats  `json:"globalStats"`
}

// NewUserView strips a profile down to its public shape
func NewUserView(u *models.UserProfile) UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		Role:        u.Role,
		IsGuest:     u.IsGuest,
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
		Settings:    u.Settings,
		TotalXP:     u.TotalXP,
		TotalBadges: u.TotalBadges,
		GlobalStats: u.GlobalStats,
	}
}

// ModuleSummary is the list-view shape of a module
type ModuleSummary struct {
	ModuleID        string `json:"moduleId"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes"`
	WordCount       int    `json:"wordCount"`
	QuestCount      int    `json:"questCount"`
}

// NewModuleSummary builds the list-view shape from a module
func NewModuleSummary(m *content.Module) ModuleSummary {
	return ModuleSummary{
		ModuleID:        m.ModuleID,
		Title:           m.Title,
		DurationMinutes: m.DurationMinutes,
		WordCount:       len(m.Words),
		QuestCount:      len(m.Quests),
	}
}

// BookView is a book with the active user's completion percentage
type BookView struct {
	content.Book
	Completion int  `json:"completion"`
	Unlocked   bool `json:"unlocked"`
	CanUnlock  bool `json:"canUnlock"`
}

// ChapterView is a chapter with the active user's progress
type ChapterView struct {
	content.Chapter
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}
