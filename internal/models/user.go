package models

import (
	"math"
	"time"
)

// UserRole defines the access level of a profile
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

// IsValid reports whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	return r == RoleStudent || r == RoleAdmin || r == RoleSuperAdmin
}

// IsPrivileged reports whether the role has admin capabilities
func (r UserRole) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CredentialRecord holds the salted password hash for a profile.
// The plaintext password is never stored.
type CredentialRecord struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Salt         string `json:"salt"`
}

// GlobalStats aggregates activity across all of a user's modules
type GlobalStats struct {
	TotalTimeSpent  int       `json:"totalTimeSpent"` // minutes
	QuestsCompleted int       `json:"questsCompleted"`
	StreakDays      int       `json:"streakDays"`
	LastStudyDate   time.Time `json:"lastStudyDate"`
}

// UserProfile is a local user account with embedded module progress.
// TotalXP, TotalBadges and GlobalStats.QuestsCompleted are derived from
// ModuleProgress and recomputed by RecomputeAggregates after every change.
type UserProfile struct {
	ID             string               `json:"id"`
	Username       string               `json:"username"`
	DisplayName    string               `json:"displayName"`
	Avatar         string               `json:"avatar,omitempty"`
	Role           UserRole             `json:"role"`
	IsGuest        bool                 `json:"isGuest,omitempty"`
	Credential     CredentialRecord     `json:"credential"`
	CreatedAt      time.Time            `json:"createdAt"`
	LastLogin      time.Time            `json:"lastLogin"`
	Settings       UserSettings         `json:"settings"`
	ModuleProgress map[string]*Progress `json:"moduleProgress"`
	TotalXP        int                  `json:"totalXP"`
	TotalBadges    []string             `json:"totalBadges"`
	GlobalStats    GlobalStats          `json:"globalStats"`
}

// RecomputeAggregates rebuilds every derived field by folding over the full
// module progress map. Aggregates are never updated incrementally: a full
// fold cannot drift from the underlying records.
func (u *UserProfile) RecomputeAggregates() {
	totalXP := 0
	questsCompleted := 0
	seen := make(map[string]bool)
	badges := []string{}

	for _, p := range u.ModuleProgress {
		totalXP += p.TotalXP
		questsCompleted += len(p.CompletedQuests)
		for _, b := range p.Badges {
			if !seen[b] {
				seen[b] = true
				badges = append(badges, b)
			}
		}
	}

	u.TotalXP = totalXP
	u.TotalBadges = badges
	u.GlobalStats.QuestsCompleted = questsCompleted
}

// Clone returns a deep copy of the profile
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	c.TotalBadges = append([]string{}, u.TotalBadges...)
	c.ModuleProgress = make(map[string]*Progress, len(u.ModuleProgress))
	for id, p := range u.ModuleProgress {
		c.ModuleProgress[id] = p.Clone()
	}
	return &c
}

// NextStreakDays computes the streak after studying at now, given the
// previous study date and streak. Same calendar day keeps the streak,
// the following day extends it, any gap resets it to 1. Days are
// calendar days in each timestamp's location, not fixed 24h buckets, so
// a 23:30 study followed by one at 00:30 counts as consecutive days.
func NextStreakDays(lastStudy, now time.Time, previousStreak int) int {
	if previousStreak <= 0 {
		return 1
	}
	last := startOfDay(lastStudy)
	today := startOfDay(now)
	// Rounding absorbs the 23h and 25h days around DST transitions
	switch days := int(math.Round(today.Sub(last).Hours() / 24)); {
	case days <= 0:
		return previousStreak
	case days == 1:
		return previousStreak + 1
	default:
		return 1
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
