package models

import "time"

// Progress is a user's completion record for one module.
// CompletedQuests keeps completion order but has set semantics (dedup on
// insert, never removed). Badges is append-only and may contain duplicates:
// badges are collectibles, repeated grants are meaningful for display counts.
type Progress struct {
	ModuleID        string    `json:"moduleId"`
	CompletedQuests []string  `json:"completedQuests"`
	TotalXP         int       `json:"totalXP"`
	Badges          []string  `json:"badges"`
	StartDate       time.Time `json:"startDate"`
	LastPlayed      time.Time `json:"lastPlayed"`
}

// NewProgress creates an empty progress record for a module
func NewProgress(moduleID string) *Progress {
	now := time.Now()
	return &Progress{
		ModuleID:        moduleID,
		CompletedQuests: []string{},
		Badges:          []string{},
		StartDate:       now,
		LastPlayed:      now,
	}
}

// HasCompletedQuest reports whether the quest is already recorded
func (p *Progress) HasCompletedQuest(questID string) bool {
	for _, id := range p.CompletedQuests {
		if id == questID {
			return true
		}
	}
	return false
}

// AddCompletedQuest appends the quest id if not already present.
// Returns true if the quest was newly added.
func (p *Progress) AddCompletedQuest(questID string) bool {
	if p.HasCompletedQuest(questID) {
		return false
	}
	p.CompletedQuests = append(p.CompletedQuests, questID)
	return true
}

// Clone returns a deep copy of the progress record
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	c := *p
	c.CompletedQuests = append([]string{}, p.CompletedQuests...)
	c.Badges = append([]string{}, p.Badges...)
	return &c
}
