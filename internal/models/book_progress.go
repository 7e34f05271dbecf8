package models

import "time"

// BookProgress is a user's completion record for one book.
// CompletedModules and CompletedChapters are append-only and deduped.
type BookProgress struct {
	BookID            string    `json:"bookId"`
	CompletedModules  []string  `json:"completedModules"`
	CompletedChapters []string  `json:"completedChapters"`
	TotalXP           int       `json:"totalXP"`
	TimeSpent         int       `json:"timeSpent"` // minutes
	LastAccessed      time.Time `json:"lastAccessed"`
}

// NewBookProgress creates an empty progress record for a book
func NewBookProgress(bookID string) *BookProgress {
	return &BookProgress{
		BookID:            bookID,
		CompletedModules:  []string{},
		CompletedChapters: []string{},
		LastAccessed:      time.Now(),
	}
}

// HasCompletedModule reports whether the module is already recorded
func (bp *BookProgress) HasCompletedModule(moduleID string) bool {
	return contains(bp.CompletedModules, moduleID)
}

// HasCompletedChapter reports whether the chapter is already recorded
func (bp *BookProgress) HasCompletedChapter(chapterID string) bool {
	return contains(bp.CompletedChapters, chapterID)
}

// Clone returns a deep copy of the book progress record
func (bp *BookProgress) Clone() *BookProgress {
	if bp == nil {
		return nil
	}
	c := *bp
	c.CompletedModules = append([]string{}, bp.CompletedModules...)
	c.CompletedChapters = append([]string{}, bp.CompletedChapters...)
	return &c
}

// UserBookProgress is the per-user container for all book progress
type UserBookProgress struct {
	BookProgress  map[string]*BookProgress `json:"bookProgress"`
	CurrentBookID string                   `json:"currentBookId"`
	UnlockedBooks []string                 `json:"unlockedBooks"`
}

// Ensure returns the progress record for a book, creating it if missing
func (u *UserBookProgress) Ensure(bookID string) *BookProgress {
	if u.BookProgress == nil {
		u.BookProgress = make(map[string]*BookProgress)
	}
	bp, ok := u.BookProgress[bookID]
	if !ok {
		bp = NewBookProgress(bookID)
		u.BookProgress[bookID] = bp
	}
	return bp
}

// IsUnlocked reports whether the book id is in the unlocked set
func (u *UserBookProgress) IsUnlocked(bookID string) bool {
	return contains(u.UnlockedBooks, bookID)
}

// Clone returns a deep copy of the container
func (u *UserBookProgress) Clone() UserBookProgress {
	c := UserBookProgress{
		BookProgress:  make(map[string]*BookProgress, len(u.BookProgress)),
		CurrentBookID: u.CurrentBookID,
		UnlockedBooks: append([]string{}, u.UnlockedBooks...),
	}
	for id, bp := range u.BookProgress {
		c.BookProgress[id] = bp.Clone()
	}
	return c
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
