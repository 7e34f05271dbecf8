package service

import (
	"log"
	"math"
	"sync"
	"time"

	"wordquest/internal/content"
	"wordquest/internal/models"
	"wordquest/internal/repository"
)

// defaultBookID is the book every new profile starts in
const defaultBookID = "grade6-upper"

// BookService tracks the active user's per-book progress: completed
// modules and chapters, xp, time spent, the current book and the
// unlocked set. State is scoped per user and swapped on session switches.
type BookService struct {
	mu      sync.RWMutex
	catalog *content.Catalog
	store   *repository.ScopedStore[models.UserBookProgress]
	session *Session
	userID  string
	state   models.UserBookProgress
}

// NewBookService creates the store and registers it with the session
func NewBookService(repo repository.StateRepository, catalog *content.Catalog, session *Session) *BookService {
	b := &BookService{
		catalog: catalog,
		store:   repository.NewScopedStore[models.UserBookProgress](repo, "books"),
		session: session,
	}
	b.state = b.defaultState()
	session.Register(b)
	return b
}

func (b *BookService) defaultState() models.UserBookProgress {
	unlocked := []string{}
	for _, book := range b.catalog.ListBooks() {
		unlocked = append(unlocked, book.ID)
	}
	return models.UserBookProgress{
		BookProgress:  make(map[string]*models.BookProgress),
		CurrentBookID: defaultBookID,
		UnlockedBooks: unlocked,
	}
}

// normalize repairs partial damage in a rehydrated record: each bad
// substructure falls back to its default alone, the rest survives.
func (b *BookService) normalize(state *models.UserBookProgress) {
	if state.BookProgress == nil {
		state.BookProgress = make(map[string]*models.BookProgress)
	}
	for id, bp := range state.BookProgress {
		if bp == nil {
			delete(state.BookProgress, id)
			continue
		}
		bp.BookID = id
		if bp.CompletedModules == nil {
			bp.CompletedModules = []string{}
		}
		if bp.CompletedChapters == nil {
			bp.CompletedChapters = []string{}
		}
	}
	if _, ok := b.catalog.Book(state.CurrentBookID); !ok {
		state.CurrentBookID = defaultBookID
	}
	if state.UnlockedBooks == nil {
		state.UnlockedBooks = b.defaultState().UnlockedBooks
	}
}

// SyncOnUserSwitch rehydrates the incoming user's record
func (b *BookService) SyncOnUserSwitch(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.userID = userID
	if userID == "" {
		b.state = b.defaultState()
		return
	}
	b.state = b.store.Load(userID, b.defaultState)
	b.normalize(&b.state)
}

// SaveUserData writes the user's record synchronously, used on switch-out
// and shutdown
func (b *BookService) SaveUserData(userID string) {
	b.mu.RLock()
	if b.userID != userID {
		b.mu.RUnlock()
		return
	}
	snap := b.state.Clone()
	b.mu.RUnlock()

	if err := b.store.Save(userID, snap); err != nil {
		log.Printf("book store: save for user %s failed: %v", userID, err)
	}
}

// DeleteUserData removes the user's record
func (b *BookService) DeleteUserData(userID string) {
	if err := b.store.Delete(userID); err != nil {
		log.Printf("book store: delete for user %s failed: %v", userID, err)
	}
}

// CurrentBookID returns the active user's current book
func (b *BookService) CurrentBookID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.CurrentBookID
}

// SetCurrentBook switches the current book. The book must exist and be
// in the user's unlocked set.
func (b *BookService) SetCurrentBook(bookID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.userID == "" {
		return ErrNoCurrentUser
	}
	if _, ok := b.catalog.Book(bookID); !ok {
		return ErrBookNotFound
	}
	if !b.state.IsUnlocked(bookID) {
		return ErrBookLocked
	}

	b.state.CurrentBookID = bookID
	b.state.Ensure(bookID).LastAccessed = time.Now()
	b.persistLocked()
	return nil
}

// CanAccessModule reports whether the module belongs to the current book.
// The alias is resolved first, so legacy and shorthand ids work.
func (b *BookService) CanAccessModule(moduleAlias string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	canonical, ok := b.catalog.CanonicalID(moduleAlias)
	if !ok {
		return false
	}
	return b.catalog.BookContainsModule(b.state.CurrentBookID, canonical)
}

// CompleteModule records a finished module in the current book. Completing
// an already-completed module is a no-op: xp and time are never double
// counted. Chapters whose modules are now all complete are recorded too.
func (b *BookService) CompleteModule(moduleAlias string, xp, timeSpent int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.userID == "" {
		return ErrNoCurrentUser
	}
	canonical, ok := b.catalog.CanonicalID(moduleAlias)
	if !ok {
		return ErrModuleNotFound
	}
	if !b.catalog.BookContainsModule(b.state.CurrentBookID, canonical) {
		return ErrModuleNotInBook
	}

	bp := b.state.Ensure(b.state.CurrentBookID)
	bp.LastAccessed = time.Now()
	if bp.HasCompletedModule(canonical) {
		return nil
	}

	bp.CompletedModules = append(bp.CompletedModules, canonical)
	bp.TotalXP += xp
	bp.TimeSpent += timeSpent

	chapters, _ := b.catalog.BookChapters(b.state.CurrentBookID)
	for i := range chapters {
		ch := &chapters[i]
		if !ch.ContainsModule(canonical) || bp.HasCompletedChapter(ch.ID) {
			continue
		}
		if b.chapterModulesDoneLocked(bp, ch) {
			bp.CompletedChapters = append(bp.CompletedChapters, ch.ID)
		}
	}

	b.persistLocked()
	return nil
}

// CompleteChapter marks a chapter of the current book complete directly
func (b *BookService) CompleteChapter(chapterID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.userID == "" {
		return ErrNoCurrentUser
	}
	ch := b.findChapterLocked(chapterID)
	if ch == nil {
		return ErrChapterNotFound
	}

	bp := b.state.Ensure(b.state.CurrentBookID)
	if bp.HasCompletedChapter(chapterID) {
		return nil
	}
	bp.CompletedChapters = append(bp.CompletedChapters, chapterID)
	bp.LastAccessed = time.Now()
	b.persistLocked()
	return nil
}

// ChapterProgress returns the percentage of the chapter's modules completed
// and the chapter's explicit completed flag. The flag is independent from
// the percentage: a chapter can be marked complete at any progress level.
func (b *BookService) ChapterProgress(chapterID string) (int, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ch := b.findChapterLocked(chapterID)
	if ch == nil {
		return 0, false, ErrChapterNotFound
	}
	bp, ok := b.state.BookProgress[b.state.CurrentBookID]
	if !ok {
		return 0, false, nil
	}

	done := 0
	for _, id := range ch.ModuleIDs {
		canonical, ok := b.catalog.CanonicalID(id)
		if ok && bp.HasCompletedModule(canonical) {
			done++
		}
	}
	percent := 0
	if len(ch.ModuleIDs) > 0 {
		percent = int(math.Round(100 * float64(done) / float64(len(ch.ModuleIDs))))
	}
	return percent, bp.HasCompletedChapter(chapterID), nil
}

// BookCompletion returns the percentage of the book's modules completed,
// against the book's static module total
func (b *BookService) BookCompletion(bookID string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	book, ok := b.catalog.Book(bookID)
	if !ok {
		return 0, ErrBookNotFound
	}
	bp, ok := b.state.BookProgress[bookID]
	if !ok || book.TotalModules == 0 {
		return 0, nil
	}
	return int(math.Round(100 * float64(len(bp.CompletedModules)) / float64(book.TotalModules))), nil
}

// UnlockBook adds a book to the user's unlocked set
func (b *BookService) UnlockBook(bookID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.userID == "" {
		return ErrNoCurrentUser
	}
	if _, ok := b.catalog.Book(bookID); !ok {
		return ErrBookNotFound
	}
	if b.state.IsUnlocked(bookID) {
		return nil
	}
	b.state.UnlockedBooks = append(b.state.UnlockedBooks, bookID)
	b.persistLocked()
	return nil
}

// IsBookUnlocked reports whether the book is in the unlocked set
func (b *BookService) IsBookUnlocked(bookID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.IsUnlocked(bookID)
}

// CanUnlockBook reports whether the user has earned the book: the
// preceding book in the grade sequence is at least 80% complete. The
// result is advisory; nothing currently enforces it on unlocks.
func (b *BookService) CanUnlockBook(bookID string) bool {
	book, ok := b.catalog.Book(bookID)
	if !ok {
		return false
	}

	var prevID string
	switch {
	case book.Semester == "lower":
		prevID = content.BookID(book.Grade, "upper")
	case book.Grade > 1:
		prevID = content.BookID(book.Grade-1, "lower")
	default:
		return true
	}
	if bookID == defaultBookID {
		return true
	}

	percent, err := b.BookCompletion(prevID)
	if err != nil {
		return false
	}
	return percent >= 80
}

// NextBook returns the book that naturally follows the current one
func (b *BookService) NextBook() (content.Book, bool) {
	b.mu.RLock()
	current := b.state.CurrentBookID
	b.mu.RUnlock()
	return content.NextRecommendedBook(b.catalog.ListBooks(), current)
}

// State returns a copy of the active user's full book progress
func (b *BookService) State() (models.UserBookProgress, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.userID == "" {
		return models.UserBookProgress{}, ErrNoCurrentUser
	}
	return b.state.Clone(), nil
}

func (b *BookService) findChapterLocked(chapterID string) *content.Chapter {
	chapters, ok := b.catalog.BookChapters(b.state.CurrentBookID)
	if !ok {
		return nil
	}
	for i := range chapters {
		if chapters[i].ID == chapterID {
			return &chapters[i]
		}
	}
	return nil
}

func (b *BookService) chapterModulesDoneLocked(bp *models.BookProgress, ch *content.Chapter) bool {
	for _, id := range ch.ModuleIDs {
		canonical, ok := b.catalog.CanonicalID(id)
		if !ok || !bp.HasCompletedModule(canonical) {
			return false
		}
	}
	return true
}

// persistLocked schedules a deferred write. The owning user id is captured
// here, at mutation time; if the session switches before the write runs the
// job skips, because the switch already saved this state synchronously.
func (b *BookService) persistLocked() {
	uid := b.userID
	b.session.Persist(func() error {
		b.mu.RLock()
		if b.userID != uid {
			b.mu.RUnlock()
			return nil
		}
		snap := b.state.Clone()
		b.mu.RUnlock()
		return b.store.Save(uid, snap)
	})
}
