package service

import (
	"log"
	"sync"
	"time"

	"wordquest/internal/content"
	"wordquest/internal/events"
	"wordquest/internal/models"
	"wordquest/internal/repository"
)

// questState is the per-user runtime record: which quest is open and how
// far into it the user is. Empty ActiveQuestID means idle.
type questState struct {
	ActiveModuleID string `json:"activeModuleId,omitempty"`
	ActiveQuestID  string `json:"activeQuestId,omitempty"`
	StepIndex      int    `json:"stepIndex,omitempty"`
}

// StepResult reports the outcome of advancing a quest by one step
type StepResult struct {
	Finished  bool            `json:"finished"`
	StepIndex int             `json:"stepIndex"`
	Reward    *content.Reward `json:"reward,omitempty"`
}

// QuestService runs the quest state machine for the active user and applies
// completion effects: module progress, rewards, and module-to-book
// propagation when the final quest of a module finishes.
type QuestService struct {
	mu      sync.Mutex
	catalog *content.Catalog
	users   *UserService
	books   *BookService
	bus     *events.Bus
	store   *repository.ScopedStore[questState]
	session *Session
	userID  string
	state   questState
}

// NewQuestService creates the runtime and registers it with the session
func NewQuestService(repo repository.StateRepository, catalog *content.Catalog, users *UserService, books *BookService, bus *events.Bus, session *Session) *QuestService {
	q := &QuestService{
		catalog: catalog,
		users:   users,
		books:   books,
		bus:     bus,
		store:   repository.NewScopedStore[questState](repo, "session"),
		session: session,
	}
	session.Register(q)
	return q
}

// SyncOnUserSwitch rehydrates the incoming user's runtime state
func (q *QuestService) SyncOnUserSwitch(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.userID = userID
	if userID == "" {
		q.state = questState{}
		return
	}
	q.state = q.store.Load(userID, func() questState { return questState{} })

	// A persisted quest whose module vanished from the catalog resets to idle
	if q.state.ActiveModuleID != "" {
		if _, ok := q.catalog.Resolve(q.state.ActiveModuleID); !ok {
			q.state = questState{}
		}
	}
}

// SaveUserData writes the user's runtime state synchronously
func (q *QuestService) SaveUserData(userID string) {
	q.mu.Lock()
	if q.userID != userID {
		q.mu.Unlock()
		return
	}
	snap := q.state
	q.mu.Unlock()

	if err := q.store.Save(userID, snap); err != nil {
		log.Printf("quest store: save for user %s failed: %v", userID, err)
	}
}

// DeleteUserData removes the user's runtime record
func (q *QuestService) DeleteUserData(userID string) {
	if err := q.store.Delete(userID); err != nil {
		log.Printf("quest store: delete for user %s failed: %v", userID, err)
	}
}

// LoadModule resolves a module by any alias and makes sure the current user
// has a progress record for it, creating a default one on first open
func (q *QuestService) LoadModule(moduleAlias string) (*content.Module, error) {
	module, ok := q.catalog.Resolve(moduleAlias)
	if !ok {
		return nil, ErrModuleNotFound
	}
	canonical, _ := q.catalog.CanonicalID(moduleAlias)

	if err := q.users.UpdateModuleProgress(canonical, func(*models.Progress) {}); err != nil {
		return nil, err
	}
	return module, nil
}

// StartQuest opens a quest at step zero. The module must belong to the
// current book.
func (q *QuestService) StartQuest(moduleAlias, questID string) error {
	module, ok := q.catalog.Resolve(moduleAlias)
	if !ok {
		return ErrModuleNotFound
	}
	canonical, _ := q.catalog.CanonicalID(moduleAlias)
	if _, ok := module.Quest(questID); !ok {
		return ErrQuestNotFound
	}
	if !q.books.CanAccessModule(canonical) {
		return ErrModuleNotInBook
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.userID == "" {
		return ErrNoCurrentUser
	}
	q.state = questState{ActiveModuleID: canonical, ActiveQuestID: questID}
	q.persistLocked()
	return nil
}

// CurrentStep returns the step the active quest is waiting on
func (q *QuestService) CurrentStep() (*content.QuestStep, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, quest, err := q.activeQuestLocked()
	if err != nil {
		return nil, err
	}
	if q.state.StepIndex >= len(quest.Steps) {
		return nil, ErrNoActiveQuest
	}
	return &quest.Steps[q.state.StepIndex], nil
}

// CompleteStep advances the active quest one step. Completing the final
// step completes the quest: progress is recorded, the reward granted and
// the runtime returns to idle. Re-completing an already-completed quest is
// a full no-op: no xp, no badge, no event.
func (q *QuestService) CompleteStep() (*StepResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	module, quest, err := q.activeQuestLocked()
	if err != nil {
		return nil, err
	}

	next := q.state.StepIndex + 1
	if next < len(quest.Steps) {
		q.state.StepIndex = next
		q.persistLocked()
		return &StepResult{StepIndex: next}, nil
	}

	moduleID := q.state.ActiveModuleID
	q.state = questState{}
	q.persistLocked()

	reward := q.completeQuestLocked(moduleID, module, quest)
	return &StepResult{Finished: true, StepIndex: next, Reward: reward}, nil
}

// completeQuestLocked applies completion effects. Returns nil when the
// quest had already been completed before.
func (q *QuestService) completeQuestLocked(moduleID string, module *content.Module, quest *content.Quest) *content.Reward {
	newly := false
	err := q.users.UpdateModuleProgress(moduleID, func(p *models.Progress) {
		if !p.AddCompletedQuest(quest.ID) {
			return
		}
		newly = true
		p.TotalXP += quest.Reward.XP
		if quest.Reward.Badge != "" {
			p.Badges = append(p.Badges, quest.Reward.Badge)
		}
		p.LastPlayed = time.Now()
	})
	if err != nil {
		log.Printf("quest %s: recording completion failed: %v", quest.ID, err)
		return nil
	}
	if !newly {
		return nil
	}

	q.bus.Publish(events.RewardEvent{
		UserID:   q.userID,
		ModuleID: moduleID,
		QuestID:  quest.ID,
		Reward:   quest.Reward,
		At:       time.Now(),
	})

	if q.moduleFullyCompleted(moduleID, module) && q.books.CanAccessModule(moduleID) {
		if err := q.books.CompleteModule(moduleID, moduleXP(module), module.DurationMinutes); err != nil {
			log.Printf("module %s: book propagation failed: %v", moduleID, err)
		}
		if err := q.users.AddStudyTime(module.DurationMinutes); err != nil {
			log.Printf("module %s: adding study time failed: %v", moduleID, err)
		}
	}

	reward := quest.Reward
	return &reward
}

// AbandonQuest returns to idle without touching progress
func (q *QuestService) AbandonQuest() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state.ActiveQuestID == "" {
		return
	}
	q.state = questState{}
	q.persistLocked()
}

// ResetProgress wipes the current user's record for a module back to empty
func (q *QuestService) ResetProgress(moduleAlias string) error {
	canonical, ok := q.catalog.CanonicalID(moduleAlias)
	if !ok {
		return ErrModuleNotFound
	}
	return q.users.UpdateModuleProgress(canonical, func(p *models.Progress) {
		*p = *models.NewProgress(canonical)
	})
}

// Snapshot returns the runtime state for the active user
func (q *QuestService) Snapshot() (moduleID, questID string, stepIndex int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state.ActiveModuleID, q.state.ActiveQuestID, q.state.StepIndex
}

func (q *QuestService) activeQuestLocked() (*content.Module, *content.Quest, error) {
	if q.userID == "" {
		return nil, nil, ErrNoCurrentUser
	}
	if q.state.ActiveQuestID == "" {
		return nil, nil, ErrNoActiveQuest
	}
	module, ok := q.catalog.Resolve(q.state.ActiveModuleID)
	if !ok {
		return nil, nil, ErrModuleNotFound
	}
	quest, ok := module.Quest(q.state.ActiveQuestID)
	if !ok {
		return nil, nil, ErrQuestNotFound
	}
	return module, quest, nil
}

// moduleFullyCompleted reports whether every quest of the module is in the
// user's completed set
func (q *QuestService) moduleFullyCompleted(moduleID string, module *content.Module) bool {
	progress, ok := q.users.GetModuleProgress(moduleID)
	if !ok {
		return false
	}
	for i := range module.Quests {
		if !progress.HasCompletedQuest(module.Quests[i].ID) {
			return false
		}
	}
	return true
}

// moduleXP sums the reward xp of every quest in the module
func moduleXP(module *content.Module) int {
	total := 0
	for i := range module.Quests {
		total += module.Quests[i].Reward.XP
	}
	return total
}

// persistLocked schedules a deferred write, capturing the owning user id now
func (q *QuestService) persistLocked() {
	uid := q.userID
	q.session.Persist(func() error {
		q.mu.Lock()
		if q.userID != uid {
			q.mu.Unlock()
			return nil
		}
		snap := q.state
		q.mu.Unlock()
		return q.store.Save(uid, snap)
	})
}
