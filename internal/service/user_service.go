package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"wordquest/internal/credentials"
	"wordquest/internal/models"
	"wordquest/internal/repository"
	"wordquest/internal/security"
	"wordquest/internal/validation"
)

// userState is the global persisted profile record. It mirrors what the
// stores hold in memory: the full profile list plus the current user id.
type userState struct {
	Users         []*models.UserProfile `json:"users"`
	CurrentUserID string                `json:"currentUserId,omitempty"`
}

// UserService manages local profiles: registration, login, switching,
// roles, settings and per-module progress. Derived aggregates are
// recomputed by a full fold after every progress change.
type UserService struct {
	mu      sync.RWMutex
	store   *repository.ScopedStore[userState]
	creds   *credentials.Store
	session *Session
	state   userState
}

// NewUserService loads the persisted profile list and rehydrates the
// credential store from the embedded records
func NewUserService(repo repository.StateRepository, creds *credentials.Store, session *Session) *UserService {
	s := &UserService{
		store:   repository.NewScopedStore[userState](repo, "quest-users"),
		creds:   creds,
		session: session,
	}
	s.state = s.store.Load("", func() userState {
		return userState{Users: []*models.UserProfile{}}
	})
	if s.state.Users == nil {
		s.state.Users = []*models.UserProfile{}
	}
	for _, u := range s.state.Users {
		creds.Put(u.Credential)
	}
	return s
}

// ResumeSession re-activates the persisted current user at startup,
// through the same synchronization path a fresh login takes
func (s *UserService) ResumeSession() {
	s.mu.Lock()
	userID := s.state.CurrentUserID
	if userID != "" && s.findLocked(userID) == nil {
		s.state.CurrentUserID = ""
		userID = ""
	}
	s.mu.Unlock()

	if userID != "" {
		s.session.Activate(userID)
	}
}

// Register creates a new profile and logs it in. The role defaults to
// student; the first profile becomes superadmin so role management is
// always reachable. Guest profiles never count towards that rule, so a
// device that started with a guest still gets a superadmin on its first
// real registration.
func (s *UserService) Register(username, password, displayName string, role models.UserRole) (*models.UserProfile, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleStudent
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	record, err := s.creds.Register(username, password)
	if err != nil {
		return nil, err
	}
	profile := newProfile(username, displayName, role, record)

	s.mu.Lock()
	if !s.hasPrivilegedLocked() {
		profile.Role = models.RoleSuperAdmin
	}
	s.state.Users = append(s.state.Users, profile)
	s.state.CurrentUserID = profile.ID
	s.mu.Unlock()

	s.persist()
	s.session.Activate(profile.ID)
	return profile.Clone(), nil
}

// guestPassword is the shared password behind one-tap guest profiles.
// Guests are expected to convert before the profile holds anything
// worth protecting.
const guestPassword = "guest123"

// RegisterGuest creates a throwaway student profile without asking for
// credentials, so a new learner can start playing in one tap. The
// profile keeps working like any other and can be upgraded in place
// with ConvertGuest.
func (s *UserService) RegisterGuest() (*models.UserProfile, error) {
	var record models.CredentialRecord
	var username string
	err := ErrUsernameTaken
	for attempt := 0; attempt < 5 && err != nil; attempt++ {
		username = fmt.Sprintf("guest_%d", time.Now().UnixNano())
		record, err = s.creds.Register(username, guestPassword)
	}
	if err != nil {
		return nil, err
	}

	profile := newProfile(username, "Guest", models.RoleStudent, record)
	profile.IsGuest = true

	s.mu.Lock()
	s.state.Users = append(s.state.Users, profile)
	s.state.CurrentUserID = profile.ID
	s.mu.Unlock()

	s.persist()
	s.session.Activate(profile.ID)
	return profile.Clone(), nil
}

// ConvertGuest upgrades the active guest profile into a regular account
// with its own username and password. Module progress, XP, badges and
// stats all stay on the profile; only the identity changes.
func (s *UserService) ConvertGuest(username, password, displayName string) (*models.UserProfile, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if strings.HasPrefix(username, "guest_") {
		return nil, validation.ValidationError{Field: "username", Message: "username may not start with guest_"}
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.findLocked(s.state.CurrentUserID)
	if current == nil {
		return nil, ErrNoCurrentUser
	}
	if !current.IsGuest {
		return nil, ErrNotGuest
	}

	record, err := s.creds.Register(username, password)
	if err != nil {
		return nil, err
	}
	s.creds.Remove(current.Username)

	current.Username = username
	current.DisplayName = displayName
	current.Credential = record
	current.IsGuest = false
	s.persistLocked()
	return current.Clone(), nil
}

// newProfile builds a fresh profile with default settings and an
// already-started streak
func newProfile(username, displayName string, role models.UserRole, record models.CredentialRecord) *models.UserProfile {
	now := time.Now()
	return &models.UserProfile{
		ID:             security.GenerateUserID(),
		Username:       username,
		DisplayName:    displayName,
		Role:           role,
		Credential:     record,
		CreatedAt:      now,
		LastLogin:      now,
		Settings:       models.DefaultSettings(),
		ModuleProgress: make(map[string]*models.Progress),
		TotalBadges:    []string{},
		GlobalStats: models.GlobalStats{
			StreakDays:    1,
			LastStudyDate: now,
		},
	}
}

// Login verifies the password and activates the profile. The study streak
// advances here: same day keeps it, the next day extends it, a gap resets it.
func (s *UserService) Login(username, password string) (*models.UserProfile, error) {
	s.mu.Lock()
	user := s.findByUsernameLocked(username)
	s.mu.Unlock()
	if user == nil || !s.creds.Verify(username, password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	s.mu.Lock()
	user.GlobalStats.StreakDays = models.NextStreakDays(user.GlobalStats.LastStudyDate, now, user.GlobalStats.StreakDays)
	user.GlobalStats.LastStudyDate = now
	user.LastLogin = now
	s.state.CurrentUserID = user.ID
	clone := user.Clone()
	s.mu.Unlock()

	s.persist()
	s.session.Activate(user.ID)
	return clone, nil
}

// Logout saves and deactivates the current user
func (s *UserService) Logout() {
	s.mu.Lock()
	hadUser := s.state.CurrentUserID != ""
	s.state.CurrentUserID = ""
	s.mu.Unlock()

	if !hadUser {
		return
	}
	s.persist()
	s.session.Deactivate()
}

// SwitchUser changes the active profile without a full login. Switching
// onto a privileged profile always requires that profile's password,
// whatever the current role. Among unprivileged targets, students may only
// switch to their own profile.
func (s *UserService) SwitchUser(targetID, password string) (*models.UserProfile, error) {
	s.mu.Lock()
	target := s.findLocked(targetID)
	current := s.findLocked(s.state.CurrentUserID)
	s.mu.Unlock()

	if target == nil {
		return nil, ErrUserNotFound
	}
	if target.Role.IsPrivileged() {
		if current == nil || current.ID != targetID {
			if !s.creds.Verify(target.Username, password) {
				return nil, ErrInvalidCredentials
			}
		}
	} else if current != nil && current.Role == models.RoleStudent && current.ID != targetID {
		return nil, ErrPermissionDenied
	}

	now := time.Now()
	s.mu.Lock()
	target.GlobalStats.StreakDays = models.NextStreakDays(target.GlobalStats.LastStudyDate, now, target.GlobalStats.StreakDays)
	target.GlobalStats.LastStudyDate = now
	target.LastLogin = now
	s.state.CurrentUserID = targetID
	clone := target.Clone()
	s.mu.Unlock()

	s.persist()
	s.session.Activate(targetID)
	return clone, nil
}

// DeleteUser removes a profile and purges its stored records. Requires a
// privileged current user; the active profile cannot delete itself.
func (s *UserService) DeleteUser(targetID string) error {
	s.mu.Lock()
	current := s.findLocked(s.state.CurrentUserID)
	if current == nil || !current.Role.IsPrivileged() {
		s.mu.Unlock()
		return ErrPermissionDenied
	}
	if current.ID == targetID {
		s.mu.Unlock()
		return ErrPermissionDenied
	}
	target := s.findLocked(targetID)
	if target == nil {
		s.mu.Unlock()
		return ErrUserNotFound
	}

	username := target.Username
	users := make([]*models.UserProfile, 0, len(s.state.Users)-1)
	for _, u := range s.state.Users {
		if u.ID != targetID {
			users = append(users, u)
		}
	}
	s.state.Users = users
	s.mu.Unlock()

	s.creds.Remove(username)
	s.persist()
	s.session.PurgeUserData(targetID)
	return nil
}

// UpdateUserRole changes another profile's role. Superadmin only, and a
// superadmin cannot change their own role.
func (s *UserService) UpdateUserRole(targetID string, role models.UserRole) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.findLocked(s.state.CurrentUserID)
	if current == nil || current.Role != models.RoleSuperAdmin {
		return ErrPermissionDenied
	}
	if current.ID == targetID {
		return ErrPermissionDenied
	}
	target := s.findLocked(targetID)
	if target == nil {
		return ErrUserNotFound
	}

	target.Role = role
	s.persistLocked()
	return nil
}

// UpdateSettings replaces the current user's settings
func (s *UserService) UpdateSettings(settings models.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.findLocked(s.state.CurrentUserID)
	if current == nil {
		return ErrNoCurrentUser
	}
	current.Settings = settings
	s.persistLocked()
	return nil
}

// UpdateProfile changes the current user's display name and avatar
func (s *UserService) UpdateProfile(displayName, avatar string) error {
	if displayName != "" {
		if err := validation.ValidateDisplayName(displayName); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.findLocked(s.state.CurrentUserID)
	if current == nil {
		return ErrNoCurrentUser
	}
	if displayName != "" {
		current.DisplayName = displayName
	}
	if avatar != "" {
		current.Avatar = avatar
	}
	s.persistLocked()
	return nil
}

// UpdateModuleProgress applies a mutation to the current user's progress
// record for the module, creating a default record on first touch. Every
// derived aggregate is rebuilt afterwards by folding over the full map.
func (s *UserService) UpdateModuleProgress(moduleID string, mutate func(*models.Progress)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.findLocked(s.state.CurrentUserID)
	if current == nil {
		return ErrNoCurrentUser
	}
	if current.ModuleProgress == nil {
		current.ModuleProgress = make(map[string]*models.Progress)
	}
	p, ok := current.ModuleProgress[moduleID]
	if !ok {
		p = models.NewProgress(moduleID)
		current.ModuleProgress[moduleID] = p
	}
	mutate(p)
	current.RecomputeAggregates()
	s.persistLocked()
	return nil
}

// GetModuleProgress returns a copy of the current user's record for the module
func (s *UserService) GetModuleProgress(moduleID string) (*models.Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.findLocked(s.state.CurrentUserID)
	if current == nil {
		return nil, false
	}
	p, ok := current.ModuleProgress[moduleID]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// AddStudyTime adds minutes to the current user's global time counter
func (s *UserService) AddStudyTime(minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.findLocked(s.state.CurrentUserID)
	if current == nil {
		return ErrNoCurrentUser
	}
	current.GlobalStats.TotalTimeSpent += minutes
	s.persistLocked()
	return nil
}

// CurrentUser returns a copy of the active profile
func (s *UserService) CurrentUser() (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.findLocked(s.state.CurrentUserID)
	if current == nil {
		return nil, ErrNoCurrentUser
	}
	return current.Clone(), nil
}

// CurrentUserID returns the active profile id, or ""
func (s *UserService) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentUserID
}

// GetUser returns a copy of the profile with the given id
func (s *UserService) GetUser(userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := s.findLocked(userID)
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u.Clone(), nil
}

// Users returns copies of every profile
func (s *UserService) Users() []*models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.UserProfile, 0, len(s.state.Users))
	for _, u := range s.state.Users {
		out = append(out, u.Clone())
	}
	return out
}

func (s *UserService) findLocked(userID string) *models.UserProfile {
	for _, u := range s.state.Users {
		if u.ID == userID {
			return u
		}
	}
	return nil
}

func (s *UserService) hasPrivilegedLocked() bool {
	for _, u := range s.state.Users {
		if u.Role.IsPrivileged() {
			return true
		}
	}
	return false
}

func (s *UserService) findByUsernameLocked(username string) *models.UserProfile {
	for _, u := range s.state.Users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// persist schedules a deferred write of the global profile record. The
// latest state is serialized when the write runs, not when it is queued.
func (s *UserService) persist() {
	s.session.Persist(func() error {
		s.mu.RLock()
		snap := s.snapshotLocked()
		s.mu.RUnlock()
		return s.store.Save("", snap)
	})
}

// persistLocked is persist for callers already holding the lock
func (s *UserService) persistLocked() {
	s.session.Persist(func() error {
		s.mu.RLock()
		snap := s.snapshotLocked()
		s.mu.RUnlock()
		return s.store.Save("", snap)
	})
}

func (s *UserService) snapshotLocked() userState {
	snap := userState{
		Users:         make([]*models.UserProfile, 0, len(s.state.Users)),
		CurrentUserID: s.state.CurrentUserID,
	}
	for _, u := range s.state.Users {
		snap.Users = append(snap.Users, u.Clone())
	}
	return snap
}
