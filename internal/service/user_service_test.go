package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"wordquest/internal/credentials"
	"wordquest/internal/models"
	"wordquest/internal/repository"
)

func TestRegisterFirstUserBecomesSuperadmin(t *testing.T) {
	env := newTestEnv(t)

	alice := register(t, env, "alice")
	if alice.Role != models.RoleSuperAdmin {
		t.Errorf("first user role = %v, want superadmin", alice.Role)
	}

	bob := register(t, env, "bob")
	if bob.Role != models.RoleStudent {
		t.Errorf("second user role = %v, want student", bob.Role)
	}

	// Registration activates the new profile
	if got := env.users.CurrentUserID(); got != bob.ID {
		t.Errorf("CurrentUserID() = %v, want %v", got, bob.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "a", "pass1234"},
		{"bad username chars", "al ice", "pass1234"},
		{"short password", "carol", "abc"},
		{"empty password", "carol", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.users.Register(tt.username, tt.password, "", ""); err == nil {
				t.Error("Register() should fail")
			}
		})
	}

	if _, err := env.users.Register("alice", "pass1234", "", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate Register() error = %v, want ErrUsernameTaken", err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	alice := register(t, env, "alice")
	env.users.Logout()

	if _, err := env.users.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.users.Login("nobody", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}

	user, err := env.users.Login("alice", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != alice.ID {
		t.Errorf("logged in as %v, want %v", user.ID, alice.ID)
	}
	if env.users.CurrentUserID() != alice.ID {
		t.Error("login should activate the profile")
	}
	if user.GlobalStats.StreakDays != 1 {
		t.Errorf("same-day streak = %d, want 1", user.GlobalStats.StreakDays)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	env.users.Logout()
	if env.users.CurrentUserID() != "" {
		t.Error("Logout() should clear the current user")
	}
	if _, err := env.users.CurrentUser(); !errors.Is(err, ErrNoCurrentUser) {
		t.Errorf("CurrentUser() error = %v, want ErrNoCurrentUser", err)
	}

	// A second logout is harmless
	env.users.Logout()
}

func TestSwitchUserRules(t *testing.T) {
	env := newTestEnv(t)
	alice := register(t, env, "alice") // superadmin
	bob := register(t, env, "bob")     // student
	carol := register(t, env, "carol") // student, now active

	// A student may switch to their own profile
	if _, err := env.users.SwitchUser(carol.ID, ""); err != nil {
		t.Errorf("self switch error = %v", err)
	}

	// A student may not switch to another student
	if _, err := env.users.SwitchUser(bob.ID, testPassword); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("student switch to student error = %v, want ErrPermissionDenied", err)
	}

	// A failed switch leaves the current user unchanged
	if _, err := env.users.SwitchUser("missing", ""); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown target error = %v, want ErrUserNotFound", err)
	}
	if got := env.users.CurrentUserID(); got != carol.ID {
		t.Errorf("current user after failed switch = %v, want %v", got, carol.ID)
	}

	// Switching onto a privileged profile takes its password, even for a
	// student
	if _, err := env.users.SwitchUser(alice.ID, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("switch to superadmin without password error = %v, want ErrInvalidCredentials", err)
	}
	switched, err := env.users.SwitchUser(alice.ID, testPassword)
	if err != nil {
		t.Fatalf("switch to superadmin with password error = %v", err)
	}
	if switched.Role != models.RoleSuperAdmin {
		t.Errorf("switched role = %v, want superadmin", switched.Role)
	}

	// A privileged user switches between students freely
	if _, err := env.users.SwitchUser(bob.ID, ""); err != nil {
		t.Errorf("admin switch to student error = %v", err)
	}
}

func TestSwitchToPrivilegedRequiresPassword(t *testing.T) {
	env := newTestEnv(t)
	alice := register(t, env, "alice") // superadmin
	carol := register(t, env, "carol")
	if err := env.users.UpdateUserRole(carol.ID, models.RoleAdmin); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("student changing roles error = %v, want ErrPermissionDenied", err)
	}

	if _, err := env.users.Login("alice", testPassword); err != nil {
		t.Fatal(err)
	}
	if err := env.users.UpdateUserRole(carol.ID, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateUserRole() error = %v", err)
	}

	// Switching onto an admin profile needs that profile's password
	if _, err := env.users.SwitchUser(carol.ID, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("switch without password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.users.SwitchUser(carol.ID, testPassword); err != nil {
		t.Errorf("switch with password error = %v", err)
	}

	// Switching back onto the superadmin needs theirs too
	if _, err := env.users.SwitchUser(alice.ID, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("switch with wrong password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestUpdateUserRoleRules(t *testing.T) {
	env := newTestEnv(t)
	alice := register(t, env, "alice")
	bob := register(t, env, "bob")

	if _, err := env.users.Login("alice", testPassword); err != nil {
		t.Fatal(err)
	}

	if err := env.users.UpdateUserRole(bob.ID, "wizard"); err == nil {
		t.Error("invalid role should be rejected")
	}
	if err := env.users.UpdateUserRole(alice.ID, models.RoleStudent); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("self role change error = %v, want ErrPermissionDenied", err)
	}
	if err := env.users.UpdateUserRole("missing", models.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown target error = %v, want ErrUserNotFound", err)
	}

	if err := env.users.UpdateUserRole(bob.ID, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateUserRole() error = %v", err)
	}
	updated, err := env.users.GetUser(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Role != models.RoleAdmin {
		t.Errorf("role = %v, want admin", updated.Role)
	}
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	alice := register(t, env, "alice")
	bob := register(t, env, "bob")

	// A student may not delete anyone
	if err := env.users.DeleteUser(alice.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("student delete error = %v, want ErrPermissionDenied", err)
	}

	if _, err := env.users.Login("alice", testPassword); err != nil {
		t.Fatal(err)
	}

	// The active profile cannot delete itself
	if err := env.users.DeleteUser(alice.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("self delete error = %v, want ErrPermissionDenied", err)
	}
	if err := env.users.DeleteUser("missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown target error = %v, want ErrUserNotFound", err)
	}

	// Switching to alice saved bob's per-user records
	if _, err := env.repo.Load("books-" + bob.ID); err != nil {
		t.Fatalf("expected a stored book record for bob, got %v", err)
	}

	if err := env.users.DeleteUser(bob.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := env.users.GetUser(bob.ID); !errors.Is(err, ErrUserNotFound) {
		t.Error("deleted user should be gone")
	}
	if env.creds.Verify("bob", testPassword) {
		t.Error("deleted user's credentials should be removed")
	}
	if _, err := env.repo.Load("books-" + bob.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("deleted user's book record error = %v, want ErrNotFound", err)
	}
	if _, err := env.repo.Load("session-" + bob.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("deleted user's quest record error = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfileAndSettings(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	if err := env.users.UpdateProfile("Alice Wonder", "fox"); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	settings := models.DefaultSettings()
	settings.Theme = "dark"
	settings.FontSize = "large"
	if err := env.users.UpdateSettings(settings); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	user, err := env.users.CurrentUser()
	if err != nil {
		t.Fatal(err)
	}
	if user.DisplayName != "Alice Wonder" || user.Avatar != "fox" {
		t.Errorf("profile = %s/%s", user.DisplayName, user.Avatar)
	}
	if user.Settings.Theme != "dark" || user.Settings.FontSize != "large" {
		t.Errorf("settings = %+v", user.Settings)
	}

	env.users.Logout()
	if err := env.users.UpdateProfile("Nobody", ""); !errors.Is(err, ErrNoCurrentUser) {
		t.Errorf("UpdateProfile() without user error = %v, want ErrNoCurrentUser", err)
	}
	if err := env.users.UpdateSettings(settings); !errors.Is(err, ErrNoCurrentUser) {
		t.Errorf("UpdateSettings() without user error = %v, want ErrNoCurrentUser", err)
	}
}

func TestUpdateModuleProgressRebuildsAggregates(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	err := env.users.UpdateModuleProgress("grade6-upper-mod-01", func(p *models.Progress) {
		p.CompletedQuests = []string{"q1", "q2"}
		p.TotalXP = 100
		p.Badges = []string{"star", "star", "moon"}
	})
	if err != nil {
		t.Fatal(err)
	}
	err = env.users.UpdateModuleProgress("grade6-upper-mod-02", func(p *models.Progress) {
		p.CompletedQuests = []string{"q1"}
		p.TotalXP = 50
		p.Badges = []string{"star"}
	})
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.users.CurrentUser()
	if err != nil {
		t.Fatal(err)
	}
	if user.TotalXP != 150 {
		t.Errorf("TotalXP = %d, want 150", user.TotalXP)
	}
	if user.GlobalStats.QuestsCompleted != 3 {
		t.Errorf("QuestsCompleted = %d, want 3", user.GlobalStats.QuestsCompleted)
	}
	// Per-module badges keep duplicates, the profile total dedups
	if len(user.TotalBadges) != 2 {
		t.Errorf("TotalBadges = %v, want [star moon]", user.TotalBadges)
	}
	progress, ok := user.ModuleProgress["grade6-upper-mod-01"]
	if !ok || len(progress.Badges) != 3 {
		t.Errorf("module badges = %+v, want three entries", progress)
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	repo := repository.NewMemoryStateRepository()

	env := newTestEnvOn(t, repo)
	alice := register(t, env, "alice")
	err := env.users.UpdateModuleProgress("grade6-upper-mod-01", func(p *models.Progress) {
		p.CompletedQuests = []string{"q1"}
		p.TotalXP = 50
	})
	if err != nil {
		t.Fatal(err)
	}
	env.users.Logout()
	env.session.Flush()

	env2 := newTestEnvOn(t, repo)
	user, err := env2.users.Login("alice", testPassword)
	if err != nil {
		t.Fatalf("Login() after restart error = %v", err)
	}
	if user.ID != alice.ID {
		t.Errorf("restored id = %v, want %v", user.ID, alice.ID)
	}
	if user.TotalXP != 50 {
		t.Errorf("restored TotalXP = %d, want 50", user.TotalXP)
	}
}

func TestResumeSession(t *testing.T) {
	repo := repository.NewMemoryStateRepository()

	env := newTestEnvOn(t, repo)
	alice := register(t, env, "alice")
	env.session.Flush()

	env2 := newTestEnvOn(t, repo)
	env2.users.ResumeSession()
	if got := env2.users.CurrentUserID(); got != alice.ID {
		t.Errorf("resumed user = %v, want %v", got, alice.ID)
	}
	if got := env2.session.CurrentUserID(); got != alice.ID {
		t.Errorf("resumed session user = %v, want %v", got, alice.ID)
	}
}

// slowStateRepository delays every save, standing in for a storage
// backend under load
type slowStateRepository struct {
	*repository.MemoryStateRepository
	delay time.Duration
}

func (r *slowStateRepository) Save(key, payload string) error {
	time.Sleep(r.delay)
	return r.MemoryStateRepository.Save(key, payload)
}

func TestMutationsDoNotStallOnSlowStorage(t *testing.T) {
	repo := &slowStateRepository{
		MemoryStateRepository: repository.NewMemoryStateRepository(),
		delay:                 2 * time.Millisecond,
	}
	writer := repository.NewWriter()
	t.Cleanup(writer.Close)
	session := NewSession(writer)
	users := NewUserService(repo, credentials.NewStore(), session)

	if _, err := users.Register("alice", testPassword, "", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Each mutation enqueues a deferred write while holding the service
	// lock. With 2ms saves the queue backs up well past any fixed
	// capacity; the mutations must still return promptly.
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 200; i++ {
			if err := users.AddStudyTime(1); err != nil {
				t.Errorf("AddStudyTime() error = %v", err)
				return
			}
		}
	}()

	select {
	case <-finished:
	case <-time.After(10 * time.Second):
		t.Fatal("mutations stalled behind deferred writes")
	}

	writer.Flush()
	user, err := users.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.GlobalStats.TotalTimeSpent != 200 {
		t.Errorf("TotalTimeSpent = %d, want 200", user.GlobalStats.TotalTimeSpent)
	}
}

func TestRegisterGuest(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	guest, err := env.users.RegisterGuest()
	if err != nil {
		t.Fatalf("RegisterGuest() error = %v", err)
	}

	if !guest.IsGuest {
		t.Error("guest profile not flagged as guest")
	}
	if guest.Role != models.RoleStudent {
		t.Errorf("guest role = %v, want student", guest.Role)
	}
	if !strings.HasPrefix(guest.Username, "guest_") {
		t.Errorf("guest username = %q, want guest_ prefix", guest.Username)
	}
	if got := env.users.CurrentUserID(); got != guest.ID {
		t.Errorf("CurrentUserID() = %v, want the new guest %v", got, guest.ID)
	}

	// Guests study like any other profile
	if err := env.users.AddStudyTime(15); err != nil {
		t.Fatalf("AddStudyTime() as guest error = %v", err)
	}
}

func TestGuestDoesNotClaimFirstSuperadmin(t *testing.T) {
	env := newTestEnv(t)

	guest, err := env.users.RegisterGuest()
	if err != nil {
		t.Fatalf("RegisterGuest() error = %v", err)
	}
	if guest.Role != models.RoleStudent {
		t.Errorf("first guest role = %v, want student", guest.Role)
	}

	// The first real registration still gets the superadmin seat
	alice := register(t, env, "alice")
	if alice.Role != models.RoleSuperAdmin {
		t.Errorf("first regular user role = %v, want superadmin", alice.Role)
	}
}

func TestConvertGuestKeepsProgress(t *testing.T) {
	env := newTestEnv(t)

	guest, err := env.users.RegisterGuest()
	if err != nil {
		t.Fatalf("RegisterGuest() error = %v", err)
	}

	err = env.users.UpdateModuleProgress("grade6-upper-mod-01", func(p *models.Progress) {
		p.CompletedQuests = append(p.CompletedQuests, "q1")
		p.TotalXP += 50
		p.Badges = append(p.Badges, "word-star")
	})
	if err != nil {
		t.Fatalf("UpdateModuleProgress() error = %v", err)
	}
	if err := env.users.AddStudyTime(25); err != nil {
		t.Fatalf("AddStudyTime() error = %v", err)
	}

	converted, err := env.users.ConvertGuest("casey", testPassword, "Casey")
	if err != nil {
		t.Fatalf("ConvertGuest() error = %v", err)
	}

	if converted.IsGuest {
		t.Error("converted profile still flagged as guest")
	}
	if converted.ID != guest.ID {
		t.Errorf("conversion changed profile id from %v to %v", guest.ID, converted.ID)
	}
	if converted.Username != "casey" || converted.DisplayName != "Casey" {
		t.Errorf("converted identity = %s/%s, want casey/Casey", converted.Username, converted.DisplayName)
	}
	if converted.TotalXP != 50 {
		t.Errorf("TotalXP after conversion = %d, want 50", converted.TotalXP)
	}
	if len(converted.TotalBadges) != 1 {
		t.Errorf("TotalBadges after conversion = %v, want one badge", converted.TotalBadges)
	}
	if converted.GlobalStats.TotalTimeSpent != 25 {
		t.Errorf("TotalTimeSpent after conversion = %d, want 25", converted.GlobalStats.TotalTimeSpent)
	}

	// The new credentials work, the guest alias is gone
	env.users.Logout()
	if _, err := env.users.Login("casey", testPassword); err != nil {
		t.Errorf("Login() with converted credentials error = %v", err)
	}
	env.users.Logout()
	if _, err := env.users.Login(guest.Username, "guest123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with retired guest alias error = %v, want ErrInvalidCredentials", err)
	}
}

func TestConvertGuestRules(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	// Regular profiles cannot convert
	if _, err := env.users.ConvertGuest("casey", testPassword, ""); !errors.Is(err, ErrNotGuest) {
		t.Errorf("ConvertGuest() as regular user error = %v, want ErrNotGuest", err)
	}

	if _, err := env.users.RegisterGuest(); err != nil {
		t.Fatalf("RegisterGuest() error = %v", err)
	}

	// The new username may not look like a guest alias or collide
	if _, err := env.users.ConvertGuest("guest_999", testPassword, ""); err == nil {
		t.Error("ConvertGuest() accepted a guest_ username")
	}
	if _, err := env.users.ConvertGuest("alice", testPassword, ""); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("ConvertGuest() onto taken username error = %v, want ErrUsernameTaken", err)
	}

	// The failed attempts left the guest untouched
	current, err := env.users.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if !current.IsGuest {
		t.Error("guest flag lost after rejected conversions")
	}
}
