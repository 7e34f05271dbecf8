package service

import (
	"testing"

	"wordquest/internal/content"
	"wordquest/internal/credentials"
	"wordquest/internal/events"
	"wordquest/internal/models"
	"wordquest/internal/repository"
)

// testEnv wires the full service layer over an in-memory repository
type testEnv struct {
	repo    *repository.MemoryStateRepository
	writer  *repository.Writer
	session *Session
	creds   *credentials.Store
	users   *UserService
	books   *BookService
	quests  *QuestService
	bus     *events.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvOn(t, repository.NewMemoryStateRepository())
}

// newTestEnvOn builds services over an existing repository, used to verify
// that state survives a full restart
func newTestEnvOn(t *testing.T, repo *repository.MemoryStateRepository) *testEnv {
	t.Helper()

	writer := repository.NewWriter()
	t.Cleanup(writer.Close)

	session := NewSession(writer)
	creds := credentials.NewStore()
	users := NewUserService(repo, creds, session)

	catalog := testCatalog()
	books := NewBookService(repo, catalog, session)
	bus := events.NewBus()
	quests := NewQuestService(repo, catalog, users, books, bus, session)

	return &testEnv{
		repo:    repo,
		writer:  writer,
		session: session,
		creds:   creds,
		users:   users,
		books:   books,
		quests:  quests,
		bus:     bus,
	}
}

func testModule(id string, questIDs ...string) *content.Module {
	m := &content.Module{
		ModuleID:        id,
		Title:           "Module " + id,
		DurationMinutes: 20,
		Words:           []content.Word{{ID: "w1", En: "hello", Zh: "你好"}},
	}
	for _, qid := range questIDs {
		m.Quests = append(m.Quests, content.Quest{
			ID:    qid,
			Title: "Quest " + qid,
			Steps: []content.QuestStep{
				{Type: content.StepShow, Text: "look"},
				{Type: content.StepListen, Text: "hello", Audio: "hello.mp3"},
			},
			Reward: content.Reward{Badge: id + "-" + qid, XP: 50},
		})
	}
	return m
}

// testCatalog has two books: the default grade6-upper with two one-module
// chapters, and grade6-lower with one
func testCatalog() *content.Catalog {
	modules := []*content.Module{
		testModule("grade6-upper-mod-01", "q1", "q2"),
		testModule("grade6-upper-mod-02", "q1"),
		testModule("grade6-lower-mod-01", "q1"),
	}
	books := []content.Book{
		{
			ID: "grade6-upper", Title: "Grade 6 A", Grade: 6, Semester: "upper",
			TotalModules: 2, IsActive: true,
			Chapters: []content.Chapter{
				{ID: "g6u-ch1", BookID: "grade6-upper", Number: 1, Title: "Unit 1", ModuleIDs: []string{"grade6-upper-mod-01"}},
				{ID: "g6u-ch2", BookID: "grade6-upper", Number: 2, Title: "Unit 2", ModuleIDs: []string{"grade6-upper-mod-02"}},
			},
		},
		{
			ID: "grade6-lower", Title: "Grade 6 B", Grade: 6, Semester: "lower",
			TotalModules: 1, IsActive: true,
			Chapters: []content.Chapter{
				{ID: "g6l-ch1", BookID: "grade6-lower", Number: 1, Title: "Unit 1", ModuleIDs: []string{"grade6-lower-mod-01"}},
			},
		},
	}
	return content.NewCatalog(modules, books)
}

const testPassword = "pass1234"

// register creates and activates a profile with the shared test password
func register(t *testing.T, env *testEnv, username string) *models.UserProfile {
	t.Helper()
	user, err := env.users.Register(username, testPassword, "", "")
	if err != nil {
		t.Fatalf("Register(%s) error = %v", username, err)
	}
	return user
}
