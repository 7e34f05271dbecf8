package service

import (
	"errors"

	"wordquest/internal/credentials"
)

var (
	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = credentials.ErrUsernameTaken

	// ErrInvalidCredentials is returned on failed password verification.
	// Unknown usernames report the same error so they cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotGuest is returned when converting a profile that is not a guest
	ErrNotGuest = errors.New("current user is not a guest")

	// ErrPermissionDenied is returned when the current user's role does not
	// allow the operation
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUserNotFound is returned when no profile matches the given id
	ErrUserNotFound = errors.New("user not found")

	// ErrNoCurrentUser is returned when an operation needs an active profile
	ErrNoCurrentUser = errors.New("no user is logged in")

	// ErrModuleNotFound is returned when a module alias cannot be resolved
	ErrModuleNotFound = errors.New("module not found")

	// ErrQuestNotFound is returned when a module has no quest with the id
	ErrQuestNotFound = errors.New("quest not found")

	// ErrNoActiveQuest is returned when a step operation runs outside a quest
	ErrNoActiveQuest = errors.New("no active quest")

	// ErrBookNotFound is returned when no book matches the given id
	ErrBookNotFound = errors.New("book not found")

	// ErrChapterNotFound is returned when the current book has no such chapter
	ErrChapterNotFound = errors.New("chapter not found")

	// ErrBookLocked is returned when selecting a book outside the unlocked set
	ErrBookLocked = errors.New("book is locked")

	// ErrModuleNotInBook is returned when a module operation targets a module
	// outside the current book
	ErrModuleNotInBook = errors.New("module is not part of the current book")
)
