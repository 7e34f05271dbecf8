package security

import "github.com/google/uuid"

// GenerateUserID creates a new unique id for a user profile
func GenerateUserID() string {
	return uuid.New().String()
}
