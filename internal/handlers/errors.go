package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"wordquest/internal/service"
	"wordquest/internal/validation"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encoding response failed: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}
	respondJSON(w, status, map[string]string{"error": userMsg})
}

// respondServiceError maps store errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var vErr validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Message,
			"field": vErr.Field,
		})
	case errors.Is(err, service.ErrUsernameTaken):
		respondWithError(w, http.StatusConflict, "username already taken", "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "invalid username or password", "", nil)
	case errors.Is(err, service.ErrNoCurrentUser):
		respondWithError(w, http.StatusUnauthorized, "not logged in", "", nil)
	case errors.Is(err, service.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, "permission denied", "", nil)
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrModuleNotFound),
		errors.Is(err, service.ErrQuestNotFound),
		errors.Is(err, service.ErrBookNotFound),
		errors.Is(err, service.ErrChapterNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, service.ErrNoActiveQuest),
		errors.Is(err, service.ErrBookLocked),
		errors.Is(err, service.ErrNotGuest),
		errors.Is(err, service.ErrModuleNotInBook):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal error", "unhandled service error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", err)
		return false
	}
	return true
}
