package handlers

import (
	"net/http"
	"time"

	"wordquest/internal/credentials"
	"wordquest/internal/models"
	"wordquest/internal/security"
	"wordquest/internal/service"
)

// AuthHandler serves registration, login and profile management
type AuthHandler struct {
	users   *service.UserService
	tokens  *security.TokenManager
	limiter *security.LoginLimiter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *service.UserService, tokens *security.TokenManager, limiter *security.LoginLimiter) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, limiter: limiter}
}

type registerRequest struct {
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	DisplayName string          `json:"displayName"`
	Role        models.UserRole `json:"role"`
}

// Register creates a new profile and logs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Register(req.Username, req.Password, req.DisplayName, req.Role)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.setSessionCookie(w, r, user.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "session creation failed", "", err)
		return
	}
	respondJSON(w, http.StatusCreated, NewUserView(user))
}

// RegisterGuest creates a one-tap guest profile and logs it in
func (h *AuthHandler) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.RegisterGuest()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.setSessionCookie(w, r, user.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "session creation failed", "", err)
		return
	}
	respondJSON(w, http.StatusCreated, NewUserView(user))
}

type convertRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// ConvertGuest upgrades the active guest profile into a regular
// account, keeping its progress
func (h *AuthHandler) ConvertGuest(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.ConvertGuest(req.Username, req.Password, req.DisplayName)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, NewUserView(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and opens a session. Attempts are rate
// limited per username to slow password guessing on a shared device.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !h.limiter.Allow(req.Username) {
		respondWithError(w, http.StatusTooManyRequests, "too many login attempts, try again later", "", nil)
		return
	}

	user, err := h.users.Login(req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.setSessionCookie(w, r, user.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "session creation failed", "", err)
		return
	}
	respondJSON(w, http.StatusOK, NewUserView(user))
}

// Logout closes the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.users.Logout()
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type switchRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password,omitempty"`
}

// Switch changes the active profile. Switching onto a privileged profile
// requires its password.
func (h *AuthHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.SwitchUser(req.UserID, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.setSessionCookie(w, r, user.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "session creation failed", "", err)
		return
	}
	respondJSON(w, http.StatusOK, NewUserView(user))
}

// Me returns the active profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, NewUserView(user))
}

// ListUsers returns every profile. Used by the profile picker and the
// admin screens, so it only needs auth, not admin.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.users.Users()
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}
	respondJSON(w, http.StatusOK, views)
}

// DeleteUser removes a profile and its stored data
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type roleRequest struct {
	Role models.UserRole `json:"role"`
}

// UpdateRole changes another profile's role (superadmin only)
func (h *AuthHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.UpdateUserRole(r.PathValue("id"), req.Role); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type profileRequest struct {
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// UpdateProfile changes the active profile's display name and avatar
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.UpdateProfile(req.DisplayName, req.Avatar); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// UpdateSettings replaces the active profile's settings
func (h *AuthHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.UserSettings
	if !decodeJSON(w, r, &settings) {
		return
	}
	if err := h.users.UpdateSettings(settings); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// SuggestCredentials returns a kid-friendly username and password pair
func (h *AuthHandler) SuggestCredentials(w http.ResponseWriter, r *http.Request) {
	username, err := credentials.SuggestUsername()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "suggestion failed", "", err)
		return
	}
	password, err := credentials.SuggestPassword()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "suggestion failed", "", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"username": username,
		"password": password,
	})
}

// setSessionCookie issues a token for the user and attaches it as the
// session cookie. Nothing is written to the response on failure, so the
// caller still owns the status code.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, userID string) error {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		return err
	}
	expires := time.Now().Add(h.tokens.TokenTTL())
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, token, expires))
	return nil
}
