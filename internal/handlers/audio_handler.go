package handlers

import (
	"errors"
	"net/http"

	"wordquest/internal/audio"
)

// AudioHandler serves content audio clips
type AudioHandler struct {
	player audio.Player
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(player audio.Player) *AudioHandler {
	return &AudioHandler{player: player}
}

// Play streams the clip named by the module content's audio reference
func (h *AudioHandler) Play(w http.ResponseWriter, r *http.Request) {
	path, err := h.player.Resolve(r.Context(), r.PathValue("ref"))
	if err != nil {
		var pErr *audio.PlaybackError
		if errors.As(err, &pErr) {
			respondWithError(w, http.StatusNotFound, pErr.Reason, "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "audio unavailable", "", err)
		return
	}
	http.ServeFile(w, r, path)
}
