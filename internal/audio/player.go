package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PlaybackError reports why an audio reference could not be served
type PlaybackError struct {
	Ref    string
	Reason string
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("audio %q: %s", e.Ref, e.Reason)
}

// Player resolves audio references from content files to playable assets.
// The app is offline: every clip ships with the content pack.
type Player interface {
	// Resolve maps a content audio reference to a file path under the
	// audio directory
	Resolve(ctx context.Context, ref string) (string, error)
}

// LocalPlayer serves pre-recorded clips from a directory on disk
type LocalPlayer struct {
	audioDir string
}

// NewLocalPlayer creates a player rooted at audioDir
func NewLocalPlayer(audioDir string) *LocalPlayer {
	return &LocalPlayer{audioDir: audioDir}
}

// Resolve validates the reference and returns the file path. References
// are bare filenames from content files; path traversal is rejected.
func (p *LocalPlayer) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &PlaybackError{Ref: ref, Reason: "empty reference"}
	}
	if ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", &PlaybackError{Ref: ref, Reason: "invalid reference"}
	}

	path := filepath.Join(p.audioDir, ref)
	if _, err := os.Stat(path); err != nil {
		return "", &PlaybackError{Ref: ref, Reason: "clip not found"}
	}
	return path, nil
}
