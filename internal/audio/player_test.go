package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalPlayerResolve(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "word_cat.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	player := NewLocalPlayer(dir)

	tests := []struct {
		name    string
		ref     string
		wantErr bool
	}{
		{name: "existing clip", ref: "word_cat.mp3", wantErr: false},
		{name: "missing clip", ref: "word_dog.mp3", wantErr: true},
		{name: "empty reference", ref: "", wantErr: true},
		{name: "path traversal", ref: "../secret.mp3", wantErr: true},
		{name: "hidden file", ref: ".hidden.mp3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := player.Resolve(context.Background(), tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("Resolve(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if err == nil && filepath.Base(path) != tt.ref {
				t.Errorf("Resolve(%q) = %v", tt.ref, path)
			}
		})
	}
}
