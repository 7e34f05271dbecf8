package content

import (
	"testing"
)

func TestLoadModulesSkipsBadFiles(t *testing.T) {
	modules, report, err := LoadModules("testdata")
	if err != nil {
		t.Fatalf("LoadModules() error = %v", err)
	}

	if len(modules) != 2 {
		t.Fatalf("loaded %d modules, want 2 (the valid ones)", len(modules))
	}

	loaded := make(map[string]bool)
	for _, m := range modules {
		loaded[m.ModuleID] = true
	}
	if !loaded["grade6-upper-mod-01"] || !loaded["module-02"] {
		t.Errorf("loaded set = %v", loaded)
	}

	skipped := make(map[string]bool)
	for _, s := range report.Skipped {
		skipped[s.File] = true
	}
	for _, file := range []string{
		"grade6-upper-mod-03-broken.json",
		"grade6-upper-mod-04-mismatch.json",
		"grade6-upper-mod-06-badstep.json",
	} {
		if !skipped[file] {
			t.Errorf("expected %s to be skipped, report = %+v", file, report.Skipped)
		}
	}
}

func TestCheckFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		moduleID string
		wantErr  bool
	}{
		{
			name:     "matching canonical",
			filename: "grade6-upper-mod-01-how-long.json",
			moduleID: "grade6-upper-mod-01",
			wantErr:  false,
		},
		{
			name:     "legacy filename matches legacy id",
			filename: "module-03-stamps.json",
			moduleID: "module-03",
			wantErr:  false,
		},
		{
			name:     "legacy filename matches canonical grade6 upper id",
			filename: "module-03-stamps.json",
			moduleID: "grade6-upper-mod-03",
			wantErr:  false,
		},
		{
			name:     "triple mismatch",
			filename: "grade6-upper-mod-04-festivals.json",
			moduleID: "grade6-upper-mod-05",
			wantErr:  true,
		},
		{
			name:     "no module prefix",
			filename: "notes.json",
			moduleID: "grade6-upper-mod-01",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkFilename(tt.filename, tt.moduleID)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkFilename(%q, %q) error = %v, wantErr %v", tt.filename, tt.moduleID, err, tt.wantErr)
			}
		})
	}
}
