package content

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// SkippedFile records a content file excluded from the catalog at load time
type SkippedFile struct {
	File   string
	Reason string
}

// LoadReport summarises a catalog load
type LoadReport struct {
	Loaded  []string
	Skipped []SkippedFile
}

var filenamePrefixPattern = regexp.MustCompile(`^(grade\d+-(?:upper|lower)-mod-\d+|module-\d+)`)

// LoadModules reads every *.json module file in dir. A malformed file is
// reported and skipped; loading continues for all other modules. The returned
// error is reserved for filesystem-level failures.
func LoadModules(dir string) ([]*Module, *LoadReport, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list content files: %w", err)
	}
	sort.Strings(files)

	report := &LoadReport{}
	var modules []*Module
	seen := make(map[string]string) // canonical id -> file

	for _, file := range files {
		name := filepath.Base(file)
		module, err := loadModuleFile(file)
		if err != nil {
			log.Printf("Skipping content file %s: %v", name, err)
			report.Skipped = append(report.Skipped, SkippedFile{File: name, Reason: err.Error()})
			continue
		}

		ref, _ := ParseModuleID(module.ModuleID) // validated by loadModuleFile
		canonical := ref.CanonicalID()
		if prev, dup := seen[canonical]; dup {
			reason := fmt.Sprintf("duplicate module %s (already loaded from %s)", canonical, prev)
			log.Printf("Skipping content file %s: %s", name, reason)
			report.Skipped = append(report.Skipped, SkippedFile{File: name, Reason: reason})
			continue
		}
		seen[canonical] = name

		modules = append(modules, module)
		report.Loaded = append(report.Loaded, name)
	}

	return modules, report, nil
}

func loadModuleFile(file string) (*Module, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}

	var module Module
	if err := json.Unmarshal(data, &module); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := module.Validate(); err != nil {
		return nil, err
	}
	if err := checkFilename(filepath.Base(file), module.ModuleID); err != nil {
		return nil, err
	}
	return &module, nil
}

// checkFilename enforces that the filename and the moduleId encode the same
// (grade, semester, moduleNumber) triple.
func checkFilename(name, moduleID string) error {
	base := strings.TrimSuffix(name, ".json")
	prefix := filenamePrefixPattern.FindString(base)
	if prefix == "" {
		return fmt.Errorf("filename %s does not start with a module id", name)
	}
	fileRef, err := ParseModuleID(prefix)
	if err != nil {
		return fmt.Errorf("filename %s: %w", name, err)
	}
	idRef, err := ParseModuleID(moduleID)
	if err != nil {
		return err
	}
	if fileRef.CanonicalID() != idRef.CanonicalID() {
		return fmt.Errorf("filename %s encodes %s but moduleId is %s", name, fileRef.CanonicalID(), moduleID)
	}
	return nil
}
