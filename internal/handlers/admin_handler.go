package handlers

import (
	"net/http"

	"wordquest/internal/content"
	"wordquest/internal/service"
)

// AdminHandler serves maintenance endpoints: state backup, restore, and
// the content load report
type AdminHandler struct {
	backup  *service.BackupService
	catalog *content.Catalog
	report  *content.LoadReport
	session *service.Session
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(backup *service.BackupService, catalog *content.Catalog, report *content.LoadReport, session *service.Session) *AdminHandler {
	return &AdminHandler{backup: backup, catalog: catalog, report: report, session: session}
}

// ExportState streams a full state backup as a JSON download
func (h *AdminHandler) ExportState(w http.ResponseWriter, r *http.Request) {
	// Flush pending deferred writes so the export is current
	h.session.Flush()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="wordquest_backup.json"`)
	if err := h.backup.ExportToWriter(w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "export failed", "", err)
	}
}

// ImportState restores state records from an uploaded backup file.
// ?replace=true clears existing records first.
func (h *AdminHandler) ImportState(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("backup")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "backup file is required", "", err)
		return
	}
	defer file.Close()

	replace := r.URL.Query().Get("replace") == "true"
	if err := h.backup.ImportFromReader(file, replace); err != nil {
		respondWithError(w, http.StatusInternalServerError, "import failed", "", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

// ContentReport returns the load-time catalog diagnostics: skipped files
// and unresolved book references
func (h *AdminHandler) ContentReport(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Loaded   int                   `json:"loaded"`
		Skipped  []content.SkippedFile `json:"skipped"`
		Problems []string              `json:"problems"`
	}{
		Loaded:   len(h.catalog.Modules()),
		Skipped:  h.report.Skipped,
		Problems: h.catalog.Problems(),
	})
}
