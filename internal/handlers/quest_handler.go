package handlers

import (
	"net/http"

	"wordquest/internal/content"
	"wordquest/internal/service"
)

// QuestHandler serves module content and the quest runtime
type QuestHandler struct {
	catalog *content.Catalog
	quests  *service.QuestService
	users   *service.UserService
}

// NewQuestHandler creates a new quest handler
func NewQuestHandler(catalog *content.Catalog, quests *service.QuestService, users *service.UserService) *QuestHandler {
	return &QuestHandler{catalog: catalog, quests: quests, users: users}
}

// ListModules returns a summary of every loaded module
func (h *QuestHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules := h.catalog.Modules()
	views := make([]ModuleSummary, 0, len(modules))
	for _, m := range modules {
		views = append(views, NewModuleSummary(m))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetModule opens a module by any alias, creating the user's progress
// record on first visit. Unknown aliases return 404; the client falls
// back to its module list.
func (h *QuestHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	module, err := h.quests.LoadModule(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	progress, _ := h.users.GetModuleProgress(module.ModuleID)
	respondJSON(w, http.StatusOK, struct {
		Module   *content.Module `json:"module"`
		Progress interface{}     `json:"progress,omitempty"`
	}{Module: module, Progress: progress})
}

type startQuestRequest struct {
	ModuleID string `json:"moduleId"`
	QuestID  string `json:"questId"`
}

// StartQuest opens a quest at its first step
func (h *QuestHandler) StartQuest(w http.ResponseWriter, r *http.Request) {
	var req startQuestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.quests.StartQuest(req.ModuleID, req.QuestID); err != nil {
		respondServiceError(w, err)
		return
	}

	step, err := h.quests.CurrentStep()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		StepIndex int                `json:"stepIndex"`
		Step      *content.QuestStep `json:"step"`
	}{StepIndex: 0, Step: step})
}

// CurrentQuest returns the runtime snapshot and the pending step
func (h *QuestHandler) CurrentQuest(w http.ResponseWriter, r *http.Request) {
	moduleID, questID, stepIndex := h.quests.Snapshot()
	if questID == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}

	step, err := h.quests.CurrentStep()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Active    bool               `json:"active"`
		ModuleID  string             `json:"moduleId"`
		QuestID   string             `json:"questId"`
		StepIndex int                `json:"stepIndex"`
		Step      *content.QuestStep `json:"step"`
	}{Active: true, ModuleID: moduleID, QuestID: questID, StepIndex: stepIndex, Step: step})
}

// CompleteStep advances the active quest one step. On the final step the
// response carries the reward, or no reward if the quest had been
// completed before.
func (h *QuestHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	result, err := h.quests.CompleteStep()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AbandonQuest drops the active quest without recording anything
func (h *QuestHandler) AbandonQuest(w http.ResponseWriter, r *http.Request) {
	h.quests.AbandonQuest()
	respondJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}

// ResetProgress wipes the user's progress for one module
func (h *QuestHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := h.quests.ResetProgress(r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
