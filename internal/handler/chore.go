package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jpriddy/chorewheel/internal/auth"
	"github.com/jpriddy/chorewheel/internal/model"
	"github.com/jpriddy/chorewheel/internal/store"
	"github.com/jpriddy/chorewheel/internal/websocket"
)

type ChoreHandler struct {
	choreStore *store.ChoreStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{choreStore: cs, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(groupID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

type choreRequest struct {
	Name          string `json:"name"`
	Frequency     string `json:"frequency"`
	RequiresPhoto bool   `json:"requires_photo"`
}

func (req *choreRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Frequency == "" {
		req.Frequency = model.FrequencyWeekly
	}
	if !model.ValidFrequency(req.Frequency) {
		return "frequency must be daily, weekly, biweekly, or monthly"
	}
	return ""
}

// loadSameGroup fetches the chore and enforces the caller's group boundary.
func (h *ChoreHandler) loadSameGroup(w http.ResponseWriter, r *http.Request) *model.Chore {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}

	chore, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return nil
	}
	if chore == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return nil
	}
	if chore.GroupID != auth.GroupID(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return nil
	}
	return chore
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.ListByGroup(auth.GroupID(r.Context()))
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	chore := h.loadSameGroup(w, r)
	if chore == nil {
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	groupID := auth.GroupID(r.Context())
	chore, err := h.choreStore.Create(groupID, req.Name, req.Frequency, req.RequiresPhoto)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	h.broadcast(groupID, websocket.NewMessage("chore", "created", chore.ID, nil))
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	chore := h.loadSameGroup(w, r)
	if chore == nil {
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := h.choreStore.Update(chore.ID, req.Name, req.Frequency, req.RequiresPhoto)
	if err != nil {
		h.logger.Error("update chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}

	h.broadcast(chore.GroupID, websocket.NewMessage("chore", "updated", chore.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a chore. Its assignments cascade away with it.
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chore := h.loadSameGroup(w, r)
	if chore == nil {
		return
	}

	if err := h.choreStore.Delete(chore.ID); err != nil {
		h.logger.Error("delete chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	h.broadcast(chore.GroupID, websocket.NewMessage("chore", "deleted", chore.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// ReorderStep nudges a chore one position up or down.
func (h *ChoreHandler) ReorderStep(w http.ResponseWriter, r *http.Request) {
	chore := h.loadSameGroup(w, r)
	if chore == nil {
		return
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Direction != "up" && req.Direction != "down" {
		writeError(w, http.StatusBadRequest, "direction must be up or down")
		return
	}

	chores, err := h.choreStore.ReorderStep(chore.ID, req.Direction)
	if err != nil {
		if status, code, ok := domainStatus(err); ok {
			writeErrorCode(w, status, err.Error(), code)
			return
		}
		h.logger.Error("reorder chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reorder chore")
		return
	}

	h.broadcast(chore.GroupID, websocket.NewMessage("chore", "reordered", chore.ID, nil))
	writeJSON(w, http.StatusOK, chores)
}

// Reorder applies a full drag-and-drop permutation of the group's chores.
func (h *ChoreHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChoreIDs []int64 `json:"chore_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	groupID := auth.GroupID(r.Context())
	chores, err := h.choreStore.Reorder(groupID, req.ChoreIDs)
	if err != nil {
		if status, code, ok := domainStatus(err); ok {
			writeErrorCode(w, status, err.Error(), code)
			return
		}
		h.logger.Error("reorder chores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reorder chores")
		return
	}

	h.broadcast(groupID, websocket.NewMessage("chore", "reordered", 0, nil))
	writeJSON(w, http.StatusOK, chores)
}
