package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jpriddy/chorewheel/internal/auth"
	"github.com/jpriddy/chorewheel/internal/model"
	"github.com/jpriddy/chorewheel/internal/rotation"
	"github.com/jpriddy/chorewheel/internal/store"
	"github.com/jpriddy/chorewheel/internal/week"
	"github.com/jpriddy/chorewheel/internal/websocket"
)

type AssignmentHandler struct {
	assignmentStore *store.AssignmentStore
	choreStore      *store.ChoreStore
	memberStore     *store.MemberStore
	engine          *rotation.Engine
	strategy        rotation.Strategy
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewAssignmentHandler(as *store.AssignmentStore, cs *store.ChoreStore, ms *store.MemberStore, engine *rotation.Engine, strategy rotation.Strategy, hub *websocket.Hub, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentStore: as,
		choreStore:      cs,
		memberStore:     ms,
		engine:          engine,
		strategy:        strategy,
		hub:             hub,
		logger:          logger,
	}
}

func (h *AssignmentHandler) broadcast(groupID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

// loadSameGroup fetches the assignment and enforces the caller's group
// boundary through the joined chore.
func (h *AssignmentHandler) loadSameGroup(w http.ResponseWriter, r *http.Request) *model.Assignment {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}

	a, err := h.assignmentStore.GetByID(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return nil
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return nil
	}
	if a.GroupID != auth.GroupID(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return nil
	}
	return a
}

// List returns the group's assignments, optionally filtered to one week via
// the week_start query parameter.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID := auth.GroupID(r.Context())

	var assignments []model.Assignment
	var err error
	if raw := r.URL.Query().Get("week_start"); raw != "" {
		weekStart, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid week_start")
			return
		}
		assignments, err = h.assignmentStore.ListByWeek(groupID, weekStart)
	} else {
		assignments, err = h.assignmentStore.ListByGroup(groupID)
	}
	if err != nil {
		h.logger.Error("list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) My(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignmentStore.ListByMember(auth.MemberID(r.Context()))
	if err != nil {
		h.logger.Error("list my assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) Pending(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignmentStore.ListPendingByMember(auth.MemberID(r.Context()))
	if err != nil {
		h.logger.Error("list pending assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pending assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a := h.loadSameGroup(w, r)
	if a == nil {
		return
	}
	if a.MemberID != auth.MemberID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Create adds a manual assignment. The chore and member must belong to the
// caller's group and week_start must be a week boundary.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChoreID   int64 `json:"chore_id"`
		MemberID  int64 `json:"member_id"`
		WeekStart int64 `json:"week_start"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ChoreID == 0 || req.MemberID == 0 || req.WeekStart == 0 {
		writeError(w, http.StatusBadRequest, "chore_id, member_id, and week_start are required")
		return
	}
	if !week.IsStart(req.WeekStart) {
		writeError(w, http.StatusBadRequest, "week_start must be a Sunday 00:00 UTC boundary")
		return
	}

	groupID := auth.GroupID(r.Context())

	chore, err := h.choreStore.GetByID(req.ChoreID)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}
	if chore == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}
	if chore.GroupID != groupID {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	member, err := h.memberStore.GetByID(req.MemberID)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if member.GroupID != groupID {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	a, err := h.assignmentStore.Create(req.ChoreID, req.MemberID, req.WeekStart)
	if err != nil {
		h.logger.Error("create assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}

	h.broadcast(groupID, websocket.NewMessage("assignment", "created", a.ID, nil))
	writeJSON(w, http.StatusCreated, a)
}

// Complete marks an assignment done. Members may complete only their own;
// admins may complete anyone's and bypass the photo requirement.
func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	a := h.loadSameGroup(w, r)
	if a == nil {
		return
	}

	isAdmin := auth.IsAdmin(r.Context())
	if a.MemberID != auth.MemberID(r.Context()) && !isAdmin {
		writeError(w, http.StatusForbidden, "can only complete your own assignments")
		return
	}

	var req struct {
		PhotoPaths []string `json:"photo_paths"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	updated, err := h.assignmentStore.Complete(a.ID, model.PhotoSet(req.PhotoPaths), isAdmin)
	if err != nil {
		if status, code, ok := domainStatus(err); ok {
			writeErrorCode(w, status, err.Error(), code)
			return
		}
		h.logger.Error("complete assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete assignment")
		return
	}

	h.broadcast(a.GroupID, websocket.NewMessage("assignment", "completed", a.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// Reject undoes a completion, returning the assignment to pending.
func (h *AssignmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	a := h.loadSameGroup(w, r)
	if a == nil {
		return
	}

	updated, err := h.assignmentStore.Reject(a.ID)
	if err != nil {
		if status, code, ok := domainStatus(err); ok {
			writeErrorCode(w, status, err.Error(), code)
			return
		}
		h.logger.Error("reject assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reject assignment")
		return
	}

	h.broadcast(a.GroupID, websocket.NewMessage("assignment", "rejected", a.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a := h.loadSameGroup(w, r)
	if a == nil {
		return
	}

	if err := h.assignmentStore.Delete(a.ID); err != nil {
		if status, code, ok := domainStatus(err); ok {
			writeErrorCode(w, status, err.Error(), code)
			return
		}
		h.logger.Error("delete assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete assignment")
		return
	}

	h.broadcast(a.GroupID, websocket.NewMessage("assignment", "deleted", a.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteByWeek bulk-deletes the group's assignments for a week, the guard
// callers run before re-rotating.
func (h *AssignmentHandler) DeleteByWeek(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("week_start")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "week_start is required")
		return
	}
	weekStart, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid week_start")
		return
	}

	groupID := auth.GroupID(r.Context())
	count, err := h.assignmentStore.DeleteByWeek(groupID, weekStart)
	if err != nil {
		h.logger.Error("delete assignments by week", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete assignments")
		return
	}

	h.broadcast(groupID, websocket.NewMessage("assignment", "week_deleted", 0, map[string]any{"week_start": weekStart}))
	writeJSON(w, http.StatusOK, map[string]int64{"deleted_count": count})
}

// Rotate creates the next week's assignment set. week_start defaults to the
// current week and previous_week_start to the week before it; both must be
// week boundaries when supplied.
func (h *AssignmentHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeekStart         int64 `json:"week_start"`
		PreviousWeekStart int64 `json:"previous_week_start"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if req.WeekStart == 0 {
		req.WeekStart = week.StartUnix(time.Now())
	}
	if !week.IsStart(req.WeekStart) {
		writeError(w, http.StatusBadRequest, "week_start must be a Sunday 00:00 UTC boundary")
		return
	}
	if req.PreviousWeekStart == 0 {
		req.PreviousWeekStart = week.Prev(req.WeekStart)
	}
	if !week.IsStart(req.PreviousWeekStart) {
		writeError(w, http.StatusBadRequest, "previous_week_start must be a Sunday 00:00 UTC boundary")
		return
	}

	groupID := auth.GroupID(r.Context())
	ids, err := h.engine.Rotate(h.strategy, groupID, req.WeekStart, req.PreviousWeekStart)
	if err != nil {
		if status, code, ok := domainStatus(err); ok {
			writeErrorCode(w, status, err.Error(), code)
			return
		}
		h.logger.Error("rotate assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rotate assignments")
		return
	}

	assignments := make([]model.Assignment, 0, len(ids))
	for _, id := range ids {
		a, err := h.assignmentStore.GetByID(id)
		if err != nil || a == nil {
			h.logger.Error("load rotated assignment", "id", id, "error", err)
			continue
		}
		assignments = append(assignments, *a)
	}

	h.broadcast(groupID, websocket.NewMessage("assignment", "rotated", 0, map[string]any{"week_start": req.WeekStart}))
	writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}
