package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jpriddy/chorewheel/internal/auth"
	"github.com/jpriddy/chorewheel/internal/model"
	"github.com/jpriddy/chorewheel/internal/store"
	"github.com/jpriddy/chorewheel/internal/websocket"
)

type MemberHandler struct {
	memberStore *store.MemberStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewMemberHandler(ms *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{memberStore: ms, hub: hub, logger: logger}
}

func (h *MemberHandler) broadcast(groupID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

// loadSameGroup fetches the member and enforces the caller's group boundary.
func (h *MemberHandler) loadSameGroup(w http.ResponseWriter, r *http.Request) *model.Member {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}

	member, err := h.memberStore.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return nil
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return nil
	}
	if member.GroupID != auth.GroupID(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return nil
	}
	return member
}

func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) {
	member, err := h.memberStore.GetByID(auth.MemberID(r.Context()))
	if err != nil || member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberStore.ListByGroup(auth.GroupID(r.Context()))
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member := h.loadSameGroup(w, r)
	if member == nil {
		return
	}
	if member.ID != auth.MemberID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// Update changes a member's own profile fields. Admins may edit anyone in
// the group.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	member := h.loadSameGroup(w, r)
	if member == nil {
		return
	}
	if member.ID != auth.MemberID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	updated, err := h.memberStore.Update(member.ID, req.Name, req.Email)
	if err != nil {
		h.logger.Error("update member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.broadcast(member.GroupID, websocket.NewMessage("member", "updated", member.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *MemberHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	member := h.loadSameGroup(w, r)
	if member == nil {
		return
	}
	if member.ID != auth.MemberID(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "current and new password are required")
		return
	}

	hash, err := h.memberStore.GetPasswordHash(member.ID)
	if err != nil {
		h.logger.Error("get password hash", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}
	if !auth.CheckPassword(hash, req.CurrentPassword) {
		writeError(w, http.StatusUnauthorized, "invalid current password")
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}
	if err := h.memberStore.UpdatePassword(member.ID, newHash); err != nil {
		h.logger.Error("update password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// UpdateRole promotes or demotes a member. Admins cannot demote themselves,
// so a group always retains at least one admin.
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	member := h.loadSameGroup(w, r)
	if member == nil {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}
	if member.ID == auth.MemberID(r.Context()) && req.Role == model.RoleMember {
		writeError(w, http.StatusBadRequest, "cannot demote yourself")
		return
	}

	updated, err := h.memberStore.UpdateRole(member.ID, req.Role)
	if err != nil {
		h.logger.Error("update role", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	h.broadcast(member.GroupID, websocket.NewMessage("member", "role_changed", member.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// UpdateRotation toggles a member in or out of the weekly rotation.
func (h *MemberHandler) UpdateRotation(w http.ResponseWriter, r *http.Request) {
	member := h.loadSameGroup(w, r)
	if member == nil {
		return
	}

	var req struct {
		InRotation *bool `json:"in_rotation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InRotation == nil {
		writeError(w, http.StatusBadRequest, "in_rotation must be a boolean")
		return
	}

	updated, err := h.memberStore.SetRotation(member.ID, *req.InRotation)
	if err != nil {
		if status, code, ok := domainStatus(err); ok {
			writeErrorCode(w, status, err.Error(), code)
			return
		}
		h.logger.Error("update rotation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update rotation")
		return
	}

	h.broadcast(member.GroupID, websocket.NewMessage("member", "rotation_changed", member.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	member := h.loadSameGroup(w, r)
	if member == nil {
		return
	}
	if member.ID == auth.MemberID(r.Context()) {
		writeError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := h.memberStore.Delete(member.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		h.logger.Error("delete member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	h.broadcast(member.GroupID, websocket.NewMessage("member", "deleted", member.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
