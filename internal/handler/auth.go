package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jpriddy/chorewheel/internal/auth"
	"github.com/jpriddy/chorewheel/internal/model"
	"github.com/jpriddy/chorewheel/internal/store"
)

type AuthHandler struct {
	groupStore  *store.GroupStore
	memberStore *store.MemberStore
	tokens      *auth.Tokens
	logger      *slog.Logger
}

func NewAuthHandler(gs *store.GroupStore, ms *store.MemberStore, tokens *auth.Tokens, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{groupStore: gs, memberStore: ms, tokens: tokens, logger: logger}
}

type authResponse struct {
	Token  string        `json:"token"`
	Member *model.Member `json:"member"`
	Group  *model.Group  `json:"group,omitempty"`
}

// Register creates a new group with its first member as admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupName string `json:"group_name"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.GroupName = strings.TrimSpace(req.GroupName)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.GroupName == "" || req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "group_name, name, email, and password are required")
		return
	}

	existing, err := h.memberStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("check email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	group, err := h.groupStore.Create(req.GroupName)
	if err != nil {
		h.logger.Error("create group", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	member, err := h.memberStore.Create(group.ID, req.Name, req.Email, hash, model.RoleAdmin, true)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	token, err := h.tokens.Issue(member.ID)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, Member: member, Group: group})
}

// Join adds a member to an existing group via its invite code.
func (h *AuthHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode string `json:"invite_code"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.InviteCode = strings.ToUpper(strings.TrimSpace(req.InviteCode))
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.InviteCode == "" || req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invite_code, name, email, and password are required")
		return
	}

	group, err := h.groupStore.GetByInviteCode(req.InviteCode)
	if err != nil {
		h.logger.Error("lookup invite code", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join")
		return
	}
	if group == nil {
		writeError(w, http.StatusNotFound, "invalid invite code")
		return
	}

	existing, err := h.memberStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("check email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join")
		return
	}

	member, err := h.memberStore.Create(group.ID, req.Name, req.Email, hash, model.RoleMember, true)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join")
		return
	}

	token, err := h.tokens.Issue(member.ID)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, Member: member, Group: group})
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	member, err := h.memberStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if member == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	hash, err := h.memberStore.GetPasswordHash(member.ID)
	if err != nil {
		h.logger.Error("get password hash", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if !auth.CheckPassword(hash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.tokens.Issue(member.ID)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, Member: member})
}
