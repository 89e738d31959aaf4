package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jpriddy/chorewheel/internal/rotation"
	"github.com/jpriddy/chorewheel/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeErrorCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// domainStatus maps domain errors to an HTTP status and machine-readable
// code. Unrecognized errors come back as internal errors for the caller to
// log and mask.
func domainStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", true
	case errors.Is(err, store.ErrAlreadyCompleted):
		return http.StatusConflict, "ALREADY_COMPLETED", true
	case errors.Is(err, store.ErrNotCompleted):
		return http.StatusConflict, "NOT_COMPLETED", true
	case errors.Is(err, store.ErrPhotoRequired):
		return http.StatusBadRequest, "PHOTO_REQUIRED", true
	case errors.Is(err, store.ErrOutOfRange):
		return http.StatusConflict, "OUT_OF_RANGE", true
	case errors.Is(err, store.ErrInvalidPermutation):
		return http.StatusBadRequest, "INVALID_PERMUTATION", true
	case errors.Is(err, rotation.ErrNoMembersInRotation):
		return http.StatusPreconditionFailed, "NO_MEMBERS_IN_ROTATION", true
	case errors.Is(err, rotation.ErrNoChoresToAssign):
		return http.StatusPreconditionFailed, "NO_CHORES_TO_ASSIGN", true
	case errors.Is(err, rotation.ErrNoPreviousAssignments):
		return http.StatusPreconditionFailed, "NO_PREVIOUS_ASSIGNMENTS", true
	case errors.Is(err, rotation.ErrChoresNoLongerExist):
		return http.StatusPreconditionFailed, "CHORES_NO_LONGER_EXIST", true
	case errors.Is(err, rotation.ErrInvalidRotationRequest):
		return http.StatusBadRequest, "INVALID_ROTATION_REQUEST", true
	}
	return 0, "", false
}
