package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jpriddy/chorewheel/internal/auth"
	"github.com/jpriddy/chorewheel/internal/store"
)

const (
	maxPhotoCount = 3
	maxPhotoSize  = 5 << 20 // 5MB per file
)

type PhotoHandler struct {
	assignmentStore *store.AssignmentStore
	uploadDir       string
	logger          *slog.Logger
}

func NewPhotoHandler(as *store.AssignmentStore, uploadDir string, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{assignmentStore: as, uploadDir: uploadDir, logger: logger}
}

// Upload accepts up to three image files for an assignment and stores them
// under random filenames. It returns the bare filenames for the client to
// attach to the completion request. Members may upload only for their own
// assignments; admins for any in the group.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.assignmentStore.GetByID(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload photos")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if a.GroupID != auth.GroupID(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if a.MemberID != auth.MemberID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "can only upload for your own assignments")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoCount*maxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no photos uploaded")
		return
	}
	if len(files) > maxPhotoCount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d photos per upload", maxPhotoCount))
		return
	}

	saved := make([]string, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxPhotoSize {
			writeError(w, http.StatusBadRequest, "photo exceeds 5MB limit")
			return
		}
		if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
			writeError(w, http.StatusBadRequest, "only image files are accepted")
			return
		}

		name, err := h.saveFile(fh)
		if err != nil {
			h.logger.Error("save photo", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save photo")
			return
		}
		saved = append(saved, name)
	}

	writeJSON(w, http.StatusCreated, map[string][]string{"photo_paths": saved})
}

func (h *PhotoHandler) saveFile(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic":
	default:
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write photo file: %w", err)
	}
	return name, nil
}

// Serve returns a stored photo. Only members of the group whose assignment
// holds the photo may view it.
func (h *PhotoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	a, err := h.assignmentStore.FindByPhotoPath(name)
	if err != nil {
		h.logger.Error("lookup photo", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to serve photo")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	if a.GroupID != auth.GroupID(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	path := filepath.Join(h.uploadDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	http.ServeFile(w, r, path)
}
