package http

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/blob"
	"github.com/assess-hub/assesshub-backend/internal/rbac"
)

// POST /assets/voice — multipart upload of a recording; the response URL is what a
// voice submission carries in voice_recording.
func UploadVoiceHandler(bs blob.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "missing file field: file"))
			return
		}
		defer f.Close()

		ext := strings.ToLower(path.Ext(hdr.Filename))
		key := path.Join("voice", rbac.SubjectFromContext(r.Context()), uuid.NewString()+ext)
		if _, err := bs.Put(key, f); err != nil {
			writeErr(w, err)
			return
		}
		url, err := bs.URL(key)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": url})
	}
}

// GET /assets/* — streams a stored artifact back by its key.
func DownloadAssetHandler(bs blob.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if key == "" || strings.Contains(key, "..") {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad asset key"))
			return
		}
		rc, err := bs.Get(key)
		if err != nil {
			writeErr(w, apperr.New(apperr.NotFound, "asset not found"))
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	}
}
