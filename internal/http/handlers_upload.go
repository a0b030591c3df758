package http

import (
	"io"
	"net/http"
	"strings"
)

// maxScreenshotBytes caps the multipart upload size at 10 MiB.
const maxScreenshotBytes = 10 << 20

func (s *Server) handleUploadScreenshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxScreenshotBytes)
	if err := r.ParseMultipartForm(maxScreenshotBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	sourceApp := strings.TrimSpace(r.FormValue("source_app"))
	if sourceApp == "" {
		writeError(w, http.StatusUnprocessableEntity, "source_app is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "file is empty")
		return
	}

	result, err := s.uploads.ProcessScreenshot(r.Context(), image, sourceApp)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
