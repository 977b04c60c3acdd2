package api

import (
	"fmt"
	"github.com/go-json-experiment/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/grimoireapp/grimoire-server/internal/http/response"
	"github.com/grimoireapp/grimoire-server/internal/media/images"
)

// maxUploadSize bounds multipart uploads, covers included.
const maxUploadSize = 10 << 20 // 10MB

// decodeJSON reads and decodes a JSON request body into dest.
func decodeJSON(r io.Reader, dest any) error {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadSize))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// decodeAndValidate decodes a JSON body and runs struct validation on it.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeJSON(r.Body, dest); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return false
	}
	if err := s.validator.Validate(dest); err != nil {
		response.HandleError(w, err, s.logger)
		return false
	}
	return true
}

// spoolUpload copies an uploaded multipart file to a temp path and wraps it
// as an Upload for the asset manager. The manager removes the temp file once
// the optimized copy is stored.
func spoolUpload(file multipart.File, header *multipart.FileHeader) (*images.Upload, error) {
	tmp, err := os.CreateTemp("", "grimoire-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp upload: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("close temp upload: %w", err)
	}

	return &images.Upload{
		TempPath:    tmp.Name(),
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
