package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/grimoireapp/grimoire-server/internal/http/response"
	"github.com/grimoireapp/grimoire-server/internal/media/images"
	"github.com/grimoireapp/grimoire-server/internal/service"
)

// BookPayload is the JSON part of a multipart book create or update.
type BookPayload struct {
	Title  string `json:"title" validate:"required,max=200"`
	Author string `json:"author" validate:"required,max=150"`
	Genre  string `json:"genre" validate:"required,max=100"`
	Year   int    `json:"year" validate:"required,gte=0,lte=2100"`
}

// RatingRequest is the request body for submitting a rating. Range checks
// happen in the service so out-of-range grades get a distinct error.
type RatingRequest struct {
	Grade int `json:"grade"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.bookService.List(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, books, s.logger)
}

func (s *Server) handleBestRating(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, "limit must be a positive integer", s.logger)
			return
		}
		limit = n
	}

	books, err := s.ratingService.TopRated(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, books, s.logger)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.bookService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, book, s.logger)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	payload, upload, ok := s.parseBookForm(w, r, true)
	if !ok {
		return
	}

	book, err := s.bookService.Create(r.Context(), getUserID(r.Context()), toInput(payload), *upload)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	var payload *BookPayload
	var upload *images.Upload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var ok bool
		payload, upload, ok = s.parseBookForm(w, r, false)
		if !ok {
			return
		}
	} else {
		payload = &BookPayload{}
		if !s.decodeAndValidate(w, r, payload) {
			return
		}
	}

	book, err := s.bookService.Update(r.Context(), getUserID(r.Context()), bookID, toInput(payload), upload)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	if err := s.bookService.Delete(r.Context(), getUserID(r.Context()), bookID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, http.StatusOK, "Book deleted", s.logger)
}

func (s *Server) handleRateBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	var req RatingRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	book, err := s.ratingService.Submit(r.Context(), bookID, getUserID(r.Context()), req.Grade)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// parseBookForm extracts the "book" JSON part and the "image" file from a
// multipart form. The file is required when requireImage is set, optional
// otherwise. On failure the response has already been written.
func (s *Server) parseBookForm(w http.ResponseWriter, r *http.Request, requireImage bool) (*BookPayload, *images.Upload, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return nil, nil, false
	}

	raw := r.FormValue("book")
	if raw == "" {
		response.BadRequest(w, "Missing 'book' field in multipart form", s.logger)
		return nil, nil, false
	}

	payload := &BookPayload{}
	if err := decodeJSON(strings.NewReader(raw), payload); err != nil {
		response.BadRequest(w, "Invalid 'book' JSON", s.logger)
		return nil, nil, false
	}
	if err := s.validator.Validate(payload); err != nil {
		response.HandleError(w, err, s.logger)
		return nil, nil, false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if requireImage {
			response.BadRequest(w, "No file uploaded. Use 'image' field in multipart form", s.logger)
			return nil, nil, false
		}
		return payload, nil, true
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		response.BadRequest(w, "File too large. Maximum size is 10MB", s.logger)
		return nil, nil, false
	}

	upload, err := spoolUpload(file, header)
	if err != nil {
		s.logger.Error("failed to spool upload", "error", err)
		response.InternalError(w, "Failed to read uploaded file", s.logger)
		return nil, nil, false
	}

	return payload, upload, true
}

func toInput(p *BookPayload) service.BookInput {
	return service.BookInput{
		Title:  p.Title,
		Author: p.Author,
		Genre:  p.Genre,
		Year:   p.Year,
	}
}
