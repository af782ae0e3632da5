package book

import (
	"errors"
	"log/slog"
	"net/http"

	"bookexchange/internal/httpx"
	"bookexchange/internal/platform/validation"
)

type HTTPHandler struct {
	service  *Service
	defaults PageDefaults
	logger   *slog.Logger
}

func NewHTTPHandler(service *Service, defaults PageDefaults, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, defaults: defaults, logger: logger}
}

// ByIDsReq is the body of POST /books/by-ids.
type ByIDsReq struct {
	IDs []string `json:"ids"`
}

// fail maps service errors onto responses. notFound is the message used for
// ErrNotFound.
func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error, notFound string) {
	if _, ok := validation.FieldsOf(err); ok {
		httpx.JSONValidationError(w, r, err)
		return
	}
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, notFound, nil)
		return
	}
	h.logger.Error(op+" failed", "error", err, "request_id", httpx.RequestIDFrom(r))
	httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error", nil)
}

func decodeFields(w http.ResponseWriter, r *http.Request) (Fields, bool) {
	var fields Fields
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		httpx.JSONDecodeError(w, r, err)
		return nil, false
	}
	if fields == nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return nil, false
	}
	return fields, true
}

// Create handles POST /books/
// @Summary Create a listing
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Book true "Listing fields; id and timestamps are ignored"
// @Success 201 {object} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /books/ [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	patch, err := ParsePatch(fields)
	if err != nil {
		httpx.JSONValidationError(w, r, err)
		return
	}

	b, err := h.service.Create(r.Context(), patch)
	if err != nil {
		h.fail(w, r, "create book", err, "Book not found")
		return
	}
	httpx.JSONSuccessCreated(w, b)
}

// GetAll handles GET /books/
// @Summary List every listing, newest first
// @Tags books
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Book
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /books/ [get]
func (h *HTTPHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetAll(r.Context())
	if err != nil {
		h.fail(w, r, "list books", err, "No books found")
		return
	}
	httpx.JSONSuccess(w, books)
}

// GetByID handles GET /books/{id}
// @Summary Get a listing
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book id"
// @Success 200 {object} Book
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "get book", err, "Book not found")
		return
	}
	httpx.JSONSuccess(w, b)
}

// GetByIDs handles POST /books/by-ids
// @Summary Fetch several listings by id
// @Description Unknown ids are skipped. Results are ordered newest first.
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ByIDsReq true "Ids to fetch"
// @Success 200 {array} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/by-ids [post]
func (h *HTTPHandler) GetByIDs(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	ids, err := ParseIDs(fields)
	if err != nil {
		httpx.JSONValidationError(w, r, err)
		return
	}

	books, err := h.service.GetByIDs(r.Context(), ids)
	if err != nil {
		h.fail(w, r, "get books by ids", err, "No books found")
		return
	}
	httpx.JSONSuccess(w, books)
}

// ListAvailable handles GET /books/available-books/
// @Summary Search available listings
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive match on title, author or genre"
// @Param page query int false "1-based page number"
// @Param limit query int false "Page size"
// @Success 200 {object} Page
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/available-books/ [get]
func (h *HTTPHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	pq, err := ParsePageQuery(r.URL.Query(), h.defaults)
	if err != nil {
		httpx.JSONValidationError(w, r, err)
		return
	}

	page, err := h.service.ListAvailable(r.Context(), pq)
	if err != nil {
		h.fail(w, r, "list available books", err, "No books found")
		return
	}
	httpx.JSONSuccess(w, page)
}

// ListByOwner handles GET /books/owner/{id}
// @Summary Search one owner's listings
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Owner id"
// @Param search query string false "Case-insensitive match on title, author or genre"
// @Param page query int false "1-based page number"
// @Param limit query int false "Page size"
// @Success 200 {object} Page
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/owner/{id} [get]
func (h *HTTPHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	pq, err := ParsePageQuery(r.URL.Query(), h.defaults)
	if err != nil {
		httpx.JSONValidationError(w, r, err)
		return
	}

	page, err := h.service.ListByOwner(r.Context(), r.PathValue("id"), pq)
	if err != nil {
		h.fail(w, r, "list owner books", err, "No books found")
		return
	}
	httpx.JSONSuccess(w, page)
}

// Update handles PUT /books/{id}
// @Summary Update a listing
// @Description Partial merge. publishedYear null clears the year.
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book id"
// @Param request body Book true "Fields to change"
// @Success 200 {object} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	patch, err := ParsePatch(fields)
	if err != nil {
		httpx.JSONValidationError(w, r, err)
		return
	}

	b, err := h.service.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, r, "update book", err, "Book not found")
		return
	}
	httpx.JSONSuccess(w, b)
}

// Delete handles DELETE /books/{id}
// @Summary Delete a listing
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book id"
// @Success 200 {object} httpx.MessageResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete book", err, "Book not found")
		return
	}
	httpx.JSONSuccess(w, httpx.MessageResponse{Message: "Book deleted successfully", ID: id})
}
