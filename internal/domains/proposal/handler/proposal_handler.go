package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"bookshelf-backend/internal/domains/proposal/model"
	"bookshelf-backend/internal/domains/proposal/service"
	"bookshelf-backend/internal/shared/middleware"
	"bookshelf-backend/internal/shared/response"
)

// maxCoverSize caps the uploaded cover image at 5 MB.
const maxCoverSize = 5 << 20

type ProposalHandler struct {
	service service.Service
}

func NewProposalHandler(svc service.Service) *ProposalHandler {
	return &ProposalHandler{
		service: svc,
	}
}

// CreateBook handles POST /v1/proposals/books.
// Accepts JSON, or multipart/form-data when a cover image is attached
// (fields mirror the JSON keys, plus a "cover_image" file part).
func (h *ProposalHandler) CreateBook(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.CreateBookProposalRequest
	var err error

	if isMultipart(c) {
		req, err = bindBookMultipart(c)
	} else {
		err = c.BindJSON(&req)
	}
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	created, svcErr := h.service.CreateBookProposal(c.Request.Context(), identity, req)
	if svcErr != nil {
		h.respondError(c, svcErr)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// CreateAuthor handles POST /v1/proposals/authors.
func (h *ProposalHandler) CreateAuthor(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.CreateAuthorProposalRequest
	if err := c.BindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	created, err := h.service.CreateAuthorProposal(c.Request.Context(), identity, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// List handles GET /v1/proposals?status=&limit=&offset= (moderation view).
func (h *ProposalHandler) List(c *gin.Context) {
	h.list(c, false)
}

// ListMine handles GET /v1/proposals/mine?status=&limit=&offset=.
func (h *ProposalHandler) ListMine(c *gin.Context) {
	h.list(c, true)
}

func (h *ProposalHandler) list(c *gin.Context, mine bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	status := c.Query("status")
	limit := parseQueryInt(c, "limit", 20)
	offset := parseQueryInt(c, "offset", 0)

	var (
		proposals []model.Proposal
		total     int64
		err       error
	)
	if mine {
		proposals, total, err = h.service.ListMine(c.Request.Context(), identity, status, limit, offset)
	} else {
		proposals, total, err = h.service.List(c.Request.Context(), identity, status, limit, offset)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	if proposals == nil {
		proposals = []model.Proposal{}
	}

	response.SuccessWithMeta(c, http.StatusOK, proposals, &response.Meta{
		Limit:  limit,
		Offset: offset,
		Total:  int(total),
	})
}

// GetByID handles GET /v1/proposals/:id.
func (h *ProposalHandler) GetByID(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	proposal, err := h.service.GetByID(c.Request.Context(), identity, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, proposal)
}

// Update handles PATCH /v1/proposals/:id (pending book proposals only).
func (h *ProposalHandler) Update(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	var patch model.UpdateBookProposalRequest
	if err := c.BindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.service.UpdateBookProposal(c.Request.Context(), identity, id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// Approve handles POST /v1/proposals/:id/approve.
func (h *ProposalHandler) Approve(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	result, err := h.service.Approve(c.Request.Context(), identity, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Reject handles POST /v1/proposals/:id/reject.
func (h *ProposalHandler) Reject(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	var req model.RejectProposalRequest
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	rejected, err := h.service.Reject(c.Request.Context(), identity, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rejected)
}

func (h *ProposalHandler) respondError(c *gin.Context, err error) {
	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "validation failed", validationErrs)
		return
	}

	switch {
	case errors.Is(err, model.ErrInvalidInput):
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, model.ErrUnauthenticated):
		response.ErrorResponse(c, http.StatusUnauthorized, model.ErrCodeUnauthenticated, err.Error())
	case errors.Is(err, model.ErrForbidden):
		response.ErrorResponse(c, http.StatusForbidden, model.ErrCodeForbidden, err.Error())
	case errors.Is(err, model.ErrProposalNotFound):
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeNotFound, err.Error())
	case errors.Is(err, model.ErrProposalNotPending):
		response.ErrorResponse(c, http.StatusConflict, model.ErrCodeNotPending, err.Error())
	default:
		response.InternalServerError(c, "something went wrong")
	}
}

func isMultipart(c *gin.Context) bool {
	contentType := c.ContentType()
	return contentType == "multipart/form-data"
}

func bindBookMultipart(c *gin.Context) (model.CreateBookProposalRequest, error) {
	var req model.CreateBookProposalRequest

	req.Title = c.PostForm("title")
	req.ISBN = formValue(c, "isbn")
	req.Edition = formValue(c, "edition")
	req.Summary = formValue(c, "summary")
	req.ReleaseDate = formValue(c, "release_date")
	req.AuthorNames = c.PostFormArray("author_names")
	req.GenreNames = c.PostFormArray("genre_names")

	if volumeStr := c.PostForm("volume"); volumeStr != "" {
		volume, err := strconv.Atoi(volumeStr)
		if err != nil {
			return req, errors.New("volume must be an integer")
		}
		req.Volume = &volume
	}

	file, header, err := c.Request.FormFile("cover_image")
	if err == http.ErrMissingFile {
		return req, nil
	}
	if err != nil {
		return req, err
	}
	defer file.Close()

	if header.Size > maxCoverSize {
		return req, errors.New("cover image exceeds the 5 MB limit")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxCoverSize+1))
	if err != nil {
		return req, err
	}
	if len(data) > maxCoverSize {
		return req, errors.New("cover image exceeds the 5 MB limit")
	}

	req.CoverImage = data
	req.CoverContentType = header.Header.Get("Content-Type")

	return req, nil
}

func formValue(c *gin.Context, key string) *string {
	if value, ok := c.GetPostForm(key); ok {
		return &value
	}
	return nil
}

func parseQueryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
