package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"photoshare/internal/model"
)

// pageQuery is the ?page=&limit= pair shared by paginated endpoints.
type pageQuery struct {
	Page  int `validate:"min=1"`
	Limit int `validate:"min=1"`
}

// parsePageQuery reads page and limit, defaulting to page 1 and defaultLimit.
func parsePageQuery(r *http.Request, validate *validator.Validate, defaultLimit int) (pageQuery, error) {
	q := pageQuery{Page: 1, Limit: defaultLimit}

	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			return q, model.ErrInvalidPagination
		}
		q.Page = parsed
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			return q, model.ErrInvalidPagination
		}
		q.Limit = parsed
	}

	if err := validate.Struct(q); err != nil {
		return q, model.ErrInvalidPagination
	}
	return q, nil
}

// uuidParam parses a UUID path parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, model.ErrInvalidID
	}
	return id, nil
}

// userIDParam parses a positive numeric user id path parameter.
func userIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, model.ErrInvalidID
	}
	return id, nil
}
