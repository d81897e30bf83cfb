package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
)

// pathID parses the named URL parameter as a positive ID
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("resource not found").With(name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.InvalidQuery(name+" must be an integer").With(name, raw)
	}
	return n, nil
}

// queryInt64 parses an optional 64-bit integer query parameter
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.InvalidQuery(name+" must be an integer").With(name, raw)
	}
	return &n, nil
}

// pageParams reads page and size. An explicit size of zero is rejected;
// an absent size selects the default.
func pageParams(r *http.Request) (page, size int, err error) {
	if page, err = queryInt(r, "page"); err != nil {
		return 0, 0, err
	}
	if size, err = queryInt(r, "size"); err != nil {
		return 0, 0, err
	}
	if size == 0 && r.URL.Query().Get("size") != "" {
		return 0, 0, apperror.InvalidQuery("size must be between 1 and 100").With("size", size)
	}
	return page, size, nil
}

func parseItemParams(r *http.Request) (models.ItemParams, error) {
	q := r.URL.Query()
	params := models.ItemParams{
		Keyword: q.Get("keyword"),
		Status:  models.ItemStatus(q.Get("status")),
		Sort:    q.Get("sort"),
	}

	var err error
	if params.Page, params.Size, err = pageParams(r); err != nil {
		return params, err
	}
	if params.CategoryID, err = queryInt64(r, "category_id"); err != nil {
		return params, err
	}
	if params.MinPrice, err = queryInt64(r, "min_price"); err != nil {
		return params, err
	}
	if params.MaxPrice, err = queryInt64(r, "max_price"); err != nil {
		return params, err
	}
	return params, nil
}

func parseBidParams(r *http.Request) (models.BidParams, error) {
	params := models.BidParams{Sort: r.URL.Query().Get("sort")}

	var err error
	params.Page, params.Size, err = pageParams(r)
	return params, err
}

func parseOrderParams(r *http.Request) (models.OrderParams, error) {
	q := r.URL.Query()
	params := models.OrderParams{
		Status: models.OrderStatus(q.Get("status")),
		Sort:   q.Get("sort"),
	}

	var err error
	params.Page, params.Size, err = pageParams(r)
	return params, err
}

func parseUserParams(r *http.Request) (models.UserParams, error) {
	q := r.URL.Query()
	params := models.UserParams{
		Keyword: q.Get("keyword"),
		Sort:    q.Get("sort"),
	}

	var err error
	params.Page, params.Size, err = pageParams(r)
	return params, err
}
