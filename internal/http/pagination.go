package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aapiden/storefront/internal/domain"
)

// parsePage reads page and pageSize, defaulting to the first page of ten.
func parsePage(r *http.Request) (domain.PageRequest, error) {
	page, err := queryInt(r, "page", domain.DefaultPage)
	if err != nil {
		return domain.PageRequest{}, err
	}
	size, err := queryInt(r, "pageSize", domain.DefaultPageSize)
	if err != nil {
		return domain.PageRequest{}, err
	}
	return domain.NewPageRequest(page, size)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
	}
	return n, nil
}
