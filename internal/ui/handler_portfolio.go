package ui

import (
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/thep200/devfolio-sync/internal/model"
	"github.com/thep200/devfolio-sync/internal/store"
)

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

type portfolioPage struct {
	Portfolios []model.Portfolio `json:"portfolios"`
	Pagination Pagination        `json:"pagination"`
}

var sortKeys = map[string]func(a, b *model.Portfolio) int{
	"popularity":  func(a, b *model.Portfolio) int { return a.Popularity - b.Popularity },
	"followers":   func(a, b *model.Portfolio) int { return a.Followers - b.Followers },
	"stars":       func(a, b *model.Portfolio) int { return a.Stars - b.Stars },
	"lastFetched": func(a, b *model.Portfolio) int { return compareInt64(a.LastFetched, b.LastFetched) },
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// getPortfolios lists the store with optional search, sort and pagination
func (h *Handler) getPortfolios(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(query.Get("pageSize"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	sortBy := query.Get("sort")
	if sortBy == "" {
		sortBy = "username"
	}
	order := strings.ToLower(query.Get("order"))
	if order != "asc" && order != "desc" {
		order = "asc"
		if sortBy != "username" {
			order = "desc"
		}
	}
	compare, numeric := sortKeys[sortBy]
	if !numeric && sortBy != "username" {
		writeError(h, w, r, http.StatusBadRequest, "bad_request", "unsupported sort key: "+sortBy)
		return
	}

	portfolios, err := h.Store.Load(r.Context())
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to load portfolios: %v", err)
		writeError(h, w, r, http.StatusInternalServerError, "internal", "failed to load portfolios")
		return
	}

	// Search query
	if search := strings.ToLower(strings.TrimSpace(query.Get("search"))); search != "" {
		filtered := portfolios[:0]
		for _, p := range portfolios {
			if strings.Contains(strings.ToLower(p.Username), search) || strings.Contains(strings.ToLower(p.Name), search) {
				filtered = append(filtered, p)
			}
		}
		portfolios = filtered
	}

	// Username order is the base order; numeric sorts keep it for ties.
	model.SortByUsername(portfolios)
	if numeric {
		sort.SliceStable(portfolios, func(i, j int) bool {
			c := compare(&portfolios[i], &portfolios[j])
			if order == "desc" {
				return c > 0
			}
			return c < 0
		})
	} else if order == "desc" {
		for i, j := 0, len(portfolios)-1; i < j; i, j = i+1, j-1 {
			portfolios[i], portfolios[j] = portfolios[j], portfolios[i]
		}
	}

	total := len(portfolios)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	writeJSON(h, w, r, http.StatusOK, portfolioPage{
		Portfolios: append([]model.Portfolio{}, portfolios[start:end]...),
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
			TotalPages: (total + pageSize - 1) / pageSize,
		},
	})
}

func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	key := model.UsernameKey(chi.URLParam(r, "username"))

	portfolios, err := h.Store.Load(r.Context())
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to load portfolios: %v", err)
		writeError(h, w, r, http.StatusInternalServerError, "internal", "failed to load portfolios")
		return
	}

	for _, p := range portfolios {
		if p.Key() == key {
			writeJSON(h, w, r, http.StatusOK, p)
			return
		}
	}
	writeError(h, w, r, http.StatusNotFound, "not_found", "portfolio not found: "+key)
}

// getRawStore serves the store file as is when it is file backed, so
// clients can use it as the primary location of portfolios.json.
func (h *Handler) getRawStore(w http.ResponseWriter, r *http.Request) {
	if js, ok := h.Store.(*store.JSONStore); ok {
		if _, err := os.Stat(js.Path); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Cache-Control", "public, max-age=300")
			http.ServeFile(w, r, js.Path)
			return
		}
	}

	portfolios, err := h.Store.Load(r.Context())
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to load portfolios: %v", err)
		writeError(h, w, r, http.StatusInternalServerError, "internal", "failed to load portfolios")
		return
	}
	model.SortByUsername(portfolios)
	writeJSON(h, w, r, http.StatusOK, portfolios)
}
