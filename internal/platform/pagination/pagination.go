package pagination

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage acota page para que (page-1)*limit no desborde int.
	MaxPage = math.MaxInt / MaxLimit
)

type Request struct {
	Page  int
	Limit int
}

// New normaliza page/limit: page en [1,MaxPage], limit en [1,100].
func New(page, limit int) Request {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{Page: page, Limit: limit}
}

// FromQuery lee ?page=&limit=. El bool indica si vino alguno de los dos.
// Valores no numéricos (y limit=0) caen a los defaults.
func FromQuery(q url.Values) (Request, bool) {
	rawPage := strings.TrimSpace(q.Get("page"))
	rawLimit := strings.TrimSpace(q.Get("limit"))

	page, err := strconv.Atoi(rawPage)
	if err != nil {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(rawLimit)
	if err != nil || limit == 0 {
		limit = DefaultLimit
	}
	return New(page, limit), rawPage != "" || rawLimit != ""
}

func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Meta es la metadata de paginación. TotalKey define el nombre del total
// en JSON (totalClients, totalPatients, ...).
type Meta struct {
	CurrentPage int
	TotalPages  int
	Total       int
	HasNextPage bool
	HasPrevPage bool
	Limit       int
	TotalKey    string
}

func NewMeta(req Request, total int, totalKey string) Meta {
	pages := 0
	if total > 0 {
		pages = (total + req.Limit - 1) / req.Limit
	}
	return Meta{
		CurrentPage: req.Page,
		TotalPages:  pages,
		Total:       total,
		HasNextPage: req.Page < pages,
		HasPrevPage: req.Page > 1,
		Limit:       req.Limit,
		TotalKey:    totalKey,
	}
}

// Single describe un resultado sin paginar (ej: búsqueda): una sola página.
func Single(n int, totalKey string) Meta {
	limit := n
	if limit < 1 {
		limit = 1
	}
	return NewMeta(Request{Page: 1, Limit: limit}, n, totalKey)
}

func (m Meta) MarshalJSON() ([]byte, error) {
	key := m.TotalKey
	if key == "" {
		key = "total"
	}
	return json.Marshal(map[string]any{
		"currentPage": m.CurrentPage,
		"totalPages":  m.TotalPages,
		key:           m.Total,
		"hasNextPage": m.HasNextPage,
		"hasPrevPage": m.HasPrevPage,
		"limit":       m.Limit,
	})
}
