package pagination

import (
	"encoding/json"
	"net/url"
	"testing"
)

func TestNew_Clamp(t *testing.T) {
	cases := []struct {
		page, limit  int
		wantP, wantL int
	}{
		{0, 0, 1, 1},
		{-3, 5, 1, 5},
		{2, 500, 2, 100},
		{4, -1, 4, 1},
		{1, 100, 1, 100},
	}
	for _, c := range cases {
		got := New(c.page, c.limit)
		if got.Page != c.wantP || got.Limit != c.wantL {
			t.Fatalf("New(%d,%d) = %+v, want page=%d limit=%d", c.page, c.limit, got, c.wantP, c.wantL)
		}
	}
}

func TestFromQuery_Defaults(t *testing.T) {
	req, given := FromQuery(url.Values{})
	if given {
		t.Fatalf("expected given=false for empty query")
	}
	if req.Page != DefaultPage || req.Limit != DefaultLimit {
		t.Fatalf("unexpected defaults: %+v", req)
	}

	req, given = FromQuery(url.Values{"page": {"abc"}, "limit": {"xyz"}})
	if !given || req.Page != 1 || req.Limit != 10 {
		t.Fatalf("non numeric values should fall back to defaults, got %+v given=%v", req, given)
	}

	req, _ = FromQuery(url.Values{"page": {"3"}, "limit": {"250"}})
	if req.Page != 3 || req.Limit != 100 || req.Offset() != 200 {
		t.Fatalf("unexpected request: %+v offset=%d", req, req.Offset())
	}

	req, _ = FromQuery(url.Values{"limit": {"0"}})
	if req.Limit != DefaultLimit {
		t.Fatalf("limit=0 should fall back to default, got %d", req.Limit)
	}
	req, _ = FromQuery(url.Values{"page": {"9223372036854775807"}, "limit": {"100"}})
	if req.Page != MaxPage || req.Offset() < 0 {
		t.Fatalf("huge page should clamp without overflow, got %+v offset=%d", req, req.Offset())
	}
	req, _ = FromQuery(url.Values{"limit": {"-4"}})
	if req.Limit != 1 {
		t.Fatalf("negative limit should clamp to 1, got %d", req.Limit)
	}
}

// Para cualquier total y limit (ya acotado), totalPages == ceil(total/limit)
// y hasNextPage implica que la página actual no pasa del total.
func TestNewMeta_Invariants(t *testing.T) {
	for total := 0; total <= 57; total++ {
		for _, rawLimit := range []int{-5, 0, 1, 3, 10, 100, 1000} {
			for page := 1; page <= 8; page++ {
				req := New(page, rawLimit)
				m := NewMeta(req, total, "totalClients")

				want := total / req.Limit
				if total%req.Limit != 0 {
					want++
				}
				if m.TotalPages != want {
					t.Fatalf("total=%d limit=%d: totalPages=%d want %d", total, req.Limit, m.TotalPages, want)
				}
				if m.HasNextPage && !(m.CurrentPage*m.Limit-m.Limit < total) {
					t.Fatalf("total=%d limit=%d page=%d: hasNextPage with page past the end", total, req.Limit, page)
				}
				if m.HasPrevPage != (page > 1) {
					t.Fatalf("page=%d: hasPrevPage=%v", page, m.HasPrevPage)
				}
			}
		}
	}
}

func TestMeta_MarshalJSON_TotalKey(t *testing.T) {
	b, err := json.Marshal(NewMeta(New(2, 10), 25, "totalPatients"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["totalPatients"] != float64(25) || got["totalPages"] != float64(3) {
		t.Fatalf("unexpected meta: %s", string(b))
	}
	if got["hasNextPage"] != true || got["hasPrevPage"] != true {
		t.Fatalf("unexpected flags: %s", string(b))
	}
}
