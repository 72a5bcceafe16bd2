package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func echoBody(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	})
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid json %q: %v", rr.Body.String(), err)
	}
	return m
}

func TestSanitizeJSON_TrimsAndDropsEmpty(t *testing.T) {
	body := `{"name":"  Firulais  ","breed":"   ","color":null,"weight":12.5,"tags":[" a "]}`
	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	SanitizeJSON(echoBody(t)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	m := decode(t, rr)
	if m["name"] != "Firulais" {
		t.Fatalf("expected trimmed name, got %v", m["name"])
	}
	if _, ok := m["breed"]; ok {
		t.Fatalf("expected breed dropped")
	}
	if _, ok := m["color"]; ok {
		t.Fatalf("expected color dropped")
	}
	if m["weight"] != 12.5 {
		t.Fatalf("expected weight kept, got %v", m["weight"])
	}
}

func TestSanitizeJSON_Malformed(t *testing.T) {
	for _, body := range []string{`{"name":`, `{"a":1} x`, `nope`} {
		req := httptest.NewRequest(http.MethodPut, "/clients/1", strings.NewReader(body))
		rr := httptest.NewRecorder()

		SanitizeJSON(echoBody(t)).ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", body, rr.Code)
		}
		if m := decode(t, rr); m["message"] != MsgMalformed || m["success"] != false {
			t.Fatalf("%q: unexpected body %v", body, m)
		}
	}
}

func TestContentType(t *testing.T) {
	cases := []struct {
		method, ct, body string
		want             int
	}{
		{http.MethodPost, "application/json", `{}`, http.StatusOK},
		{http.MethodPost, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{http.MethodPost, "text/plain", `{}`, http.StatusBadRequest},
		{http.MethodPut, "", `{}`, http.StatusBadRequest},
		{http.MethodGet, "", ``, http.StatusOK},
		{http.MethodDelete, "text/plain", ``, http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, "/clients", strings.NewReader(tc.body))
		if tc.ct != "" {
			req.Header.Set("Content-Type", tc.ct)
		}
		rr := httptest.NewRecorder()

		ContentType(echoBody(t)).ServeHTTP(rr, req)

		if rr.Code != tc.want {
			t.Fatalf("%s %q: expected %d, got %d", tc.method, tc.ct, tc.want, rr.Code)
		}
	}
}

func TestRequestID_EchoesOrGenerates(t *testing.T) {
	var seen string
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if seen != "abc-123" || rr.Header().Get(HeaderRequestID) != "abc-123" {
		t.Fatalf("expected incoming id echoed, got %q / %q", seen, rr.Header().Get(HeaderRequestID))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if len(rr.Header().Get(HeaderRequestID)) != 36 {
		t.Fatalf("expected generated uuid, got %q", rr.Header().Get(HeaderRequestID))
	}
}

func TestRecover_Returns500Envelope(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte(`"success":false`)) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}
