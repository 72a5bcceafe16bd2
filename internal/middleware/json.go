package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"vet-clinic/internal/platform/httpx"
)

const (
	MsgContentType = "Content-Type debe ser application/json"
	MsgMalformed   = "JSON malformado"
	msgMalformed   = "La estructura del JSON enviado no es válida"
)

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}

// ContentType exige application/json en POST/PUT/PATCH con cuerpo.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBody(r) {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mt != "application/json" {
				httpx.Fail(w, http.StatusBadRequest, MsgContentType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SanitizeJSON rechaza JSON malformado y, en objetos, recorta strings y
// descarta los campos "" o null del primer nivel.
func SanitizeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasBody(r) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, MsgMalformed)
			return
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			setBody(r, raw)
			next.ServeHTTP(w, r)
			return
		}

		clean, err := sanitize(raw)
		if err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.Envelope{
				Success: false,
				Message: MsgMalformed,
				Error:   msgMalformed,
			})
			return
		}
		setBody(r, clean)
		next.ServeHTTP(w, r)
	})
}

func sanitize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	// basura después del primer valor
	if _, err := dec.Token(); err != io.EOF {
		return nil, io.ErrUnexpectedEOF
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return raw, nil
	}
	for k, val := range obj {
		switch t := val.(type) {
		case nil:
			delete(obj, k)
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(obj, k)
				continue
			}
			obj[k] = s
		}
	}
	return json.Marshal(obj)
}

func setBody(r *http.Request, b []byte) {
	r.Body = io.NopCloser(bytes.NewReader(b))
	r.ContentLength = int64(len(b))
	r.Header.Set("Content-Length", strconv.Itoa(len(b)))
}
