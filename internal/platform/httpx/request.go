package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

const maxSearchLen = 100

var (
	ErrInvalidID   = apperr.Invalid(MsgInvalidID, "id")
	ErrBadBody     = apperr.Invalid("El cuerpo de la solicitud no es válido", "")
	ErrSearchTerm  = apperr.Invalid("El término de búsqueda es requerido", "q")
	ErrSearchLarge = apperr.Invalid("El término de búsqueda no puede exceder 100 caracteres", "q")
)

// ParseID lee un id numérico positivo del path param name.
func ParseID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Invalid(MsgInvalidID, name)
	}
	return id, nil
}

// DecodeJSON decodifica el body en dst. El middleware SanitizeJSON ya
// rechazó JSON malformado, acá solo fallan tipos incompatibles.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrBadBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ErrBadBody
	}
	return nil
}

// SearchTerm lee ?q= (o ?search=) y aplica las reglas de búsqueda.
func SearchTerm(r *http.Request) (string, error) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		q = strings.TrimSpace(r.URL.Query().Get("search"))
	}
	if q == "" {
		return "", ErrSearchTerm
	}
	if len([]rune(q)) > maxSearchLen {
		return "", ErrSearchLarge
	}
	return q, nil
}

func asValidation(err error, target **validation.Error) bool {
	return errors.As(err, target)
}
