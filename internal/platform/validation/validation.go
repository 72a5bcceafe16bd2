// Package validation valida los payloads de entrada con reglas declarativas
// en tags `validate:"..."` y devuelve los errores campo por campo.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"vet-clinic/internal/platform/dates"

	"github.com/go-playground/validator/v10"
)

var (
	lettersRe   = regexp.MustCompile(`^[a-zA-Z\x{00C0}-\x{00FF}\x{00F1}\x{00D1}\s]+$`)
	phoneRe     = regexp.MustCompile(`^[\+]?[0-9\-\(\)\s]{7,20}$`)
	microchipRe = regexp.MustCompile(`^[A-Z0-9]+$`)
	clockRe     = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)

	pwdLower   = regexp.MustCompile(`[a-z]`)
	pwdUpper   = regexp.MustCompile(`[A-Z]`)
	pwdDigit   = regexp.MustCompile(`\d`)
	pwdSpecial = regexp.MustCompile(`[@$!%*?&]`)
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error agrupa todos los campos inválidos de un request.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "errores de validación: " + strings.Join(parts, "; ")
}

// Messages mapea "campo.regla" (o solo "campo") al mensaje a devolver.
type Messages map[string]string

func (m Messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return fmt.Sprintf("El campo %s no es válido", field)
}

type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock permite fijar "ahora" para reglas como notfuture (tests).
func NewWithClock(now func() time.Time) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	out := &Validator{v: v, now: now}

	mustRegister(v, "letters", matches(lettersRe))
	mustRegister(v, "phone", matches(phoneRe))
	mustRegister(v, "microchip", matches(microchipRe))
	mustRegister(v, "clock", matches(clockRe))
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return pwdLower.MatchString(s) && pwdUpper.MatchString(s) &&
			pwdDigit.MatchString(s) && pwdSpecial.MatchString(s)
	})
	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := dates.Parse(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "notfuture", func(fl validator.FieldLevel) bool {
		t, err := dates.Parse(fl.Field().String())
		if err != nil {
			return true // isodate ya lo reporta
		}
		return !t.After(out.now())
	})
	mustRegister(v, "dategte", compareDates(func(t, other time.Time) bool { return !t.Before(other) }))
	mustRegister(v, "dategt", compareDates(func(t, other time.Time) bool { return t.After(other) }))

	return out
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// compareDates compara el campo contra otro campo fecha del mismo struct
// (nombre Go en el parámetro). Si alguno falta o no parsea, no aplica.
func compareDates(ok func(t, other time.Time) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		t, err := dates.Parse(fl.Field().String())
		if err != nil {
			return true
		}
		parent := reflect.Indirect(fl.Parent())
		f := parent.FieldByName(fl.Param())
		if !f.IsValid() || f.Kind() != reflect.String {
			return true
		}
		other, err := dates.Parse(f.String())
		if err != nil {
			return true
		}
		return ok(t, other)
	}
}

// Struct valida s y devuelve *Error con un FieldError por cada campo inválido
// (el primero que falle por campo).
func (v *Validator) Struct(s any, msgs Messages) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	seen := map[string]bool{}
	for _, fe := range verrs {
		field := fe.Field()
		if seen[field] {
			continue
		}
		seen[field] = true
		out.Fields = append(out.Fields, FieldError{
			Field:   field,
			Message: msgs.lookup(field, fe.Tag()),
			Value:   fieldValue(fe.Value()),
		})
	}
	return out
}

func fieldValue(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	if rv.IsZero() {
		return nil
	}
	return v
}
