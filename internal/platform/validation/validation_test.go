package validation

import (
	"errors"
	"testing"
	"time"
)

type petPayload struct {
	Name      string   `json:"name" validate:"required,min=2,max=100"`
	Species   string   `json:"species" validate:"required,min=2,max=50,letters"`
	Age       *float64 `json:"age" validate:"required,gte=0,lte=50"`
	Microchip string   `json:"microchip" validate:"omitempty,min=10,max=20,microchip"`
	BirthDate string   `json:"birthDate" validate:"omitempty,isodate,notfuture"`
	LastVisit string   `json:"lastVisit" validate:"omitempty,isodate"`
	NextVisit string   `json:"nextVisit" validate:"omitempty,isodate,dategte=LastVisit"`
	Time      string   `json:"time" validate:"omitempty,clock"`
	Phone     string   `json:"phone" validate:"omitempty,phone"`
	Password  string   `json:"password" validate:"omitempty,min=8,max=128,password"`
}

var petMessages = Messages{
	"name.required":     "El nombre es requerido",
	"name":              "El nombre debe tener entre 2 y 100 caracteres",
	"species.letters":   "La especie solo puede contener letras y espacios",
	"age":               "La edad debe ser un número entre 0 y 50",
	"nextVisit.dategte": "La próxima visita no puede ser anterior a la última visita",
}

func fixedClock() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

func ptr(f float64) *float64 { return &f }

func fieldsOf(t *testing.T, err error) map[string]FieldError {
	t.Helper()
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	out := map[string]FieldError{}
	for _, f := range verr.Fields {
		out[f.Field] = f
	}
	return out
}

func TestStruct_Valid(t *testing.T) {
	v := NewWithClock(fixedClock)
	err := v.Struct(petPayload{
		Name:      "Firulais",
		Species:   "Perro Pequeño",
		Age:       ptr(0),
		Microchip: "ABC1234567",
		BirthDate: "2020-01-01",
		LastVisit: "2024-01-01",
		NextVisit: "2024-01-01",
		Time:      "9:30",
		Phone:     "+54 (11) 5555-1234",
		Password:  "Secr3t!ok",
	}, petMessages)
	if err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestStruct_CollectsFieldErrors(t *testing.T) {
	v := NewWithClock(fixedClock)
	err := v.Struct(petPayload{
		Name:      "",
		Species:   "Perro3",
		Age:       ptr(51),
		Microchip: "abc1234567",
		BirthDate: "2030-01-01",
		LastVisit: "2024-05-01",
		NextVisit: "2024-04-01",
		Time:      "25:00",
		Phone:     "12",
		Password:  "alllowercase1!",
	}, petMessages)

	got := fieldsOf(t, err)
	if got["name"].Message != "El nombre es requerido" {
		t.Fatalf("unexpected name message: %+v", got["name"])
	}
	if got["species"].Message != "La especie solo puede contener letras y espacios" {
		t.Fatalf("unexpected species message: %+v", got["species"])
	}
	if got["age"].Message != "La edad debe ser un número entre 0 y 50" || got["age"].Value != float64(51) {
		t.Fatalf("unexpected age error: %+v", got["age"])
	}
	if got["nextVisit"].Message != "La próxima visita no puede ser anterior a la última visita" {
		t.Fatalf("unexpected nextVisit error: %+v", got["nextVisit"])
	}
	for _, f := range []string{"microchip", "birthDate", "time", "phone", "password"} {
		if _, ok := got[f]; !ok {
			t.Fatalf("expected error for %s, got %+v", f, got)
		}
	}
	if _, ok := got["lastVisit"]; ok {
		t.Fatalf("lastVisit is valid, should not be reported")
	}
}

func TestStruct_MissingRequiredPointer(t *testing.T) {
	v := NewWithClock(fixedClock)
	err := v.Struct(petPayload{Name: "Mia", Species: "Gato"}, petMessages)
	got := fieldsOf(t, err)
	if len(got) != 1 || got["age"].Field != "age" {
		t.Fatalf("expected only age to fail, got %+v", got)
	}
	if got["age"].Value != nil {
		t.Fatalf("missing value should be omitted, got %v", got["age"].Value)
	}
}

func TestStruct_DefaultMessage(t *testing.T) {
	v := NewWithClock(fixedClock)
	err := v.Struct(petPayload{Name: "Mia", Species: "Gato", Age: ptr(2), Time: "7pm"}, petMessages)
	got := fieldsOf(t, err)
	if got["time"].Message != "El campo time no es válido" {
		t.Fatalf("unexpected fallback message: %+v", got["time"])
	}
}
