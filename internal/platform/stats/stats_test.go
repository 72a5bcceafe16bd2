package stats

import (
	"encoding/json"
	"testing"
)

func TestFromMap_SortedByCountThenKey(t *testing.T) {
	got := FromMap(map[string]int{"Gato": 2, "Perro": 5, "Ave": 2, "Conejo": 1})

	want := []Group{{"Perro", 5}, {"Ave", 2}, {"Gato", 2}, {"Conejo", 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestLabeled_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Labeled{Label: "species", Groups: []Group{{"Perro", 3}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `[{"count":3,"species":"Perro"}]` {
		t.Fatalf("unexpected json: %s", string(b))
	}

	b, _ = json.Marshal(Labeled{Label: "status"})
	if string(b) != `[]` {
		t.Fatalf("empty groups should render [], got %s", string(b))
	}
}
