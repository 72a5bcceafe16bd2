package stats

import (
	"encoding/json"
	"sort"
)

// Group es un conteo agrupado por una clave (especie, estado, tipo...).
type Group struct {
	Key   string
	Count int
}

// Sort ordena por count desc y, a igual count, por clave asc.
func Sort(gs []Group) []Group {
	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].Count != gs[j].Count {
			return gs[i].Count > gs[j].Count
		}
		return gs[i].Key < gs[j].Key
	})
	return gs
}

// FromMap arma grupos ordenados a partir de un conteo en memoria.
func FromMap(m map[string]int) []Group {
	out := make([]Group, 0, len(m))
	for k, n := range m {
		out = append(out, Group{Key: k, Count: n})
	}
	return Sort(out)
}

// Labeled serializa los grupos como [{"<label>": key, "count": n}].
type Labeled struct {
	Label  string
	Groups []Group
}

func (l Labeled) MarshalJSON() ([]byte, error) {
	out := make([]map[string]any, 0, len(l.Groups))
	for _, g := range l.Groups {
		out = append(out, map[string]any{l.Label: g.Key, "count": g.Count})
	}
	return json.Marshal(out)
}
