package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	sonic "github.com/bytedance/sonic"
)

// Query carries equality filters plus ordering clauses applied in declared
// order. The realtime backend can only order on one key server-side, so the
// layer always evaluates the full query client-side; both backends thus
// agree on results regardless of their native query power.
type Query struct {
	filters []filterClause
	orders  []orderClause
}

type filterClause struct {
	field string
	value any
}

type orderClause struct {
	field string
	desc  bool
}

func NewQuery() Query {
	return Query{}
}

// Eq adds an equality filter on a top-level JSON field.
func (q Query) Eq(field string, value any) Query {
	q.filters = append(append([]filterClause(nil), q.filters...), filterClause{field: field, value: value})
	return q
}

// OrderBy appends an ascending ordering key.
func (q Query) OrderBy(field string) Query {
	q.orders = append(append([]orderClause(nil), q.orders...), orderClause{field: field})
	return q
}

// OrderByDesc appends a descending ordering key.
func (q Query) OrderByDesc(field string) Query {
	q.orders = append(append([]orderClause(nil), q.orders...), orderClause{field: field, desc: true})
	return q
}

type queryDoc struct {
	raw    RawDoc
	fields map[string]any
}

func decodeQueryDoc(raw RawDoc) (queryDoc, error) {
	fields := map[string]any{}
	if err := sonic.Unmarshal(raw.Data, &fields); err != nil {
		return queryDoc{}, err
	}
	return queryDoc{raw: raw, fields: fields}, nil
}

func (q Query) matches(doc queryDoc) bool {
	for _, f := range q.filters {
		if !valuesEqual(doc.fields[f.field], f.value) {
			return false
		}
	}
	return true
}

// apply filters and sorts docs. Sorting always falls back to the document ID
// so results are deterministic regardless of backend iteration order.
func (q Query) apply(docs []queryDoc) []queryDoc {
	out := make([]queryDoc, 0, len(docs))
	for _, d := range docs {
		if q.matches(d) {
			out = append(out, d)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range q.orders {
			c := compareValues(out[i].fields[o.field], out[j].fields[o.field])
			if c == 0 {
				continue
			}
			if o.desc {
				return c > 0
			}
			return c < 0
		}
		return out[i].raw.ID < out[j].raw.ID
	})

	return out
}

func valuesEqual(a, b any) bool {
	return compareValues(a, b) == 0
}

// compareValues orders JSON scalars: nil first, then bools, numbers,
// strings. Mixed kinds compare by kind rank so sorting stays total. Named
// types (enums declared as string or int kinds) normalize to their
// underlying scalar first.
func compareValues(a, b any) int {
	a, b = normalizeScalar(a), normalizeScalar(b)
	ka, kb := valueKind(a), valueKind(b)
	if ka != kb {
		return ka - kb
	}

	switch ka {
	case kindNil:
		return 0
	case kindBool:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case kindNumber:
		av, bv := toFloat(a), toFloat(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case kindString:
		return strings.Compare(toString(a), toString(b))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

const (
	kindNil = iota
	kindBool
	kindNumber
	kindString
	kindOther
)

func normalizeScalar(v any) any {
	switch v.(type) {
	case nil, bool, string, float64:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return v
	}
}

func valueKind(v any) int {
	switch v.(type) {
	case nil:
		return kindNil
	case bool:
		return kindBool
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindNumber
	case string:
		return kindString
	default:
		return kindOther
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
