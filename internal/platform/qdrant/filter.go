package qdrant

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Catalog filters are written as {field: {op: value}} maps and translated into
// Qdrant must/must_not conditions.
const (
	filterOpEq  = "$eq"
	filterOpNin = "$nin"
	filterOpLte = "$lte"
)

type translatedFilter struct {
	Must    []any
	MustNot []any
}

func (f translatedFilter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	if len(f.MustNot) > 0 {
		out["must_not"] = f.MustNot
	}
	return out
}

func (f translatedFilter) empty() bool {
	return len(f.Must) == 0 && len(f.MustNot) == 0
}

func filterErr(code OperationErrorCode, format string, args ...any) error {
	return opErr("filter_translate", code, fmt.Sprintf(format, args...), nil)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func translateFilterMap(filter map[string]any) (translatedFilter, error) {
	out := translatedFilter{}
	for _, key := range sortedKeys(filter) {
		field := strings.TrimSpace(key)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "$") {
			return translatedFilter{}, filterErr(OperationErrorUnsupportedFilter, "unsupported top-level filter operator %q", field)
		}
		part, err := translateFieldFilter(field, filter[key])
		if err != nil {
			return translatedFilter{}, err
		}
		out.Must = append(out.Must, part.Must...)
		out.MustNot = append(out.MustNot, part.MustNot...)
	}
	return out, nil
}

func translateFieldFilter(field string, value any) (translatedFilter, error) {
	out := translatedFilter{}
	ops, ok := value.(map[string]any)
	if !ok || len(ops) == 0 {
		return translatedFilter{}, filterErr(OperationErrorValidation, "field %q expects an operator object", field)
	}
	for _, op := range sortedKeys(ops) {
		opVal := ops[op]
		name := strings.ToLower(strings.TrimSpace(op))
		switch name {
		case filterOpEq:
			scalar, ok := toScalarValue(opVal)
			if !ok {
				return translatedFilter{}, filterErr(OperationErrorValidation, "operator %s for field %q expects scalar value", name, field)
			}
			out.Must = append(out.Must, qdrantMatchCondition(field, scalar))
		case filterOpNin:
			values, ok := toScalarSlice(opVal)
			if !ok {
				return translatedFilter{}, filterErr(OperationErrorValidation, "operator %s for field %q expects scalar array", name, field)
			}
			if len(values) > 0 {
				out.MustNot = append(out.MustNot, map[string]any{"key": field, "match": map[string]any{"any": values}})
			}
		case filterOpLte:
			num, ok := toNumber(opVal)
			if !ok {
				return translatedFilter{}, filterErr(OperationErrorValidation, "operator %s for field %q expects a number", name, field)
			}
			out.Must = append(out.Must, map[string]any{"key": field, "range": map[string]any{"lte": num}})
		default:
			return translatedFilter{}, filterErr(OperationErrorUnsupportedFilter, "unsupported filter operator %q for field %q", op, field)
		}
	}
	return out, nil
}

func qdrantMatchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func toScalarSlice(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []any:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			scalar, ok := toScalarValue(v)
			if !ok {
				return nil, false
			}
			out = append(out, scalar)
		}
		return out, true
	case []string:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, true
	case []int:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, true
	default:
		return nil, false
	}
}

func toScalarValue(value any) (any, bool) {
	switch typed := value.(type) {
	case string, bool, int, int64, float64:
		return typed, true
	case int32:
		return int(typed), true
	case float32:
		return float64(typed), true
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i, true
		}
		if f, err := typed.Float64(); err == nil {
			return f, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func toNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
