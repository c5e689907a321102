package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
)

// maxIntrospectDepth bounds the reflection walk over generic objects.
const maxIntrospectDepth = 32

// Serializer is implemented by response objects that can render themselves as JSON.
type Serializer interface {
	JSON() ([]byte, error)
}

// Normalize projects a raw analysis response onto Result.
//
// raw may be a decoded JSON object (map[string]any), JSON text ([]byte,
// json.RawMessage, string or a Serializer), or any struct/map value, which is
// marshalled or introspected. Missing branches never fail: they default.
// Only input that cannot be read as an object at all returns an error.
func Normalize(raw any) (Result, error) {
	m, err := toObject(raw)
	if err != nil {
		return Empty(), err
	}

	out := Empty()

	avg := object(lookup(m, "results", "sentiments", "average"))
	out.Sentiment = Sentiment{
		Label: label(avg["sentiment"]),
		Score: score(avg["sentiment_score"]),
	}

	for _, seg := range list(lookup(m, "results", "topics", "segments")) {
		for _, item := range list(object(seg)["topics"]) {
			t := object(item)
			if t == nil {
				continue
			}
			out.Topics = append(out.Topics, Topic{
				Topic: label(t["topic"]),
				Score: score(t["confidence_score"]),
			})
		}
	}

	for _, seg := range list(lookup(m, "results", "intents", "segments")) {
		for _, item := range list(object(seg)["intents"]) {
			it := object(item)
			if it == nil {
				continue
			}
			out.Intents = append(out.Intents, Intent{
				Intent: label(it["intent"]),
				Score:  score(it["confidence_score"]),
			})
		}
	}

	return out, nil
}

// toObject picks one of three adapters: structured, serialized or generic.
func toObject(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, apperr.New(apperr.KindNormalization, "empty analysis response")
	case map[string]any:
		return v, nil
	case json.RawMessage:
		return decodeObject(v)
	case []byte:
		return decodeObject(v)
	case string:
		return decodeObject([]byte(v))
	case Serializer:
		b, err := v.JSON()
		if err != nil {
			return nil, &apperr.Error{Kind: apperr.KindNormalization, Msg: "serialize response", Err: err}
		}
		return decodeObject(b)
	}
	return fromGeneric(raw)
}

func decodeObject(b []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindNormalization, Msg: "decode response", Err: err}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.New(apperr.KindNormalization, fmt.Sprintf("response is %s, not an object", jsonKind(v)))
	}
	return m, nil
}

func fromGeneric(raw any) (map[string]any, error) {
	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, apperr.New(apperr.KindNormalization, "empty analysis response")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, apperr.New(apperr.KindNormalization, fmt.Sprintf("unsupported response type %T", raw))
	}

	if b, err := json.Marshal(raw); err == nil {
		if m, err := decodeObject(b); err == nil {
			return m, nil
		}
	}

	m, ok := introspect(rv, 0).(map[string]any)
	if !ok {
		return nil, apperr.New(apperr.KindNormalization, fmt.Sprintf("unsupported response type %T", raw))
	}
	return m, nil
}

// introspect converts v into JSON-like values (maps, slices, scalars).
// Leaves it does not recognise are replaced by their fmt representation.
func introspect(v reflect.Value, depth int) any {
	if !v.IsValid() || depth > maxIntrospectDepth {
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return introspect(v.Elem(), depth+1)
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("json"); ok {
				tagName, _, _ := strings.Cut(tag, ",")
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			out[name] = introspect(v.Field(i), depth+1)
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = introspect(iter.Value(), depth+1)
		}
		return out
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = introspect(v.Index(i), depth+1)
		}
		return out
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}

	if v.CanInterface() {
		return fmt.Sprint(v.Interface())
	}
	return nil
}

func lookup(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		obj := object(cur)
		if obj == nil {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func label(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case map[string]any, []any:
		return ""
	}
	return fmt.Sprint(v)
}

func score(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	// NaN and infinities cannot be encoded as JSON; treat them as missing.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}
