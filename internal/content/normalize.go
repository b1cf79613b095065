package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Normalize converts untrusted input into a valid block sequence. It never fails and never
// returns nil.
//
//   - slices and arrays are mapped element by element; elements that are not blocks become
//     text blocks carrying a rendering of the original value
//   - strings are legacy plain text: one text block per non-blank line
//   - anything else yields an empty sequence
//
// Normalizing an already normalized sequence returns an equal sequence.
func Normalize(raw any) Blocks {
	switch v := raw.(type) {
	case nil:
		return Blocks{}
	case string:
		return normalizeText(v)
	case json.RawMessage:
		return NormalizeJSON(v)
	case []byte:
		return NormalizeJSON(v)
	}
	if items, ok := asList(raw); ok {
		return normalizeList(items)
	}
	return Blocks{}
}

// NormalizeJSON decodes JSON, keeping numbers exact, and normalizes the result.
// Bytes that are not JSON are treated as legacy plain text.
func NormalizeJSON(data []byte) Blocks {
	v, err := decodeLoose(data)
	if err != nil {
		return normalizeText(string(data))
	}
	return Normalize(v)
}

func decodeLoose(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func normalizeText(s string) Blocks {
	out := Blocks{}
	for _, line := range strings.Split(validUTF8(s), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, TextBlock{ID: NewBlockID(), Text: line})
	}
	return out
}

func normalizeList(items []any) Blocks {
	out := make(Blocks, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		b := normalizeElement(item)
		if seen[b.BlockID()] {
			b = withID(b, NewBlockID())
		}
		seen[b.BlockID()] = true
		out = append(out, b)
	}
	return out
}

func normalizeElement(item any) ContentBlock {
	if b, ok := item.(ContentBlock); ok {
		item = toGeneric(b)
	}
	obj, ok := asObject(item)
	if !ok {
		return diagnosticBlock(NewBlockID(), item)
	}
	id, idOK := nonEmptyString(obj["id"])
	typ, typeOK := obj["type"].(string)
	if !idOK || !typeOK {
		return diagnosticBlock(NewBlockID(), item)
	}

	switch BlockType(typ) {
	case BlockTypeText:
		return TextBlock{ID: id, Text: stringOr(obj["text"], "")}
	case BlockTypeTitle:
		return TitleBlock{ID: id, Text: stringOr(obj["text"], ""), Level: coerceLevel(obj["level"])}
	case BlockTypeSlider:
		return SliderBlock{ID: id, Slides: normalizeSlides(obj["slides"])}
	case BlockTypeButton:
		return ButtonBlock{
			ID:      id,
			Text:    stringOr(obj["text"], ""),
			LinkURL: stringOr(obj["linkUrl"], DefaultButtonLink),
		}
	default:
		// unknown variant keeps its address but is re-typed as text
		return diagnosticBlock(id, item)
	}
}

func normalizeSlides(v any) []ImageSlide {
	items, ok := asList(v)
	if !ok {
		return []ImageSlide{}
	}
	slides := make([]ImageSlide, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		obj, _ := asObject(item)
		id, ok := nonEmptyString(obj["id"])
		if !ok || seen[id] {
			id = NewBlockID()
		}
		seen[id] = true

		slide := ImageSlide{ID: id, ImageURL: stringOr(obj["imageUrl"], "")}
		if link, ok := obj["linkUrl"].(string); ok {
			link = validUTF8(link)
			slide.LinkURL = &link
		}
		slides = append(slides, slide)
	}
	return slides
}

func diagnosticBlock(id string, original any) TextBlock {
	return TextBlock{ID: id, Text: render(original)}
}

// render produces a JSON-like string for diagnostics
func render(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func coerceLevel(v any) HeadingLevel {
	n, ok := asInteger(v)
	if ok && HeadingLevel(n).Valid() {
		return HeadingLevel(n)
	}
	return HeadingLevel2
}

func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case HeadingLevel:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	case float64:
		return integralFloat(n)
	case float32:
		return integralFloat(float64(n))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return validUTF8(s)
	}
	return fallback
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return validUTF8(s), true
}

// validUTF8 replaces invalid byte sequences with U+FFFD so a block reads the same
// before and after a JSON round trip.
func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// asList accepts any slice or array except strings and byte slices
func asList(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// asObject accepts maps keyed by strings, as produced by JSON and YAML decoders
func asObject(v any) (map[string]any, bool) {
	if obj, ok := v.(map[string]any); ok {
		return obj, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	obj := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		if k.Kind() == reflect.Interface {
			k = k.Elem()
		}
		if k.Kind() != reflect.String {
			return nil, false
		}
		obj[k.String()] = iter.Value().Interface()
	}
	return obj, true
}

// toGeneric turns a typed block back into the loosely typed form the normalizer reads
func toGeneric(b ContentBlock) any {
	data, err := json.Marshal(b)
	if err != nil {
		return b
	}
	v, err := decodeLoose(data)
	if err != nil {
		return b
	}
	return v
}

func withID(b ContentBlock, id string) ContentBlock {
	r := &reassigner{id: id}
	b.Accept(r)
	return r.out
}

type reassigner struct {
	id  string
	out ContentBlock
}

func (r *reassigner) VisitText(b TextBlock)     { b.ID = r.id; r.out = b }
func (r *reassigner) VisitTitle(b TitleBlock)   { b.ID = r.id; r.out = b }
func (r *reassigner) VisitSlider(b SliderBlock) { b.ID = r.id; r.out = b }
func (r *reassigner) VisitButton(b ButtonBlock) { b.ID = r.id; r.out = b }
