package textindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on every rune that is neither a
// letter nor a digit. The result keeps duplicates and input order.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Distinct returns tokens with duplicates removed, keeping first occurrences.
func Distinct(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ValueTokens tokenizes the JSON encoding of a field value. Strings and
// number literals contribute their text, arrays and objects are walked
// recursively (object keys are not indexed), booleans and null contribute
// nothing.
func ValueTokens(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("textindex: decode value: %w", err)
	}
	var out []string
	walk(v, &out)
	return out, nil
}

func walk(v any, out *[]string) {
	switch x := v.(type) {
	case string:
		*out = append(*out, Tokenize(x)...)
	case json.Number:
		*out = append(*out, Tokenize(x.String())...)
	case []any:
		for _, e := range x {
			walk(e, out)
		}
	case map[string]any:
		for _, e := range x {
			walk(e, out)
		}
	}
}
