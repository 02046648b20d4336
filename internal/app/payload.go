package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jeremywohl/flatten"

	"github.com/bft-labs/logzship/internal/domain"
)

// Envelope constants added by BuildPayload.
const (
	SourceName     = "jenkins"
	PayloadVersion = 1
)

// BuildData is the build metadata a payload is built from.
type BuildData struct {
	// Timestamp of the build, copied to "@buildTimestamp".
	Timestamp string

	// Metadata is a JSON object describing the build. Nested keys are
	// flattened into the envelope's top level.
	Metadata json.RawMessage
}

// BuildPayload builds the envelope document for lines. Nested metadata keys
// are joined with "_" and array elements are suffixed with "[i]", so
// {"a":{"d":[false]}} becomes "a_d[0]": false.
func BuildPayload(data BuildData, sourceHost string, lines []string) (*domain.Document, error) {
	if lines == nil {
		lines = []string{}
	}

	doc := domain.NewDocument()
	fields := []struct {
		key   string
		value any
	}{
		{MessageKey, lines},
		{"source", SourceName},
		{"source_host", sourceHost},
		{"@buildTimestamp", data.Timestamp},
		{"@version", PayloadVersion},
	}
	for _, f := range fields {
		if err := doc.Set(f.key, f.value); err != nil {
			return nil, err
		}
	}

	flat, err := FlattenMetadata(data.Metadata)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := doc.Set(k, flat[k]); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// FlattenMetadata flattens a JSON object into top-level keys. Empty nested
// objects and arrays are kept as {} and [] values. An empty input yields an
// empty map.
func FlattenMetadata(metadata json.RawMessage) (map[string]interface{}, error) {
	if len(bytes.TrimSpace(metadata)) == 0 {
		return map[string]interface{}{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(metadata))
	dec.UseNumber()
	var nested map[string]interface{}
	if err := dec.Decode(&nested); err != nil {
		return nil, fmt.Errorf("decode build metadata: %w", err)
	}

	flat, err := flatten.Flatten(indexArrays(nested).(map[string]interface{}), "", flatten.DotStyle)
	if err != nil {
		return nil, fmt.Errorf("flatten build metadata: %w", err)
	}

	out := make(map[string]interface{}, len(flat))
	for k, v := range flat {
		k = strings.ReplaceAll(k, ".[", "[")
		out[strings.ReplaceAll(k, ".", "_")] = v
	}
	return out, nil
}

// indexArrays turns arrays into objects keyed "[i]" so that flattening
// renders element paths as a.d[0] instead of a.d.0.
func indexArrays(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = indexElement(e)
		}
		return t
	case []interface{}:
		m := make(map[string]interface{}, len(t))
		for i, e := range t {
			m["["+strconv.Itoa(i)+"]"] = indexElement(e)
		}
		return m
	default:
		return v
	}
}

// indexElement keeps empty objects and arrays as leaf values; flatten
// would otherwise drop them.
func indexElement(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if len(t) == 0 {
			return json.RawMessage("{}")
		}
	case []interface{}:
		if len(t) == 0 {
			return json.RawMessage("[]")
		}
	}
	return indexArrays(v)
}
