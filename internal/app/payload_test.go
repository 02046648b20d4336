package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayload(t *testing.T) {
	const sourceHost = "http://localhost:8080/jenkins"
	data := BuildData{
		Timestamp: "2000-01-01",
		Metadata:  json.RawMessage(`{"a":{"b":1,"c":2,"d":[false, true]},"e":"f","g":2.3}`),
	}

	tests := []struct {
		name  string
		lines []string
		want  []interface{}
	}{
		{name: "no lines", lines: nil, want: []interface{}{}},
		{name: "one line", lines: []string{"LINE 1"}, want: []interface{}{"LINE 1"}},
		{name: "two lines", lines: []string{"LINE 1", "LINE 2"}, want: []interface{}{"LINE 1", "LINE 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := BuildPayload(data, sourceHost, tt.lines)
			require.NoError(t, err)

			want := map[string]interface{}{
				"message":         tt.want,
				"source":          "jenkins",
				"source_host":     sourceHost,
				"@buildTimestamp": "2000-01-01",
				"@version":        float64(1),
				"a_b":             float64(1),
				"a_c":             float64(2),
				"a_d[0]":          false,
				"a_d[1]":          true,
				"e":               "f",
				"g":               2.3,
			}

			b, err := doc.MarshalJSON()
			require.NoError(t, err)
			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(b, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestBuildPayload_EmptyMetadata(t *testing.T) {
	doc, err := BuildPayload(BuildData{Timestamp: "2000-01-01", Metadata: json.RawMessage(`{}`)}, "h", []string{"LINE 1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"message", "source", "source_host", "@buildTimestamp", "@version"}, doc.Keys())
}

func TestBuildPayload_KeepsEmptyContainers(t *testing.T) {
	data := BuildData{Metadata: json.RawMessage(`{"buildVariables":{},"failedTests":[],"x":1}`)}
	doc, err := BuildPayload(data, "h", []string{"L"})
	require.NoError(t, err)

	assert.Equal(t, []string{"message", "source", "source_host", "@buildTimestamp", "@version",
		"buildVariables", "failedTests", "x"}, doc.Keys())
	raw, _ := doc.Get("buildVariables")
	assert.Equal(t, "{}", string(raw))
	raw, _ = doc.Get("failedTests")
	assert.Equal(t, "[]", string(raw))
}

func TestBuildPayload_KeyOrder(t *testing.T) {
	data := BuildData{Timestamp: "t", Metadata: json.RawMessage(`{"z":1,"b":{"y":2},"a":3}`)}
	doc, err := BuildPayload(data, "h", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"message", "source", "source_host", "@buildTimestamp", "@version", "a", "b_y", "z"}, doc.Keys())
	raw, _ := doc.Get("message")
	assert.JSONEq(t, `[]`, string(raw))
}

func TestFlattenMetadata(t *testing.T) {
	flat, err := FlattenMetadata(json.RawMessage(`{"a":{"list":[{"x":1},[2]]},"n":null}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"a_list[0]_x":  json.Number("1"),
		"a_list[1][0]": json.Number("2"),
		"n":            nil,
	}, flat)
}

func TestFlattenMetadata_EmptyContainers(t *testing.T) {
	flat, err := FlattenMetadata(json.RawMessage(`{"a":{},"b":[],"c":{"d":[]}}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"a":   json.RawMessage("{}"),
		"b":   json.RawMessage("[]"),
		"c_d": json.RawMessage("[]"),
	}, flat)
}

func TestFlattenMetadata_Invalid(t *testing.T) {
	_, err := FlattenMetadata(json.RawMessage(`[1,2]`))
	assert.Error(t, err)

	flat, err := FlattenMetadata(nil)
	require.NoError(t, err)
	assert.Empty(t, flat)
}
