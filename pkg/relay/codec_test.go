package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectsEmpty(t *testing.T) {
	for _, payload := range []string{"", "   ", "\n\t \r\n"} {
		objects, err := Objects(payload)
		require.NoError(t, err)
		assert.Empty(t, objects)
	}
}

func TestObjectsSingle(t *testing.T) {
	objects, err := Objects(`{"a": 1}`)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, `{"a": 1}`, objects[0])
}

func TestObjectsPreservesOrder(t *testing.T) {
	payload := `{"n": 1} {"n": 2}
	{"n": 3}`
	objects, err := Objects(payload)
	require.NoError(t, err)
	require.Len(t, objects, 3)
	for i, raw := range objects {
		var decoded struct{ N int }
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		assert.Equal(t, i+1, decoded.N)
	}
}

func TestObjectsNested(t *testing.T) {
	payload := `{"outer": {"inner": {"deep": 1}}} {"b": 2}`
	objects, err := Objects(payload)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, `{"outer": {"inner": {"deep": 1}}}`, objects[0])
}

func TestObjectsBracesInsideStrings(t *testing.T) {
	// unescaped braces inside string values must not affect depth counting
	payload := `{"a": "{{{"} {"b": "}}}"}`
	objects, err := Objects(payload)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, `{"a": "{{{"}`, objects[0])
	assert.Equal(t, `{"b": "}}}"}`, objects[1])
}

func TestObjectsEscapedQuoteInsideString(t *testing.T) {
	payload := `{"a": "he said \"hi\" {"} {"b": 2}`
	objects, err := Objects(payload)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, `{"a": "he said \"hi\" {"}`, objects[0])
}

func TestObjectsPreservesWhitespaceInsideObjects(t *testing.T) {
	payload := "{\"a\": \"line one\\nline two\",  \"b\":\t3}"
	objects, err := Objects(payload)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, payload, objects[0])

	var decoded struct {
		A string
		B int
	}
	require.NoError(t, json.Unmarshal([]byte(objects[0]), &decoded))
	assert.Equal(t, "line one\nline two", decoded.A)
}

func TestObjectsUnbalancedOpen(t *testing.T) {
	_, err := Objects(`{"a": 1} {"b": 2`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnbalancedBraces)
}

func TestObjectsUnbalancedClose(t *testing.T) {
	_, err := Objects(`{"a": 1}}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnbalancedBraces)
}

func TestObjectsUnterminatedString(t *testing.T) {
	_, err := Objects(`{"a": "unterminated}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnbalancedBraces)
}

func TestObjectsIncompleteTrailing(t *testing.T) {
	_, err := Objects(`{"a": 1} trailing-garbage`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteObject)
	assert.Contains(t, err.Error(), "trailing-garbage")
}

func TestObjectsRoundTrip(t *testing.T) {
	// marshal a few objects, join with assorted whitespace, recover them
	inputs := []map[string]interface{}{
		{"party_index": 1.0, "data": "00ff{}"},
		{"party_index": 2.0, "data": "with \"quotes\" and {braces}"},
		{"party_index": 3.0, "nested": map[string]interface{}{"k": "v"}},
	}
	payload := ""
	separators := []string{" ", "\n\n", "\t \r\n "}
	for i, in := range inputs {
		data, err := json.Marshal(in)
		require.NoError(t, err)
		payload += string(data) + separators[i]
	}

	objects, err := Objects(payload)
	require.NoError(t, err)
	require.Len(t, objects, len(inputs))
	for i, raw := range objects {
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		assert.Equal(t, inputs[i], decoded)
	}
}
