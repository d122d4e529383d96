package serialization_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/serialization"
)

func TestMarshalResultMap(t *testing.T) {
	data, err := serialization.MarshalResultMap(map[string]json.RawMessage{
		"extract": json.RawMessage(`{"pages":3}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"extract":{"pages":3}}`, string(data))

	data, err = serialization.MarshalResultMap(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestUnmarshalResultMap(t *testing.T) {
	var results map[string]json.RawMessage
	require.NoError(t, serialization.UnmarshalResultMap([]byte(`{"analyze":{"score":0.9}}`), &results))
	assert.JSONEq(t, `{"score":0.9}`, string(results["analyze"]))

	// Re-using the target clears previous entries.
	require.NoError(t, serialization.UnmarshalResultMap([]byte(`{}`), &results))
	assert.Empty(t, results)

	require.NoError(t, serialization.UnmarshalResultMap(nil, &results))
	assert.NotNil(t, results)

	assert.Error(t, serialization.UnmarshalResultMap([]byte(`not json`), &results))
}

func TestMarshalWarnings(t *testing.T) {
	data, err := serialization.MarshalWarnings([]string{"w1", "w2"})
	require.NoError(t, err)
	assert.JSONEq(t, `["w1","w2"]`, string(data))

	data, err = serialization.MarshalWarnings(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestUnmarshalWarnings(t *testing.T) {
	var msgs []string
	require.NoError(t, serialization.UnmarshalWarnings([]byte(`["w1"]`), &msgs))
	assert.Equal(t, []string{"w1"}, msgs)

	require.NoError(t, serialization.UnmarshalWarnings([]byte("null"), &msgs))
	assert.Empty(t, msgs)

	assert.Error(t, serialization.UnmarshalWarnings([]byte(`{`), &msgs))
}
