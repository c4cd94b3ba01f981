package ipc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nested(n int) string {
	return strings.Repeat("[", n) + strings.Repeat("]", n)
}

func TestDecodeWithin(t *testing.T) {
	limits := Limits{MaxBytes: 128, MaxDepth: 3}

	env, err := DecodeWithin([]byte(`{"event_type":"event","command":"x","args":`+nested(3)+`}`), limits)
	require.NoError(t, err)
	assert.Equal(t, "x", env.Command)

	_, err = DecodeWithin([]byte(`{"event_type":"event","command":"x","args":`+nested(4)+`}`), limits)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "deeper than 3")

	big := `{"event_type":"event","command":"x","args":"` + strings.Repeat("a", 200) + `"}`
	_, err = DecodeWithin([]byte(big), limits)
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "exceeds 128")

	_, err = DecodeWithin([]byte(big), Limits{})
	assert.NoError(t, err, "zero limits are unlimited")
}

func TestDepth(t *testing.T) {
	env, err := Decode([]byte(`{"event_type":"event","command":"x","args":{"a":[1,{"b":[]}],"c":2}}`))
	require.NoError(t, err)
	assert.Equal(t, 4, depth(env.Args))
}
