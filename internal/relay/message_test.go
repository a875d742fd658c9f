// ABOUTME: Tests for the team-chat wire format.
// ABOUTME: Validates round-trips, null team fields and malformed payloads.

package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestMessage_RoundTrip(t *testing.T) {
	in := &Message{
		Sender:   "&5Steve",
		TeamID:   strptr("T1"),
		TeamName: strptr("Redstone"),
		Content:  "push mid",
		Origin:   "instance-a",
	}

	payload, err := in.Encode()
	require.NoError(t, err)

	out, err := DecodeMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMessage_NullTeamFields(t *testing.T) {
	in := &Message{Sender: "Steve", Content: "hi", Origin: "instance-a"}

	payload, err := in.Encode()
	require.NoError(t, err)
	assert.Contains(t, payload, `"teamId":null`)
	assert.Contains(t, payload, `"teamName":null`)

	out, err := DecodeMessage(payload)
	require.NoError(t, err)
	assert.Nil(t, out.TeamID)
	assert.Nil(t, out.TeamName)
}

func TestDecodeMessage_MissingFieldsAreEmpty(t *testing.T) {
	out, err := DecodeMessage(`{"origin":"x"}`)
	require.NoError(t, err)
	assert.Empty(t, out.Sender)
	assert.Empty(t, out.Content)
	assert.Equal(t, "x", out.Origin)
}

func TestDecodeMessage_UnknownKeysIgnored(t *testing.T) {
	out, err := DecodeMessage(`{"sender":"a","message":"b","origin":"c","extra":42}`)
	require.NoError(t, err)
	assert.Equal(t, "a", out.Sender)
	assert.Equal(t, "b", out.Content)
}

func TestDecodeMessage_Malformed(t *testing.T) {
	_, err := DecodeMessage("{not json")
	assert.Error(t, err)
}
