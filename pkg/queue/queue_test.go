package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Label string  `json:"label"`
	P     float64 `json:"p"`
}

func TestMessageRoundTripsPayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	b, err := newMessage("id-1", "screening", sample{Label: "High Risk", P: 0.75}, now)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(b, &msg))
	assert.Equal(t, "id-1", msg.ID)
	assert.Equal(t, "screening", msg.Type)
	assert.True(t, msg.Timestamp.Equal(now))
	assert.Equal(t, time.UTC, msg.Timestamp.Location())

	got, err := ParsePayload[sample](&msg)
	require.NoError(t, err)
	assert.Equal(t, sample{Label: "High Risk", P: 0.75}, *got)
}

func TestNewMessageRejectsUnencodable(t *testing.T) {
	_, err := newMessage("id", "t", make(chan int), time.Now())
	assert.Error(t, err)
}

func TestKeyUsesPrefix(t *testing.T) {
	q := NewRedisPublisher(nil, WithKeyPrefix("svc:q"), WithMaxLen(10))
	assert.Equal(t, "svc:q:screening", q.Key("screening"))
	assert.Equal(t, int64(10), q.maxLen)
}
