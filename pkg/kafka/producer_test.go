package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestNewProducerAppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"k1:9092", "k2:9092"}),
		WithCompression("zstd"),
		WithDelivery(1, 5),
		WithHashByKey(true),
		WithBatching(10, 0),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	assert.Equal(t, kafka.RequireOne, p.writer.RequiredAcks)
	assert.Equal(t, 10, p.writer.BatchSize)
	assert.Equal(t, 5, p.writer.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, p.writer.BatchTimeout, "zero linger keeps the default")
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
}

func TestEncode(t *testing.T) {
	b, err := encode([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encode(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(b))

	_, err = encode(func() {})
	assert.Error(t, err)
}

func TestParseCompressionDefaultsToSnappy(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("brotli"))
	assert.Equal(t, kafka.Gzip, parseCompression("gzip"))
}
