//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
	"github.com/couchcryptid/outage-insights-service/internal/geocache"
	"github.com/couchcryptid/outage-insights-service/internal/pipeline"
	"github.com/couchcryptid/outage-insights-service/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container for the duration of the test.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("outage-insights-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// loadMockData reads the feed snapshot shared with the pipeline tests.
func loadMockData(t *testing.T) []domain.FeedEvent {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "pipeline", "testdata", "nes_events.json"))
	require.NoError(t, err)

	var records []domain.FeedEvent
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

// newTransformer resolves zips without a network geocoder: every lookup falls
// through to the nearest registered zip.
func newTransformer() *pipeline.ZipTransformer {
	registry := domain.DefaultRegistry()
	resolver := domain.NewZipResolver(registry, nil, geocache.New(storage.NewMemoryStore(), ""), discardLogger())
	return pipeline.NewTransformer(resolver, registry, discardLogger())
}
