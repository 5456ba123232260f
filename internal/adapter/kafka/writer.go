// Package kafka publishes encoded earthquake markers to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/mapview"
	kafkago "github.com/segmentio/kafka-go"
)

// markerMessage is the JSON value written per marker.
type markerMessage struct {
	Earthquake domain.Earthquake `json:"earthquake"`
	Marker     domain.Marker     `json:"marker"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

// Writer produces marker messages to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured marker topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one message per marker in snap in a single WriteMessages
// call. Keys are earthquake IDs, so a compacted topic holds the latest
// encoding of each event.
func (w *Writer) Publish(ctx context.Context, snap *mapview.Snapshot) (int, error) {
	markers := snap.View.Markers
	if len(markers) == 0 {
		return 0, nil
	}
	if len(markers) != len(snap.Earthquakes) {
		return 0, fmt.Errorf("snapshot has %d markers for %d earthquakes", len(markers), len(snap.Earthquakes))
	}
	msgs := make([]kafkago.Message, len(markers))
	for i := range markers {
		msg, err := serializeToMessage(snap.Earthquakes[i], markers[i], snap.FetchedAt)
		if err != nil {
			return 0, err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("write markers: %w", err)
	}
	w.logger.Debug("markers published", "topic", w.writer.Topic, "count", len(msgs))
	return len(msgs), nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one marker and its source record into a Kafka message.
func serializeToMessage(q domain.Earthquake, m domain.Marker, fetchedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(markerMessage{Earthquake: q, Marker: m, FetchedAt: fetchedAt})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize marker: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "depth_color", Value: []byte(m.FillColor)},
			{Key: "fetched_at", Value: []byte(fetchedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
