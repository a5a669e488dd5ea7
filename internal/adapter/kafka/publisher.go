// Package kafka publishes cleaned trip records to a sink topic for
// downstream consumers that want per-ride events rather than the CSV files.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces cleaned trip messages to a Kafka topic.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the cleaned-trips sink topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// PublishCleaned serializes and publishes a city's cleaned collection in a
// single WriteMessages call. The run ID ties every message back to one
// pipeline execution.
func (p *Publisher) PublishCleaned(ctx context.Context, city, runID string, trips []domain.TripRecord) error {
	if len(trips) == 0 {
		return nil
	}

	processedAt := domain.Now().Format(time.RFC3339)
	msgs := make([]kafkago.Message, len(trips))
	for i := range trips {
		msg, err := serializeTrip(trips[i], city, runID, processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish cleaned trips for %s: %w", city, err)
	}

	p.metrics.TripsPublished.Add(float64(len(msgs)))
	p.logger.Info("cleaned trips published", "city", city, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// tripMessage is the wire form of a cleaned trip, mirroring the cleaned CSV
// column set.
type tripMessage struct {
	RideID           string  `json:"ride_id"`
	RideableType     string  `json:"rideable_type"`
	StartedAt        string  `json:"started_at"`
	EndedAt          string  `json:"ended_at"`
	StartStationName string  `json:"start_station_name,omitempty"`
	StartStationID   string  `json:"start_station_id,omitempty"`
	EndStationName   string  `json:"end_station_name,omitempty"`
	EndStationID     string  `json:"end_station_id,omitempty"`
	StartLat         float64 `json:"start_lat"`
	StartLng         float64 `json:"start_lng"`
	EndLat           float64 `json:"end_lat"`
	EndLng           float64 `json:"end_lng"`
	MemberCasual     string  `json:"member_casual"`
	City             string  `json:"city"`
}

func serializeTrip(t domain.TripRecord, city, runID, processedAt string) (kafkago.Message, error) {
	data, err := json.Marshal(tripMessage{
		RideID:           t.RideID,
		RideableType:     t.RideableType,
		StartedAt:        t.StartedAt.Format(time.RFC3339),
		EndedAt:          t.EndedAt.Format(time.RFC3339),
		StartStationName: t.StartStationName,
		StartStationID:   t.StartStationID,
		EndStationName:   t.EndStationName,
		EndStationID:     t.EndStationID,
		StartLat:         t.Start.Lat,
		StartLng:         t.Start.Lng,
		EndLat:           t.End.Lat,
		EndLng:           t.End.Lng,
		MemberCasual:     t.MemberCasual,
		City:             city,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize trip %s: %w", t.RideID, err)
	}
	return kafkago.Message{
		Key:   []byte(t.RideID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "city", Value: []byte(city)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "processed_at", Value: []byte(processedAt)},
		},
	}, nil
}
