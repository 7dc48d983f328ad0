package telemetry

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Config holds the configuration for telemetry
type Config struct {
	Enabled bool
}

// Provider records per-turn telemetry as structured log lines
type Provider struct {
	enabled bool
}

// NewProvider creates a new telemetry provider
func NewProvider(config Config) *Provider {
	if !config.Enabled {
		log.Printf("Telemetry disabled")
		return &Provider{enabled: false}
	}
	return &Provider{enabled: true}
}

// TurnTelemetry holds telemetry data for one handled chat turn
type TurnTelemetry struct {
	ConversationID string
	TurnID         string
	Tone           string
	Sentiment      string
	GifAttached    bool
}

// RecordTurn records a handled chat turn
func (p *Provider) RecordTurn(ctx context.Context, turn TurnTelemetry) {
	if !p.enabled {
		return
	}
	log.Printf("TELEMETRY: Turn - conversation_id=%s, turn_id=%s, tone=%s, sentiment=%s, gif_attached=%t",
		turn.ConversationID,
		turn.TurnID,
		turn.Tone,
		turn.Sentiment,
		turn.GifAttached,
	)
}

// NewTurnID generates a new turn UUID
func NewTurnID() string {
	return uuid.New().String()
}
