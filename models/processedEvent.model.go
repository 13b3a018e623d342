package models

import (
	"time"

	"gorm.io/gorm"
)

// ProcessedEvent records every webhook event id that reached the handler.
// The (provider, provider_event_id) unique index makes dedup durable across
// process restarts; the in-memory replay guard is only the fast path.
type ProcessedEvent struct {
	gorm.Model
	Provider        string    `gorm:"type:varchar(20);not null;uniqueIndex:ux_processed_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_processed_events_provider_event,priority:2" json:"providerEventId"`
	EventType       string    `gorm:"type:varchar(100);not null;index" json:"eventType"`
	ReceivedAt      time.Time `gorm:"not null" json:"receivedAt"`
}

func (ProcessedEvent) TableName() string {
	return "processed_events"
}
