package webhookController

import (
	"errors"
	"lms/models"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// ReplayGuard keeps a short-lived set of processed event ids so replayed
// deliveries are dropped before touching the ledger. The set is cleared
// wholesale on a rolling interval; durability across restarts comes from
// the processed_events unique index, not from this cache.
type ReplayGuard struct {
	mu     sync.Mutex
	events map[string]struct{}
}

// NewReplayGuard creates an empty guard
func NewReplayGuard() *ReplayGuard {
	return &ReplayGuard{
		events: make(map[string]struct{}),
	}
}

// Guard is the process-wide replay guard used by the webhook handler
var Guard = NewReplayGuard()

// ShouldProcess returns true exactly once per event id between clears.
func (g *ReplayGuard) ShouldProcess(eventID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, found := g.events[eventID]; found {
		return false
	}
	g.events[eventID] = struct{}{}
	return true
}

// Forget removes an event id so a failed delivery can be retried.
func (g *ReplayGuard) Forget(eventID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.events, eventID)
}

// Clear empties the guard
func (g *ReplayGuard) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = make(map[string]struct{})
}

// StartClearLoop clears the guard every interval until stop is closed.
func (g *ReplayGuard) StartClearLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				g.Clear()
			case <-stop:
				return
			}
		}
	}()
}

// MarkProcessed inserts the durable dedup row for an event. A unique-index
// violation means another delivery already claimed the id; callers treat
// that the same as the in-memory duplicate path.
func MarkProcessed(tx *gorm.DB, provider, eventID, eventType string) (bool, error) {
	record := models.ProcessedEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       eventType,
		ReceivedAt:      time.Now(),
	}

	if err := tx.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			log.Printf("[WEBHOOK] Duplicate event detected by processed_events index: %s", eventID)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isUniqueViolation matches driver-specific unique-constraint errors that
// gorm does not translate on every dialect.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
