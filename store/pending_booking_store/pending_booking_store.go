// Package pending_booking_store keeps a durable pointer to each user's
// in-progress booking so the flow can resume after an app restart or a
// dropped connection. It only ever stores booking references, never booking
// content, and every storage failure degrades to a cache miss: the booking
// flow must not depend on this cache being healthy.
package pending_booking_store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/danatour/booking/logger"
)

const (
	pendingBookingPrefix = "pendingBooking:"
	pendingBookingTTL    = 30 * 24 * time.Hour
)

// Record is the stored pending-booking pointer.
type Record struct {
	BookingID        uuid.UUID `json:"booking_id"`
	TourID           uuid.UUID `json:"tour_id"`
	TimestampCreated int64     `json:"timestamp_created"`
}

// Store is the Redis-backed pending booking cache.
type Store struct {
	Client *redis.Client
}

// NewStore creates a pending booking store over the given Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{Client: client}
}

// NormalizeEmail lower-cases and trims an email so the same user never
// produces duplicate cache lines.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Key builds the tour-scoped cache key for a user.
func Key(userEmail string, tourID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", pendingBookingPrefix, NormalizeEmail(userEmail), tourID)
}

func userPrefix(userEmail string) string {
	return fmt.Sprintf("%s%s:", pendingBookingPrefix, NormalizeEmail(userEmail))
}

// Put records the in-progress booking for a user+tour pair. Failures are
// logged and swallowed.
func (s *Store) Put(ctx context.Context, userEmail string, tourID, bookingID uuid.UUID) {
	rec := Record{
		BookingID:        bookingID,
		TourID:           tourID,
		TimestampCreated: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to marshal pending booking record for %s: %v", bookingID, err)
		return
	}
	if err := s.Client.Set(ctx, Key(userEmail, tourID), payload, pendingBookingTTL).Err(); err != nil {
		logger.WarnLogger.Warnf("Failed to cache pending booking %s: %v", bookingID, err)
	}
}

// Get returns the pending booking id recorded for a user+tour pair, or nil
// on a miss. Storage and decode failures are treated as misses.
func (s *Store) Get(ctx context.Context, userEmail string, tourID uuid.UUID) *Record {
	val, err := s.Client.Get(ctx, Key(userEmail, tourID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.WarnLogger.Warnf("Pending booking cache read failed for %s: %v", userEmail, err)
		}
		return nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		logger.WarnLogger.Warnf("Corrupt pending booking record under %s: %v", Key(userEmail, tourID), err)
		return nil
	}
	return &rec
}

// ScanLatestUnpaid enumerates every pending-booking key for the user and
// returns the most recent record by creation timestamp, or nil when none
// exist. Used only when no tour-scoped key resolves.
func (s *Store) ScanLatestUnpaid(ctx context.Context, userEmail string) *Record {
	var latest *Record

	iter := s.Client.Scan(ctx, 0, userPrefix(userEmail)+"*", 100).Iterator()
	for iter.Next(ctx) {
		val, err := s.Client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			continue
		}
		if latest == nil || rec.TimestampCreated > latest.TimestampCreated {
			r := rec
			latest = &r
		}
	}
	if err := iter.Err(); err != nil {
		logger.WarnLogger.Warnf("Pending booking scan failed for %s: %v", userEmail, err)
		return nil
	}
	return latest
}

// PurgeUser removes every pending-booking key for the user. Called after a
// terminal successful payment so stale recovery pointers never outlive a
// completed flow.
func (s *Store) PurgeUser(ctx context.Context, userEmail string) {
	iter := s.Client.Scan(ctx, 0, userPrefix(userEmail)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.WarnLogger.Warnf("Pending booking purge scan failed for %s: %v", userEmail, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.Client.Del(ctx, keys...).Err(); err != nil {
		logger.WarnLogger.Warnf("Failed to purge %d pending booking keys for %s: %v", len(keys), userEmail, err)
		return
	}
	logger.InfoLogger.Infof("Purged %d pending booking keys for %s", len(keys), NormalizeEmail(userEmail))
}
