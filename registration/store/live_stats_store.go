// registration/store/live_stats_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	redisu "github.com/hackbits/registration-service/shared/redis"
)

// recentFeedSize caps the Redis recent-checkins list.
const recentFeedSize = 10

// RecentCheckin is one entry of the live check-in feed shown on kiosk
// dashboards.
type RecentCheckin struct {
	TeamName           string    `json:"teamName"`
	RegistrationNumber string    `json:"registrationNumber"`
	CheckedInBy        string    `json:"checkedInBy"`
	CheckInTime        time.Time `json:"checkInTime"`
}

// LiveStatsStore keeps a best-effort live view of check-in activity in
// Redis: a cumulative counter and a capped recent feed. It is advisory
// only; MongoDB stays the source of truth.
type LiveStatsStore struct {
	client redis.UniversalClient
}

// NewLiveStatsStore creates a new LiveStatsStore instance.
func NewLiveStatsStore(client redis.UniversalClient) *LiveStatsStore {
	return &LiveStatsStore{client: client}
}

// RecordCheckin bumps the live counter and pushes one feed entry.
func (ls *LiveStatsStore) RecordCheckin(ctx context.Context, entry RecentCheckin) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal recent check-in entry: %w", err)
	}

	pipe := ls.client.TxPipeline()
	pipe.Incr(ctx, redisu.CheckinTotalKey)
	pipe.LPush(ctx, redisu.CheckinRecentKey, payload)
	pipe.LTrim(ctx, redisu.CheckinRecentKey, 0, recentFeedSize-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record live check-in: %w", err)
	}
	return nil
}

// Total returns the cumulative live check-in counter.
func (ls *LiveStatsStore) Total(ctx context.Context) (int64, error) {
	val, err := ls.client.Get(ctx, redisu.CheckinTotalKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read live check-in total: %w", err)
	}
	return val, nil
}

// Recent returns the newest feed entries, most recent first.
func (ls *LiveStatsStore) Recent(ctx context.Context) ([]RecentCheckin, error) {
	raw, err := ls.client.LRange(ctx, redisu.CheckinRecentKey, 0, recentFeedSize-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent check-ins: %w", err)
	}

	entries := make([]RecentCheckin, 0, len(raw))
	for _, item := range raw {
		var entry RecentCheckin
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue // Skip malformed entries.
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
