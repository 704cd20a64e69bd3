// shared/registry/client.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackbits/registration-service/shared/logger"
	redisu "github.com/hackbits/registration-service/shared/redis"
)

// Client reads the instance registry. Kept separate from Registrar so
// consumers (the admin stats endpoint) stay read-only.
type Client struct {
	redisClient redis.UniversalClient
	staleAfter  time.Duration
	log         *logger.Logger
}

// NewClient takes an already initialized Redis client.
func NewClient(redisClient redis.UniversalClient, staleAfter time.Duration, log *logger.Logger) *Client {
	return &Client{
		redisClient: redisClient,
		staleAfter:  staleAfter,
		log:         log,
	}
}

// ActiveInstances returns instances of the given service type whose last
// heartbeat is within the staleness window.
func (c *Client) ActiveInstances(ctx context.Context, serviceType string) ([]InstanceInfo, error) {
	key := redisu.RegistryHashPrefix + serviceType
	results, err := c.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of type %s: %w", serviceType, err)
	}

	var active []InstanceInfo
	now := time.Now()
	for instanceID, infoJSON := range results {
		var info InstanceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			// Malformed entries are swept by the registrar's cleanup loop.
			c.log.Warnw("skipping malformed registry entry", "instance", instanceID, "error", err)
			continue
		}
		if now.Sub(time.UnixMilli(info.LastSeen)) <= c.staleAfter {
			active = append(active, info)
		}
	}
	return active, nil
}
