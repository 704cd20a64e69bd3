// shared/registry/registrar.go
package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hackbits/registration-service/shared/logger"
	redisu "github.com/hackbits/registration-service/shared/redis"
)

// Config carries the heartbeat settings for a registrar.
type Config struct {
	ServiceType     string
	IP              string
	Port            int
	Interval        time.Duration
	TTL             time.Duration
	CleanupInterval time.Duration // 0 disables the stale-entry sweep
}

// Registrar handles the self-registration and heartbeating of a service
// instance so admin dashboards can list live backends.
type Registrar struct {
	redisClient redis.UniversalClient
	cfg         Config
	instanceID  string
	log         *logger.Logger
	stopChan    chan struct{}
	doneChan    chan struct{}
}

// NewRegistrar creates a Registrar with a fresh unique instance id.
func NewRegistrar(redisClient redis.UniversalClient, cfg Config, log *logger.Logger) *Registrar {
	return &Registrar{
		redisClient: redisClient,
		cfg:         cfg,
		instanceID:  cfg.ServiceType + "-" + uuid.NewString(),
		log:         log,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start begins registration and heartbeating in a goroutine.
func (r *Registrar) Start() {
	r.log.Infow("starting instance registrar",
		"type", r.cfg.ServiceType, "instance", r.instanceID,
		"ip", r.cfg.IP, "port", r.cfg.Port)
	go r.run()
}

// Stop signals the registrar to stop, waits for it, and removes this
// instance from the registry.
func (r *Registrar) Stop() {
	close(r.stopChan)
	<-r.doneChan

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hashKey := redisu.RegistryHashPrefix + r.cfg.ServiceType
	if _, err := r.redisClient.HDel(ctx, hashKey, r.instanceID).Result(); err != nil {
		r.log.Errorw("failed to remove instance from registry on shutdown",
			"instance", r.instanceID, "error", err)
	} else {
		r.log.Infow("instance removed from registry", "instance", r.instanceID)
	}
}

func (r *Registrar) run() {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.heartbeat()

	if r.cfg.CleanupInterval > 0 {
		go r.cleanupLoop()
	}

	for {
		select {
		case <-ticker.C:
			r.heartbeat()
		case <-r.stopChan:
			return
		}
	}
}

// heartbeat writes this instance's registration entry with a fresh LastSeen.
func (r *Registrar) heartbeat() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	info := InstanceInfo{
		InstanceID:  r.instanceID,
		ServiceType: r.cfg.ServiceType,
		IP:          r.cfg.IP,
		Port:        r.cfg.Port,
		LastSeen:    time.Now().UnixMilli(),
	}

	infoJSON, err := json.Marshal(info)
	if err != nil {
		r.log.Errorw("failed to marshal instance info", "instance", r.instanceID, "error", err)
		return
	}

	hashKey := redisu.RegistryHashPrefix + r.cfg.ServiceType
	if _, err := r.redisClient.HSet(ctx, hashKey, r.instanceID, infoJSON).Result(); err != nil {
		r.log.Errorw("instance heartbeat failed", "instance", r.instanceID, "error", err)
	}
}

func (r *Registrar) cleanupLoop() {
	ticker := time.NewTicker(r.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweepStale()
		case <-r.stopChan:
			return
		}
	}
}

// sweepStale removes registry entries whose heartbeat is older than the TTL.
func (r *Registrar) sweepStale() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hashKey := redisu.RegistryHashPrefix + r.cfg.ServiceType
	results, err := r.redisClient.HGetAll(ctx, hashKey).Result()
	if err != nil {
		r.log.Errorw("registry sweep failed to list instances", "error", err)
		return
	}

	now := time.Now()
	for instanceID, infoJSON := range results {
		var info InstanceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			// Corrupt entry, drop it.
			if _, delErr := r.redisClient.HDel(ctx, hashKey, instanceID).Result(); delErr != nil {
				r.log.Errorw("failed to delete corrupt registry entry", "instance", instanceID, "error", delErr)
			}
			continue
		}
		if now.Sub(time.UnixMilli(info.LastSeen)) > r.cfg.TTL {
			if _, delErr := r.redisClient.HDel(ctx, hashKey, instanceID).Result(); delErr != nil {
				r.log.Errorw("failed to delete stale registry entry", "instance", instanceID, "error", delErr)
			} else {
				r.log.Infow("removed stale instance from registry", "instance", instanceID)
			}
		}
	}
}

// InstanceID returns the unique id assigned to this instance.
func (r *Registrar) InstanceID() string {
	return r.instanceID
}
