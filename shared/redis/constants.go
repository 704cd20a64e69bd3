// shared/redis/constants.go
package redis

// Key layout for the live check-in feed and the instance registry.
const (
	// CheckinTotalKey holds the cumulative number of successful check-ins.
	CheckinTotalKey = "checkin:total"
	// CheckinRecentKey is a capped list of the most recent check-ins (JSON).
	CheckinRecentKey = "checkin:recent"
	// RegistryHashPrefix prefixes the per-service-type registry hash.
	RegistryHashPrefix = "registry:services:"
)
