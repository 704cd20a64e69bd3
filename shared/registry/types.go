// shared/registry/types.go
package registry

// InstanceInfo represents one registered service instance. It is stored in
// Redis so ops dashboards can see which registration/kiosk backends are live.
type InstanceInfo struct {
	InstanceID  string            `json:"instanceId"`
	ServiceType string            `json:"serviceType"`
	IP          string            `json:"ip"`
	Port        int               `json:"port"`
	LastSeen    int64             `json:"lastSeen"` // Unix milliseconds
	Metadata    map[string]string `json:"metadata,omitempty"`
}
