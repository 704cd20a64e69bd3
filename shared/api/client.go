// shared/api/client.go
package api

import (
	"net"
	"net/http"
	"time"
)

// NewDefaultHTTPClient builds an http.Client with sane connection pooling
// and timeouts for outbound calls (payment gateway, blob storage). Callers
// may tighten the overall Timeout for their use case.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
