package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/PDFChat/internal/config"
)

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var (
	once   sync.Once
	client *http.Client
)

// GetClient returns the pooled client shared by the embedding and generation providers.
// Deadlines come from the request context, so the client itself has no timeout.
func GetClient() *http.Client {
	once.Do(func() {
		client = &http.Client{Transport: customTransport}
	})
	return client
}

// CloseIdle drops pooled connections on shutdown.
func CloseIdle() {
	customTransport.CloseIdleConnections()
}
