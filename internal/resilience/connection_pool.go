package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// idleClient is a pooled HTTP client with its last checkout time, used to
// expire clients that have sat idle past the pool's timeout.
type idleClient struct {
	client   *http.Client
	lastUsed time.Time
}

// ConnectionPool bounds concurrent HTTP clients against the GitHub API host
// and routes every request through a circuit breaker. All clients share one
// transport so the underlying TCP connections are reused across checkouts.
type ConnectionPool struct {
	maxIdle     int
	maxActive   int
	idleTimeout time.Duration

	breaker   *CircuitBreaker
	transport *http.Transport

	mu     sync.Mutex
	active int
	idle   []idleClient
}

// NewConnectionPool creates a pool guarded by the given circuit breaker.
func NewConnectionPool(maxIdle, maxActive int, idleTimeout time.Duration, cb *CircuitBreaker) *ConnectionPool {
	return &ConnectionPool{
		maxIdle:     maxIdle,
		maxActive:   maxActive,
		idleTimeout: idleTimeout,
		breaker:     cb,
		transport: &http.Transport{
			MaxIdleConns:          maxIdle,
			MaxConnsPerHost:       maxActive,
			MaxIdleConnsPerHost:   maxIdle / 2,
			IdleConnTimeout:       idleTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// checkout hands out an idle client or creates one, failing when the active
// bound is reached.
func (cp *ConnectionPool) checkout() (*http.Client, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.expireIdleLocked()

	if n := len(cp.idle); n > 0 {
		client := cp.idle[n-1].client
		cp.idle = cp.idle[:n-1]
		return client, nil
	}

	if cp.active >= cp.maxActive {
		return nil, fmt.Errorf("connection pool exhausted: %d/%d active", cp.active, cp.maxActive)
	}

	cp.active++
	return &http.Client{
		Transport: cp.transport,
		Timeout:   30 * time.Second,
	}, nil
}

// checkin returns a client to the idle list, dropping it when the list is
// full.
func (cp *ConnectionPool) checkin(client *http.Client) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if len(cp.idle) < cp.maxIdle {
		cp.idle = append(cp.idle, idleClient{client: client, lastUsed: time.Now()})
		return
	}
	if cp.active > 0 {
		cp.active--
	}
}

func (cp *ConnectionPool) expireIdleLocked() {
	cutoff := time.Now().Add(-cp.idleTimeout)
	kept := cp.idle[:0]
	for _, ic := range cp.idle {
		if ic.lastUsed.After(cutoff) {
			kept = append(kept, ic)
		} else if cp.active > 0 {
			cp.active--
		}
	}
	cp.idle = kept
}

// DoRequest executes one HTTP request through the circuit breaker using a
// pooled client. The caller owns the response body.
func (cp *ConnectionPool) DoRequest(ctx context.Context, method, url string, headers map[string]string) (*http.Response, error) {
	var resp *http.Response

	err := cp.breaker.Call(func() error {
		client, err := cp.checkout()
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			cp.checkin(client)
			return err
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		start := time.Now()
		resp, err = client.Do(req)
		cp.checkin(client)

		if err != nil {
			slog.Warn("Request failed", "url", url, "error", err, "duration_ms", time.Since(start).Milliseconds())
			return err
		}

		slog.Debug("Request completed", "url", url, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// GetStats returns pool occupancy and the breaker state.
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	return map[string]interface{}{
		"active_connections":    cp.active,
		"idle_connections":      len(cp.idle),
		"max_idle":              cp.maxIdle,
		"max_active":            cp.maxActive,
		"idle_timeout_ms":       cp.idleTimeout.Milliseconds(),
		"circuit_breaker_state": cp.breaker.State(),
	}
}

// Close drops all pooled clients and closes the shared transport's idle
// connections.
func (cp *ConnectionPool) Close() error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.idle = nil
	cp.active = 0
	cp.transport.CloseIdleConnections()

	slog.Info("Connection pool closed")
	return nil
}
