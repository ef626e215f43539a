package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"

	"github.com/segyhp/rental-billing/pkg/response"
)

const (
	checkOK       = "ok"
	checkDisabled = "disabled"
)

// dependencyCheck pings one backing service. A nil ping marks the
// dependency as not configured.
type dependencyCheck struct {
	name  string
	ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []dependencyCheck
	timeout time.Duration
}

// NewHealthHandler builds the health endpoints. redis may be nil when no
// Redis address is configured; it is then reported as disabled.
func NewHealthHandler(db *sqlx.DB, rdb redis.UniversalClient, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	checks := []dependencyCheck{{name: "database", ping: db.PingContext}}
	if rdb != nil {
		checks = append(checks, dependencyCheck{name: "redis", ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		checks = append(checks, dependencyCheck{name: "redis"})
	}

	return &HealthHandler{checks: checks, timeout: timeout}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health reports that the process is serving requests
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthStatus{Status: checkOK, Timestamp: time.Now()})
}

// Ready pings every dependency in parallel under one deadline and answers
// 503 when any of them fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := HealthStatus{
		Status:    checkOK,
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	var (
		mu sync.Mutex
		wg conc.WaitGroup
	)
	for _, c := range h.checks {
		wg.Go(func() {
			result := checkDisabled
			if c.ping != nil {
				result = checkOK
				if err := c.ping(ctx); err != nil {
					result = "failed: " + err.Error()
				}
			}

			mu.Lock()
			defer mu.Unlock()
			status.Checks[c.name] = result
			if result != checkOK && result != checkDisabled {
				status.Status = "error"
			}
		})
	}
	wg.Wait()

	if status.Status != checkOK {
		response.JSON(w, http.StatusServiceUnavailable, status)
		return
	}
	response.Success(w, status)
}
