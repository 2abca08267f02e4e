package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports readiness of the analysis backend.
type Service struct {
	DB       Pinger
	Provider string
	Model    string
	// PingTimeout bounds the database check; zero means one second.
	PingTimeout time.Duration
}

// NewService constructs a health service. db may be nil when history is kept in memory.
func NewService(db Pinger, provider, model string) *Service {
	return &Service{DB: db, Provider: provider, Model: model}
}

// Status returns the readiness payload merged into GET /health.
func (s *Service) Status(ctx context.Context) map[string]any {
	out := map[string]any{
		"provider": s.Provider,
		"model":    s.Model,
		"storage":  "memory",
	}
	if s.DB == nil {
		return out
	}
	out["storage"] = "postgres"

	timeout := s.PingTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		out["database"] = "unreachable"
		return out
	}
	out["database"] = "ok"
	return out
}
