package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

// Mode values reported by Store implementations.
const (
	ModeConnected = "connected"
	ModeDegraded  = "degraded"
)

// Store extends the orchestrator's view of the graph with lifecycle
// control for the serve command.
type Store interface {
	prescription.GraphStore
	Close(ctx context.Context) error
}

// Connect dials the graph database and verifies connectivity. Any failure,
// an unset URI included, selects the in-memory fallback so analysis keeps
// working without the graph. The choice is made once; callers never need
// nil checks or per-call reconnect logic.
func Connect(ctx context.Context, uri, username, password string, logger zerolog.Logger) Store {
	if uri == "" {
		logger.Warn().Msg("graph uri not configured, using in-memory graph fallback")
		return NewMemoryStore()
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err == nil {
		err = driver.VerifyConnectivity(ctx)
	}
	if err != nil {
		logger.Warn().Err(err).Str("uri", uri).Msg("graph database unreachable, using in-memory graph fallback")
		return NewMemoryStore()
	}

	logger.Info().Str("uri", uri).Msg("connected to graph database")
	return &Neo4jStore{driver: driver}
}
