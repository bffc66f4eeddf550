package api

import (
	"context"

	"github.com/classpulse/classpulse/internal/engage"
	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/store"
)

// ReferenceRegistrar is the gallery side of the analysis service client,
// plus its health probe.
type ReferenceRegistrar interface {
	AddReference(ctx context.Context, imageBytes []byte, subject string, scope faceapi.Scope) error
	RemoveReference(ctx context.Context, subject string) error
	Health(ctx context.Context) error
}

// Handlers holds the request handlers and their dependencies. Every
// dependency is an interface or a small concrete helper so handler tests
// can substitute fakes.
type Handlers struct {
	processor FrameProcessor
	stats     StatsProvider
	detector  engage.Detector
	resolver  engage.Resolver
	sessions  store.SessionStore
	users     store.UserStore
	gallery   *store.Gallery
	gateway   ReferenceRegistrar
	auth      *Auth
}

// NewHandlers wires the handler set.
func NewHandlers(
	processor FrameProcessor,
	stats StatsProvider,
	detector engage.Detector,
	resolver engage.Resolver,
	sessions store.SessionStore,
	users store.UserStore,
	gallery *store.Gallery,
	gateway ReferenceRegistrar,
	auth *Auth,
) *Handlers {
	return &Handlers{
		processor: processor,
		stats:     stats,
		detector:  detector,
		resolver:  resolver,
		sessions:  sessions,
		users:     users,
		gallery:   gallery,
		gateway:   gateway,
		auth:      auth,
	}
}
