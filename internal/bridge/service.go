package bridge

import (
	"context"

	"github.com/arc-language/pkgdesk"
	"github.com/arc-language/pkgdesk/pkg/catalog"
	"github.com/arc-language/pkgdesk/pkg/core"
)

// Service is the backend the bridge talks to
type Service interface {
	Installed(ctx context.Context) ([]core.Package, error)
	Updates(ctx context.Context) ([]core.Package, error)
	Explore(ctx context.Context) ([]core.Package, error)
	Search(ctx context.Context, term, scope string) ([]core.Package, error)

	// Start runs req and returns the operation ID and its event stream.
	// The stream ends with a Done event and is then closed.
	Start(ctx context.Context, req core.Request) (string, <-chan core.Event, error)

	// Cancel cancels an in-flight operation
	Cancel(id string) error
}

type managerService struct {
	manager *pkgdesk.Manager
}

// NewService exposes a Manager to the bridge
func NewService(m *pkgdesk.Manager) Service {
	return &managerService{manager: m}
}

func (s *managerService) Installed(ctx context.Context) ([]core.Package, error) {
	return s.manager.Catalog().Installed(ctx)
}

func (s *managerService) Updates(ctx context.Context) ([]core.Package, error) {
	return s.manager.Catalog().Updates(ctx)
}

func (s *managerService) Explore(ctx context.Context) ([]core.Package, error) {
	return s.manager.Catalog().Explore(ctx)
}

func (s *managerService) Search(ctx context.Context, term, scope string) ([]core.Package, error) {
	sc, err := catalog.ParseScope(scope)
	if err != nil {
		return nil, err
	}
	return s.manager.Catalog().Search(ctx, term, sc)
}

func (s *managerService) Start(ctx context.Context, req core.Request) (string, <-chan core.Event, error) {
	op, err := s.manager.Run(ctx, req)
	if err != nil {
		return "", nil, err
	}
	return op.ID, op.Events(), nil
}

func (s *managerService) Cancel(id string) error {
	return s.manager.Cancel(id)
}
