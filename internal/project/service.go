// AngelaMos | 2026
// service.go

package project

import (
	"context"

	"github.com/carterperez-dev/portfolio-api/internal/middleware"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(
	ctx context.Context,
	ownerID string,
	req CreateProjectRequest,
) (*Project, error) {
	return s.repo.Create(ctx, ownerID, req)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Project, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// Update is permitted to the project's owner or to an admin. The ownership
// check reads the stored owner, never anything from the request body.
func (s *Service) Update(
	ctx context.Context,
	authCtx *middleware.AuthContext,
	id string,
	req UpdateProjectRequest,
) (*Project, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := middleware.AuthorizeOwnership(authCtx, existing.OwnerID); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, req)
}

func (s *Service) Delete(
	ctx context.Context,
	authCtx *middleware.AuthContext,
	id string,
) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := middleware.AuthorizeOwnership(authCtx, existing.OwnerID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}
