// AngelaMos | 2026
// repository.go

package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/portfolio-api/internal/core"
)

type Repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) *Repository {
	return &Repository{db: db}
}

const projectColumns = `
	id, owner_id, title, description, repo_url, live_url, featured,
	created_at, updated_at`

func (r *Repository) Create(
	ctx context.Context,
	ownerID string,
	req CreateProjectRequest,
) (*Project, error) {
	query := `
		INSERT INTO projects
			(id, owner_id, title, description, repo_url, live_url, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + projectColumns

	var p Project
	err := r.db.GetContext(
		ctx,
		&p,
		query,
		uuid.New().String(),
		ownerID,
		req.Title,
		req.Description,
		req.RepoURL,
		req.LiveURL,
		req.Featured,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	return &p, nil
}

func (r *Repository) FindByID(
	ctx context.Context,
	id string,
) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	var p Project
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("find project by id: %w", err)
	}

	return &p, nil
}

func (r *Repository) List(ctx context.Context) ([]Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		ORDER BY featured DESC, created_at DESC`

	projects := []Project{}
	if err := r.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

func (r *Repository) Update(
	ctx context.Context,
	id string,
	req UpdateProjectRequest,
) (*Project, error) {
	query := `
		UPDATE projects
		SET title = $2,
		    description = $3,
		    repo_url = $4,
		    live_url = $5,
		    featured = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns

	var p Project
	err := r.db.GetContext(
		ctx,
		&p,
		query,
		id,
		req.Title,
		req.Description,
		req.RepoURL,
		req.LiveURL,
		req.Featured,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("update project: %w", err)
	}

	return &p, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project rows affected: %w", err)
	}
	if rows == 0 {
		return core.ErrNotFound
	}

	return nil
}
