// AngelaMos | 2026
// dto.go

package project

import "time"

type CreateProjectRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
	RepoURL     string `json:"repoUrl"     validate:"omitempty,url,max=500"`
	LiveURL     string `json:"liveUrl"     validate:"omitempty,url,max=500"`
	Featured    bool   `json:"featured"`
}

type UpdateProjectRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
	RepoURL     string `json:"repoUrl"     validate:"omitempty,url,max=500"`
	LiveURL     string `json:"liveUrl"     validate:"omitempty,url,max=500"`
	Featured    bool   `json:"featured"`
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RepoURL     string    `json:"repoUrl,omitempty"`
	LiveURL     string    `json:"liveUrl,omitempty"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProjectEnvelope struct {
	Success bool            `json:"success"`
	Project ProjectResponse `json:"project"`
}

type ProjectListEnvelope struct {
	Success  bool              `json:"success"`
	Projects []ProjectResponse `json:"projects"`
}

func toProjectResponse(p *Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		RepoURL:     p.RepoURL,
		LiveURL:     p.LiveURL,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
