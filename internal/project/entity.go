// AngelaMos | 2026
// entity.go

package project

import "time"

type Project struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	RepoURL     string    `db:"repo_url"`
	LiveURL     string    `db:"live_url"`
	Featured    bool      `db:"featured"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
