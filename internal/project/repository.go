package project

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	DB *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{DB: db}
}

const workspaceColumns = `id, name, description, color, owner_id, created_at, updated_at`
const projectColumns = `id, workspace_id, title, description, status, start_date, due_date, created_at, updated_at`

func (r *Repository) CreateWorkspace(ctx context.Context, name string, description *string, color, ownerID string) (*Workspace, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO workspaces (id, name, description, color, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+workspaceColumns,
		uuid.NewString(), name, description, color, ownerID)

	ws, err := scanWorkspace(row)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
	`, ws.ID, ownerID, RoleOwner); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *Repository) ListWorkspacesForUser(ctx context.Context, userID string) ([]Workspace, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT w.id, w.name, w.description, w.color, w.owner_id, w.created_at, w.updated_at
		FROM workspaces w
		INNER JOIN workspace_members m ON m.workspace_id = w.id
		WHERE m.user_id = $1
		ORDER BY w.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ws)
	}
	return out, rows.Err()
}

func (r *Repository) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	ws, err := scanWorkspace(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ws, err
}

func (r *Repository) ListMembers(ctx context.Context, workspaceID string) ([]Member, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT workspace_id, user_id, role, joined_at
		FROM workspace_members
		WHERE workspace_id = $1
		ORDER BY joined_at
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT 1 FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID)
	var dummy int
	if err := row.Scan(&dummy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Repository) CreateProject(ctx context.Context, workspaceID, title string, description *string, status string, startDate, dueDate *time.Time) (*Project, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO projects (id, workspace_id, title, description, status, start_date, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+projectColumns,
		uuid.NewString(), workspaceID, title, description, status, startDate, dueDate)
	return scanProject(row)
}

func (r *Repository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *Repository) ListWorkspaceProjects(ctx context.Context, workspaceID string) ([]Project, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE workspace_id = $1
		ORDER BY created_at DESC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CanAccessProject reports whether the user belongs to the workspace that
// owns the project.
func (r *Repository) CanAccessProject(ctx context.Context, projectID, userID string) (bool, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT 1
		FROM projects p
		INNER JOIN workspace_members m ON m.workspace_id = p.workspace_id
		WHERE p.id = $1 AND m.user_id = $2
	`, projectID, userID)
	var dummy int
	if err := row.Scan(&dummy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanWorkspace(row pgx.Row) (*Workspace, error) {
	var (
		ws          Workspace
		description sql.NullString
	)
	if err := row.Scan(&ws.ID, &ws.Name, &description, &ws.Color, &ws.OwnerID, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		ws.Description = &description.String
	}
	return &ws, nil
}

func scanProject(row pgx.Row) (*Project, error) {
	var (
		p           Project
		description sql.NullString
		startDate   sql.NullTime
		dueDate     sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.WorkspaceID, &p.Title, &description, &p.Status, &startDate, &dueDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	if startDate.Valid {
		p.StartDate = &startDate.Time
	}
	if dueDate.Valid {
		p.DueDate = &dueDate.Time
	}
	return &p, nil
}
