package project

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, project_id, title, description, status, priority, assignees, watchers, created_by, due_date, is_archived, created_at, updated_at`

func (r *Repository) CreateTask(ctx context.Context, t *Task) (*Task, error) {
	if t.Status == "" {
		t.Status = TaskToDo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Assignees == nil {
		t.Assignees = []string{}
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO tasks (id, project_id, title, description, status, priority, assignees, created_by, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+taskColumns,
		uuid.NewString(), t.ProjectID, t.Title, t.Description, t.Status, t.Priority, t.Assignees, t.CreatedBy, t.DueDate)
	return scanTask(row)
}

func (r *Repository) GetTask(ctx context.Context, id string) (*Task, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *Repository) CanAccessTask(ctx context.Context, taskID, userID string) (bool, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT 1
		FROM tasks t
		INNER JOIN projects p ON p.id = t.project_id
		INNER JOIN workspace_members m ON m.workspace_id = p.workspace_id
		WHERE t.id = $1 AND m.user_id = $2
	`, taskID, userID)
	var dummy int
	if err := row.Scan(&dummy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Repository) ListProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	return r.listTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, projectID)
}

// ListUserTasks returns unarchived tasks the user is assigned to.
func (r *Repository) ListUserTasks(ctx context.Context, userID string) ([]Task, error) {
	return r.listTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE $1 = ANY(assignees) AND NOT is_archived
		ORDER BY due_date NULLS LAST, created_at DESC
	`, userID)
}

func (r *Repository) listTasks(ctx context.Context, query string, args ...interface{}) ([]Task, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateTaskField(ctx context.Context, taskID, column, value string) (*Task, error) {
	var query string
	switch column {
	case "title":
		query = `UPDATE tasks SET title = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + taskColumns
	case "description":
		query = `UPDATE tasks SET description = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + taskColumns
	case "status":
		query = `UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + taskColumns
	case "priority":
		query = `UPDATE tasks SET priority = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + taskColumns
	default:
		return nil, errors.New("unknown task column")
	}

	row := r.DB.QueryRow(ctx, query, value, taskID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *Repository) UpdateTaskAssignees(ctx context.Context, taskID string, assignees []string) (*Task, error) {
	if assignees == nil {
		assignees = []string{}
	}
	row := r.DB.QueryRow(ctx, `
		UPDATE tasks SET assignees = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+taskColumns, assignees, taskID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ToggleWatch adds or removes the user from the watcher list in one statement.
func (r *Repository) ToggleWatch(ctx context.Context, taskID, userID string) (*Task, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE tasks
		SET watchers = CASE
			WHEN $1 = ANY(watchers) THEN array_remove(watchers, $1)
			ELSE array_append(watchers, $1)
		END,
		updated_at = NOW()
		WHERE id = $2
		RETURNING `+taskColumns, userID, taskID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *Repository) ToggleArchive(ctx context.Context, taskID string) (*Task, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE tasks SET is_archived = NOT is_archived, updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskColumns, taskID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *Repository) AddSubtask(ctx context.Context, taskID, title string) (*Subtask, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO subtasks (id, task_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, task_id, title, completed, created_at
	`, uuid.NewString(), taskID, title)
	return scanSubtask(row)
}

func (r *Repository) UpdateSubtask(ctx context.Context, taskID, subtaskID string, completed bool) (*Subtask, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE subtasks SET completed = $1
		WHERE id = $2 AND task_id = $3
		RETURNING id, task_id, title, completed, created_at
	`, completed, subtaskID, taskID)
	st, err := scanSubtask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return st, err
}

func (r *Repository) ListSubtasks(ctx context.Context, taskID string) ([]Subtask, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, task_id, title, completed, created_at
		FROM subtasks
		WHERE task_id = $1
		ORDER BY created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subtask
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (r *Repository) AddComment(ctx context.Context, taskID, authorID, text string) (*Comment, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO comments (id, task_id, author_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, task_id, author_id, text, created_at
	`, uuid.NewString(), taskID, authorID, text)

	var c Comment
	if err := row.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, task_id, author_id, text, created_at
		FROM comments
		WHERE task_id = $1
		ORDER BY created_at DESC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) RecordActivity(ctx context.Context, userID, resourceType, resourceID, action string, details *string) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO activities (id, user_id, resource_type, resource_id, action, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), userID, resourceType, resourceID, action, details)
	return err
}

func (r *Repository) ListActivity(ctx context.Context, resourceID string) ([]Activity, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, resource_type, resource_id, action, details, created_at
		FROM activities
		WHERE resource_id = $1
		ORDER BY created_at DESC
	`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a       Activity
			details sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.ResourceType, &a.ResourceID, &a.Action, &details, &a.CreatedAt); err != nil {
			return nil, err
		}
		if details.Valid {
			a.Details = &details.String
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t           Task
		description sql.NullString
		dueDate     sql.NullTime
	)
	if err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&description,
		&t.Status,
		&t.Priority,
		&t.Assignees,
		&t.Watchers,
		&t.CreatedBy,
		&dueDate,
		&t.IsArchived,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	return &t, nil
}

func scanSubtask(row pgx.Row) (*Subtask, error) {
	var st Subtask
	if err := row.Scan(&st.ID, &st.TaskID, &st.Title, &st.Completed, &st.CreatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}
