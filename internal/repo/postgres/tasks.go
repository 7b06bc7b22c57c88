package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskhub/internal/domain/task"
	"taskhub/internal/observability"
)

// Every id-targeted statement filters by id AND owner_id. That is the
// ownership isolation mechanism: a task owned by someone else scans the
// same as a task that does not exist.
type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.observe("tasks.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, owner_id, title, description, status, priority, due_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.ID, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.CreatedAt, t.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id, ownerID string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, owner_id, title, description, status, priority, due_date, created_at, updated_at
			 FROM tasks
			 WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) ListByOwner(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	baseQuery := `SELECT id, owner_id, title, description, status, priority, due_date, created_at, updated_at
	FROM tasks
	WHERE owner_id = $1`

	args := []interface{}{ownerID}
	argsPosition := 2

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argsPosition)
		args = append(args, *filter.Status)
		argsPosition++
	}

	if filter.Priority != nil {
		baseQuery += fmt.Sprintf(" AND priority = $%d", argsPosition)
		args = append(args, *filter.Priority)
		argsPosition++
	}

	// newest first
	baseQuery += " ORDER BY created_at DESC, id DESC"

	var rows pgx.Rows
	var err error

	err = r.observe("tasks.list_by_owner", func() error {
		rows, err = r.pool.Query(ctx, baseQuery, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]task.Task, 0)

	for rows.Next() {
		var t task.Task

		err = rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)

		if err != nil {
			return nil, err
		}

		output = append(output, t)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return output, nil
}

// Update applies only the fields carried by the patch and always refreshes
// updated_at. Absent fields keep their stored value.
func (r *TasksRepo) Update(ctx context.Context, id, ownerID string, patch task.Patch) (task.Task, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, ownerID}
	argsPosition := 3

	if patch.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argsPosition))
		args = append(args, *patch.Title)
		argsPosition++
	}

	if patch.SetDescription {
		sets = append(sets, fmt.Sprintf("description = $%d", argsPosition))
		args = append(args, patch.Description)
		argsPosition++
	}

	if patch.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *patch.Status)
		argsPosition++
	}

	if patch.Priority != nil {
		sets = append(sets, fmt.Sprintf("priority = $%d", argsPosition))
		args = append(args, *patch.Priority)
		argsPosition++
	}

	if patch.SetDueDate {
		sets = append(sets, fmt.Sprintf("due_date = $%d", argsPosition))
		args = append(args, patch.DueDate)
		argsPosition++
	}

	query := `UPDATE tasks
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, title, description, status, priority, due_date, created_at, updated_at`

	var t task.Task

	err := r.observe("tasks.update", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(
			&t.ID,
			&t.OwnerID,
			&t.Title,
			&t.Description,
			&t.Status,
			&t.Priority,
			&t.DueDate,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id, ownerID string) error {
	var tag pgconn.CommandTag

	err := r.observe("tasks.delete", func() error {
		t, e := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
		tag = t
		return e
	})

	if err != nil {
		return err
	}

	// row count is authoritative for 404 vs deleted
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}

	return nil
}
