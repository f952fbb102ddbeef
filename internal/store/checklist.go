package store

import (
	"database/sql"
	"fmt"

	"github.com/rumzy/unisettle/internal/model"
)

type ChecklistStore struct {
	db *sql.DB
}

func NewChecklistStore(db *sql.DB) *ChecklistStore {
	return &ChecklistStore{db: db}
}

// ListForUser returns the seeded settlement tasks with the user's
// completion state merged in.
func (s *ChecklistStore) ListForUser(userID int64) ([]*model.ChecklistTask, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.title, t.recommended, t.description, t.guide_slug, t.position,
		        c.task_id IS NOT NULL
		 FROM checklist_tasks t
		 LEFT JOIN checklist_completions c ON c.task_id = t.id AND c.user_id = ?
		 ORDER BY t.position`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list checklist tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.ChecklistTask
	for rows.Next() {
		var t model.ChecklistTask
		var completed int
		if err := rows.Scan(&t.ID, &t.Title, &t.Recommended, &t.Description, &t.GuideSlug, &t.Position, &completed); err != nil {
			return nil, fmt.Errorf("scan checklist task: %w", err)
		}
		t.Completed = completed != 0
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

func (s *ChecklistStore) TaskExists(taskID int64) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM checklist_tasks WHERE id = ?`, taskID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check task: %w", err)
	}
	return true, nil
}

// Toggle flips the completion state for a task and returns the new state.
func (s *ChecklistStore) Toggle(userID, taskID int64) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM checklist_completions WHERE user_id = ? AND task_id = ?`,
		userID, taskID,
	)
	if err != nil {
		return false, fmt.Errorf("toggle checklist task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.db.Exec(
		`INSERT INTO checklist_completions (user_id, task_id) VALUES (?, ?)`,
		userID, taskID,
	)
	if err != nil {
		return false, fmt.Errorf("complete checklist task: %w", err)
	}
	return true, nil
}
