package storage

import (
	"database/sql"
	"fmt"
)

// GetDailyTask retrieves a daily task by ID. Returns nil, nil when missing.
func GetDailyTask(id int64) (*DailyTask, error) {
	var t DailyTask
	err := db.QueryRow(`
		SELECT id, title, description, reward, icon_name, link, action, mandatory, active
		FROM daily_tasks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Title, &t.Description, &t.Reward, &t.IconName, &t.Link, &t.Action, &t.Mandatory, &t.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily task: %w", err)
	}
	return &t, nil
}

// CreateDailyTask inserts a new daily task definition.
func CreateDailyTask(t *DailyTask) (*DailyTask, error) {
	res, err := db.Exec(`
		INSERT INTO daily_tasks (title, description, reward, icon_name, link, action, mandatory, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Title, t.Description, t.Reward, t.IconName, t.Link, t.Action, t.Mandatory, t.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to insert daily task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DailyTaskWithProgress is a daily task joined with one user's claim state.
type DailyTaskWithProgress struct {
	DailyTask
	Claimed   bool `json:"claimed"`
	Completed bool `json:"completed"`
}

// ListDailyTasksForUser returns all daily tasks in table order with the
// given user's claimed/completed flags folded in.
func ListDailyTasksForUser(userID int64) ([]*DailyTaskWithProgress, error) {
	rows, err := db.Query(`
		SELECT t.id, t.title, t.description, t.reward, t.icon_name, t.link, t.action, t.mandatory, t.active,
			COALESCE(u.claimed, 0), COALESCE(u.completed, 0)
		FROM daily_tasks t
		LEFT JOIN user_daily_tasks u ON u.daily_task_id = t.id AND u.user_id = ?
		ORDER BY t.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*DailyTaskWithProgress
	for rows.Next() {
		var t DailyTaskWithProgress
		err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Reward, &t.IconName, &t.Link,
			&t.Action, &t.Mandatory, &t.Active, &t.Claimed, &t.Completed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// CreatePartnerTask inserts a partner task definition into the catalog.
func CreatePartnerTask(t *PartnerTask) (*PartnerTask, error) {
	res, err := db.Exec(`
		INSERT INTO partner_tasks (title, description, reward, icon_name, link, active, required_level, created_by_user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Title, t.Description, t.Reward, t.IconName, t.Link, t.Active, t.RequiredLevel, t.CreatedByUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert partner task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListActivePartnerTasks returns the active partner task catalog.
func ListActivePartnerTasks() ([]*PartnerTask, error) {
	rows, err := db.Query(`
		SELECT id, title, description, reward, icon_name, link, active, required_level, created_by_user_id
		FROM partner_tasks
		WHERE active = 1
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list partner tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*PartnerTask
	for rows.Next() {
		var t PartnerTask
		err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Reward, &t.IconName, &t.Link,
			&t.Active, &t.RequiredLevel, &t.CreatedByUserID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan partner task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}
