package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jpriddy/chorewheel/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	var completedAt sql.NullInt64
	var photoPath sql.NullString

	err := scanner.Scan(
		&a.ID, &a.ChoreID, &a.MemberID, &a.WeekStart, &a.Status,
		&completedAt, &photoPath, &a.CreatedAt,
		&a.GroupID, &a.ChoreName, &a.ChoreOrderNum, &a.RequiresPhoto, &a.MemberName,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		a.CompletedAt = &completedAt.Int64
	}
	if photoPath.Valid {
		a.Photos = model.DecodePhotoSet(photoPath.String)
	}
	return &a, nil
}

const assignmentCols = `a.id, a.chore_id, a.member_id, a.week_start, a.status,
	a.completed_at, a.photo_path, a.created_at,
	c.group_id, c.name, c.order_num, c.requires_photo, m.name`

const assignmentJoin = `FROM assignments a
	JOIN chores c ON a.chore_id = c.id
	JOIN members m ON a.member_id = m.id`

// Create inserts a pending assignment. Uniqueness per (chore, week) is not
// enforced here; the rotation engine and the manual-assignment handler are
// responsible for not double-assigning.
func (s *AssignmentStore) Create(choreID, memberID, weekStart int64) (*model.Assignment, error) {
	result, err := s.db.Exec(
		`INSERT INTO assignments (chore_id, member_id, week_start) VALUES (?, ?, ?)`,
		choreID, memberID, weekStart,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssignmentStore) GetByID(id int64) (*model.Assignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` `+assignmentJoin+` WHERE a.id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *AssignmentStore) listQuery(where string, args ...any) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` `+assignmentJoin+` `+where,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *AssignmentStore) ListByGroup(groupID int64) ([]model.Assignment, error) {
	return s.listQuery(
		`WHERE c.group_id = ? ORDER BY a.week_start DESC, c.order_num ASC`,
		groupID,
	)
}

func (s *AssignmentStore) ListByMember(memberID int64) ([]model.Assignment, error) {
	return s.listQuery(
		`WHERE a.member_id = ? ORDER BY a.week_start DESC, c.order_num ASC`,
		memberID,
	)
}

func (s *AssignmentStore) ListPendingByMember(memberID int64) ([]model.Assignment, error) {
	return s.listQuery(
		`WHERE a.member_id = ? AND a.status = 'pending' ORDER BY a.week_start ASC, c.order_num ASC`,
		memberID,
	)
}

// ListByWeek returns the group's assignments for one week in chore order.
// This is the rotation basis the successor strategy reads.
func (s *AssignmentStore) ListByWeek(groupID, weekStart int64) ([]model.Assignment, error) {
	return s.listQuery(
		`WHERE c.group_id = ? AND a.week_start = ? ORDER BY c.order_num ASC`,
		groupID, weekStart,
	)
}

// FindByPhotoPath looks up the assignment holding the given photo, used to
// authorize photo serving. The path match is exact against the decoded set.
func (s *AssignmentStore) FindByPhotoPath(path string) (*model.Assignment, error) {
	candidates, err := s.listQuery(
		`WHERE a.photo_path LIKE '%' || ? || '%'`,
		path,
	)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		for _, p := range candidates[i].Photos {
			if p == path {
				return &candidates[i], nil
			}
		}
	}
	return nil, nil
}

// Complete transitions a pending assignment to completed, recording the
// timestamp and photo evidence. When the chore requires a photo and the
// caller is not privileged, at least one photo must be supplied.
func (s *AssignmentStore) Complete(id int64, photos model.PhotoSet, privileged bool) (*model.Assignment, error) {
	a, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if a.Status == model.StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if a.RequiresPhoto && !privileged && len(photos) == 0 {
		return nil, ErrPhotoRequired
	}

	var photoPath sql.NullString
	if encoded := photos.Encode(); encoded != "" {
		photoPath = sql.NullString{String: encoded, Valid: true}
	}

	_, err = s.db.Exec(
		`UPDATE assignments SET status = ?, completed_at = ?, photo_path = ? WHERE id = ?`,
		model.StatusCompleted, time.Now().Unix(), photoPath, id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete assignment: %w", err)
	}
	return s.GetByID(id)
}

// Reject undoes an erroneous completion, restoring the pending state and
// clearing the completion timestamp and photo evidence.
func (s *AssignmentStore) Reject(id int64) (*model.Assignment, error) {
	a, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if a.Status != model.StatusCompleted {
		return nil, ErrNotCompleted
	}

	_, err = s.db.Exec(
		`UPDATE assignments SET status = ?, completed_at = NULL, photo_path = NULL WHERE id = ?`,
		model.StatusPending, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reject assignment: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssignmentStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByWeek bulk-deletes a group's assignments for one week and returns
// the number deleted. Assignments carry no group column, so the delete joins
// through chores.
func (s *AssignmentStore) DeleteByWeek(groupID, weekStart int64) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM assignments WHERE week_start = ?
		 AND chore_id IN (SELECT id FROM chores WHERE group_id = ?)`,
		weekStart, groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete assignments by week: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
