package store

import (
	"database/sql"
	"fmt"

	"github.com/jpriddy/chorewheel/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	err := scanner.Scan(
		&c.ID, &c.GroupID, &c.Name, &c.Frequency, &c.RequiresPhoto,
		&c.OrderNum, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const choreCols = `id, group_id, name, frequency, requires_photo, order_num, created_at, updated_at`

// Create inserts a chore at the end of the group's order. The order number
// comes from the group's chore_order_seq counter, bumped inside the insert
// transaction so concurrent creates never collide.
func (s *ChoreStore) Create(groupID int64, name, frequency string, requiresPhoto bool) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE groups SET chore_order_seq = chore_order_seq + 1 WHERE id = ?`,
		groupID,
	); err != nil {
		return nil, fmt.Errorf("bump order seq: %w", err)
	}

	var orderNum int
	err = tx.QueryRow(`SELECT chore_order_seq FROM groups WHERE id = ?`, groupID).Scan(&orderNum)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read order seq: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO chores (group_id, name, frequency, requires_photo, order_num) VALUES (?, ?, ?, ?, ?)`,
		groupID, name, frequency, requiresPhoto, orderNum,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListByGroup(groupID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE group_id = ? ORDER BY order_num ASC, name ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(id int64, name, frequency string, requiresPhoto bool) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET name = ?, frequency = ?, requires_photo = ?, updated_at = datetime('now') WHERE id = ?`,
		name, frequency, requiresPhoto, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// ReorderStep moves a chore one slot up or down by swapping order numbers
// with its neighbor. Exactly two rows change; every other chore's order
// number is untouched.
func (s *ChoreStore) ReorderStep(id int64, direction string) ([]model.Chore, error) {
	c, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}

	chores, err := s.ListByGroup(c.GroupID)
	if err != nil {
		return nil, err
	}

	index := -1
	for i := range chores {
		if chores[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, ErrNotFound
	}

	target := index - 1
	if direction == "down" {
		target = index + 1
	}
	if target < 0 || target >= len(chores) {
		return nil, ErrOutOfRange
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE chores SET order_num = ? WHERE id = ?`, chores[target].OrderNum, chores[index].ID); err != nil {
		return nil, fmt.Errorf("swap order: %w", err)
	}
	if _, err := tx.Exec(`UPDATE chores SET order_num = ? WHERE id = ?`, chores[index].OrderNum, chores[target].ID); err != nil {
		return nil, fmt.Errorf("swap order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.ListByGroup(c.GroupID)
}

// Reorder applies a full permutation of the group's chores, assigning order
// numbers 1..N by list position. The supplied ids must be exactly the
// group's chore id set; nothing is applied otherwise.
func (s *ChoreStore) Reorder(groupID int64, ids []int64) ([]model.Chore, error) {
	chores, err := s.ListByGroup(groupID)
	if err != nil {
		return nil, err
	}

	if len(ids) != len(chores) {
		return nil, ErrInvalidPermutation
	}
	existing := make(map[int64]bool, len(chores))
	for _, c := range chores {
		existing[c.ID] = true
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !existing[id] || seen[id] {
			return nil, ErrInvalidPermutation
		}
		seen[id] = true
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE chores SET order_num = ? WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.Exec(i+1, id); err != nil {
			return nil, fmt.Errorf("update order for chore %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.ListByGroup(groupID)
}
