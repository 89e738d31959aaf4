package store

import (
	"database/sql"
	"fmt"

	"github.com/jpriddy/chorewheel/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var pos sql.NullInt64
	err := scanner.Scan(
		&m.ID, &m.GroupID, &m.Name, &m.Email, &m.Role,
		&m.InRotation, &pos, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pos.Valid {
		p := int(pos.Int64)
		m.RotationPosition = &p
	}
	return &m, nil
}

const memberCols = `id, group_id, name, email, role, in_rotation, rotation_position, created_at, updated_at`

// Create inserts a member. When inRotation is true the member is appended to
// the end of the group's rotation ring; the position is computed inside the
// insert transaction so concurrent creates cannot claim the same slot.
func (s *MemberStore) Create(groupID int64, name, email, passwordHash, role string, inRotation bool) (*model.Member, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var pos sql.NullInt64
	if inRotation {
		var count int64
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM members WHERE group_id = ? AND in_rotation = 1`,
			groupID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count rotation members: %w", err)
		}
		pos = sql.NullInt64{Int64: count + 1, Valid: true}
	}

	result, err := tx.Exec(
		`INSERT INTO members (group_id, name, email, password_hash, role, in_rotation, rotation_position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		groupID, name, email, passwordHash, role, inRotation, pos,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
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

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByEmail(email string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE email = ?`, email)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetPasswordHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM members WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash, nil
}

func (s *MemberStore) ListByGroup(groupID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE group_id = ? ORDER BY name ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ListInRotation returns the group's rotation-eligible members ordered by
// rotation position. This is the member ring the rotation engine cycles.
func (s *MemberStore) ListInRotation(groupID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members
		 WHERE group_id = ? AND in_rotation = 1
		 ORDER BY rotation_position ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rotation members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(id int64, name, email string) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET name = ?, email = ?, updated_at = datetime('now') WHERE id = ?`,
		name, email, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) UpdateRole(id int64, role string) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET role = ?, updated_at = datetime('now') WHERE id = ?`,
		role, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) UpdatePassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE members SET password_hash = ?, updated_at = datetime('now') WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SetRotation toggles rotation eligibility. Enabling appends the member at
// position K+1; disabling clears the position and renumbers the remaining
// in-rotation members back to a compact 1..K so the cycling strategy's
// position ring never develops gaps.
func (s *MemberStore) SetRotation(id int64, inRotation bool) (*model.Member, error) {
	m, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	if m.InRotation == inRotation {
		return m, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if inRotation {
		var count int64
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM members WHERE group_id = ? AND in_rotation = 1`,
			m.GroupID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count rotation members: %w", err)
		}
		_, err = tx.Exec(
			`UPDATE members SET in_rotation = 1, rotation_position = ?, updated_at = datetime('now') WHERE id = ?`,
			count+1, id,
		)
		if err != nil {
			return nil, fmt.Errorf("enable rotation: %w", err)
		}
	} else {
		_, err = tx.Exec(
			`UPDATE members SET in_rotation = 0, rotation_position = NULL, updated_at = datetime('now') WHERE id = ?`,
			id,
		)
		if err != nil {
			return nil, fmt.Errorf("disable rotation: %w", err)
		}
		if err := renumberRotation(tx, m.GroupID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) Delete(id int64) error {
	m, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM members WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if err := renumberRotation(tx, m.GroupID); err != nil {
		return err
	}
	return tx.Commit()
}

// renumberRotation compacts the group's rotation positions to 1..K,
// preserving relative order.
func renumberRotation(tx *sql.Tx, groupID int64) error {
	rows, err := tx.Query(
		`SELECT id FROM members WHERE group_id = ? AND in_rotation = 1 ORDER BY rotation_position ASC`,
		groupID,
	)
	if err != nil {
		return fmt.Errorf("list rotation members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i, memberID := range ids {
		if _, err := tx.Exec(
			`UPDATE members SET rotation_position = ? WHERE id = ?`,
			i+1, memberID,
		); err != nil {
			return fmt.Errorf("renumber position for member %d: %w", memberID, err)
		}
	}
	return nil
}
