package rotation

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

// Rotation precondition errors.
var (
	ErrNoMembersInRotation    = errors.New("no members in rotation")
	ErrNoChoresToAssign       = errors.New("no chores to assign")
	ErrNoPreviousAssignments  = errors.New("no assignments found for the previous week")
	ErrChoresNoLongerExist    = errors.New("none of the previous week's chores still exist")
	ErrUnknownStrategy        = errors.New("unknown rotation strategy")
	ErrInvalidRotationRequest = errors.New("invalid rotation request")
)

// Pair is one planned assignment.
type Pair struct {
	ChoreID  int64
	MemberID int64
}

// Plan is the outcome of a strategy: assignments to create for the target
// week and, for the cycling strategy, the new rotation position of every
// in-rotation member. The engine applies a plan atomically.
type Plan struct {
	Positions map[int64]int
	Pairs     []Pair
}

// Strategy computes a rotation plan for a group inside the engine's
// transaction. Implementations read prior state but never write; the engine
// owns persistence.
type Strategy interface {
	Name() string
	Plan(tx *sql.Tx, groupID, weekStart, prevWeekStart int64) (*Plan, error)
}

// FromName selects a strategy by its configured name. The empty string
// selects position cycling, the default.
func FromName(name string) (Strategy, error) {
	switch name {
	case "", "cycle":
		return PositionCycling{}, nil
	case "successor":
		return Successor{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// choreRing is a chore's slot in the rotation ring.
type choreRing struct {
	id       int64
	orderNum int
}

// memberRing is a member's slot in the rotation ring.
type memberRing struct {
	id       int64
	position int
}

// PositionCycling rotates the member position ring by one step each week and
// assigns each member the chore at their new position. It is a pure function
// of current state: no history lookup, and every member visits every chore
// slot exactly once per K-week cycle when K <= N.
type PositionCycling struct{}

func (PositionCycling) Name() string { return "cycle" }

func (PositionCycling) Plan(tx *sql.Tx, groupID, weekStart, prevWeekStart int64) (*Plan, error) {
	chores, err := loadChoreRing(tx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := loadMemberRing(tx, groupID)
	if err != nil {
		return nil, err
	}
	return planCycle(chores, members)
}

// planCycle advances every member's position by one around the 1..K ring and
// maps members whose new position lands within the chore list to the chore at
// that slot. Members past the end of the list sit the week out.
func planCycle(chores []choreRing, members []memberRing) (*Plan, error) {
	k := len(members)
	n := len(chores)
	if k == 0 {
		return nil, ErrNoMembersInRotation
	}
	if n == 0 {
		return nil, ErrNoChoresToAssign
	}

	plan := &Plan{Positions: make(map[int64]int, k)}
	for _, m := range members {
		newPos := (m.position % k) + 1
		plan.Positions[m.id] = newPos
		if newPos <= n {
			plan.Pairs = append(plan.Pairs, Pair{ChoreID: chores[newPos-1].id, MemberID: m.id})
		}
	}
	return plan, nil
}

// basisRow is one previous-week assignment as seen by the successor strategy.
// exists is false when the referenced chore has since been deleted.
type basisRow struct {
	choreID  int64
	memberID int64
	orderNum int
	exists   bool
}

// Successor derives the new week from the immediately preceding one: each
// member moves to the chore with the next-larger order number among the
// chores that made up last week's assignment set, wrapping at the top.
// Chores added since last week are not picked up until a fresh full rotation.
type Successor struct{}

func (Successor) Name() string { return "successor" }

func (Successor) Plan(tx *sql.Tx, groupID, weekStart, prevWeekStart int64) (*Plan, error) {
	basis, err := loadBasis(tx, groupID, prevWeekStart)
	if err != nil {
		return nil, err
	}
	return planSuccessor(basis)
}

// planSuccessor walks each surviving previous assignment forward one slot in
// the previous week's chore ring. Assignees of since-deleted chores drop out
// of this cycle entirely.
func planSuccessor(basis []basisRow) (*Plan, error) {
	if len(basis) == 0 {
		return nil, ErrNoPreviousAssignments
	}

	var survivors []basisRow
	for _, row := range basis {
		if row.exists {
			survivors = append(survivors, row)
		}
	}
	if len(survivors) == 0 {
		return nil, ErrChoresNoLongerExist
	}

	choreByOrder := make(map[int]int64, len(survivors))
	var orders []int
	for _, row := range survivors {
		if _, ok := choreByOrder[row.orderNum]; !ok {
			choreByOrder[row.orderNum] = row.choreID
			orders = append(orders, row.orderNum)
		}
	}
	sort.Ints(orders)

	plan := &Plan{}
	for _, row := range survivors {
		next := orders[0]
		for _, o := range orders {
			if o > row.orderNum {
				next = o
				break
			}
		}
		plan.Pairs = append(plan.Pairs, Pair{ChoreID: choreByOrder[next], MemberID: row.memberID})
	}
	return plan, nil
}

func loadChoreRing(tx *sql.Tx, groupID int64) ([]choreRing, error) {
	rows, err := tx.Query(
		`SELECT id, order_num FROM chores WHERE group_id = ? ORDER BY order_num ASC, name ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("load chore ring: %w", err)
	}
	defer rows.Close()

	var chores []choreRing
	for rows.Next() {
		var c choreRing
		if err := rows.Scan(&c.id, &c.orderNum); err != nil {
			return nil, fmt.Errorf("scan chore ring: %w", err)
		}
		chores = append(chores, c)
	}
	return chores, rows.Err()
}

func loadMemberRing(tx *sql.Tx, groupID int64) ([]memberRing, error) {
	rows, err := tx.Query(
		`SELECT id, rotation_position FROM members
		 WHERE group_id = ? AND in_rotation = 1
		 ORDER BY rotation_position ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("load member ring: %w", err)
	}
	defer rows.Close()

	var members []memberRing
	for rows.Next() {
		var m memberRing
		var pos sql.NullInt64
		if err := rows.Scan(&m.id, &pos); err != nil {
			return nil, fmt.Errorf("scan member ring: %w", err)
		}
		// Position should always be set for in-rotation members; fall back
		// to list order if a legacy row has drifted.
		if pos.Valid {
			m.position = int(pos.Int64)
		} else {
			m.position = len(members) + 1
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// loadBasis reads the previous week's assignments. The chore join is LEFT so
// that rows referencing chores removed without cascade (legacy imports) still
// appear, flagged as no longer existing; group scoping goes through members.
func loadBasis(tx *sql.Tx, groupID, prevWeekStart int64) ([]basisRow, error) {
	rows, err := tx.Query(
		`SELECT a.chore_id, a.member_id, COALESCE(c.order_num, 0), c.id IS NOT NULL
		 FROM assignments a
		 JOIN members m ON a.member_id = m.id
		 LEFT JOIN chores c ON a.chore_id = c.id
		 WHERE m.group_id = ? AND a.week_start = ?
		 ORDER BY COALESCE(c.order_num, 0) ASC`,
		groupID, prevWeekStart,
	)
	if err != nil {
		return nil, fmt.Errorf("load rotation basis: %w", err)
	}
	defer rows.Close()

	var basis []basisRow
	for rows.Next() {
		var b basisRow
		if err := rows.Scan(&b.choreID, &b.memberID, &b.orderNum, &b.exists); err != nil {
			return nil, fmt.Errorf("scan rotation basis: %w", err)
		}
		basis = append(basis, b)
	}
	return basis, rows.Err()
}
