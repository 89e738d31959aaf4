// Package rotation computes weekly chore assignments. A strategy plans the
// new week from current ordering state or the previous week's ledger, and
// the engine applies the plan in a single transaction serialized per group.
package rotation

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
)

type Engine struct {
	db     *sql.DB
	logger *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewEngine(db *sql.DB, logger *slog.Logger) *Engine {
	return &Engine{
		db:     db,
		logger: logger,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// groupLock returns the advisory lock for a group, creating it on first use.
// Rotations for the same group are serialized; different groups proceed
// concurrently.
func (e *Engine) groupLock(groupID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[groupID] = lock
	}
	return lock
}

// Rotate plans and persists the assignment set for weekStart using the given
// strategy. Position updates and assignment inserts commit together or not
// at all. Rotating twice for the same week stacks a second assignment set;
// callers wanting a re-rotation delete the week first.
func (e *Engine) Rotate(strategy Strategy, groupID, weekStart, prevWeekStart int64) ([]int64, error) {
	if groupID <= 0 || weekStart <= 0 || prevWeekStart >= weekStart {
		return nil, fmt.Errorf("%w: group %d week %d prev %d",
			ErrInvalidRotationRequest, groupID, weekStart, prevWeekStart)
	}

	lock := e.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	plan, err := strategy.Plan(tx, groupID, weekStart, prevWeekStart)
	if err != nil {
		return nil, err
	}

	for memberID, pos := range plan.Positions {
		if _, err := tx.Exec(
			`UPDATE members SET rotation_position = ? WHERE id = ?`,
			pos, memberID,
		); err != nil {
			return nil, fmt.Errorf("update rotation position for member %d: %w", memberID, err)
		}
	}

	ids := make([]int64, 0, len(plan.Pairs))
	for _, p := range plan.Pairs {
		result, err := tx.Exec(
			`INSERT INTO assignments (chore_id, member_id, week_start) VALUES (?, ?, ?)`,
			p.ChoreID, p.MemberID, weekStart,
		)
		if err != nil {
			return nil, fmt.Errorf("insert assignment: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rotation: %w", err)
	}

	e.logger.Info("rotation complete",
		"group_id", groupID,
		"strategy", strategy.Name(),
		"week_start", weekStart,
		"created", len(ids),
	)
	return ids, nil
}
