package store

import (
	"errors"
	"testing"

	"github.com/jpriddy/chorewheel/internal/database"
	"github.com/jpriddy/chorewheel/internal/model"
)

func setupChoreTestDB(t *testing.T) (*ChoreStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gs := NewGroupStore(db)
	group, err := gs.Create("Test House")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return NewChoreStore(db), group.ID
}

func TestChoreCRUD(t *testing.T) {
	cs, groupID := setupChoreTestDB(t)

	// Create
	chore, err := cs.Create(groupID, "Dishes", model.FrequencyDaily, false)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if chore.Name != "Dishes" {
		t.Errorf("name = %q, want %q", chore.Name, "Dishes")
	}
	if chore.Frequency != model.FrequencyDaily {
		t.Errorf("frequency = %q, want %q", chore.Frequency, model.FrequencyDaily)
	}
	if chore.OrderNum != 1 {
		t.Errorf("order_num = %d, want 1", chore.OrderNum)
	}

	// Get
	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got.Name != "Dishes" {
		t.Errorf("got name = %q, want %q", got.Name, "Dishes")
	}

	// Update
	updated, err := cs.Update(chore.ID, "Wash dishes", model.FrequencyWeekly, true)
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.Name != "Wash dishes" || !updated.RequiresPhoto {
		t.Errorf("updated = %q photo=%v, want Wash dishes/true", updated.Name, updated.RequiresPhoto)
	}
	if updated.OrderNum != chore.OrderNum {
		t.Error("update should not change the order number")
	}

	// Delete
	if err := cs.Delete(chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}
	got, err = cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get deleted chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted chore")
	}
}

func TestChoreGetByIDNotFound(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	got, err := cs.GetByID(9999)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent chore")
	}
}

func TestChoreOrderNumbersAppend(t *testing.T) {
	cs, groupID := setupChoreTestDB(t)

	a, _ := cs.Create(groupID, "A", model.FrequencyWeekly, false)
	b, _ := cs.Create(groupID, "B", model.FrequencyWeekly, false)
	c, _ := cs.Create(groupID, "C", model.FrequencyWeekly, false)

	if a.OrderNum != 1 || b.OrderNum != 2 || c.OrderNum != 3 {
		t.Errorf("order = %d/%d/%d, want 1/2/3", a.OrderNum, b.OrderNum, c.OrderNum)
	}
}

func TestChoreOrderNeverReused(t *testing.T) {
	cs, groupID := setupChoreTestDB(t)

	cs.Create(groupID, "A", model.FrequencyWeekly, false)
	b, _ := cs.Create(groupID, "B", model.FrequencyWeekly, false)

	// Deleting B leaves a gap; the next create takes a fresh number
	cs.Delete(b.ID)
	c, err := cs.Create(groupID, "C", model.FrequencyWeekly, false)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if c.OrderNum != 3 {
		t.Errorf("order after delete = %d, want 3 (numbers are never reused)", c.OrderNum)
	}
}

func TestReorderStep(t *testing.T) {
	cs, groupID := setupChoreTestDB(t)

	a, _ := cs.Create(groupID, "A", model.FrequencyWeekly, false)
	b, _ := cs.Create(groupID, "B", model.FrequencyWeekly, false)
	c, _ := cs.Create(groupID, "C", model.FrequencyWeekly, false)

	chores, err := cs.ReorderStep(b.ID, "up")
	if err != nil {
		t.Fatalf("reorder step: %v", err)
	}
	if chores[0].ID != b.ID || chores[1].ID != a.ID || chores[2].ID != c.ID {
		t.Errorf("order after move up = %d,%d,%d, want %d,%d,%d",
			chores[0].ID, chores[1].ID, chores[2].ID, b.ID, a.ID, c.ID)
	}

	// Only the two swapped chores changed numbers
	gotC, _ := cs.GetByID(c.ID)
	if gotC.OrderNum != c.OrderNum {
		t.Errorf("bystander order changed: %d -> %d", c.OrderNum, gotC.OrderNum)
	}
}

func TestReorderStepAtEdges(t *testing.T) {
	cs, groupID := setupChoreTestDB(t)

	a, _ := cs.Create(groupID, "A", model.FrequencyWeekly, false)
	b, _ := cs.Create(groupID, "B", model.FrequencyWeekly, false)

	if _, err := cs.ReorderStep(a.ID, "up"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("move first up: err = %v, want ErrOutOfRange", err)
	}
	if _, err := cs.ReorderStep(b.ID, "down"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("move last down: err = %v, want ErrOutOfRange", err)
	}
	if _, err := cs.ReorderStep(9999, "up"); !errors.Is(err, ErrNotFound) {
		t.Errorf("move missing chore: err = %v, want ErrNotFound", err)
	}
}

func TestReorderFullPermutation(t *testing.T) {
	cs, groupID := setupChoreTestDB(t)

	a, _ := cs.Create(groupID, "A", model.FrequencyWeekly, false)
	b, _ := cs.Create(groupID, "B", model.FrequencyWeekly, false)
	c, _ := cs.Create(groupID, "C", model.FrequencyWeekly, false)

	chores, err := cs.Reorder(groupID, []int64{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if chores[0].ID != c.ID || chores[1].ID != a.ID || chores[2].ID != b.ID {
		t.Errorf("order = %d,%d,%d, want %d,%d,%d",
			chores[0].ID, chores[1].ID, chores[2].ID, c.ID, a.ID, b.ID)
	}
	for i, ch := range chores {
		if ch.OrderNum != i+1 {
			t.Errorf("chore %d order_num = %d, want %d", ch.ID, ch.OrderNum, i+1)
		}
	}
}

func TestReorderRejectsBadPermutations(t *testing.T) {
	cs, groupID := setupChoreTestDB(t)

	a, _ := cs.Create(groupID, "A", model.FrequencyWeekly, false)
	b, _ := cs.Create(groupID, "B", model.FrequencyWeekly, false)

	cases := map[string][]int64{
		"missing id":   {a.ID},
		"duplicate id": {a.ID, a.ID},
		"foreign id":   {a.ID, 9999},
		"extra id":     {a.ID, b.ID, 9999},
	}
	for name, ids := range cases {
		if _, err := cs.Reorder(groupID, ids); !errors.Is(err, ErrInvalidPermutation) {
			t.Errorf("%s: err = %v, want ErrInvalidPermutation", name, err)
		}
	}

	// Nothing was applied
	chores, _ := cs.ListByGroup(groupID)
	if chores[0].ID != a.ID || chores[1].ID != b.ID {
		t.Error("rejected reorder must not change order")
	}
}
