package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jpriddy/chorewheel/internal/database"
	"github.com/jpriddy/chorewheel/internal/model"
	"github.com/jpriddy/chorewheel/internal/week"
)

type assignmentFixture struct {
	db     *sql.DB
	as     *AssignmentStore
	cs     *ChoreStore
	ms     *MemberStore
	gs     *GroupStore
	group  *model.Group
	member *model.Member
	chore  *model.Chore
}

func setupAssignmentTestDB(t *testing.T) *assignmentFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &assignmentFixture{
		db: db,
		as: NewAssignmentStore(db),
		cs: NewChoreStore(db),
		ms: NewMemberStore(db),
		gs: NewGroupStore(db),
	}

	f.group, err = f.gs.Create("Test House")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	f.member, err = f.ms.Create(f.group.ID, "Alice", "alice@example.com", "h", model.RoleMember, true)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	f.chore, err = f.cs.Create(f.group.ID, "Dishes", model.FrequencyWeekly, false)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return f
}

func testWeek(t *testing.T) int64 {
	t.Helper()
	return week.StartUnix(time.Now())
}

func TestAssignmentCreateAndGet(t *testing.T) {
	f := setupAssignmentTestDB(t)
	ws := testWeek(t)

	a, err := f.as.Create(f.chore.ID, f.member.ID, ws)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	if a.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", a.Status)
	}
	if a.WeekStart != ws {
		t.Errorf("week_start = %d, want %d", a.WeekStart, ws)
	}
	if a.ChoreName != "Dishes" || a.MemberName != "Alice" {
		t.Errorf("joined fields = %q/%q, want Dishes/Alice", a.ChoreName, a.MemberName)
	}
	if a.GroupID != f.group.ID {
		t.Errorf("group_id = %d, want %d", a.GroupID, f.group.ID)
	}
	if a.CompletedAt != nil || len(a.Photos) != 0 {
		t.Error("new assignment should have no completion data")
	}
}

func TestAssignmentGetByIDNotFound(t *testing.T) {
	f := setupAssignmentTestDB(t)

	got, err := f.as.GetByID(9999)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent assignment")
	}
}

func TestAssignmentCompleteRejectRoundTrip(t *testing.T) {
	f := setupAssignmentTestDB(t)
	a, _ := f.as.Create(f.chore.ID, f.member.ID, testWeek(t))

	done, err := f.as.Complete(a.ID, model.PhotoSet{"p1.jpg", "p2.jpg"}, false)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}
	if done.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if len(done.Photos) != 2 {
		t.Errorf("photos = %v, want 2 entries", done.Photos)
	}

	// Completing twice conflicts
	if _, err := f.as.Complete(a.ID, nil, false); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("double complete: err = %v, want ErrAlreadyCompleted", err)
	}

	// Reject restores pending and clears evidence
	back, err := f.as.Reject(a.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if back.Status != model.StatusPending {
		t.Errorf("status after reject = %q, want pending", back.Status)
	}
	if back.CompletedAt != nil || len(back.Photos) != 0 {
		t.Error("reject should clear completion data")
	}

	// Rejecting a pending assignment conflicts
	if _, err := f.as.Reject(a.ID); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("reject pending: err = %v, want ErrNotCompleted", err)
	}
}

func TestAssignmentCompletePhotoRequired(t *testing.T) {
	f := setupAssignmentTestDB(t)
	photoChore, _ := f.cs.Create(f.group.ID, "Clean bathroom", model.FrequencyWeekly, true)
	a, _ := f.as.Create(photoChore.ID, f.member.ID, testWeek(t))

	if _, err := f.as.Complete(a.ID, nil, false); !errors.Is(err, ErrPhotoRequired) {
		t.Errorf("complete without photo: err = %v, want ErrPhotoRequired", err)
	}

	// Privileged callers bypass the requirement
	done, err := f.as.Complete(a.ID, nil, true)
	if err != nil {
		t.Fatalf("privileged complete: %v", err)
	}
	if done.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}

	f.as.Reject(a.ID)

	// With a photo it goes through for anyone
	done, err = f.as.Complete(a.ID, model.PhotoSet{"proof.jpg"}, false)
	if err != nil {
		t.Fatalf("complete with photo: %v", err)
	}
	if len(done.Photos) != 1 {
		t.Errorf("photos = %v, want 1 entry", done.Photos)
	}
}

func TestAssignmentCompleteNotFound(t *testing.T) {
	f := setupAssignmentTestDB(t)

	if _, err := f.as.Complete(9999, nil, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("complete missing: err = %v, want ErrNotFound", err)
	}
	if _, err := f.as.Reject(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("reject missing: err = %v, want ErrNotFound", err)
	}
}

func TestAssignmentLegacyPhotoColumn(t *testing.T) {
	f := setupAssignmentTestDB(t)
	a, _ := f.as.Create(f.chore.ID, f.member.ID, testWeek(t))

	// Simulate a row written before photo sets were JSON arrays
	if _, err := f.db.Exec(
		`UPDATE assignments SET status = 'completed', completed_at = 1, photo_path = 'bare.jpg' WHERE id = ?`,
		a.ID,
	); err != nil {
		t.Fatalf("write legacy row: %v", err)
	}

	got, err := f.as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Photos) != 1 || got.Photos[0] != "bare.jpg" {
		t.Errorf("photos = %v, want [bare.jpg]", got.Photos)
	}
}

func TestAssignmentLists(t *testing.T) {
	f := setupAssignmentTestDB(t)
	ws := testWeek(t)
	prev := week.Prev(ws)

	bob, _ := f.ms.Create(f.group.ID, "Bob", "bob@example.com", "h", model.RoleMember, true)
	chore2, _ := f.cs.Create(f.group.ID, "Trash", model.FrequencyWeekly, false)

	a1, _ := f.as.Create(f.chore.ID, f.member.ID, ws)
	f.as.Create(chore2.ID, bob.ID, ws)
	f.as.Create(f.chore.ID, f.member.ID, prev)

	byGroup, err := f.as.ListByGroup(f.group.ID)
	if err != nil {
		t.Fatalf("list by group: %v", err)
	}
	if len(byGroup) != 3 {
		t.Fatalf("group list = %d, want 3", len(byGroup))
	}

	byWeek, err := f.as.ListByWeek(f.group.ID, ws)
	if err != nil {
		t.Fatalf("list by week: %v", err)
	}
	if len(byWeek) != 2 {
		t.Fatalf("week list = %d, want 2", len(byWeek))
	}
	// Chore order, not creation order
	if byWeek[0].ChoreOrderNum > byWeek[1].ChoreOrderNum {
		t.Error("week list should be ordered by chore order_num")
	}

	byMember, err := f.as.ListByMember(f.member.ID)
	if err != nil {
		t.Fatalf("list by member: %v", err)
	}
	if len(byMember) != 2 {
		t.Fatalf("member list = %d, want 2", len(byMember))
	}

	f.as.Complete(a1.ID, nil, true)
	pending, err := f.as.ListPendingByMember(f.member.ID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending list = %d, want 1", len(pending))
	}
	if pending[0].WeekStart != prev {
		t.Errorf("pending week = %d, want %d", pending[0].WeekStart, prev)
	}
}

func TestAssignmentDelete(t *testing.T) {
	f := setupAssignmentTestDB(t)
	a, _ := f.as.Create(f.chore.ID, f.member.ID, testWeek(t))

	if err := f.as.Delete(a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.as.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestAssignmentDeleteByWeek(t *testing.T) {
	f := setupAssignmentTestDB(t)
	ws := testWeek(t)
	prev := week.Prev(ws)

	// A second group with its own assignment for the same week
	otherGroup, _ := f.gs.Create("Other House")
	otherMember, _ := f.ms.Create(otherGroup.ID, "Eve", "eve@example.com", "h", model.RoleMember, true)
	otherChore, _ := f.cs.Create(otherGroup.ID, "Other chore", model.FrequencyWeekly, false)
	other, _ := f.as.Create(otherChore.ID, otherMember.ID, ws)

	f.as.Create(f.chore.ID, f.member.ID, ws)
	kept, _ := f.as.Create(f.chore.ID, f.member.ID, prev)

	count, err := f.as.DeleteByWeek(f.group.ID, ws)
	if err != nil {
		t.Fatalf("delete by week: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted count = %d, want 1", count)
	}

	// Other weeks and other groups untouched
	if got, _ := f.as.GetByID(kept.ID); got == nil {
		t.Error("previous week's assignment should survive")
	}
	if got, _ := f.as.GetByID(other.ID); got == nil {
		t.Error("other group's assignment should survive")
	}

	count, _ = f.as.DeleteByWeek(f.group.ID, ws)
	if count != 0 {
		t.Errorf("second delete count = %d, want 0", count)
	}
}

func TestDeleteChoreCascadesAssignments(t *testing.T) {
	f := setupAssignmentTestDB(t)
	a, _ := f.as.Create(f.chore.ID, f.member.ID, testWeek(t))

	if err := f.cs.Delete(f.chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}

	got, err := f.as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if got != nil {
		t.Error("expected assignment gone after chore delete")
	}
}

func TestFindByPhotoPath(t *testing.T) {
	f := setupAssignmentTestDB(t)
	a, _ := f.as.Create(f.chore.ID, f.member.ID, testWeek(t))
	f.as.Complete(a.ID, model.PhotoSet{"abc.jpg", "def.jpg"}, true)

	got, err := f.as.FindByPhotoPath("def.jpg")
	if err != nil {
		t.Fatalf("find by photo path: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Errorf("got %v, want assignment %d", got, a.ID)
	}

	// Substring of a stored path must not match
	got, err = f.as.FindByPhotoPath("f.jpg")
	if err != nil {
		t.Fatalf("find by partial path: %v", err)
	}
	if got != nil {
		t.Error("partial path should not match")
	}

	got, err = f.as.FindByPhotoPath("missing.jpg")
	if err != nil {
		t.Fatalf("find missing path: %v", err)
	}
	if got != nil {
		t.Error("unknown path should not match")
	}
}
