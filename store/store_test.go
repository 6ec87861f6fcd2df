package store

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserLifecycle(t *testing.T) {
	db := testDB(t)

	exists, err := db.UserExists()
	if err != nil {
		t.Fatalf("user exists: %v", err)
	}
	if exists {
		t.Fatal("fresh db should have no users")
	}

	id, err := db.CreateUser("alice", "hash1", RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := db.GetUser("alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ID != id || u.Role != RoleAdmin {
		t.Errorf("got id=%d role=%q, want id=%d role=%q", u.ID, u.Role, id, RoleAdmin)
	}

	if err := db.UpdateUserPassword("alice", "hash2"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	u, _ = db.GetUser("alice")
	if u.PasswordHash != "hash2" {
		t.Errorf("PasswordHash = %q, want hash2", u.PasswordHash)
	}

	if _, err := db.CreateUser("alice", "x", RoleShipper); err == nil {
		t.Error("duplicate username should fail")
	}

	if err := db.DeleteUser(id); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := db.GetUser("alice"); err != sql.ErrNoRows {
		t.Errorf("get deleted user: err = %v, want ErrNoRows", err)
	}
}

func TestGetOrCreateSessionResumesOpen(t *testing.T) {
	db := testDB(t)
	userID, _ := db.CreateUser("bob", "h", RoleShipper)

	first, err := db.GetOrCreateSession(userID, "uuid-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	again, err := db.GetOrCreateSession(userID, "uuid-2")
	if err != nil {
		t.Fatalf("resume session: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("open session not resumed: got %d, want %d", again.ID, first.ID)
	}

	if err := db.EndSession(first.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}
	fresh, err := db.GetOrCreateSession(userID, "uuid-3")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if fresh.ID == first.ID {
		t.Error("ended session should not be resumed")
	}
}

func TestMarkSummaryRecordedWinsOnce(t *testing.T) {
	db := testDB(t)
	userID, _ := db.CreateUser("bob", "h", RoleShipper)
	s, _ := db.GetOrCreateSession(userID, "uuid-1")

	won := make([]bool, 2)
	for i := range won {
		err := db.WithTx(func(tx *sql.Tx) error {
			var err error
			won[i], err = db.MarkSummaryRecorded(tx, s.ID)
			return err
		})
		if err != nil {
			t.Fatalf("mark recorded: %v", err)
		}
	}
	if !won[0] || won[1] {
		t.Errorf("won = %v, want [true false]", won)
	}
}

func TestTerminatedWaybillLeavesActiveQueries(t *testing.T) {
	db := testDB(t)
	userID, _ := db.CreateUser("bob", "h", RoleShipper)

	err := db.WithTx(func(tx *sql.Tx) error {
		return db.InsertWaybillLines(tx, []WaybillLine{
			{WaybillNumber: "WB1", PartNumber: "P1", QtyTotal: 5, Subinv: "DRV-AMO", Date: "2026-08-28"},
			{WaybillNumber: "WB2", PartNumber: "P2", QtyTotal: 2, Subinv: "DRV-RM", Date: "2026-08-28"},
		})
	})
	if err != nil {
		t.Fatalf("insert lines: %v", err)
	}

	if err := db.TerminateWaybill("WB1", userID); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	active, err := db.ListActiveWaybills("")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0] != "WB2" {
		t.Errorf("active = %v, want [WB2]", active)
	}

	progress, err := db.GetWaybillProgress()
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(progress) != 1 || progress[0].WaybillNumber != "WB2" {
		t.Errorf("progress = %+v, want only WB2", progress)
	}

	terminated, err := db.IsWaybillTerminated("WB1")
	if err != nil || !terminated {
		t.Errorf("IsWaybillTerminated(WB1) = %v, %v", terminated, err)
	}
}

func TestResolvePartUnknownCode(t *testing.T) {
	db := testDB(t)

	part, boxQty, err := db.ResolvePart("  zx-9 ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if part != "ZX-9" || boxQty != 1 {
		t.Errorf("got (%q, %d), want (ZX-9, 1)", part, boxQty)
	}
}
