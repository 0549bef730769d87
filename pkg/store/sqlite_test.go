package store

import (
	"testing"

	"starhold/pkg/types"
)

func openTest(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTestEmpire(t *testing.T, s *SQLite, credits int64) types.Empire {
	t.Helper()
	emp, err := s.CreateEmpire("Tester", "hash", credits, 1000)
	if err != nil {
		t.Fatalf("create empire: %v", err)
	}
	return emp
}

func TestCreateEmpireNameIsUnique(t *testing.T) {
	s := openTest(t)
	seedTestEmpire(t, s, 100)
	if _, err := s.CreateEmpire("Tester", "other", 100, 2000); err != ErrDuplicate {
		t.Errorf("got %v, want ErrDuplicate", err)
	}
}

func TestEmpireIDByLogin(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 100)

	id, err := s.EmpireIDByLogin("Tester", "hash")
	if err != nil || id != emp.ID {
		t.Errorf("got %d, %v", id, err)
	}
	if _, err := s.EmpireIDByLogin("Tester", "wrong"); err != ErrNotFound {
		t.Errorf("bad password: got %v, want ErrNotFound", err)
	}
}

func TestAdjustCreditsIsConditional(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 500)

	if err := s.AdjustCredits(emp.ID, 500, 400); err != nil {
		t.Fatalf("matching expectation: %v", err)
	}
	// Stale expectation must not win.
	if err := s.AdjustCredits(emp.ID, 500, 300); err != ErrConflict {
		t.Fatalf("stale expectation: got %v, want ErrConflict", err)
	}
	got, err := s.GetEmpire(emp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Credits != 400 {
		t.Errorf("credits %d, want 400", got.Credits)
	}
}

func TestUpdateEmpireAccrualIsConditional(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 500)

	if err := s.UpdateEmpireAccrual(emp.ID, 500, 800, 1_800_000, 9000); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateEmpireAccrual(emp.ID, 500, 900, 0, 9500); err != ErrConflict {
		t.Errorf("stale accrual write: got %v, want ErrConflict", err)
	}
	got, _ := s.GetEmpire(emp.ID)
	if got.Credits != 800 || got.RemainderMs != 1_800_000 || got.LastUpdate != 9000 {
		t.Errorf("state %+v", got)
	}
}

func TestTechLevelsRoundTrip(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 0)

	if err := s.SetTechLevel(emp.ID, "metallurgy", 2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTechLevel(emp.ID, "energy_grid", 1); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetEmpire(emp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TechLevels["metallurgy"] != 2 || got.TechLevels["energy_grid"] != 1 {
		t.Errorf("tech levels %+v", got.TechLevels)
	}
}

func TestOpenActionSlotIsUnique(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 0)

	base := types.PendingAction{
		EmpireID: emp.ID, BaseCoord: "1:1", Key: "mine", Kind: "structure",
		TargetLevel: 1, Status: types.StatusPending,
	}
	first := base
	first.ID = "a-1"
	if err := s.InsertAction(first); err != nil {
		t.Fatal(err)
	}

	second := base
	second.ID = "a-2"
	if err := s.InsertAction(second); err != ErrDuplicate {
		t.Fatalf("second open action for the slot: got %v, want ErrDuplicate", err)
	}

	// A terminal status frees the slot.
	first.Status = types.StatusCompleted
	if err := s.UpdateAction(first); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertAction(second); err != nil {
		t.Errorf("slot not freed after completion: %v", err)
	}

	// Same key at a different base never collided to begin with.
	third := base
	third.ID = "a-3"
	third.BaseCoord = "2:2"
	if err := s.InsertAction(third); err != nil {
		t.Errorf("different base blocked: %v", err)
	}
}

func TestResearchSlotIsUniqueAcrossKeys(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 0)

	first := types.PendingAction{
		ID: "r-1", EmpireID: emp.ID, BaseCoord: "1:1", Key: "metallurgy",
		Kind: "technology", TargetLevel: 1, Status: types.StatusPending,
	}
	if err := s.InsertAction(first); err != nil {
		t.Fatal(err)
	}
	second := first
	second.ID = "r-2"
	second.Key = "energy_grid"
	if err := s.InsertAction(second); err != ErrDuplicate {
		t.Errorf("second research at the base: got %v, want ErrDuplicate", err)
	}
}

func TestActionsAtOrdersByCompletion(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 0)

	for i, a := range []types.PendingAction{
		{ID: "late", Key: "mine", CompletesAt: 9000},
		{ID: "early", Key: "solar", CompletesAt: 3000},
		{ID: "middle", Key: "yard", CompletesAt: 6000},
	} {
		a.EmpireID = emp.ID
		a.BaseCoord = "1:1"
		a.Kind = "structure"
		a.TargetLevel = 1
		a.Status = types.StatusPending
		if err := s.InsertAction(a); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	actions, err := s.ActionsAt(emp.ID, "1:1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"early", "middle", "late"}
	for i, a := range actions {
		if a.ID != want[i] {
			t.Fatalf("order %v, want %v", ids(actions), want)
		}
	}
}

func ids(actions []types.PendingAction) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.ID
	}
	return out
}

func TestLedgerHistoryNewestFirst(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 0)

	for i := int64(1); i <= 3; i++ {
		if _, err := s.AppendLedger(types.LedgerEntry{
			EmpireID: emp.ID, Amount: i, Reason: "income", Balance: i, Timestamp: i * 1000,
		}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.LedgerHistory(emp.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries %d, want limit of 2", len(entries))
	}
	if entries[0].Amount != 3 || entries[1].Amount != 2 {
		t.Errorf("order %d, %d; want newest first", entries[0].Amount, entries[1].Amount)
	}
}

func TestLastLedgerHashEmptyChain(t *testing.T) {
	s := openTest(t)
	emp := seedTestEmpire(t, s, 0)

	hash, err := s.LastLedgerHash(emp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if hash != "" {
		t.Errorf("empty chain returned %q", hash)
	}
}

func TestUpdateBuildingMissingRow(t *testing.T) {
	s := openTest(t)
	if err := s.UpdateBuilding(types.Building{ID: 42, Level: 1}); err != ErrConflict {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTest(t)

	if hash, err := s.LastSnapshotHash(); err != nil || hash != "" {
		t.Fatalf("empty table: %q, %v", hash, err)
	}
	if err := s.SaveSnapshot(100, []byte("blob-a"), "hash-a"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot(101, []byte("blob-b"), "hash-b"); err != nil {
		t.Fatal(err)
	}
	hash, err := s.LastSnapshotHash()
	if err != nil {
		t.Fatal(err)
	}
	if hash != "hash-b" {
		t.Errorf("last hash %q, want hash-b", hash)
	}
	// Re-running the same day replaces, not duplicates.
	if err := s.SaveSnapshot(101, []byte("blob-b2"), "hash-b2"); err != nil {
		t.Errorf("same-day overwrite: %v", err)
	}
}
