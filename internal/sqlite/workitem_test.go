package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/policy"
	"github.com/rpggio/actionplan/internal/repository"
	"github.com/stretchr/testify/require"
)

func sharedScope(t *testing.T, acc *account.Account) policy.Scope {
	t.Helper()
	scope, err := policy.ScopeFor(policy.KindWorkItem, acc)
	require.NoError(t, err)
	return scope
}

func newItem(createdBy int64, category workitem.Category, at time.Time) *workitem.WorkItem {
	return &workitem.WorkItem{
		Category:    category,
		Description: "replace pump seal",
		Status:      workitem.StatusToDo,
		Priority:    workitem.PriorityNormal,
		CreatedBy:   createdBy,
		CreatedAt:   at,
	}
}

func TestWorkItemRepository_InsertAllocatesCodes(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewWorkItemRepository(db)
	acc := insertAccount(t, db, "1001", account.RoleTechnician)

	key := workitem.SequenceKey{Prefix: "INST", Day: "260301"}
	first := newItem(acc.ID, workitem.CategoryInstallation, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, first, key))
	require.Equal(t, "INST-260301-001", first.Code)
	require.NotZero(t, first.ID)

	second := newItem(acc.ID, workitem.CategoryInstallation, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, second, key))
	require.Equal(t, "INST-260301-002", second.Code)

	other := newItem(acc.ID, workitem.CategoryRepair, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, other, workitem.SequenceKey{Prefix: "REP", Day: "260301"}))
	require.Equal(t, "REP-260301-001", other.Code)

	nextDay := newItem(acc.ID, workitem.CategoryInstallation, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, nextDay, workitem.SequenceKey{Prefix: "INST", Day: "260302"}))
	require.Equal(t, "INST-260302-001", nextDay.Code)
}

func TestWorkItemRepository_FailedInsertRollsBackSequence(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewWorkItemRepository(db)
	acc := insertAccount(t, db, "1001", account.RoleTechnician)
	key := workitem.SequenceKey{Prefix: "REP", Day: "260301"}

	bad := newItem(9999, workitem.CategoryRepair, time.Now().UTC())
	err := repo.Insert(ctx, bad, key)
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
	require.Empty(t, bad.Code)

	good := newItem(acc.ID, workitem.CategoryRepair, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, good, key))
	require.Equal(t, "REP-260301-001", good.Code)
}

func TestWorkItemRepository_SequenceWidens(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewWorkItemRepository(db)
	acc := insertAccount(t, db, "1001", account.RoleTechnician)

	_, err := db.ExecContext(ctx, `INSERT INTO code_sequences (prefix, day, last_seq) VALUES ('CAL', '260301', 999)`)
	require.NoError(t, err)

	item := newItem(acc.ID, workitem.CategoryCalibration, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, item, workitem.SequenceKey{Prefix: "CAL", Day: "260301"}))
	require.Equal(t, "CAL-260301-1000", item.Code)
}

func TestWorkItemRepository_ConcurrentInsertsAcrossConnections(t *testing.T) {
	db, path := NewFileTestDB(t)
	acc := insertAccount(t, db, "1001", account.RoleTechnician)

	// A second handle stands in for a second process.
	other, err := New(path, Options{MaxRetries: 20})
	require.NoError(t, err)
	t.Cleanup(func() { other.Close() })

	repos := []*WorkItemRepository{NewWorkItemRepository(db), NewWorkItemRepository(other)}
	key := workitem.SequenceKey{Prefix: "EMRG", Day: "260301"}

	const n = 40
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]bool)
		errs  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := newItem(acc.ID, workitem.CategoryEmergency, time.Now().UTC())
			err := repos[i%2].Insert(context.Background(), item, key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			codes[item.Code] = true
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, codes, n)
	for i := 1; i <= n; i++ {
		require.True(t, codes[fmt.Sprintf("EMRG-260301-%03d", i)], "missing sequence %d", i)
	}
}

func TestWorkItemRepository_CodeIsImmutable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewWorkItemRepository(db)
	acc := insertAccount(t, db, "1001", account.RoleTechnician)

	item := newItem(acc.ID, workitem.CategoryRepair, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, item, workitem.SequenceKey{Prefix: "REP", Day: "260301"}))

	_, err := db.ExecContext(ctx, `UPDATE work_items SET code = 'REP-260301-999' WHERE id = ?`, item.ID)
	require.Error(t, err)
}

func TestWorkItemRepository_GetListOrder(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewWorkItemRepository(db)
	acc := insertAccount(t, db, "1001", account.RoleTechnician)
	scope := sharedScope(t, acc)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	key := workitem.SequenceKey{Prefix: "MAINT", Day: "260301"}
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.Insert(ctx, newItem(acc.ID, workitem.CategoryMaintenance, base.Add(time.Duration(i)*time.Minute)), key))
	}
	// Same timestamp as the newest: ties break on id.
	require.NoError(t, repo.Insert(ctx, newItem(acc.ID, workitem.CategoryMaintenance, base.Add(6*time.Minute)), key))

	page, total, err := repo.List(ctx, scope, workitem.ListOptions{Limit: 5})
	require.NoError(t, err)
	require.Equal(t, 8, total)
	require.Len(t, page, 5)
	require.Equal(t, "MAINT-260301-008", page[0].Code)
	require.Equal(t, "MAINT-260301-007", page[1].Code)
	require.Equal(t, "MAINT-260301-006", page[2].Code)

	rest, _, err := repo.List(ctx, scope, workitem.ListOptions{Limit: 5, Offset: 5})
	require.NoError(t, err)
	require.Len(t, rest, 3)
	require.Equal(t, "MAINT-260301-001", rest[2].Code)

	got, err := repo.GetByCode(ctx, scope, "MAINT-260301-003")
	require.NoError(t, err)
	require.Equal(t, workitem.CategoryMaintenance, got.Category)

	_, err = repo.GetByCode(ctx, scope, "MAINT-260301-099")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWorkItemRepository_RequiresScope(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewWorkItemRepository(db)

	_, _, err := repo.List(ctx, policy.Scope{}, workitem.ListOptions{})
	require.ErrorIs(t, err, policy.ErrUnscoped)
	_, err = repo.GetByCode(ctx, policy.Scope{}, "X")
	require.ErrorIs(t, err, policy.ErrUnscoped)
	_, err = repo.Summarize(ctx, policy.Scope{})
	require.ErrorIs(t, err, policy.ErrUnscoped)
}

func TestWorkItemRepository_UpdateStatusAndSummary(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewWorkItemRepository(db)
	acc := insertAccount(t, db, "1001", account.RoleTechnician)
	scope := sharedScope(t, acc)
	key := workitem.SequenceKey{Prefix: "REP", Day: "260301"}

	a := newItem(acc.ID, workitem.CategoryRepair, time.Now().UTC())
	b := newItem(acc.ID, workitem.CategoryRepair, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, a, key))
	require.NoError(t, repo.Insert(ctx, b, key))

	require.NoError(t, repo.UpdateStatus(ctx, a.ID, workitem.StatusToDo, workitem.StatusInProgress, nil))
	require.ErrorIs(t, repo.UpdateStatus(ctx, a.ID, workitem.StatusToDo, workitem.StatusBlocked, nil), repository.ErrConflict)
	require.ErrorIs(t, repo.UpdateStatus(ctx, 999, workitem.StatusToDo, workitem.StatusBlocked, nil), repository.ErrNotFound)

	done := time.Now().UTC()
	require.NoError(t, repo.UpdateStatus(ctx, a.ID, workitem.StatusInProgress, workitem.StatusCompleted, &done))
	got, err := repo.GetByCode(ctx, scope, a.Code)
	require.NoError(t, err)
	require.Equal(t, workitem.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	status := workitem.StatusCompleted
	items, total, err := repo.List(ctx, scope, workitem.ListOptions{Status: &status, Limit: 5})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, a.Code, items[0].Code)

	sum, err := repo.Summarize(ctx, scope)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Total)
	require.Equal(t, 1, sum.ByStatus[workitem.StatusCompleted])
	require.Equal(t, 1, sum.ByStatus[workitem.StatusToDo])
}

func TestWorkItemRepository_CodesAreDense(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewWorkItemRepository(db)
	acc := insertAccount(t, db, "1001", account.RoleTechnician)
	key := workitem.SequenceKey{Prefix: "INSP", Day: "260301"}

	for i := 1; i <= 3; i++ {
		item := newItem(acc.ID, workitem.CategoryInspection, time.Now().UTC())
		require.NoError(t, repo.Insert(ctx, item, key))
		require.Equal(t, workitem.FormatCode(key, int64(i)), item.Code)
	}

	var last, stored int
	require.NoError(t, db.QueryRow(`SELECT last_seq FROM code_sequences WHERE prefix = ? AND day = ?`, key.Prefix, key.Day).Scan(&last))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM work_items WHERE code LIKE 'INSP-260301-%'`).Scan(&stored))
	require.Equal(t, stored, last)
}
