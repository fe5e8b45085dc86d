package policy

import (
	"testing"

	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/stretchr/testify/require"
)

func activeAccount(id int64) *account.Account {
	return &account.Account{ID: id, Status: account.StatusActive, Role: account.RoleTechnician}
}

func TestEveryKindHasMode(t *testing.T) {
	for _, kind := range Kinds() {
		_, err := ModeOf(kind)
		require.NoError(t, err, kind)
	}
	_, err := ModeOf("invoice")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestScopeFor_Shared(t *testing.T) {
	s, err := ScopeFor(KindWorkItem, activeAccount(1))
	require.NoError(t, err)
	require.Equal(t, Shared, s.Mode())
	require.NoError(t, s.Require(KindWorkItem))
	_, owned := s.Owner()
	require.False(t, owned)
	require.True(t, s.Permits(99))
}

func TestScopeFor_OwnerScoped(t *testing.T) {
	s, err := ScopeFor(KindActivity, activeAccount(7))
	require.NoError(t, err)
	id, owned := s.Owner()
	require.True(t, owned)
	require.Equal(t, int64(7), id)
	require.True(t, s.Permits(7))
	require.False(t, s.Permits(8))
}

func TestScopeFor_InactiveCaller(t *testing.T) {
	_, err := ScopeFor(KindWorkItem, &account.Account{ID: 3, Status: account.StatusPending})
	require.ErrorIs(t, err, ErrAccessDenied)
	_, err = ScopeFor(KindWorkItem, nil)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestScope_ZeroValueRejected(t *testing.T) {
	var s Scope
	require.ErrorIs(t, s.Require(KindActivity), ErrUnscoped)
	require.False(t, s.Permits(1))

	shared, err := ScopeFor(KindWorkItem, activeAccount(1))
	require.NoError(t, err)
	require.ErrorIs(t, shared.Require(KindActivity), ErrUnscoped)
}
