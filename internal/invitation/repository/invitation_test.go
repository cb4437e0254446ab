package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/internal/invitation/repository"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/roles"
	"github.com/casaflow/casaflow-backend/pkg/testutil"
)

func orgptr(s string) *string { return &s }

func pendingInvitation(org string) *domain.Invitation {
	return &domain.Invitation{
		Email:          "a@x.com",
		DisplayName:    "Alice",
		Roles:          domain.RoleList{roles.Resident},
		OrganizationID: orgptr(org),
		PropertyID:     orgptr("propA"),
		InvitedBy:      "mgr-1",
		InvitedByRole:  "property_manager",
	}
}

func TestGenerateToken(t *testing.T) {
	first, err := repository.GenerateToken()
	require.NoError(t, err)
	second, err := repository.GenerateToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.GreaterOrEqual(t, len(first), 40)
	assert.NotContains(t, first, "/")
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "=")
}

func TestInvitationCreateGuards(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewInvitationRepository(mockDB.DB)

	t.Run("missing email", func(t *testing.T) {
		inv := pendingInvitation("org1")
		inv.Email = ""
		err := repo.Create(context.Background(), inv)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	})

	t.Run("missing roles", func(t *testing.T) {
		inv := pendingInvitation("org1")
		inv.Roles = nil
		err := repo.Create(context.Background(), inv)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	})

	t.Run("organization scope without organization", func(t *testing.T) {
		inv := pendingInvitation("org1")
		inv.OrganizationID = nil
		err := repo.Create(context.Background(), inv)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	})

	// None of the guard failures may reach the database.
	mockDB.ExpectationsWereMet(t)
}

func TestInvitationCreateDefaults(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewInvitationRepository(mockDB.DB)

	mockDB.Mock.ExpectQuery("INSERT INTO invitations").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))

	inv := pendingInvitation("org1")
	require.NoError(t, repo.Create(context.Background(), inv))

	assert.NotEmpty(t, inv.Token)
	assert.Equal(t, domain.ScopeOrganization, inv.Scope)
	assert.Equal(t, domain.InvitationStatusPending, inv.Status)
	assert.WithinDuration(t, time.Now().Add(domain.DefaultInvitationExpiry), inv.ExpiresAt, time.Minute)
	mockDB.ExpectationsWereMet(t)
}

func TestInvitationCreateAllowsMissingEmailForCampaigns(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewInvitationRepository(mockDB.DB)

	mockDB.Mock.ExpectQuery("INSERT INTO invitations").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))

	inv := pendingInvitation("org1")
	inv.Email = ""
	inv.CampaignID = orgptr("11111111-1111-1111-1111-111111111111")

	require.NoError(t, repo.Create(context.Background(), inv))
	mockDB.ExpectationsWereMet(t)
}

func invitationRow(token, scope string, org interface{}) *sqlmock.Rows {
	return testutil.MockRows(
		"token", "scope", "email", "display_name", "roles", "organization_id",
		"organization_ids", "property_id", "status", "invited_by", "invited_by_role",
		"campaign_id", "extra", "expires_at", "accepted_by", "accepted_at", "created_at",
	).AddRow(
		token, scope, "a@x.com", "Alice", []byte(`["resident"]`), org,
		[]byte(`["org1"]`), "propA", "pending", "mgr-1", "property_manager",
		nil, nil, time.Now().Add(time.Hour), nil, nil, time.Now(),
	)
}

func TestInvitationResolve(t *testing.T) {
	t.Run("hinted organization scope wins", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := repository.NewInvitationRepository(mockDB.DB)

		mockDB.Mock.ExpectQuery("FROM invitations WHERE token = \\$1 AND scope = \\$2 AND organization_id = \\$3").
			WithArgs("tok1", domain.ScopeOrganization, "org1").
			WillReturnRows(invitationRow("tok1", domain.ScopeOrganization, "org1"))

		inv, ref, err := repo.Resolve(context.Background(), "tok1", "org1")
		require.NoError(t, err)
		assert.Equal(t, domain.ScopeOrganization, ref.Scope)
		assert.Equal(t, "org1", ref.OrganizationID)
		assert.Equal(t, "tok1", inv.Token)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("falls back to global scope", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := repository.NewInvitationRepository(mockDB.DB)

		mockDB.Mock.ExpectQuery("FROM invitations WHERE token = \\$1 AND scope = \\$2 AND organization_id = \\$3").
			WithArgs("tok1", domain.ScopeOrganization, "org1").
			WillReturnRows(testutil.MockRows("token"))

		mockDB.Mock.ExpectQuery("FROM invitations WHERE token = \\$1 AND scope = \\$2").
			WithArgs("tok1", domain.ScopeGlobal).
			WillReturnRows(invitationRow("tok1", domain.ScopeGlobal, nil))

		inv, ref, err := repo.Resolve(context.Background(), "tok1", "org1")
		require.NoError(t, err)
		assert.Equal(t, domain.ScopeGlobal, ref.Scope)
		assert.Equal(t, "globalInvitations/tok1", ref.String())
		assert.Equal(t, "tok1", inv.Token)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("no hint probes global directly", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := repository.NewInvitationRepository(mockDB.DB)

		mockDB.Mock.ExpectQuery("FROM invitations WHERE token = \\$1 AND scope = \\$2").
			WithArgs("tok1", domain.ScopeGlobal).
			WillReturnRows(invitationRow("tok1", domain.ScopeGlobal, nil))

		_, ref, err := repo.Resolve(context.Background(), "tok1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.ScopeGlobal, ref.Scope)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("missing in both scopes is not found", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := repository.NewInvitationRepository(mockDB.DB)

		mockDB.Mock.ExpectQuery("FROM invitations").WillReturnRows(testutil.MockRows("token"))
		mockDB.Mock.ExpectQuery("FROM invitations").WillReturnRows(testutil.MockRows("token"))

		_, _, err := repo.Resolve(context.Background(), "tok1", "org1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
		mockDB.ExpectationsWereMet(t)
	})
}

func TestInvitationMarkAccepted(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewInvitationRepository(mockDB.DB)
	ref := domain.Ref{Scope: domain.ScopeOrganization, OrganizationID: "org1", Token: "tok1"}

	t.Run("pending invitation accepted", func(t *testing.T) {
		mockDB.Mock.ExpectExec("UPDATE invitations").
			WithArgs("tok1", domain.ScopeOrganization, "acct-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkAccepted(context.Background(), ref, "acct-1"))
	})

	t.Run("non-pending invitation rejected", func(t *testing.T) {
		mockDB.Mock.ExpectExec("UPDATE invitations").
			WithArgs("tok1", domain.ScopeOrganization, "acct-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkAccepted(context.Background(), ref, "acct-1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrFailedPrecondition))
	})

	mockDB.ExpectationsWereMet(t)
}

func TestInvitationMarkRevoked(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewInvitationRepository(mockDB.DB)
	ref := domain.Ref{Scope: domain.ScopeGlobal, Token: "tok1"}

	mockDB.Mock.ExpectExec("UPDATE invitations").
		WithArgs("tok1", domain.ScopeGlobal).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRevoked(context.Background(), ref)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFailedPrecondition))
	mockDB.ExpectationsWereMet(t)
}
