package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identitydomain "github.com/casaflow/casaflow-backend/internal/identity/domain"
	identity "github.com/casaflow/casaflow-backend/internal/identity/service"
	invdomain "github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/internal/staff/domain"
	"github.com/casaflow/casaflow-backend/internal/staff/service"
	"github.com/casaflow/casaflow-backend/pkg/caller"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

type fakeStaffStore struct {
	profiles map[string]*domain.PropertyManager
	updates  []string
	deleted  []string
}

func staffKey(organizationID, accountID string) string {
	return organizationID + "/" + accountID
}

func newFakeStaffStore() *fakeStaffStore {
	return &fakeStaffStore{profiles: map[string]*domain.PropertyManager{}}
}

func (f *fakeStaffStore) Create(_ context.Context, pm *domain.PropertyManager) error {
	f.profiles[staffKey(pm.OrganizationID, pm.AccountID)] = pm
	return nil
}

func (f *fakeStaffStore) Get(_ context.Context, organizationID, accountID string) (*domain.PropertyManager, error) {
	pm, ok := f.profiles[staffKey(organizationID, accountID)]
	if !ok {
		return nil, errors.NotFound("property manager")
	}
	return pm, nil
}

func (f *fakeStaffStore) List(_ context.Context, organizationID string) ([]*domain.PropertyManager, error) {
	var out []*domain.PropertyManager
	for _, pm := range f.profiles {
		if pm.OrganizationID == organizationID {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (f *fakeStaffStore) Update(_ context.Context, organizationID, accountID, displayName, status string) error {
	f.updates = append(f.updates, staffKey(organizationID, accountID))
	return nil
}

func (f *fakeStaffStore) Delete(_ context.Context, organizationID, accountID string) error {
	f.deleted = append(f.deleted, staffKey(organizationID, accountID))
	return nil
}

type fakeAccounts struct {
	created    []identity.EnsureAccountParams
	claims     map[string]any
	renamed    []string
	disabled   []string
	ensureErr  error
	disableErr error
}

func (f *fakeAccounts) EnsureAccount(_ context.Context, params identity.EnsureAccountParams) (*identitydomain.Account, error) {
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	f.created = append(f.created, params)
	return &identitydomain.Account{
		ID:          fmt.Sprintf("acct-%d", len(f.created)),
		Email:       params.Email,
		DisplayName: params.DisplayName,
	}, nil
}

func (f *fakeAccounts) ApplyClaims(_ context.Context, accountID string, claims any) error {
	if f.claims == nil {
		f.claims = map[string]any{}
	}
	f.claims[accountID] = claims
	return nil
}

func (f *fakeAccounts) UpdateDisplayName(_ context.Context, id, _ string) error {
	f.renamed = append(f.renamed, id)
	return nil
}

func (f *fakeAccounts) DisableAccount(_ context.Context, id string) error {
	if f.disableErr != nil {
		return f.disableErr
	}
	f.disabled = append(f.disabled, id)
	return nil
}

func orgManagerCaller() *caller.Caller {
	return &caller.Caller{
		ID:              "om-1",
		Roles:           []roles.Role{roles.OrganizationManager},
		OrganizationIDs: []string{"org1"},
	}
}

func TestCreatePropertyManager(t *testing.T) {
	staff := newFakeStaffStore()
	accounts := &fakeAccounts{}
	svc := service.NewStaffService(staff, accounts, logger.New("test", "test"))

	req := &service.CreatePropertyManagerRequest{
		OrganizationID: "org1",
		Email:          "pm@sunset.com",
		Password:       "s3cret-pass",
		DisplayName:    "Morgan Lee",
	}
	pm, err := svc.CreatePropertyManager(context.Background(), orgManagerCaller(), req)
	require.NoError(t, err)

	assert.Equal(t, "org1", pm.OrganizationID)
	assert.Equal(t, invdomain.ProfileStatusActive, pm.Status)
	require.Len(t, accounts.created, 1)

	claims, ok := accounts.claims[pm.AccountID].(*invdomain.AccessClaims)
	require.True(t, ok)
	assert.Equal(t, []string{"property_manager"}, claims.Roles)
	assert.Equal(t, "org1", claims.OrganizationID)

	_, err = staff.Get(context.Background(), "org1", pm.AccountID)
	assert.NoError(t, err)
}

func TestStaffAuthorization(t *testing.T) {
	staff := newFakeStaffStore()
	svc := service.NewStaffService(staff, &fakeAccounts{}, logger.New("test", "test"))

	req := &service.CreatePropertyManagerRequest{
		OrganizationID: "org1",
		Email:          "pm@sunset.com",
		Password:       "s3cret-pass",
		DisplayName:    "Morgan Lee",
	}

	t.Run("nil caller", func(t *testing.T) {
		_, err := svc.CreatePropertyManager(context.Background(), nil, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUnauthenticated))
	})

	t.Run("manager of another organization", func(t *testing.T) {
		outsider := &caller.Caller{ID: "om-2", Roles: []roles.Role{roles.OrganizationManager}, OrganizationIDs: []string{"org9"}}
		_, err := svc.CreatePropertyManager(context.Background(), outsider, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrPermissionDenied))
	})

	t.Run("property manager cannot manage staff", func(t *testing.T) {
		pm := &caller.Caller{ID: "pm-1", Roles: []roles.Role{roles.PropertyManager}, OrganizationID: "org1"}
		_, err := svc.CreatePropertyManager(context.Background(), pm, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrPermissionDenied))
	})

	t.Run("admin bypasses organization scope", func(t *testing.T) {
		admin := &caller.Caller{ID: "admin-1", Roles: []roles.Role{roles.Admin}}
		_, err := svc.CreatePropertyManager(context.Background(), admin, req)
		require.NoError(t, err)
	})
}

func TestUpdatePropertyManager(t *testing.T) {
	staff := newFakeStaffStore()
	accounts := &fakeAccounts{}
	svc := service.NewStaffService(staff, accounts, logger.New("test", "test"))

	staff.profiles[staffKey("org1", "acct-1")] = &domain.PropertyManager{
		OrganizationID: "org1",
		AccountID:      "acct-1",
		DisplayName:    "Morgan Lee",
		Status:         invdomain.ProfileStatusActive,
	}

	req := &service.UpdatePropertyManagerRequest{DisplayName: "Morgan K. Lee", Status: "active"}
	require.NoError(t, svc.UpdatePropertyManager(context.Background(), orgManagerCaller(), "org1", "acct-1", req))
	assert.Equal(t, []string{"acct-1"}, accounts.renamed)
	assert.Equal(t, []string{"org1/acct-1"}, staff.updates)

	err := svc.UpdatePropertyManager(context.Background(), orgManagerCaller(), "org1", "acct-9", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDeletePropertyManager(t *testing.T) {
	staff := newFakeStaffStore()
	accounts := &fakeAccounts{}
	svc := service.NewStaffService(staff, accounts, logger.New("test", "test"))

	staff.profiles[staffKey("org1", "acct-1")] = &domain.PropertyManager{
		OrganizationID: "org1",
		AccountID:      "acct-1",
	}

	require.NoError(t, svc.DeletePropertyManager(context.Background(), orgManagerCaller(), "org1", "acct-1"))
	assert.Equal(t, []string{"acct-1"}, accounts.disabled, "account is disabled, not removed")
	assert.Equal(t, []string{"org1/acct-1"}, staff.deleted)
}
