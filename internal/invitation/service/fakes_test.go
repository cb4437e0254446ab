package service_test

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	identitydomain "github.com/casaflow/casaflow-backend/internal/identity/domain"
	identity "github.com/casaflow/casaflow-backend/internal/identity/service"
	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/errors"
)

// In-memory fakes standing in for the Postgres, MinIO, and RabbitMQ
// backed collaborators. Each records what the service asked it to do.

type fakeInvitationStore struct {
	created    []*domain.Invitation
	createErr  error
	resolved   *domain.Invitation
	resolveErr error
	accepted   []acceptedCall
	acceptErr  error
	revoked    []domain.Ref
	revokeErr  error
}

type acceptedCall struct {
	ref       domain.Ref
	accountID string
}

func (f *fakeInvitationStore) Create(ctx context.Context, inv *domain.Invitation) error {
	return f.CreateTx(ctx, nil, inv)
}

func (f *fakeInvitationStore) CreateTx(_ context.Context, _ sqlx.ExtContext, inv *domain.Invitation) error {
	if f.createErr != nil {
		return f.createErr
	}
	if inv.Token == "" {
		inv.Token = fmt.Sprintf("tok-%d", len(f.created)+1)
	}
	if inv.Status == "" {
		inv.Status = domain.InvitationStatusPending
	}
	f.created = append(f.created, inv)
	return nil
}

func (f *fakeInvitationStore) Resolve(_ context.Context, token, _ string) (*domain.Invitation, domain.Ref, error) {
	if f.resolveErr != nil {
		return nil, domain.Ref{}, f.resolveErr
	}
	if f.resolved == nil || f.resolved.Token != token {
		return nil, domain.Ref{}, errors.NotFound("invitation")
	}
	return f.resolved, f.resolved.Ref(), nil
}

func (f *fakeInvitationStore) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	inv, _, err := f.Resolve(ctx, token, "")
	return inv, err
}

func (f *fakeInvitationStore) MarkAccepted(_ context.Context, ref domain.Ref, accountID string) error {
	if f.acceptErr != nil {
		return f.acceptErr
	}
	f.accepted = append(f.accepted, acceptedCall{ref: ref, accountID: accountID})
	return nil
}

func (f *fakeInvitationStore) MarkRevoked(_ context.Context, ref domain.Ref) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, ref)
	return nil
}

type statusUpdate struct {
	id     string
	status domain.CampaignStatus
	detail *string
}

type finishCall struct {
	id      string
	invited int
	status  domain.CampaignStatus
}

type fakeCampaignStore struct {
	created       []*domain.Campaign
	createErr     error
	byID          *domain.Campaign
	active        *domain.Campaign
	activeErr     error
	list          []*domain.Campaign
	statusUpdates []statusUpdate
	updateErr     error
	accessURLs    map[string]string
	accessErr     error
	finished      []finishCall
	finishErr     error
	deleted       []string
	incremented   []string
	incrementErr  error
}

func (f *fakeCampaignStore) Create(_ context.Context, c *domain.Campaign) error {
	if f.createErr != nil {
		return f.createErr
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("camp-%d", len(f.created)+1)
	}
	f.created = append(f.created, c)
	return nil
}

func (f *fakeCampaignStore) GetByID(_ context.Context, _, _, id string) (*domain.Campaign, error) {
	if f.byID == nil || f.byID.ID != id {
		return nil, errors.NotFound("campaign")
	}
	return f.byID, nil
}

func (f *fakeCampaignStore) GetActiveByID(_ context.Context, id string) (*domain.Campaign, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	if f.active == nil || f.active.ID != id {
		return nil, errors.NotFound("campaign")
	}
	return f.active, nil
}

func (f *fakeCampaignStore) ListByProperty(_ context.Context, _, _ string) ([]*domain.Campaign, error) {
	return f.list, nil
}

func (f *fakeCampaignStore) UpdateStatus(_ context.Context, id string, status domain.CampaignStatus, detail *string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.statusUpdates = append(f.statusUpdates, statusUpdate{id: id, status: status, detail: detail})
	return nil
}

func (f *fakeCampaignStore) SetAccessURL(_ context.Context, id, accessURL string) error {
	if f.accessErr != nil {
		return f.accessErr
	}
	if f.accessURLs == nil {
		f.accessURLs = map[string]string{}
	}
	f.accessURLs[id] = accessURL
	return nil
}

func (f *fakeCampaignStore) FinishProcessing(_ context.Context, id string, invited int, status domain.CampaignStatus) error {
	if f.finishErr != nil {
		return f.finishErr
	}
	f.finished = append(f.finished, finishCall{id: id, invited: invited, status: status})
	return nil
}

func (f *fakeCampaignStore) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCampaignStore) IncrementAccepted(_ context.Context, campaignID string) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.incremented = append(f.incremented, campaignID)
	return nil
}

type fakeDirectoryStore struct {
	orgs      map[string]*domain.Organization
	props     map[string]*domain.Property
	orgUsers  []*domain.OrganizationUser
	residents []*domain.Resident
	userErr   error
	resErr    error
}

func propKey(organizationID, propertyID string) string {
	return organizationID + "/" + propertyID
}

func (f *fakeDirectoryStore) GetOrganization(_ context.Context, id string) (*domain.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, errors.NotFound("organization")
	}
	return org, nil
}

func (f *fakeDirectoryStore) GetProperty(_ context.Context, organizationID, propertyID string) (*domain.Property, error) {
	prop, ok := f.props[propKey(organizationID, propertyID)]
	if !ok {
		return nil, errors.NotFound("property")
	}
	return prop, nil
}

func (f *fakeDirectoryStore) CreateOrganizationUser(_ context.Context, _ sqlx.ExtContext, u *domain.OrganizationUser) error {
	if f.userErr != nil {
		return f.userErr
	}
	f.orgUsers = append(f.orgUsers, u)
	return nil
}

func (f *fakeDirectoryStore) CreateResident(_ context.Context, _ sqlx.ExtContext, res *domain.Resident) error {
	if f.resErr != nil {
		return f.resErr
	}
	f.residents = append(f.residents, res)
	return nil
}

type fakeMailStore struct {
	enqueued   []*domain.MailMessage
	enqueueErr error
}

func (f *fakeMailStore) Enqueue(_ context.Context, _ sqlx.ExtContext, msg *domain.MailMessage) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, msg)
	return nil
}

type fakeRosterStore struct {
	data        []byte
	downloadErr error
	processed   []string
	failed      []string
}

func (f *fakeRosterStore) Download(_ context.Context, _ string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.data, nil
}

func (f *fakeRosterStore) MoveToProcessed(_ context.Context, objectPath string) {
	f.processed = append(f.processed, objectPath)
}

func (f *fakeRosterStore) MoveToFailed(_ context.Context, objectPath string) {
	f.failed = append(f.failed, objectPath)
}

type publishedStatus struct {
	campaignID string
	status     domain.CampaignStatus
	detail     string
}

type fakeEventPublisher struct {
	invitationsCreated  []*domain.Invitation
	invitationsAccepted []string
	invitationsRevoked  []string
	campaignsCreated    []*domain.Campaign
	campaignStatuses    []publishedStatus
}

func (f *fakeEventPublisher) PublishInvitationCreated(_ context.Context, inv *domain.Invitation) {
	f.invitationsCreated = append(f.invitationsCreated, inv)
}

func (f *fakeEventPublisher) PublishInvitationAccepted(_ context.Context, inv *domain.Invitation, _ string) {
	f.invitationsAccepted = append(f.invitationsAccepted, inv.Token)
}

func (f *fakeEventPublisher) PublishInvitationRevoked(_ context.Context, token string) {
	f.invitationsRevoked = append(f.invitationsRevoked, token)
}

func (f *fakeEventPublisher) PublishCampaignCreated(_ context.Context, c *domain.Campaign) {
	f.campaignsCreated = append(f.campaignsCreated, c)
}

func (f *fakeEventPublisher) PublishCampaignStatus(_ context.Context, campaignID string, status domain.CampaignStatus, detail string) {
	f.campaignStatuses = append(f.campaignStatuses, publishedStatus{campaignID: campaignID, status: status, detail: detail})
}

type fakeAccountProvider struct {
	ensureErr error
	applyErr  error
	account   *identitydomain.Account
	params    []identity.EnsureAccountParams
	claims    map[string]any
}

func (f *fakeAccountProvider) EnsureAccount(_ context.Context, params identity.EnsureAccountParams) (*identitydomain.Account, error) {
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	f.params = append(f.params, params)
	if f.account != nil {
		return f.account, nil
	}
	id := params.AccountID
	if id == "" {
		id = fmt.Sprintf("acct-%d", len(f.params))
	}
	return &identitydomain.Account{
		ID:          id,
		Email:       params.Email,
		DisplayName: params.DisplayName,
	}, nil
}

func (f *fakeAccountProvider) ApplyClaims(_ context.Context, accountID string, claims any) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	if f.claims == nil {
		f.claims = map[string]any{}
	}
	f.claims[accountID] = claims
	return nil
}

// fakeTransactor runs the function directly against a nil transaction;
// the fake stores ignore the execer anyway.
type fakeTransactor struct {
	calls int
	err   error
}

func (f *fakeTransactor) Transaction(_ context.Context, fn func(*sqlx.Tx) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}
