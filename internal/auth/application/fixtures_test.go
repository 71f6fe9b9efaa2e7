package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type createWithOutboxCall struct {
	params ports.CreateCredentialParams
	event  ports.OutboxEvent
}

type deleteWithOutboxCall struct {
	id    uuid.UUID
	event ports.OutboxEvent
}

type fakeCredentialRepo struct {
	existing map[string]bool
	byEmail  map[string]domain.Credential

	createErr     error
	compensateErr error
	deleteErr     error

	createCalls     []createWithOutboxCall
	compensateCalls []uuid.UUID
	deleteCalls     []deleteWithOutboxCall
	refreshUpdates  []uuid.UUID

	// sequence records cross-repo call ordering when shared with other fakes.
	sequence *[]string
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{
		existing: make(map[string]bool),
		byEmail:  make(map[string]domain.Credential),
	}
}

func (r *fakeCredentialRepo) record(step string) {
	if r.sequence != nil {
		*r.sequence = append(*r.sequence, step)
	}
}

func (r *fakeCredentialRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return r.existing[email], nil
}

func (r *fakeCredentialRepo) CreateWithOutboxTx(_ context.Context, params ports.CreateCredentialParams, event ports.OutboxEvent) (domain.Credential, error) {
	r.createCalls = append(r.createCalls, createWithOutboxCall{params: params, event: event})
	if r.createErr != nil {
		return domain.Credential{}, r.createErr
	}
	cred := domain.Credential{
		ID:           uuid.New(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		Active:       true,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	r.byEmail[params.Email] = cred
	return cred, nil
}

func (r *fakeCredentialRepo) GetByEmail(_ context.Context, email string) (domain.Credential, error) {
	cred, ok := r.byEmail[email]
	if !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	return cred, nil
}

func (r *fakeCredentialRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Credential, error) {
	for _, cred := range r.byEmail {
		if cred.ID == id {
			return cred, nil
		}
	}
	return domain.Credential{}, domain.ErrNotFound
}

func (r *fakeCredentialRepo) CompensateCreate(_ context.Context, id uuid.UUID) error {
	r.record("credential_compensate")
	r.compensateCalls = append(r.compensateCalls, id)
	if r.compensateErr != nil {
		return r.compensateErr
	}
	for email, cred := range r.byEmail {
		if cred.ID == id {
			delete(r.byEmail, email)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeCredentialRepo) DeleteWithOutboxTx(_ context.Context, id uuid.UUID, event ports.OutboxEvent) error {
	r.record("credential_delete")
	r.deleteCalls = append(r.deleteCalls, deleteWithOutboxCall{id: id, event: event})
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return nil
}

func (r *fakeCredentialRepo) UpdateRefreshToken(_ context.Context, id uuid.UUID, token string, expiry time.Time, _ time.Time) error {
	r.refreshUpdates = append(r.refreshUpdates, id)
	for email, cred := range r.byEmail {
		if cred.ID == id {
			cred.RefreshToken = token
			cred.RefreshTokenExpiry = &expiry
			r.byEmail[email] = cred
		}
	}
	return nil
}

type fakeOutbox struct {
	enqueued   []ports.OutboxEvent
	enqueueErr error
}

func (o *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	if o.enqueueErr != nil {
		return o.enqueueErr
	}
	o.enqueued = append(o.enqueued, event)
	return nil
}

func (o *fakeOutbox) FetchUnpublished(context.Context, int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (o *fakeOutbox) MarkPublished(context.Context, uuid.UUID, time.Time) error { return nil }

func (o *fakeOutbox) MarkFailed(context.Context, uuid.UUID, string, time.Time) error { return nil }

type profileCreateCall struct {
	params ports.CreateProfileParams
	token  string
}

type profileDeleteCall struct {
	id             uuid.UUID
	callingService string
}

type fakeProfileClient struct {
	createErr error
	deleteErr error

	createCalls []profileCreateCall
	deleteCalls []profileDeleteCall

	sequence *[]string
}

func (c *fakeProfileClient) record(step string) {
	if c.sequence != nil {
		*c.sequence = append(*c.sequence, step)
	}
}

func (c *fakeProfileClient) CreateProfile(_ context.Context, params ports.CreateProfileParams, token string) (ports.Profile, error) {
	c.record("profile_create")
	c.createCalls = append(c.createCalls, profileCreateCall{params: params, token: token})
	if c.createErr != nil {
		return ports.Profile{}, c.createErr
	}
	return ports.Profile{
		ID:        params.UserID,
		Email:     params.Email,
		Name:      params.Name,
		Surname:   params.Surname,
		BirthDate: params.BirthDate,
		Active:    true,
	}, nil
}

func (c *fakeProfileClient) DeleteProfile(_ context.Context, id uuid.UUID, callingService string) error {
	c.record("profile_delete")
	c.deleteCalls = append(c.deleteCalls, profileDeleteCall{id: id, callingService: callingService})
	return c.deleteErr
}

type fakeLockoutStore struct {
	state  ports.LockoutState
	getErr error

	failures []string
	cleared  []string
}

func (s *fakeLockoutStore) Get(_ context.Context, _ string) (ports.LockoutState, error) {
	if s.getErr != nil {
		return ports.LockoutState{}, s.getErr
	}
	return s.state, nil
}

func (s *fakeLockoutStore) RecordFailure(_ context.Context, key string, _ time.Time, threshold int, _ time.Duration) (ports.LockoutState, error) {
	s.failures = append(s.failures, key)
	s.state.FailedCount++
	if s.state.FailedCount >= threshold {
		until := testNow.Add(time.Hour)
		s.state.LockedUntil = &until
	}
	return s.state, nil
}

func (s *fakeLockoutStore) Clear(_ context.Context, key string) error {
	s.cleared = append(s.cleared, key)
	s.state = ports.LockoutState{}
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

// fakeSigner issues sequential opaque tokens and remembers their claims.
type fakeSigner struct {
	count  int
	tokens map[string]ports.TokenClaims
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{tokens: make(map[string]ports.TokenClaims)}
}

func (s *fakeSigner) Sign(claims ports.TokenClaims) (string, error) {
	s.count++
	token := fmt.Sprintf("tok-%d", s.count)
	s.tokens[token] = claims
	return token, nil
}

func (s *fakeSigner) Parse(token string) (ports.TokenClaims, error) {
	claims, ok := s.tokens[token]
	if !ok {
		return ports.TokenClaims{}, errors.New("unknown token")
	}
	return claims, nil
}

// mint produces a pre-signed token for fixtures to hand to callers.
func (s *fakeSigner) mint(role domain.Role, kind string) string {
	token, _ := s.Sign(ports.TokenClaims{
		UserID:    uuid.New(),
		Email:     "caller@example.com",
		Role:      role,
		Kind:      kind,
		IssuedAt:  testNow,
		ExpiresAt: testNow.Add(time.Hour),
	})
	return token
}

type fixture struct {
	service  *Service
	creds    *fakeCredentialRepo
	outbox   *fakeOutbox
	profiles *fakeProfileClient
	lockouts *fakeLockoutStore
	signer   *fakeSigner
	sequence []string
}

func newFixture() *fixture {
	f := &fixture{
		creds:    newFakeCredentialRepo(),
		outbox:   &fakeOutbox{},
		profiles: &fakeProfileClient{},
		lockouts: &fakeLockoutStore{},
		signer:   newFakeSigner(),
	}
	f.creds.sequence = &f.sequence
	f.profiles.sequence = &f.sequence

	f.service = NewService(Dependencies{
		Config: Config{
			ServiceName:          "auth-service",
			AccessTokenTTL:       time.Hour,
			RefreshTokenTTL:      24 * time.Hour,
			FailedLoginThreshold: 3,
			LockoutDuration:      30 * time.Minute,
		},
		Credentials: f.creds,
		Outbox:      f.outbox,
		Profiles:    f.profiles,
		Lockouts:    f.lockouts,
		Hasher:      fakeHasher{},
		TokenSigner: f.signer,
	})
	f.service.nowFn = func() time.Time { return testNow }
	return f
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		Email:     "New.User@Example.com",
		Password:  "correct-horse",
		Role:      "USER",
		Name:      "New",
		Surname:   "User",
		BirthDate: "1990-04-15",
	}
}
