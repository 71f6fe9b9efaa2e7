package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
	"github.com/stoliar/commerce-mesh/internal/user/ports"
)

func testNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]domain.Profile
	byEmail  map[string]uuid.UUID
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[uuid.UUID]domain.Profile),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (r *fakeProfileRepo) Create(_ context.Context, profile domain.Profile) (domain.Profile, error) {
	if _, exists := r.profiles[profile.ID]; exists {
		return domain.Profile{}, domain.ErrDuplicateResource
	}
	if _, exists := r.byEmail[profile.Email]; exists {
		return domain.Profile{}, domain.ErrDuplicateResource
	}
	r.profiles[profile.ID] = profile
	r.byEmail[profile.Email] = profile.ID
	return profile, nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Profile, error) {
	profile, ok := r.profiles[id]
	if !ok || !profile.Active {
		return domain.Profile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (domain.Profile, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return r.GetByID(context.Background(), id)
}

func (r *fakeProfileRepo) List(_ context.Context, params ports.ListProfilesParams) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range r.profiles {
		if p.Active {
			out = append(out, p)
		}
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *fakeProfileRepo) Update(_ context.Context, params ports.UpdateProfileParams) (domain.Profile, error) {
	profile, ok := r.profiles[params.ID]
	if !ok || !profile.Active {
		return domain.Profile{}, domain.ErrNotFound
	}
	if params.Name != nil {
		profile.Name = *params.Name
	}
	if params.Surname != nil {
		profile.Surname = *params.Surname
	}
	if params.BirthDate != nil {
		profile.BirthDate = *params.BirthDate
	}
	profile.UpdatedAt = params.UpdatedAt
	r.profiles[params.ID] = profile
	return profile, nil
}

func (r *fakeProfileRepo) SoftDelete(_ context.Context, id uuid.UUID, _ time.Time) error {
	profile, ok := r.profiles[id]
	if !ok || !profile.Active {
		return domain.ErrNotFound
	}
	profile.Active = false
	r.profiles[id] = profile
	return nil
}

type fakeProfileCache struct {
	entries     map[uuid.UUID]domain.Profile
	getErr      error
	setErr      error
	gets        int
	sets        int
	invalidates int
}

func newFakeProfileCache() *fakeProfileCache {
	return &fakeProfileCache{entries: make(map[uuid.UUID]domain.Profile)}
}

func (c *fakeProfileCache) Get(_ context.Context, id uuid.UUID) (domain.Profile, bool, error) {
	c.gets++
	if c.getErr != nil {
		return domain.Profile{}, false, c.getErr
	}
	profile, ok := c.entries[id]
	return profile, ok, nil
}

func (c *fakeProfileCache) Set(_ context.Context, profile domain.Profile) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[profile.ID] = profile
	return nil
}

func (c *fakeProfileCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.invalidates++
	delete(c.entries, id)
	return nil
}

type profileFixture struct {
	service *Service
	repo    *fakeProfileRepo
	cache   *fakeProfileCache
}

func newProfileFixture() *profileFixture {
	f := &profileFixture{
		repo:  newFakeProfileRepo(),
		cache: newFakeProfileCache(),
	}
	f.service = NewService(Dependencies{
		Config:   Config{ServiceName: "user-service", DefaultPageSize: 20, MaxPageSize: 100},
		Profiles: f.repo,
		Cache:    f.cache,
	})
	f.service.nowFn = testNow
	return f
}

func validCreateRequest() CreateProfileRequest {
	return CreateProfileRequest{
		UserID:    uuid.NewString(),
		Email:     "New.User@Example.com",
		Name:      "New",
		Surname:   "User",
		BirthDate: "1990-04-15",
	}
}

func TestCreateProfileUsesAssignedID(t *testing.T) {
	t.Parallel()
	f := newProfileFixture()
	req := validCreateRequest()

	view, err := f.service.CreateProfile(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if view.ID.String() != req.UserID {
		t.Errorf("id = %s, want caller-assigned %s", view.ID, req.UserID)
	}
	if view.Email != "new.user@example.com" {
		t.Errorf("email = %q, want normalized", view.Email)
	}
	if !view.Active {
		t.Error("fresh profile not active")
	}
}

func TestCreateProfileDuplicate(t *testing.T) {
	t.Parallel()
	f := newProfileFixture()
	req := validCreateRequest()
	if _, err := f.service.CreateProfile(context.Background(), req); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	// Same email under a fresh id still collides.
	repeat := req
	repeat.UserID = uuid.NewString()
	if _, err := f.service.CreateProfile(context.Background(), repeat); !errors.Is(err, domain.ErrDuplicateResource) {
		t.Fatalf("err = %v, want ErrDuplicateResource", err)
	}
}

func TestCreateProfileValidation(t *testing.T) {
	t.Parallel()
	f := newProfileFixture()

	cases := []struct {
		name   string
		mutate func(*CreateProfileRequest)
	}{
		{"bad user id", func(r *CreateProfileRequest) { r.UserID = "not-a-uuid" }},
		{"bad email", func(r *CreateProfileRequest) { r.Email = "no-at-sign" }},
		{"empty name", func(r *CreateProfileRequest) { r.Name = "  " }},
		{"bad birth date format", func(r *CreateProfileRequest) { r.BirthDate = "15/04/1990" }},
		{"future birth date", func(r *CreateProfileRequest) { r.BirthDate = "2031-01-01" }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := validCreateRequest()
			tc.mutate(&req)
			if _, err := f.service.CreateProfile(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestGetProfileCacheFlow(t *testing.T) {
	t.Parallel()
	f := newProfileFixture()
	view, err := f.service.CreateProfile(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	// Cold cache: repository read, then populate.
	if _, err := f.service.GetProfile(context.Background(), view.ID); err != nil {
		t.Fatalf("GetProfile cold: %v", err)
	}
	if f.cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", f.cache.sets)
	}

	// Warm cache: no second Set.
	if _, err := f.service.GetProfile(context.Background(), view.ID); err != nil {
		t.Fatalf("GetProfile warm: %v", err)
	}
	if f.cache.sets != 1 {
		t.Errorf("cache sets after warm read = %d, want 1", f.cache.sets)
	}
}

func TestGetProfileSurvivesCacheOutage(t *testing.T) {
	t.Parallel()
	f := newProfileFixture()
	view, err := f.service.CreateProfile(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	f.cache.getErr = fmt.Errorf("redis gone")
	f.cache.setErr = fmt.Errorf("redis gone")

	got, err := f.service.GetProfile(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("GetProfile must not fail on cache outage: %v", err)
	}
	if got.ID != view.ID {
		t.Errorf("profile id = %s", got.ID)
	}
}

func TestUpdateProfileRequiresFields(t *testing.T) {
	t.Parallel()
	f := newProfileFixture()
	view, err := f.service.CreateProfile(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	if _, err := f.service.UpdateProfile(context.Background(), view.ID, UpdateProfileRequest{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty update err = %v, want ErrInvalidInput", err)
	}

	name := "Renamed"
	updated, err := f.service.UpdateProfile(context.Background(), view.ID, UpdateProfileRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Surname != view.Surname {
		t.Errorf("surname changed by partial update: %q", updated.Surname)
	}
	if f.cache.invalidates != 1 {
		t.Errorf("cache invalidations = %d, want 1", f.cache.invalidates)
	}
}

func TestDeleteProfileRepeatIsNotFound(t *testing.T) {
	t.Parallel()
	f := newProfileFixture()
	view, err := f.service.CreateProfile(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	if err := f.service.DeleteProfile(context.Background(), view.ID, "auth-service"); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if f.cache.invalidates != 1 {
		t.Errorf("cache invalidations = %d, want 1", f.cache.invalidates)
	}

	// The second delete reports the row gone so the caller can treat the
	// outcome as idempotent.
	if err := f.service.DeleteProfile(context.Background(), view.ID, "auth-service"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("repeat delete err = %v, want ErrNotFound", err)
	}

	// Soft-deleted rows disappear from reads.
	if _, err := f.service.GetProfile(context.Background(), view.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("read after delete err = %v, want ErrNotFound", err)
	}
}

func TestListProfilesClampsPageSize(t *testing.T) {
	t.Parallel()
	f := newProfileFixture()
	for i := 0; i < 5; i++ {
		req := validCreateRequest()
		req.Email = fmt.Sprintf("user%d@example.com", i)
		if _, err := f.service.CreateProfile(context.Background(), req); err != nil {
			t.Fatalf("seed profile %d: %v", i, err)
		}
	}

	views, err := f.service.ListProfiles(context.Background(), ListProfilesRequest{Limit: 3})
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(views) != 3 {
		t.Errorf("page size = %d, want 3", len(views))
	}

	views, err = f.service.ListProfiles(context.Background(), ListProfilesRequest{Limit: 10_000})
	if err != nil {
		t.Fatalf("ListProfiles oversized: %v", err)
	}
	if len(views) > 100 {
		t.Errorf("oversized limit not clamped, got %d", len(views))
	}
}
