package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/user/domain"
	"github.com/stoliar/commerce-mesh/internal/user/ports"
)

const birthDateLayout = "2006-01-02"

// CreateProfile registers a profile under the id assigned by the auth
// service. The shared id is what lets the compensating delete on the auth
// side target exactly the row created here.
func (s *Service) CreateProfile(ctx context.Context, req CreateProfileRequest) (ProfileView, error) {
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		return ProfileView{}, fmt.Errorf("%w: invalid user_id", domain.ErrInvalidInput)
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return ProfileView{}, err
	}
	if err := domain.ValidateName("name", req.Name); err != nil {
		return ProfileView{}, err
	}
	if err := domain.ValidateName("surname", req.Surname); err != nil {
		return ProfileView{}, err
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return ProfileView{}, err
	}
	if err := domain.ValidateBirthDate(birthDate, s.nowFn()); err != nil {
		return ProfileView{}, err
	}

	now := s.nowFn()
	created, err := s.profiles.Create(ctx, domain.Profile{
		ID:        id,
		Email:     email,
		Name:      req.Name,
		Surname:   req.Surname,
		BirthDate: birthDate,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateResource) {
			return ProfileView{}, fmt.Errorf("%w: profile with this id or email already exists", domain.ErrDuplicateResource)
		}
		return ProfileView{}, fmt.Errorf("create profile: %w", err)
	}

	s.logProfile(ctx, "create_profile", "success", created.ID)
	return toProfileView(created), nil
}

// GetProfile serves reads cache-first, falling back to the repository when
// the cache is cold or unavailable.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (ProfileView, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logProfile(ctx, "cache_get", "degraded", id)
		} else if hit {
			return toProfileView(cached), nil
		}
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return ProfileView{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, profile); err != nil {
			s.logProfile(ctx, "cache_set", "degraded", id)
		}
	}
	return toProfileView(profile), nil
}

func (s *Service) GetProfileByEmail(ctx context.Context, rawEmail string) (ProfileView, error) {
	email, err := domain.NormalizeEmail(rawEmail)
	if err != nil {
		return ProfileView{}, err
	}
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return ProfileView{}, err
	}
	return toProfileView(profile), nil
}

func (s *Service) ListProfiles(ctx context.Context, req ListProfilesRequest) ([]ProfileView, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	profiles, err := s.profiles.List(ctx, ports.ListProfilesParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	views := make([]ProfileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, toProfileView(p))
	}
	return views, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (ProfileView, error) {
	if req.Name == nil && req.Surname == nil && req.BirthDate == nil {
		return ProfileView{}, fmt.Errorf("%w: no fields to update", domain.ErrInvalidInput)
	}
	if req.Name != nil {
		if err := domain.ValidateName("name", *req.Name); err != nil {
			return ProfileView{}, err
		}
	}
	if req.Surname != nil {
		if err := domain.ValidateName("surname", *req.Surname); err != nil {
			return ProfileView{}, err
		}
	}
	var birthDate *time.Time
	if req.BirthDate != nil {
		parsed, err := parseBirthDate(*req.BirthDate)
		if err != nil {
			return ProfileView{}, err
		}
		if err := domain.ValidateBirthDate(parsed, s.nowFn()); err != nil {
			return ProfileView{}, err
		}
		birthDate = &parsed
	}

	updated, err := s.profiles.Update(ctx, ports.UpdateProfileParams{
		ID:        id,
		Name:      req.Name,
		Surname:   req.Surname,
		BirthDate: birthDate,
		UpdatedAt: s.nowFn(),
	})
	if err != nil {
		return ProfileView{}, err
	}

	s.invalidateCache(ctx, id)
	s.logProfile(ctx, "update_profile", "success", id)
	return toProfileView(updated), nil
}

// DeleteProfile soft-deletes a profile. A repeat delete returns
// domain.ErrNotFound, which the auth-side coordinators rely on for
// idempotency decisions.
func (s *Service) DeleteProfile(ctx context.Context, id uuid.UUID, callingService string) error {
	if err := s.profiles.SoftDelete(ctx, id, s.nowFn()); err != nil {
		return err
	}

	s.invalidateCache(ctx, id)
	slog.Default().InfoContext(ctx, "profile deleted",
		"module", "user.application",
		"layer", "application",
		"operation", "delete_profile",
		"outcome", "success",
		"user_id", id,
		"calling_service", callingService,
	)
	return nil
}

func (s *Service) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logProfile(ctx, "cache_invalidate", "degraded", id)
	}
}

func (s *Service) logProfile(ctx context.Context, operation, outcome string, id uuid.UUID) {
	slog.Default().InfoContext(ctx, "profile operation",
		"module", "user.application",
		"layer", "application",
		"operation", operation,
		"outcome", outcome,
		"user_id", id,
	)
}

func parseBirthDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(birthDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return parsed.UTC(), nil
}

func toProfileView(p domain.Profile) ProfileView {
	return ProfileView{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Surname:   p.Surname,
		BirthDate: p.BirthDate.Format(birthDateLayout),
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
