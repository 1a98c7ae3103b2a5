package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"web3nav/internal/cache"
	"web3nav/internal/errors"
	"web3nav/internal/model"
	"web3nav/internal/repository"
)

// CreateSectionInput carries the fields of a new section.
type CreateSectionInput struct {
	Key         string
	Title       string
	Description string
	Icon        string
	SortOrder   *int  // nil appends after the last section
	IsActive    *bool // nil means active
}

// UpdateSectionInput carries a partial section update; nil fields are kept.
type UpdateSectionInput struct {
	Key         *string
	Title       *string
	Description *string
	Icon        *string
	SortOrder   *int
	IsActive    *bool
}

// SectionService handles section administration.
type SectionService interface {
	List(ctx context.Context) ([]model.Section, error)
	Get(ctx context.Context, ref string) (*model.Section, error)
	Create(ctx context.Context, in CreateSectionInput) (*model.Section, error)
	Update(ctx context.Context, ref string, in UpdateSectionInput) (*model.Section, error)
	Delete(ctx context.Context, ref string) error
	Reorder(ctx context.Context, items []model.OrderItem) error
	ReorderByKeys(ctx context.Context, keys []string) error
	SeedDefaults(ctx context.Context) (int, error)
}

type sectionService struct {
	repo  repository.SectionRepository
	cache *cache.Client
}

// NewSectionService creates a new section service.
func NewSectionService(repo repository.SectionRepository, cache *cache.Client) SectionService {
	return &sectionService{
		repo:  repo,
		cache: cache,
	}
}

// DefaultSections is the catalogue a fresh installation starts with.
var DefaultSections = []model.Section{
	{Key: "funding", Title: "Funding News", Description: "Latest fundraising rounds and investor activity across Web3.", Icon: "trending-up", SortOrder: 0, IsActive: true},
	{Key: "tools", Title: "Trading Tools", Description: "Analytics, charting and on-chain research tools.", Icon: "wrench", SortOrder: 1, IsActive: true},
	{Key: "faucets", Title: "Faucets", Description: "Testnet faucets for developers and early testers.", Icon: "droplet", SortOrder: 2, IsActive: true},
	{Key: "airdrops", Title: "Airdrops", Description: "Airdrop trackers and eligibility checkers.", Icon: "gift", SortOrder: 3, IsActive: true},
	{Key: "tutorials", Title: "Tutorials", Description: "Guides for wallets, bridges and protocols.", Icon: "book-open", SortOrder: 4, IsActive: true},
	{Key: "exchanges", Title: "Exchanges", Description: "Exchange sign-up links with referral bonuses.", Icon: "repeat", SortOrder: 5, IsActive: true},
}

// List returns every section, including inactive ones.
func (s *sectionService) List(ctx context.Context) ([]model.Section, error) {
	sections, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// Get resolves ref as a numeric id first and then as a key.
func (s *sectionService) Get(ctx context.Context, ref string) (*model.Section, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.ErrSectionNotFound
	}

	if id, err := strconv.ParseUint(ref, 10, 64); err == nil && id > 0 {
		section, err := s.repo.FindByID(ctx, uint(id))
		if err == nil {
			return section, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find section: %w", err)
		}
	}

	section, err := s.repo.FindByKey(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrSectionNotFound
		}
		return nil, fmt.Errorf("find section: %w", err)
	}
	return section, nil
}

// Create adds a section with a unique key.
func (s *sectionService) Create(ctx context.Context, in CreateSectionInput) (*model.Section, error) {
	key := strings.TrimSpace(in.Key)
	if err := s.ensureKeyFree(ctx, key); err != nil {
		return nil, err
	}

	section := &model.Section{
		Key:         key,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Icon:        in.Icon,
		IsActive:    true,
	}
	if in.IsActive != nil {
		section.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		section.SortOrder = *in.SortOrder
	} else {
		next, err := s.repo.NextSortOrder(ctx)
		if err != nil {
			return nil, fmt.Errorf("next sort order: %w", err)
		}
		section.SortOrder = next
	}

	if err := s.repo.Create(ctx, section); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrSectionKeyExists
		}
		return nil, fmt.Errorf("create section: %w", err)
	}

	invalidateDirectory(ctx, s.cache)
	return section, nil
}

// Update applies the non-nil fields. Changing the key moves the section's
// websites along with it.
func (s *sectionService) Update(ctx context.Context, ref string, in UpdateSectionInput) (*model.Section, error) {
	section, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	previousKey := section.Key

	if in.Key != nil {
		key := strings.TrimSpace(*in.Key)
		if key != previousKey {
			if err := s.ensureKeyFree(ctx, key); err != nil {
				return nil, err
			}
			section.Key = key
		}
	}
	if in.Title != nil {
		section.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		section.Description = *in.Description
	}
	if in.Icon != nil {
		section.Icon = *in.Icon
	}
	if in.SortOrder != nil {
		section.SortOrder = *in.SortOrder
	}
	if in.IsActive != nil {
		section.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, section, previousKey); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, errors.ErrSectionKeyExists
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, errors.ErrSectionNotFound
		}
		return nil, fmt.Errorf("update section: %w", err)
	}

	invalidateDirectory(ctx, s.cache)
	return section, nil
}

// Delete removes a section that no website references.
func (s *sectionService) Delete(ctx context.Context, ref string) error {
	section, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}

	count, err := s.repo.DeleteIfUnused(ctx, section)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if count > 0 {
		return &errors.SectionInUseError{Key: section.Key, Count: count}
	}

	invalidateDirectory(ctx, s.cache)
	return nil
}

// Reorder assigns explicit sort positions by id.
func (s *sectionService) Reorder(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return errors.ErrEmptyOrder
	}
	if err := s.repo.ApplyOrder(ctx, items); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrSectionNotFound
		}
		return fmt.Errorf("reorder sections: %w", err)
	}
	invalidateDirectory(ctx, s.cache)
	return nil
}

// ReorderByKeys sets each section's sort position to its index in keys.
func (s *sectionService) ReorderByKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return errors.ErrEmptyOrder
	}
	if err := s.repo.ApplyKeyOrder(ctx, keys); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrSectionNotFound
		}
		return fmt.Errorf("reorder sections: %w", err)
	}
	invalidateDirectory(ctx, s.cache)
	return nil
}

// SeedDefaults inserts whichever DefaultSections are missing. Existing
// sections, including ones edited by an admin, are left alone.
func (s *sectionService) SeedDefaults(ctx context.Context) (int, error) {
	for i := range DefaultSections {
		section := DefaultSections[i]
		if err := s.repo.CreateIfMissing(ctx, &section); err != nil {
			return i, fmt.Errorf("seed section %q: %w", section.Key, err)
		}
	}
	invalidateDirectory(ctx, s.cache)
	return len(DefaultSections), nil
}

func (s *sectionService) ensureKeyFree(ctx context.Context, key string) error {
	_, err := s.repo.FindByKey(ctx, key)
	switch {
	case err == nil:
		return errors.ErrSectionKeyExists
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("check section key: %w", err)
	}
}
