package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"web3nav/internal/cache"
	"web3nav/internal/errors"
	"web3nav/internal/model"
	"web3nav/internal/repository"
)

// CreateWebsiteInput carries the fields of a new website.
type CreateWebsiteInput struct {
	Name        string
	Description string
	URL         string
	Tags        []string
	CustomLogo  *string
	Section     string
	SortOrder   *int // nil appends to the end of the section
	// IdempotencyKey makes a retried create return the first result.
	IdempotencyKey string
}

// UpdateWebsiteInput carries a partial website update; nil fields are kept.
// An empty CustomLogo clears the logo.
type UpdateWebsiteInput struct {
	Name        *string
	Description *string
	URL         *string
	Tags        []string
	CustomLogo  *string
	Section     *string
	SortOrder   *int
}

// WebsiteService handles website administration.
type WebsiteService interface {
	List(ctx context.Context, section string) ([]model.Website, error)
	Create(ctx context.Context, in CreateWebsiteInput) (*model.Website, error)
	Update(ctx context.Context, id uint, in UpdateWebsiteInput) (*model.Website, error)
	Delete(ctx context.Context, id uint) error
	Reorder(ctx context.Context, items []model.OrderItem) error
}

type websiteService struct {
	repo     repository.WebsiteRepository
	sections repository.SectionRepository
	cache    *cache.Client
}

// NewWebsiteService creates a new website service.
func NewWebsiteService(repo repository.WebsiteRepository, sections repository.SectionRepository, cache *cache.Client) WebsiteService {
	return &websiteService{
		repo:     repo,
		sections: sections,
		cache:    cache,
	}
}

// List returns websites, optionally limited to one section key.
func (s *websiteService) List(ctx context.Context, section string) ([]model.Website, error) {
	websites, err := s.repo.List(ctx, repository.WebsiteFilter{Section: strings.TrimSpace(section)})
	if err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	return websites, nil
}

// Create adds a website to an existing section.
func (s *websiteService) Create(ctx context.Context, in CreateWebsiteInput) (*model.Website, error) {
	rawURL, err := normalizeURL(in.URL)
	if err != nil {
		return nil, err
	}
	section := strings.TrimSpace(in.Section)
	if err := s.ensureSection(ctx, section); err != nil {
		return nil, err
	}

	website := &model.Website{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		URL:         rawURL,
		Tags:        normalizeTags(in.Tags),
		CustomLogo:  normalizeLogo(in.CustomLogo),
		Section:     section,
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		website.RequestKey = &key
	}
	if in.SortOrder != nil {
		website.SortOrder = *in.SortOrder
	} else {
		next, err := s.repo.NextSortOrder(ctx, section)
		if err != nil {
			return nil, fmt.Errorf("next sort order: %w", err)
		}
		website.SortOrder = next
	}

	if err := s.repo.Create(ctx, website); err != nil {
		return nil, fmt.Errorf("create website: %w", err)
	}

	invalidateDirectory(ctx, s.cache)
	return website, nil
}

// Update applies the non-nil fields of in to website id.
func (s *websiteService) Update(ctx context.Context, id uint, in UpdateWebsiteInput) (*model.Website, error) {
	website, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		website.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		website.Description = *in.Description
	}
	if in.URL != nil {
		rawURL, err := normalizeURL(*in.URL)
		if err != nil {
			return nil, err
		}
		website.URL = rawURL
	}
	if in.Tags != nil {
		website.Tags = normalizeTags(in.Tags)
	}
	if in.CustomLogo != nil {
		website.CustomLogo = normalizeLogo(in.CustomLogo)
	}
	if in.Section != nil {
		section := strings.TrimSpace(*in.Section)
		if section != website.Section {
			if err := s.ensureSection(ctx, section); err != nil {
				return nil, err
			}
			website.Section = section
			if in.SortOrder == nil {
				next, err := s.repo.NextSortOrder(ctx, section)
				if err != nil {
					return nil, fmt.Errorf("next sort order: %w", err)
				}
				website.SortOrder = next
			}
		}
	}
	if in.SortOrder != nil {
		website.SortOrder = *in.SortOrder
	}

	if err := s.repo.Update(ctx, website); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrWebsiteNotFound
		}
		return nil, fmt.Errorf("update website: %w", err)
	}

	invalidateDirectory(ctx, s.cache)
	return website, nil
}

// Delete removes website id.
func (s *websiteService) Delete(ctx context.Context, id uint) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete website: %w", err)
	}
	invalidateDirectory(ctx, s.cache)
	return nil
}

// Reorder assigns explicit sort positions by id.
func (s *websiteService) Reorder(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return errors.ErrEmptyOrder
	}
	if err := s.repo.ApplyOrder(ctx, items); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrWebsiteNotFound
		}
		return fmt.Errorf("reorder websites: %w", err)
	}
	invalidateDirectory(ctx, s.cache)
	return nil
}

func (s *websiteService) find(ctx context.Context, id uint) (*model.Website, error) {
	website, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrWebsiteNotFound
		}
		return nil, fmt.Errorf("find website: %w", err)
	}
	return website, nil
}

func (s *websiteService) ensureSection(ctx context.Context, key string) error {
	if key == "" {
		return errors.ErrUnknownSection
	}
	if _, err := s.sections.FindByKey(ctx, key); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrUnknownSection
		}
		return fmt.Errorf("find section: %w", err)
	}
	return nil
}

// normalizeURL accepts only absolute http(s) URLs with a host.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", errors.ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.ErrInvalidURL
	}
	return raw, nil
}

// normalizeTags trims tags and drops blanks and duplicates, keeping order.
func normalizeTags(tags []string) model.StringList {
	out := make(model.StringList, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func normalizeLogo(logo *string) *string {
	if logo == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*logo)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
