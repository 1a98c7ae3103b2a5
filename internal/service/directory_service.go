package service

import (
	"context"
	"fmt"
	"time"

	"web3nav/internal/cache"
	"web3nav/internal/model"
	"web3nav/internal/repository"
)

const (
	directoryCacheKey = "directory:snapshot"
	directoryCacheTTL = 5 * time.Minute
)

// Directory is everything the public site renders: active sections and all
// websites, both in display order.
type Directory struct {
	Sections []model.Section `json:"sections"`
	Websites []model.Website `json:"websites"`
}

// DirectoryService serves the public read side of the directory.
type DirectoryService interface {
	Sections(ctx context.Context) ([]model.Section, error)
	Websites(ctx context.Context) ([]model.Website, error)
	Snapshot(ctx context.Context) (*Directory, error)
}

type directoryService struct {
	sections repository.SectionRepository
	websites repository.WebsiteRepository
	cache    *cache.Client
}

// NewDirectoryService creates a new directory service. cache may be nil.
func NewDirectoryService(sections repository.SectionRepository, websites repository.WebsiteRepository, cache *cache.Client) DirectoryService {
	return &directoryService{
		sections: sections,
		websites: websites,
		cache:    cache,
	}
}

// Sections returns the active sections.
func (s *directoryService) Sections(ctx context.Context) ([]model.Section, error) {
	d, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return d.Sections, nil
}

// Websites returns every website.
func (s *directoryService) Websites(ctx context.Context) ([]model.Website, error) {
	d, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return d.Websites, nil
}

// Snapshot returns the whole directory, served from redis when possible.
func (s *directoryService) Snapshot(ctx context.Context) (*Directory, error) {
	var cached Directory
	if s.cache.GetJSON(ctx, directoryCacheKey, &cached) {
		return &cached, nil
	}

	sections, err := s.sections.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	websites, err := s.websites.List(ctx, repository.WebsiteFilter{})
	if err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}

	d := &Directory{Sections: sections, Websites: websites}
	s.cache.SetJSON(ctx, directoryCacheKey, d, directoryCacheTTL)
	return d, nil
}

// invalidateDirectory drops the cached snapshot after an admin write.
func invalidateDirectory(ctx context.Context, c *cache.Client) {
	c.Delete(ctx, directoryCacheKey)
}
