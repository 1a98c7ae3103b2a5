package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"web3nav/internal/model"
	"web3nav/internal/retry"
)

// WebsiteFilter narrows a website listing. The zero value lists everything.
type WebsiteFilter struct {
	Section string
}

// WebsiteRepository defines website persistence operations.
type WebsiteRepository interface {
	List(ctx context.Context, filter WebsiteFilter) ([]model.Website, error)
	FindByID(ctx context.Context, id uint) (*model.Website, error)
	// Create inserts the website. When RequestKey is set a replay with the
	// same key returns the row stored by the first call.
	Create(ctx context.Context, website *model.Website) error
	Update(ctx context.Context, website *model.Website) error
	Delete(ctx context.Context, id uint) error
	NextSortOrder(ctx context.Context, section string) (int, error)
	ApplyOrder(ctx context.Context, items []model.OrderItem) error
}

type websiteRepository struct {
	db   *gorm.DB
	exec *retry.Executor
}

// NewWebsiteRepository creates a new website repository.
func NewWebsiteRepository(db *gorm.DB, exec *retry.Executor) WebsiteRepository {
	return &websiteRepository{db: db, exec: exec}
}

// List returns websites grouped by section, then sort_order.
func (r *websiteRepository) List(ctx context.Context, filter WebsiteFilter) ([]model.Website, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "list websites", func(ctx context.Context) ([]model.Website, error) {
		var websites []model.Website
		q := r.db.WithContext(ctx).Order("section ASC").Order("sort_order ASC").Order("id ASC")
		if filter.Section != "" {
			q = q.Where("section = ?", filter.Section)
		}
		if err := q.Find(&websites).Error; err != nil {
			return nil, err
		}
		return websites, nil
	})
}

// FindByID finds a website by ID.
func (r *websiteRepository) FindByID(ctx context.Context, id uint) (*model.Website, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "find website", func(ctx context.Context) (*model.Website, error) {
		var website model.Website
		if err := r.db.WithContext(ctx).First(&website, id).Error; err != nil {
			return nil, err
		}
		return &website, nil
	})
}

// Create creates a new website.
func (r *websiteRepository) Create(ctx context.Context, website *model.Website) error {
	if website.RequestKey == nil || *website.RequestKey == "" {
		website.RequestKey = nil
		return r.exec.Execute(ctx, retry.KindInsert, "create website", func(ctx context.Context) error {
			return r.db.WithContext(ctx).Create(website).Error
		})
	}

	key := *website.RequestKey
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "create website", func(ctx context.Context) error {
		row := *website
		row.ID = 0
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "request_key"}}, DoNothing: true}).
			Create(&row).Error; err != nil {
			return err
		}

		var stored model.Website
		if err := r.db.WithContext(ctx).Where("request_key = ?", key).First(&stored).Error; err != nil {
			return err
		}
		*website = stored
		return nil
	})
}

// Update updates an existing website.
func (r *websiteRepository) Update(ctx context.Context, website *model.Website) error {
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "update website", func(ctx context.Context) error {
		err := r.db.WithContext(ctx).Model(&model.Website{}).
			Where("id = ?", website.ID).
			Updates(map[string]interface{}{
				"name":        website.Name,
				"description": website.Description,
				"url":         website.URL,
				"tags":        website.Tags,
				"custom_logo": website.CustomLogo,
				"section":     website.Section,
				"sort_order":  website.SortOrder,
			}).Error
		if err != nil {
			return err
		}
		return r.db.WithContext(ctx).First(website, website.ID).Error
	})
}

// Delete removes a website. Deleting a missing id is not an error.
func (r *websiteRepository) Delete(ctx context.Context, id uint) error {
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "delete website", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Delete(&model.Website{}, id).Error
	})
}

// NextSortOrder returns one past the highest sort_order within section.
func (r *websiteRepository) NextSortOrder(ctx context.Context, section string) (int, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "next website sort order", func(ctx context.Context) (int, error) {
		var max int
		if err := r.db.WithContext(ctx).Model(&model.Website{}).
			Where("section = ?", section).
			Select("COALESCE(MAX(sort_order), -1)").
			Scan(&max).Error; err != nil {
			return 0, err
		}
		return max + 1, nil
	})
}

// ApplyOrder applies every (id, sort_order) pair or none of them.
func (r *websiteRepository) ApplyOrder(ctx context.Context, items []model.OrderItem) error {
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "reorder websites", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := requireAllIDs(tx, &model.Website{}, items); err != nil {
				return err
			}
			for _, item := range items {
				if err := tx.Model(&model.Website{}).
					Where("id = ?", item.ID).
					Update("sort_order", item.SortOrder).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}
