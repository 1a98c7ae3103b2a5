package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"web3nav/internal/model"
	"web3nav/internal/retry"
)

// SectionRepository defines section persistence operations.
type SectionRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Section, error)
	FindByID(ctx context.Context, id uint) (*model.Section, error)
	FindByKey(ctx context.Context, key string) (*model.Section, error)
	Create(ctx context.Context, section *model.Section) error
	// Update rewrites the section and, when its key changed from previousKey,
	// moves every website to the new key in the same transaction.
	Update(ctx context.Context, section *model.Section, previousKey string) error
	// DeleteIfUnused deletes the section unless websites reference its key.
	// It returns the number of referencing websites; the row is only removed
	// when that number is zero.
	DeleteIfUnused(ctx context.Context, section *model.Section) (int64, error)
	NextSortOrder(ctx context.Context) (int, error)
	// ApplyOrder sets sort_order for every item in one transaction.
	ApplyOrder(ctx context.Context, items []model.OrderItem) error
	// ApplyKeyOrder sets sort_order to the position of each key in keys.
	ApplyKeyOrder(ctx context.Context, keys []string) error
	// CreateIfMissing inserts the section unless its key is already taken.
	CreateIfMissing(ctx context.Context, section *model.Section) error
}

type sectionRepository struct {
	db   *gorm.DB
	exec *retry.Executor
}

// NewSectionRepository creates a new section repository.
func NewSectionRepository(db *gorm.DB, exec *retry.Executor) SectionRepository {
	return &sectionRepository{db: db, exec: exec}
}

// List returns sections ordered for display.
func (r *sectionRepository) List(ctx context.Context, activeOnly bool) ([]model.Section, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "list sections", func(ctx context.Context) ([]model.Section, error) {
		var sections []model.Section
		q := r.db.WithContext(ctx).Order("sort_order ASC").Order("id ASC")
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		if err := q.Find(&sections).Error; err != nil {
			return nil, err
		}
		return sections, nil
	})
}

// FindByID finds a section by ID.
func (r *sectionRepository) FindByID(ctx context.Context, id uint) (*model.Section, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "find section", func(ctx context.Context) (*model.Section, error) {
		var section model.Section
		if err := r.db.WithContext(ctx).First(&section, id).Error; err != nil {
			return nil, err
		}
		return &section, nil
	})
}

// FindByKey finds a section by its key. Lookups on "key" go through a map
// condition so gorm quotes the column, which is reserved in MySQL.
func (r *sectionRepository) FindByKey(ctx context.Context, key string) (*model.Section, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "find section by key", func(ctx context.Context) (*model.Section, error) {
		var section model.Section
		if err := r.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&section).Error; err != nil {
			return nil, err
		}
		return &section, nil
	})
}

// Create creates a new section.
func (r *sectionRepository) Create(ctx context.Context, section *model.Section) error {
	return r.exec.Execute(ctx, retry.KindInsert, "create section", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Create(section).Error
	})
}

// Update updates an existing section.
func (r *sectionRepository) Update(ctx context.Context, section *model.Section, previousKey string) error {
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "update section", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.Model(&model.Section{}).
				Where("id = ?", section.ID).
				Updates(map[string]interface{}{
					"key":         section.Key,
					"title":       section.Title,
					"description": section.Description,
					"icon":        section.Icon,
					"sort_order":  section.SortOrder,
					"is_active":   section.IsActive,
				}).Error
			if err != nil {
				return err
			}

			if previousKey != "" && previousKey != section.Key {
				if err := tx.Model(&model.Website{}).
					Where("section = ?", previousKey).
					Update("section", section.Key).Error; err != nil {
					return err
				}
			}

			return tx.First(section, section.ID).Error
		})
	})
}

// DeleteIfUnused deletes a section that no website references.
func (r *sectionRepository) DeleteIfUnused(ctx context.Context, section *model.Section) (int64, error) {
	return retry.Query(ctx, r.exec, retry.KindIdempotentWrite, "delete section", func(ctx context.Context) (int64, error) {
		var count int64
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Website{}).Where("section = ?", section.Key).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
			return tx.Delete(&model.Section{}, section.ID).Error
		})
		return count, err
	})
}

// NextSortOrder returns one past the highest sort_order in use.
func (r *sectionRepository) NextSortOrder(ctx context.Context) (int, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "next section sort order", func(ctx context.Context) (int, error) {
		var max int
		if err := r.db.WithContext(ctx).Model(&model.Section{}).
			Select("COALESCE(MAX(sort_order), -1)").
			Scan(&max).Error; err != nil {
			return 0, err
		}
		return max + 1, nil
	})
}

// ApplyOrder applies every (id, sort_order) pair or none of them.
func (r *sectionRepository) ApplyOrder(ctx context.Context, items []model.OrderItem) error {
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "reorder sections", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := requireAllIDs(tx, &model.Section{}, items); err != nil {
				return err
			}
			for _, item := range items {
				if err := tx.Model(&model.Section{}).
					Where("id = ?", item.ID).
					Update("sort_order", item.SortOrder).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// ApplyKeyOrder orders sections by their position in keys.
func (r *sectionRepository) ApplyKeyOrder(ctx context.Context, keys []string) error {
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "reorder sections by key", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var found int64
			if err := tx.Model(&model.Section{}).Where(map[string]interface{}{"key": keys}).Count(&found).Error; err != nil {
				return err
			}
			if found != int64(len(uniqueStrings(keys))) {
				return gorm.ErrRecordNotFound
			}
			for i, key := range keys {
				if err := tx.Model(&model.Section{}).
					Where(map[string]interface{}{"key": key}).
					Update("sort_order", i).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// CreateIfMissing inserts a section keyed on its unique key. Safe to retry.
func (r *sectionRepository) CreateIfMissing(ctx context.Context, section *model.Section) error {
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "seed section", func(ctx context.Context) error {
		row := *section
		row.ID = 0
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&row).Error
	})
}

// requireAllIDs fails with gorm.ErrRecordNotFound unless every item id exists.
func requireAllIDs(tx *gorm.DB, table interface{}, items []model.OrderItem) error {
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
	}

	var found int64
	if err := tx.Model(table).Where("id IN ?", ids).Count(&found).Error; err != nil {
		return err
	}
	if found != int64(len(ids)) {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
