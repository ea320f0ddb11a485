package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/http-api/models"

	"gorm.io/gorm"
)

// TitleFilter holds the optional list filters: category/genre match on slug,
// name on the title name, all case-insensitive substrings.
type TitleFilter struct {
	Category string
	Genre    string
	Name     string
	Year     *int
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

// ratingSelect computes the live rating as part of the read query. Titles
// without reviews fall back to the minimum score, not zero.
const ratingSelect = "titles.*, COALESCE(AVG(reviews.score), ?) AS rating"

// GetAll returns titles with their computed rating, ordered by rating
// ascending, paginated.
func (r *TitleRepo) GetAll(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	countQ := applyTitleFilter(r.db.WithContext(ctx).Model(&models.Title{}), filter)
	if err := countQ.Distinct("titles.id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	q := applyTitleFilter(r.db.WithContext(ctx).Model(&models.Title{}), filter).
		Select(ratingSelect, float64(models.MinScore)).
		Joins("LEFT JOIN reviews ON reviews.title_id = titles.id").
		Group("titles.id")

	offset := (page - 1) * pageSize
	err := q.Order("rating asc").
		Limit(pageSize).
		Offset(offset).
		Preload("Category").
		Preload("Genres").
		Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("get titles: %w", err)
	}

	return list, total, nil
}

// GetByID returns a single title with its computed rating and preloaded
// category and genres.
func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var title models.Title
	err := r.db.WithContext(ctx).Model(&models.Title{}).
		Select(ratingSelect, float64(models.MinScore)).
		Joins("LEFT JOIN reviews ON reviews.title_id = titles.id").
		Where("titles.id = ?", id).
		Group("titles.id").
		Preload("Category").
		Preload("Genres").
		First(&title).Error
	if err != nil {
		return nil, err
	}
	return &title, nil
}

func (r *TitleRepo) Create(ctx context.Context, t *models.Title) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

// Update saves the title fields and replaces the genre association when
// genres is non-nil.
func (r *TitleRepo) Update(ctx context.Context, t *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres").Save(t).Error; err != nil {
			return fmt.Errorf("update title: %w", err)
		}
		if genres != nil {
			if err := tx.Model(t).Association("Genres").Replace(genres); err != nil {
				return fmt.Errorf("replace title genres: %w", err)
			}
		}
		return nil
	})
}

func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Title{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func applyTitleFilter(q *gorm.DB, f TitleFilter) *gorm.DB {
	if f.Category != "" {
		q = q.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug ILIKE ?", "%"+f.Category+"%")
	}
	if f.Genre != "" {
		q = q.Joins("JOIN title_genres tg ON tg.title_id = titles.id").
			Joins("JOIN genres ON genres.id = tg.genre_id").
			Where("genres.slug ILIKE ?", "%"+f.Genre+"%")
	}
	if f.Name != "" {
		q = q.Where("titles.name ILIKE ?", "%"+f.Name+"%")
	}
	if f.Year != nil {
		q = q.Where("titles.year = ?", *f.Year)
	}
	return q
}
