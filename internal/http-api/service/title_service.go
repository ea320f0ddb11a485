package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
	"reviewhub/pkg/apperror"

	"gorm.io/gorm"
)

var (
	ErrEmptyGenres    = fmt.Errorf("%w: genre must be a non-empty list of genre slugs", apperror.ErrInvalidInput)
	ErrUnknownGenre   = fmt.Errorf("%w: unknown genre slug", apperror.ErrInvalidInput)
	ErrUnknownCateg   = fmt.Errorf("%w: unknown category slug", apperror.ErrInvalidInput)
	ErrTitleNotFound  = fmt.Errorf("%w: title", apperror.ErrNotFound)
	ErrYearInFuture   = fmt.Errorf("%w: year must not exceed the current year", apperror.ErrInvalidInput)
)

type TitleService interface {
	GetAll(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, in *dto.CreateTitleDTO) (*models.Title, error)
	Update(ctx context.Context, id int64, in *dto.UpdateTitleDTO) (*models.Title, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	repo         *repository.TitleRepo
	categoryRepo *repository.CategoryRepo
	genreRepo    *repository.GenreRepo
}

func NewTitleService(r *repository.TitleRepo, categoryRepo *repository.CategoryRepo, genreRepo *repository.GenreRepo) TitleService {
	return &titleService{repo: r, categoryRepo: categoryRepo, genreRepo: genreRepo}
}

func (s *titleService) GetAll(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	return s.repo.GetAll(ctx, filter, page, pageSize)
}

func (s *titleService) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	title, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return title, nil
}

func (s *titleService) Create(ctx context.Context, in *dto.CreateTitleDTO) (*models.Title, error) {
	if err := validateYear(in.Year); err != nil {
		return nil, err
	}

	genres, err := s.resolveGenres(ctx, in.Genre)
	if err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        strings.TrimSpace(in.Name),
		Year:        in.Year,
		Description: in.Description,
		Genres:      genres,
	}

	if in.Category != "" {
		category, err := s.resolveCategory(ctx, in.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}

	if err := s.repo.Create(ctx, title); err != nil {
		return nil, err
	}

	// Reload so the response carries the embedded category, genres and the
	// computed rating.
	return s.GetByID(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, id int64, in *dto.UpdateTitleDTO) (*models.Title, error) {
	title, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		title.Name = strings.TrimSpace(*in.Name)
	}
	if in.Year != nil {
		if err := validateYear(*in.Year); err != nil {
			return nil, err
		}
		title.Year = *in.Year
	}
	if in.Description != nil {
		title.Description = in.Description
	}
	if in.Category != nil {
		category, err := s.resolveCategory(ctx, *in.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}

	var genres []models.Genre
	if in.Genre != nil {
		genres, err = s.resolveGenres(ctx, in.Genre)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, title, genres); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}

// resolveGenres maps slugs to genre records; the set must be non-empty and
// every slug must exist.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	if len(slugs) == 0 {
		return nil, ErrEmptyGenres
	}
	genres, err := s.genreRepo.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(unique(slugs)) {
		return nil, ErrUnknownGenre
	}
	return genres, nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownCateg
		}
		return nil, err
	}
	return category, nil
}

// validateYear rejects years beyond the current wall-clock year.
func validateYear(year int) error {
	if year > time.Now().Year() {
		return ErrYearInFuture
	}
	return nil
}

func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
