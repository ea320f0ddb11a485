package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
	"reviewhub/pkg/apperror"

	"gorm.io/gorm"
)

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var (
	ErrInvalidSlug   = fmt.Errorf("%w: slug may only contain letters, digits, hyphens and underscores", apperror.ErrInvalidInput)
	ErrDuplicateSlug = fmt.Errorf("%w: slug already in use", apperror.ErrConflict)
)

type CategoryService interface {
	GetAll(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error)
	Create(ctx context.Context, c *models.Category) error
	DeleteBySlug(ctx context.Context, slug string) error
}

type categoryService struct {
	repo *repository.CategoryRepo
}

func NewCategoryService(r *repository.CategoryRepo) CategoryService {
	return &categoryService{repo: r}
}

func (s *categoryService) GetAll(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error) {
	return s.repo.GetAll(ctx, search, page, pageSize)
}

func (s *categoryService) Create(ctx context.Context, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: category name required", apperror.ErrInvalidInput)
	}
	if !slugRe.MatchString(c.Slug) {
		return ErrInvalidSlug
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

func (s *categoryService) DeleteBySlug(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category %q", apperror.ErrNotFound, slug)
		}
		return err
	}
	return nil
}
