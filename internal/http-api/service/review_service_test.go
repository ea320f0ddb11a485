package service

import (
	"context"
	"testing"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
	"reviewhub/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockReviewRepository mocks the ReviewRepository interface
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(review)
	return args.Error(0)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, reviewID, titleID int64) error {
	args := m.Called(reviewID, titleID)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, reviewID, titleID int64) (*models.Review, error) {
	args := m.Called(reviewID, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	args := m.Called(titleID, page, pageSize)
	return args.Get(0).([]models.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) GetByTitleAndAuthor(ctx context.Context, titleID int64, authorID string) (*models.Review, error) {
	args := m.Called(titleID, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

// stubTitleGetter serves a fixed set of titles.
type stubTitleGetter struct {
	titles map[int64]*models.Title
}

func (s *stubTitleGetter) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	title, ok := s.titles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return title, nil
}

func oneTitle(id int64) *stubTitleGetter {
	return &stubTitleGetter{titles: map[int64]*models.Title{
		id: {ID: id, Name: "Stalker", Year: 1979},
	}}
}

func TestCreateReview_ScoreBoundsInclusive(t *testing.T) {
	author := &models.User{ID: "u-1", Username: "reader"}

	for _, score := range []int{models.MinScore, models.MaxScore} {
		repo := new(MockReviewRepository)
		svc := NewReviewService(repo, oneTitle(1))

		repo.On("GetByTitleAndAuthor", int64(1), "u-1").Return(nil, gorm.ErrRecordNotFound)
		repo.On("Create", mock.AnythingOfType("*models.Review")).Return(nil)
		repo.On("GetByID", mock.AnythingOfType("int64"), int64(1)).
			Return(&models.Review{ID: 1, TitleID: 1, Score: score, Author: *author}, nil)

		_, err := svc.Create(context.Background(), 1, author, &dto.CreateReviewDTO{Text: "ok", Score: score})
		assert.NoError(t, err, "score %d must be accepted", score)
	}

	for _, score := range []int{models.MinScore - 1, models.MaxScore + 1} {
		repo := new(MockReviewRepository)
		svc := NewReviewService(repo, oneTitle(1))

		_, err := svc.Create(context.Background(), 1, author, &dto.CreateReviewDTO{Text: "ok", Score: score})
		assert.ErrorIs(t, err, ErrScoreOutOfRange, "score %d must be rejected", score)
		repo.AssertNotCalled(t, "Create")
	}
}

func TestCreateReview_SecondReviewRejected(t *testing.T) {
	repo := new(MockReviewRepository)
	svc := NewReviewService(repo, oneTitle(1))
	author := &models.User{ID: "u-1", Username: "reader"}

	existing := &models.Review{ID: 4, TitleID: 1, AuthorID: "u-1", Score: 7}
	repo.On("GetByTitleAndAuthor", int64(1), "u-1").Return(existing, nil)

	_, err := svc.Create(context.Background(), 1, author, &dto.CreateReviewDTO{Text: "again", Score: 5})

	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateReview_RaceOnInsertMapsToConflict(t *testing.T) {
	repo := new(MockReviewRepository)
	svc := NewReviewService(repo, oneTitle(1))
	author := &models.User{ID: "u-1", Username: "reader"}

	repo.On("GetByTitleAndAuthor", int64(1), "u-1").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.AnythingOfType("*models.Review")).Return(repository.ErrDuplicateReview)

	_, err := svc.Create(context.Background(), 1, author, &dto.CreateReviewDTO{Text: "race", Score: 5})

	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestCreateReview_UnknownTitle(t *testing.T) {
	repo := new(MockReviewRepository)
	svc := NewReviewService(repo, &stubTitleGetter{titles: map[int64]*models.Title{}})
	author := &models.User{ID: "u-1", Username: "reader"}

	_, err := svc.Create(context.Background(), 99, author, &dto.CreateReviewDTO{Text: "?", Score: 5})

	assert.ErrorIs(t, err, ErrTitleNotFound)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteReview_Permissions(t *testing.T) {
	review := &models.Review{ID: 7, TitleID: 1, AuthorID: "author-1", Score: 8}

	tests := []struct {
		name      string
		requester *models.User
		allowed   bool
	}{
		{"author", &models.User{ID: "author-1", Role: models.RoleUser}, true},
		{"stranger", &models.User{ID: "stranger", Role: models.RoleUser}, false},
		{"moderator", &models.User{ID: "mod", Role: models.RoleModerator}, true},
		{"admin", &models.User{ID: "adm", Role: models.RoleAdmin}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockReviewRepository)
			svc := NewReviewService(repo, oneTitle(1))

			repo.On("GetByID", int64(7), int64(1)).Return(review, nil)
			if tt.allowed {
				repo.On("Delete", int64(7), int64(1)).Return(nil)
			}

			err := svc.Delete(context.Background(), 1, 7, tt.requester, "DELETE")

			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperror.ErrForbidden)
				repo.AssertNotCalled(t, "Delete")
			}
		})
	}
}

func TestGetReview_MismatchedTitleIsNotFound(t *testing.T) {
	repo := new(MockReviewRepository)
	svc := NewReviewService(repo, oneTitle(2))

	// The review exists but under another title; the scoped lookup misses.
	repo.On("GetByID", int64(7), int64(2)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetByID(context.Background(), 2, 7)

	assert.ErrorIs(t, err, ErrReviewNotFound)
}
