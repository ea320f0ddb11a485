package service

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"
	"reviewhub/pkg/apperror"

	"gorm.io/gorm"
)

var (
	ErrScoreOutOfRange = fmt.Errorf("%w: score must be between %d and %d",
		apperror.ErrInvalidInput, models.MinScore, models.MaxScore)
	ErrDuplicateReview = fmt.Errorf("%w: only one review per title is allowed", apperror.ErrConflict)
	ErrReviewNotFound  = fmt.Errorf("%w: review", apperror.ErrNotFound)
)

type ReviewService interface {
	Create(ctx context.Context, titleID int64, author *models.User, in *dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, titleID, reviewID int64, requester *models.User, method string, in *dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, titleID, reviewID int64, requester *models.User, method string) error
	GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	GetByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error)
}

// titleGetter is the slice of the title repository the review service needs.
type titleGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Title, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  titleGetter
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo titleGetter) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

// Create validates the score and the one-review-per-title rule, then writes
// the review. The existence pre-check gives a clean error, but the unique
// constraint in the store is what actually guards the race; its rejection is
// mapped to the same conflict.
func (s *reviewService) Create(ctx context.Context, titleID int64, author *models.User, in *dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if err := s.ensureTitleExists(ctx, titleID); err != nil {
		return nil, err
	}

	if in.Score < models.MinScore || in.Score > models.MaxScore {
		return nil, ErrScoreOutOfRange
	}

	if _, err := s.reviewRepo.GetByTitleAndAuthor(ctx, titleID, author.ID); err == nil {
		return nil, ErrDuplicateReview
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &models.Review{
		Text:     in.Text,
		AuthorID: author.ID,
		TitleID:  titleID,
		Score:    in.Score,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}

	// Reload with author data
	review, err := s.reviewRepo.GetByID(ctx, review.ID, titleID)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Update(ctx context.Context, titleID, reviewID int64, requester *models.User, method string, in *dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	review, err := s.getReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if !permissions.CanModifyFeedback(requester, method, review.AuthorID) {
		return nil, fmt.Errorf("%w: not the author, a moderator or an admin", apperror.ErrForbidden)
	}

	if in.Text != nil {
		review.Text = *in.Text
	}
	if in.Score != nil {
		if *in.Score < models.MinScore || *in.Score > models.MaxScore {
			return nil, ErrScoreOutOfRange
		}
		review.Score = *in.Score
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	review, err = s.reviewRepo.GetByID(ctx, reviewID, titleID)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, titleID, reviewID int64, requester *models.User, method string) error {
	review, err := s.getReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if !permissions.CanModifyFeedback(requester, method, review.AuthorID) {
		return fmt.Errorf("%w: not the author, a moderator or an admin", apperror.ErrForbidden)
	}

	if err := s.reviewRepo.Delete(ctx, reviewID, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}

func (s *reviewService) GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.getReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) GetByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error) {
	if err := s.ensureTitleExists(ctx, titleID); err != nil {
		return nil, err
	}

	reviews, total, err := s.reviewRepo.GetByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}

	reviewResponses := make([]dto.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		reviewResponses = append(reviewResponses, *dto.FromModelToReviewResponse(&review))
	}

	return dto.NewPaginatedReviewResponse(reviewResponses, int(total), page, pageSize), nil
}

// getReview resolves a review by both path identifiers; a mismatched
// title/review pair is not found.
func (s *reviewService) getReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID, titleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) ensureTitleExists(ctx context.Context, titleID int64) error {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}
