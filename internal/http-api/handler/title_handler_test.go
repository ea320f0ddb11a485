package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockTitleService mocks the TitleService interface
type MockTitleService struct {
	mock.Mock
}

func (m *MockTitleService) GetAll(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	args := m.Called(filter, page, pageSize)
	return args.Get(0).([]models.Title), args.Get(1).(int64), args.Error(2)
}

func (m *MockTitleService) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleService) Create(ctx context.Context, in *dto.CreateTitleDTO) (*models.Title, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleService) Update(ctx context.Context, id int64, in *dto.UpdateTitleDTO) (*models.Title, error) {
	args := m.Called(id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleService) Delete(ctx context.Context, id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func setupTitleRouter(svc *MockTitleService, user *models.User) *gin.Engine {
	router := setupRouter()
	router.HandleMethodNotAllowed = true
	if user != nil {
		router.Use(func(c *gin.Context) {
			middleware.SetCurrentUser(c, user)
			c.Next()
		})
	}
	api := router.Group("/api/v1")
	NewTitleHandler(svc).RegisterRoutes(api)
	return router
}

func TestListTitles_OrderedWithRatings(t *testing.T) {
	mockService := new(MockTitleService)
	router := setupTitleRouter(mockService, nil)

	titles := []models.Title{
		{ID: 1, Name: "Quiet Winter", Year: 2001, Rating: 4.5},
		{ID: 2, Name: "Loud Summer", Year: 2010, Rating: 8.0},
	}
	mockService.On("GetAll", repository.TitleFilter{}, 1, 20).Return(titles, int64(2), nil)

	req, _ := http.NewRequest("GET", "/api/v1/titles", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.PaginatedTitleResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response.Data, 2)
	assert.Equal(t, 4.5, response.Data[0].Rating)

	mockService.AssertExpectations(t)
}

func TestListTitles_FilterParams(t *testing.T) {
	mockService := new(MockTitleService)
	router := setupTitleRouter(mockService, nil)

	year := 1994
	expected := repository.TitleFilter{Category: "movie", Genre: "drama", Name: "shaw", Year: &year}
	mockService.On("GetAll", expected, 1, 20).Return([]models.Title{}, int64(0), nil)

	req, _ := http.NewRequest("GET", "/api/v1/titles?category=movie&genre=drama&name=shaw&year=1994", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateTitle_RequiresAdmin(t *testing.T) {
	mockService := new(MockTitleService)
	user := &models.User{ID: "user-1", Username: "reader", Role: models.RoleUser}
	router := setupTitleRouter(mockService, user)

	w := postJSON(router, "/api/v1/titles", dto.CreateTitleDTO{
		Name:  "New Title",
		Year:  2020,
		Genre: []string{"drama"},
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertNotCalled(t, "Create")
}

func TestCreateTitle_AsAdmin(t *testing.T) {
	mockService := new(MockTitleService)
	admin := &models.User{ID: "admin-1", Username: "boss", Role: models.RoleAdmin}
	router := setupTitleRouter(mockService, admin)

	created := &models.Title{ID: 3, Name: "New Title", Year: 2020, Rating: float64(models.MinScore)}
	mockService.On("Create", mock.AnythingOfType("*dto.CreateTitleDTO")).Return(created, nil)

	w := postJSON(router, "/api/v1/titles", dto.CreateTitleDTO{
		Name:  "New Title",
		Year:  2020,
		Genre: []string{"drama"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response dto.TitleResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, int64(3), response.ID)
	assert.Equal(t, float64(models.MinScore), response.Rating)

	mockService.AssertExpectations(t)
}

func TestPutTitle_MethodNotAllowed(t *testing.T) {
	mockService := new(MockTitleService)
	admin := &models.User{ID: "admin-1", Username: "boss", Role: models.RoleAdmin}
	router := setupTitleRouter(mockService, admin)

	req, _ := http.NewRequest("PUT", "/api/v1/titles/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
