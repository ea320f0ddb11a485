package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
	"reviewhub/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error) {
	args := m.Called(search, page, pageSize)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	args := m.Called(username)
	return args.Error(0)
}

// recordingMailer captures the last confirmation code instead of sending it.
type recordingMailer struct {
	to       string
	username string
	code     string
	err      error
}

func (m *recordingMailer) SendConfirmationCode(to, username, code string) error {
	m.to, m.username, m.code = to, username, code
	return m.err
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		AccessTokenTTL: time.Hour,
		SignupCooldown: 0,
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"plain", "reader42", nil},
		{"allowed punctuation", "first.last@host+x-y", nil},
		{"reserved me", "me", ErrReservedUsername},
		{"spaces", "bad name", ErrInvalidUsername},
		{"slash", "bad/name", ErrInvalidUsername},
		{"empty", "", ErrInvalidUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSignup_NewUser(t *testing.T) {
	repo := new(MockUserRepository)
	mail := &recordingMailer{}
	svc := NewAuthService(repo, mail, nil, testConfig())

	repo.On("FindByEmail", "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByUsername", "newbie").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	user, err := svc.Signup(context.Background(), "newbie", "new@example.com")

	assert.NoError(t, err)
	assert.Equal(t, "newbie", user.Username)
	assert.False(t, user.IsActive)
	assert.Equal(t, models.RoleUser, user.Role)

	// The mailed code must verify against the stored hash.
	assert.Equal(t, "new@example.com", mail.to)
	assert.NotEmpty(t, mail.code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.ConfirmationCode), []byte(mail.code)))

	repo.AssertExpectations(t)
}

func TestSignup_RepeatReissuesCode(t *testing.T) {
	repo := new(MockUserRepository)
	mail := &recordingMailer{}
	svc := NewAuthService(repo, mail, nil, testConfig())

	existing := &models.User{ID: "u-1", Username: "newbie", Email: "new@example.com"}
	repo.On("FindByEmail", "new@example.com").Return(existing, nil)
	repo.On("FindByUsername", "newbie").Return(existing, nil)
	repo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	_, err := svc.Signup(context.Background(), "newbie", "new@example.com")

	assert.NoError(t, err)
	assert.NotEmpty(t, mail.code)
	repo.AssertNotCalled(t, "Create")
	repo.AssertExpectations(t)
}

func TestSignup_EmailOwnedByAnotherUsername(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, &recordingMailer{}, nil, testConfig())

	owner := &models.User{ID: "u-1", Username: "owner", Email: "taken@example.com"}
	repo.On("FindByEmail", "taken@example.com").Return(owner, nil)

	_, err := svc.Signup(context.Background(), "intruder", "taken@example.com")

	assert.ErrorIs(t, err, ErrEmailTaken)
	repo.AssertNotCalled(t, "Create")
	repo.AssertNotCalled(t, "Update")
}

func TestSignup_UsernameOwnedByAnotherEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, &recordingMailer{}, nil, testConfig())

	owner := &models.User{ID: "u-1", Username: "newbie", Email: "original@example.com"}
	repo.On("FindByEmail", "other@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByUsername", "newbie").Return(owner, nil)

	_, err := svc.Signup(context.Background(), "newbie", "other@example.com")

	assert.ErrorIs(t, err, ErrUsernameTaken)
	repo.AssertNotCalled(t, "Create")
}

func TestSignup_ReservedUsername(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, &recordingMailer{}, nil, testConfig())

	_, err := svc.Signup(context.Background(), "me", "me@example.com")

	assert.ErrorIs(t, err, ErrReservedUsername)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	repo.AssertNotCalled(t, "FindByEmail")
}

func TestSignup_MailFailurePropagates(t *testing.T) {
	repo := new(MockUserRepository)
	mail := &recordingMailer{err: errors.New("smtp down")}
	svc := NewAuthService(repo, mail, nil, testConfig())

	repo.On("FindByEmail", "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByUsername", "newbie").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)
	repo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	_, err := svc.Signup(context.Background(), "newbie", "new@example.com")

	assert.Error(t, err)
}

func TestIssueToken_Success(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, &recordingMailer{}, nil, testConfig())

	code := "one-time-code"
	hash, _ := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	user := &models.User{
		ID:               "u-1",
		Username:         "newbie",
		Role:             models.RoleUser,
		ConfirmationCode: string(hash),
	}

	repo.On("FindByUsername", "newbie").Return(user, nil)
	repo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	token, err := svc.IssueToken(context.Background(), "newbie", code)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Empty(t, user.ConfirmationCode)
	assert.True(t, user.IsActive)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "newbie", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)

	repo.AssertExpectations(t)
}

func TestIssueToken_UnknownUser(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, &recordingMailer{}, nil, testConfig())

	repo.On("FindByUsername", "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.IssueToken(context.Background(), "ghost", "whatever")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestIssueToken_WrongCode(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, &recordingMailer{}, nil, testConfig())

	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.DefaultCost)
	user := &models.User{ID: "u-1", Username: "newbie", ConfirmationCode: string(hash)}
	repo.On("FindByUsername", "newbie").Return(user, nil)

	_, err := svc.IssueToken(context.Background(), "newbie", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCode)
	repo.AssertNotCalled(t, "Update")
}

func TestIssueToken_CodeIsSingleUse(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, &recordingMailer{}, nil, testConfig())

	// Hash already cleared by a previous successful exchange.
	user := &models.User{ID: "u-1", Username: "newbie", ConfirmationCode: "", IsActive: true}
	repo.On("FindByUsername", "newbie").Return(user, nil)

	_, err := svc.IssueToken(context.Background(), "newbie", "one-time-code")

	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestValidateToken_RejectsForeignSignature(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, &recordingMailer{}, nil, testConfig())

	otherCfg := testConfig()
	otherCfg.JWTSecret = "another-secret-another-secret-32"
	otherRepo := new(MockUserRepository)
	other := NewAuthService(otherRepo, &recordingMailer{}, nil, otherCfg)

	hash, _ := bcrypt.GenerateFromPassword([]byte("code"), bcrypt.DefaultCost)
	user := &models.User{ID: "u-2", Username: "forger", ConfirmationCode: string(hash)}
	otherRepo.On("FindByUsername", "forger").Return(user, nil)
	otherRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	token, err := other.IssueToken(context.Background(), "forger", "code")
	assert.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
