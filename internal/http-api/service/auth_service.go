package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/mailer"
	"reviewhub/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// reservedUsername can never be registered; it addresses the current user in
// the /users/me/ route.
const reservedUsername = "me"

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

var (
	ErrInvalidUsername  = fmt.Errorf("%w: username contains invalid characters", apperror.ErrInvalidInput)
	ErrReservedUsername = fmt.Errorf("%w: username %q is reserved", apperror.ErrInvalidInput, reservedUsername)
	ErrEmailTaken       = fmt.Errorf("%w: email already registered to another username", apperror.ErrConflict)
	ErrUsernameTaken    = fmt.Errorf("%w: username already registered to another email", apperror.ErrConflict)
	ErrInvalidCode      = fmt.Errorf("%w: invalid confirmation code", apperror.ErrInvalidInput)
	ErrSignupThrottled  = fmt.Errorf("%w: confirmation code recently issued", apperror.ErrRateLimitExceeded)
	ErrInvalidToken     = errors.New("invalid token")
)

// Claims carried by the signed access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Signup(ctx context.Context, username, email string) (*models.User, error)
	IssueToken(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	mail           mailer.Mailer
	rdb            *redis.Client
	jwtSecret      string
	accessTokenTTL time.Duration
	signupCooldown time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	rdb *redis.Client,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		mail:           mail,
		rdb:            rdb,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
		signupCooldown: cfg.SignupCooldown,
	}
}

// Signup gets or creates the user for a (username, email) pair and issues a
// fresh confirmation code by email. Repeating the same pair is valid and
// re-issues the code; a pair that collides with an existing record on only
// one side is an ownership conflict and mutates nothing.
func (s *authService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	byEmail, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if byEmail != nil && byEmail.Username != username {
		return nil, ErrEmailTaken
	}

	byUsername, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if byUsername != nil && byUsername.Email != email {
		return nil, ErrUsernameTaken
	}

	if err := s.checkSignupCooldown(ctx, email); err != nil {
		return nil, err
	}

	user := byUsername
	if user == nil {
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
			IsActive: false,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	code := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	// Storing the new hash invalidates any previously issued code.
	user.ConfirmationCode = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	// Synchronous delivery: a mail failure fails the request with a server
	// error, it is not swallowed.
	if err := s.mail.SendConfirmationCode(user.Email, user.Username, code); err != nil {
		return nil, err
	}

	return user, nil
}

// IssueToken exchanges a valid confirmation code for a signed access token.
// The stored code hash is cleared on success, so each code works once.
func (s *authService) IssueToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: user %q", apperror.ErrNotFound, username)
		}
		return "", err
	}

	if user.ConfirmationCode == "" {
		return "", ErrInvalidCode
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.ConfirmationCode), []byte(code)); err != nil {
		return "", ErrInvalidCode
	}

	now := time.Now()
	user.ConfirmationCode = ""
	user.IsActive = true
	user.LastLogin = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// checkSignupCooldown throttles code issuance per email through redis SetNX.
// Disabled when no client or no cooldown is configured.
func (s *authService) checkSignupCooldown(ctx context.Context, email string) error {
	if s.rdb == nil || s.signupCooldown <= 0 {
		return nil
	}

	key := fmt.Sprintf("signup_cooldown:%s", email)
	wasSet, err := s.rdb.SetNX(ctx, key, "locked", s.signupCooldown).Result()
	if err != nil {
		return fmt.Errorf("failed to check signup cooldown in redis: %w", err)
	}
	if !wasSet {
		return ErrSignupThrottled
	}
	return nil
}

// ValidateUsername enforces the username pattern and the reserved name; the
// same rules apply on signup and on the admin user surface.
func ValidateUsername(username string) error {
	if username == reservedUsername {
		return ErrReservedUsername
	}
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}
