package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/alumni-directory/internal/models"
	appErrors "github.com/noah-isme/alumni-directory/pkg/errors"
)

type accountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

// AuthService checks member credentials and issues viewer tokens signed with a shared secret.
type AuthService struct {
	accounts  accountRepository
	validator *validator.Validate
	logger    *zap.Logger
	secret    []byte
	ttl       time.Duration
}

// NewAuthService constructs an AuthService. A non-positive ttl defaults to 24h.
// accounts may be nil when only token validation is needed.
func NewAuthService(accounts accountRepository, validate *validator.Validate, logger *zap.Logger, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{accounts: accounts, validator: validate, logger: logger, secret: []byte(secret), ttl: ttl}
}

// Login verifies the stored bcrypt hash and issues a member token.
// Unverified accounts are refused only after the password matches.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	if s.accounts == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "login is not configured")
	}

	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !account.IsVerified {
		return nil, appErrors.Clone(appErrors.ErrUnverifiedAccount, "account is not verified yet")
	}

	userID := strconv.FormatInt(account.ID, 10)
	token, expiresAt, err := s.IssueToken(userID, models.RoleMember)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("member logged in", zap.String("user_id", userID))
	return &models.LoginResponse{AccessToken: token, ExpiresAt: expiresAt, UserID: userID}, nil
}

// IssueToken signs a token for the given viewer.
func (s *AuthService) IssueToken(userID string, role models.ViewerRole) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.ttl)
	claims := &models.ViewerClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.ViewerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.ViewerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.ViewerClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
