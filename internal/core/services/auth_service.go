package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/config"
	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/pkg/jwt"
	"sacco-returns/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthService handles authentication business logic
type AuthService struct {
	db               *gorm.DB
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              config.JWTConfig
}

// NewAuthService creates a new auth service
func NewAuthService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg config.JWTConfig,
) *AuthService {
	return &AuthService{
		db:               db,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Login authenticates a user by username and password
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find user by username
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password before revealing account state
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 4. Issue tokens
	tokens, err := s.issueTokens(ctx, s.refreshTokenRepo, user)
	if err != nil {
		return nil, err
	}

	// 5. Stamp last login
	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	log.Printf("✅ User logged in: %s [%s]", user.Username, user.Role)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// RefreshToken rotates a refresh token into a new token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	var user *models.User
	var tokens *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokenRepo := s.refreshTokenRepo.WithTx(tx)

		// 2. Find the stored token by hash
		storedToken, err := tokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
		if err != nil {
			if repositories.IsNotFound(err) {
				return domain.ErrTokenInvalid
			}
			return err
		}
		if storedToken.UserID != claims.UserID {
			return domain.ErrTokenInvalid
		}
		if storedToken.IsRevoked() {
			return domain.ErrTokenRevoked
		}
		if storedToken.IsExpired() {
			return domain.ErrTokenExpired
		}

		// 3. Get user
		user, err = s.userRepo.WithTx(tx).GetByID(ctx, claims.UserID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return domain.ErrTokenInvalid
			}
			return err
		}
		if !user.IsActive {
			return domain.ErrUserInactive
		}

		// 4. Revoke old refresh token (Token Rotation)
		if err := tokenRepo.Revoke(ctx, storedToken.ID); err != nil {
			return err
		}

		// 5. Issue new tokens
		tokens, err = s.issueTokens(ctx, tokenRepo, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Username)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// ActiveSessions counts unrevoked, unexpired refresh tokens of a user
func (s *AuthService) ActiveSessions(ctx context.Context, userID uint) (int64, error) {
	return s.refreshTokenRepo.CountActiveByUserID(ctx, userID)
}

// Authenticate resolves an access token into the current Actor. The user row
// is re-read so role changes and deactivation apply before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (domain.Actor, error) {
	claims, err := jwt.ValidateAccessToken(accessToken, s.cfg.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, domain.ErrTokenExpired
		}
		return domain.Actor{}, domain.ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Actor{}, domain.ErrTokenInvalid
		}
		return domain.Actor{}, err
	}
	if !user.IsActive {
		return domain.Actor{}, domain.ErrUserInactive
	}

	return user.Actor(), nil
}

// PurgeExpiredTokens deletes refresh tokens past their expiry
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}

// issueTokens generates a token pair and stores the hashed refresh token via tokenRepo
func (s *AuthService) issueTokens(ctx context.Context, tokenRepo repositories.RefreshTokenRepository, user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(jwt.AccessSubject{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		SaccoID:  user.SaccoID,
	}, s.cfg.Secret, s.cfg.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		uuid.New().String(),
		s.cfg.RefreshSecret,
		s.cfg.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	token := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.RefreshTokenDays),
	}
	if err := tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
