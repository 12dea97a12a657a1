package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/jwtutil"
)

// resetTokenTTL bounds how long a password reset token stays usable
const resetTokenTTL = 30 * time.Minute

// Service issues and rotates token pairs. The user row stores at most one
// live refresh token; every successful refresh overwrites it, so the
// previous refresh token dies on rotation. Concurrent refreshes from
// multiple devices race and the loser's token is invalid on next use.
type Service struct {
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

// NewService creates the auth service
func NewService(db *gorm.DB, jwt *jwtutil.JWTUtil) *Service {
	return &Service{db: db, jwt: jwt}
}

// Result is the authenticated user plus a fresh token pair
type Result struct {
	User   *model.User       `json:"user"`
	Tokens *jwtutil.TokenPair `json:"tokens"`
}

// RegisterInput is the payload for registration
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a user in the header's tenant and issues a token pair
func (s *Service) Register(ctx context.Context, in RegisterInput, tenantID uint) (*Result, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Email:     in.Email,
		TenantID:  tenantID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hashed),
		Role:      "member",
		Status:    "active",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return nil, apperr.ErrConflict
		}
		return nil, err
	}

	return s.issue(ctx, &user)
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password both surface as the same generic failure so callers cannot
// enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string, tenantID uint) (*Result, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND tenant_id = ?", email, tenantID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	return s.issue(ctx, &user)
}

// Refresh validates the presented refresh token against both its signature
// and the single stored value, then rotates: a new pair is issued and the
// stored value overwritten, invalidating the old token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	claims, err := s.jwt.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, jwtutil.ErrInvalidToken
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jwtutil.ErrInvalidToken
		}
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, jwtutil.ErrInvalidToken
	}

	return s.issue(ctx, &user)
}

// ChangePassword verifies the current password before storing the new hash
func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return apperr.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", string(hashed)).Error
}

// ForgotPassword stores a short-lived reset token on the user row and returns
// it. Unknown emails return an empty token with no error so callers cannot
// enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string, tenantID uint) (string, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND tenant_id = ?", email, tenantID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	token := uuid.New().String()
	expires := time.Now().Add(resetTokenTTL)
	err = s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"reset_token":            token,
			"reset_token_expires_at": expires,
		}).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token: the new hash is stored and the token
// cleared in one update. Expired or unknown tokens fail with the generic
// invalid-credentials error.
func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("reset_token = ?", token).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrInvalidCredentials
		}
		return err
	}

	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return apperr.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password":               string(hashed),
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		}).Error
}

// Logout clears the stored refresh token
func (s *Service) Logout(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("refresh_token", nil).Error
}

// Me fetches the authenticated user's row
func (s *Service) Me(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// issue generates a pair and persists the refresh token as the single live
// value for the user
func (s *Service) issue(ctx context.Context, user *model.User) (*Result, error) {
	pair, err := s.jwt.GeneratePair(user.ID, user.Email, user.TenantID, user.Role)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token", pair.RefreshToken).Error
	if err != nil {
		return nil, err
	}

	user.RefreshToken = &pair.RefreshToken
	return &Result{User: user, Tokens: pair}, nil
}
