package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/users"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth/session"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/security"
)

// RegisterParams carries a new account request.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

// TokenPair is the credential set handed to clients.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Service handles registration, login and session lifecycle.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	users       users.Repository
	tokens      *auth.TokenManager
	sessions    *session.Manager
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(
	userRepo users.Repository,
	tokens *auth.TokenManager,
	sessions *session.Manager,
	passwordCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if userRepo == nil {
		return nil, errors.New("user repository is required")
	}
	if tokens == nil {
		return nil, errors.New("token manager is required")
	}
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{
		users:       userRepo,
		tokens:      tokens,
		sessions:    sessions,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	hash, err := security.HashPassword(params.Password, s.passwordCfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "hashing password")
	}
	user := &models.User{
		Email:        params.Email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.As(err) != nil && apperrors.As(err).Code() == apperrors.CodeNotFound {
			return nil, nil, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperrors.New(apperrors.CodeForbidden, "account is disabled")
	}
	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, nil, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.RecordLogin(ctx, user.ID, s.now()); err != nil {
		s.logg.Warn(ctx, "failed to record login timestamp")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user logged in")
	return user, pair, nil
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	payload, err := s.tokens.ParseAllowExpired(accessToken)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid access token")
	}
	user, err := s.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "unknown user")
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.CodeForbidden, "account is disabled")
	}

	newAccessID, err := session.NewAccessID()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "generating session id")
	}
	newRefresh, err := s.sessions.Rotate(ctx, payload.AccessID, refreshToken, newAccessID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrRefreshMismatch):
			return nil, apperrors.New(apperrors.CodeUnauthorized, "session expired or revoked")
		default:
			return nil, apperrors.Wrap(apperrors.CodeDependency, err, "rotating session")
		}
	}

	access, err := s.tokens.Mint(auth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		AccessID: newAccessID,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "minting access token")
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID, err := session.NewAccessID()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "generating session id")
	}
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating session")
	}
	access, err := s.tokens.Mint(auth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		AccessID: accessID,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "minting access token")
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}
