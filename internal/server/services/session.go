// Package services contains server-side business logic. This file implements
// SessionService, which handles registration, login, access-token
// verification, refresh-token rotation, logout, and current-session
// resolution.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gymkeeper/internal/common"
	"gymkeeper/internal/cryptox"
	"gymkeeper/internal/dbx"
	"gymkeeper/internal/logging"
	"gymkeeper/internal/server/auth"
	"gymkeeper/internal/server/config"
	"gymkeeper/internal/server/metrics"
	"gymkeeper/internal/server/models"
	"gymkeeper/internal/server/repositories/repomanager"
)

// revocationReasonLogout is recorded on blacklist rows created by Logout.
const revocationReasonLogout = "logout"

// TokenPair bundles a short-lived access token and a long-lived refresh token.
// ExpiresIn is the access-token lifetime in seconds.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// ClientInfo carries optional device metadata stored with refresh records.
type ClientInfo struct {
	DeviceInfo string
	IPAddress  string
}

// SessionService orchestrates the token lifecycle:
//   - Register: create accounts
//   - Login: verify credentials and mint a token pair
//   - Refresh: rotate refresh tokens (single-use) and mint a new pair
//   - Logout: blacklist the access token and revoke all refresh records
//   - VerifyAccessToken / CurrentUser: resolve the calling session
type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	keys                         *auth.Keys
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger
	metrics                      *metrics.Metrics

	// dummyHash absorbs a bcrypt comparison when the email is unknown, so
	// unknown-email and wrong-password take comparable time.
	dummyHash string
}

// NewSessionService constructs a SessionService using repositories, signing
// keys, and server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, keys *auth.Keys,
	cfg *config.Config, logger logging.Logger, mtr *metrics.Metrics) *SessionService {

	dummyHash, err := cryptox.HashPassword("gymkeeper-timing-dummy")
	if err != nil {
		dummyHash = ""
	}

	return &SessionService{
		db:                           db,
		repomanager:                  m,
		keys:                         keys,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		logger:                       logger.With("module", "session"),
		metrics:                      mtr,
		dummyHash:                    dummyHash,
	}
}

// NormalizeEmail lower-cases and trims an email for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account with a bcrypt-hashed password.
// A duplicate email yields common.ErrorAlreadyExists.
func (s *SessionService) Register(ctx context.Context, email, password, fullName string, role models.Role) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, common.ErrorValidation
	}
	if len(password) < 8 {
		return nil, common.ErrorValidation
	}
	if !role.Valid() {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "register: email lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if exists {
		return nil, common.ErrorAlreadyExists
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		s.logger.Error(ctx, "register: password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{
		Email:          email,
		HashedPassword: hash,
		FullName:       fullName,
		Role:           role,
		IsActive:       true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "register: user insert failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies the credentials and, on success, mints and persists a new
// token pair. Unknown email and wrong password both yield
// common.ErrInvalidCredentials; only a disabled account is reported
// distinctly, and only after the password check passed.
func (s *SessionService) Login(ctx context.Context, email, password string, client ClientInfo) (*TokenPair, error) {
	email = NormalizeEmail(email)
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.VerifyPassword(s.dummyHash, password)
			s.metrics.Logins.WithLabelValues(metrics.ResultDenied).Inc()
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "login: user lookup failed", "error", err)
		s.metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return nil, common.ErrorInternal
	}

	if !cryptox.VerifyPassword(user.HashedPassword, password) {
		s.metrics.Logins.WithLabelValues(metrics.ResultDenied).Inc()
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.metrics.Logins.WithLabelValues(metrics.ResultDenied).Inc()
		return nil, common.ErrAccountDisabled
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var issueErr error
		pair, issueErr = s.issueTokenPair(ctx, tx, user, client)
		return issueErr
	}); err != nil {
		s.logger.Error(ctx, "login: token issuance failed", "error", err)
		s.metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	s.metrics.Logins.WithLabelValues(metrics.ResultOK).Inc()
	return pair, nil
}

// VerifyAccessToken checks signature, expiry, and the revocation registry,
// in that order, and returns the decoded claims. It never touches the
// refresh-token store.
func (s *SessionService) VerifyAccessToken(ctx context.Context, tokenString string) (*auth.AccessClaims, error) {
	claims, err := auth.ParseAccessToken(tokenString, s.keys.Access)
	if err != nil {
		return nil, err
	}

	revoked, err := s.repomanager.RevokedTokens(s.db).ExistsByJTI(ctx, claims.ID)
	if err != nil {
		// A store fault must not masquerade as a token-state verdict.
		s.logger.Error(ctx, "verify: blacklist lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}

	return claims, nil
}

// Refresh rotates a refresh token: validates it, revokes the backing record,
// and mints a new pair, all in one transaction. Presenting an already-rotated
// token fails with common.ErrTokenReuseDetected; of two concurrent rotations
// of the same token, exactly one wins.
func (s *SessionService) Refresh(ctx context.Context, rawToken string, client ClientInfo) (*TokenPair, error) {
	claims, err := auth.ParseRefreshToken(rawToken, s.keys.Refresh)
	if err != nil {
		s.metrics.Rotations.WithLabelValues(metrics.ResultDenied).Inc()
		return nil, err
	}

	tokenHash := cryptox.HashToken(rawToken)

	record, err := s.repomanager.RefreshTokens(s.db).FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Never issued here, or already deleted after expiry.
			s.metrics.Rotations.WithLabelValues(metrics.ResultDenied).Inc()
			return nil, common.ErrTokenNotRecognized
		}
		s.logger.Error(ctx, "refresh: record lookup failed", "error", err)
		s.metrics.Rotations.WithLabelValues(metrics.ResultError).Inc()
		return nil, common.ErrorInternal
	}

	if record.UserID != claims.UserID {
		s.metrics.Rotations.WithLabelValues(metrics.ResultDenied).Inc()
		return nil, common.ErrInvalidToken
	}

	if record.Revoked {
		s.logger.Warn(ctx, "refresh token reuse detected", "user_id", record.UserID, "record_id", record.ID)
		s.metrics.ReuseDetections.Inc()
		s.metrics.Rotations.WithLabelValues(metrics.ResultDenied).Inc()
		return nil, common.ErrTokenReuseDetected
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.Rotations.WithLabelValues(metrics.ResultDenied).Inc()
			return nil, common.ErrTokenNotRecognized
		}
		s.logger.Error(ctx, "refresh: user lookup failed", "error", err)
		s.metrics.Rotations.WithLabelValues(metrics.ResultError).Inc()
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		s.metrics.Rotations.WithLabelValues(metrics.ResultDenied).Inc()
		return nil, common.ErrAccountDisabled
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		won, revokeErr := s.repomanager.RefreshTokens(tx).Revoke(ctx, tokenHash)
		if revokeErr != nil {
			return revokeErr
		}
		if !won {
			// A concurrent rotation of the same token got there first.
			return common.ErrTokenReuseDetected
		}
		var issueErr error
		pair, issueErr = s.issueTokenPair(ctx, tx, user, client)
		return issueErr
	})
	if err != nil {
		if errors.Is(err, common.ErrTokenReuseDetected) {
			s.logger.Warn(ctx, "refresh token reuse detected", "user_id", record.UserID, "record_id", record.ID)
			s.metrics.ReuseDetections.Inc()
			s.metrics.Rotations.WithLabelValues(metrics.ResultDenied).Inc()
			return nil, common.ErrTokenReuseDetected
		}
		s.logger.Error(ctx, "refresh: rotation failed", "error", err)
		s.metrics.Rotations.WithLabelValues(metrics.ResultError).Inc()
		return nil, common.ErrorInternal
	}

	s.metrics.Rotations.WithLabelValues(metrics.ResultOK).Inc()
	return pair, nil
}

// Logout blacklists the access token's jti and revokes every refresh record
// owned by its subject, across all devices. The operation never fails from
// the caller's perspective: the client discards its tokens regardless, so
// internal errors are logged and swallowed.
func (s *SessionService) Logout(ctx context.Context, accessToken string) {
	s.metrics.Revocations.Inc()

	claims, err := auth.ParseAccessToken(accessToken, s.keys.Access)
	if err != nil {
		s.logger.Warn(ctx, "logout: unusable access token", "error", err)
		return
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RevokedTokens(tx).Create(ctx, &models.RevokedAccessToken{
			JTI:       claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
			UserID:    claims.UserID,
			Reason:    revocationReasonLogout,
		}); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).RevokeAllForUser(ctx, claims.UserID)
	})
	if err != nil {
		s.logger.Warn(ctx, "logout: server-side revocation incomplete", "user_id", claims.UserID, "error", err)
		return
	}

	s.logger.Info(ctx, "user logged out", "user_id", claims.UserID, "jti", claims.ID)
}

// CurrentUser verifies the access token and re-fetches the account, since
// claims may be stale relative to administrative changes made after issuance.
func (s *SessionService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		s.logger.Error(ctx, "current user: lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		return nil, common.ErrUnauthenticated
	}

	return user, nil
}

// Cleanup deletes expired rows from both token stores and returns per-store
// deletion counts. Safe to run concurrently: the second sweep simply deletes
// zero rows.
func (s *SessionService) Cleanup(ctx context.Context) (refreshDeleted, revokedDeleted int64, err error) {
	now := time.Now()

	refreshDeleted, err = s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	s.metrics.CleanupDeleted.WithLabelValues(metrics.StoreRefreshTokens).Add(float64(refreshDeleted))

	revokedDeleted, err = s.repomanager.RevokedTokens(s.db).DeleteExpired(ctx, now)
	if err != nil {
		return refreshDeleted, 0, err
	}
	s.metrics.CleanupDeleted.WithLabelValues(metrics.StoreRevokedTokens).Add(float64(revokedDeleted))

	return refreshDeleted, revokedDeleted, nil
}

// issueTokenPair mints an access+refresh pair for the user and persists the
// refresh token's hash, all against the given handle (normally an open tx).
func (s *SessionService) issueTokenPair(ctx context.Context, tx dbx.DBTX, user *models.User, client ClientInfo) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(user, s.keys.Access, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	refresh, err := auth.GenerateRefreshToken(user.ID, s.keys.Refresh, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.RefreshTokens(tx).Create(ctx, &models.RefreshToken{
		UserID:     user.ID,
		TokenHash:  cryptox.HashToken(refresh.Token),
		ExpiresAt:  refresh.ExpiresAt,
		DeviceInfo: client.DeviceInfo,
		IPAddress:  client.IPAddress,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    common.TokenTypeBearer,
		ExpiresIn:    int64(s.accessTokenValidityDuration.Seconds()),
	}, nil
}
