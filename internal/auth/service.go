package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/clipzipship/czs-admin/internal/hash"
	"github.com/clipzipship/czs-admin/internal/models"
	"github.com/clipzipship/czs-admin/internal/usererr"
)

// Service issues, validates, refreshes and revokes bearer tokens. The
// revocation ledger lives in the database; entries self-expire and are
// pruned lazily on the next logout.
type Service struct {
	DB         *gorm.DB
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func invalidCredentials() *usererr.Error {
	return usererr.New(http.StatusUnauthorized, "Invalid credentials.", "Crédits invalides.")
}

// Login verifies the username/password pair and mints a fresh token pair.
// Unknown usernames and wrong passwords yield the same error so user
// existence is not leaked.
func (s *Service) Login(username, password string) (*TokenPair, error) {
	var user models.User
	if err := s.DB.Where("UPPER(username) = ?", strings.ToUpper(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, invalidCredentials()
	}

	return s.mintPair(TokenUser{ID: user.ID, Username: user.Username, Role: user.Role}, true)
}

// Refresh exchanges a refresh token for a new (unfresh) token pair. The
// password store is not consulted; the subject embedded in the refresh
// token is trusted as-is.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Typ != TypeRefresh {
		return nil, usererr.New(http.StatusBadRequest,
			"Only refresh tokens are allowed.",
			"Seuls les tokens de type refresh sont permis.")
	}

	user, err := userFromJSON(claims.Subject)
	if err != nil {
		return nil, usererr.TokenInvalid()
	}

	return s.mintPair(*user, false)
}

// Validate gates the current request on a minimum role level. Level 0
// means any authenticated user. It succeeds silently; every failure mode
// maps to a distinct token error.
func (s *Service) Validate(c echo.Context, roleLevel int) error {
	claims, err := s.claimsFromRequest(c)
	if err != nil {
		return err
	}

	if claims.Subject == "" {
		return usererr.TokenInvalid()
	}
	user, err := userFromJSON(claims.Subject)
	if err != nil {
		return usererr.TokenInvalid()
	}

	if claims.ID == "" {
		return usererr.TokenRevoked()
	}
	revoked, err := s.isRevoked(claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return usererr.TokenRevoked()
	}

	if roleLevel != 0 && user.Role < roleLevel {
		return usererr.TokenInsufficient()
	}

	return nil
}

// Logout revokes the current request's token by recording its jti in the
// ledger. Expired ledger rows are cleared first, for a lack of a better
// place to do this.
func (s *Service) Logout(c echo.Context) (bool, error) {
	claims, err := s.claimsFromRequest(c)
	if err != nil {
		return false, err
	}

	exp := time.Now().Add(s.AccessTTL)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	if err := s.DB.Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{}).Error; err != nil {
		return false, fmt.Errorf("cannot prune revoked tokens: %w", err)
	}
	if err := s.DB.Create(&models.RevokedToken{JTI: claims.ID, ExpiresAt: exp}).Error; err != nil {
		return false, fmt.Errorf("cannot revoke token: %w", err)
	}
	return true, nil
}

// CurrentUser returns the subject of a validly signed, non-revoked token
// attached to the request, or nil. It never fails.
func (s *Service) CurrentUser(c echo.Context) *TokenUser {
	claims, err := s.claimsFromRequest(c)
	if err != nil || claims.Subject == "" {
		return nil
	}
	if err := s.Validate(c, models.RoleLevelUser); err != nil {
		return nil
	}
	user, err := userFromJSON(claims.Subject)
	if err != nil {
		return nil
	}
	return user
}

func (s *Service) isRevoked(jti string) (bool, error) {
	var revoked models.RevokedToken
	err := s.DB.Where("jti = ?", jti).First(&revoked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot query revoked tokens: %w", err)
	}
	return true, nil
}

func (s *Service) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, usererr.TokenExpired()
		}
		return nil, usererr.Wrap(http.StatusUnauthorized, "Token is invalid", "Le jeton est invalide", err)
	}
	if !token.Valid {
		return nil, usererr.TokenInvalid()
	}
	return claims, nil
}

// claimsFromRequest reads the bearer token from the Authorization header,
// falling back to the web UI cookie.
func (s *Service) claimsFromRequest(c echo.Context) (*Claims, error) {
	raw := ""
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		raw = strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	} else if cookie, err := c.Cookie(CookieName); err == nil {
		raw = cookie.Value
	}

	if raw == "" {
		return nil, usererr.TokenMissing()
	}
	return s.parse(raw)
}
