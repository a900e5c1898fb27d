package auth

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"

	// Cookie carrying the token for the web UI variant. The API variant
	// reads the Authorization header instead.
	CookieName = "web_token"
)

// TokenUser is the serialized user carried in the token subject claim.
type TokenUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     int    `json:"role"`
}

func (u TokenUser) toJSON() string {
	b, _ := json.Marshal(u)
	return string(b)
}

func userFromJSON(subject string) (*TokenUser, error) {
	var u TokenUser
	if err := json.Unmarshal([]byte(subject), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type Claims struct {
	Typ   string `json:"typ"`
	Fresh bool   `json:"fresh,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the standard bearer response returned by login and refresh.
type TokenPair struct {
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
}

func (s *Service) signToken(user TokenUser, typ string, fresh bool, ttl time.Duration) (string, error) {
	claims := Claims{
		Typ:   typ,
		Fresh: fresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.toJSON(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

func (s *Service) mintPair(user TokenUser, fresh bool) (*TokenPair, error) {
	accessToken, err := s.signToken(user, TypeAccess, fresh, s.AccessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.signToken(user, TypeRefresh, false, s.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		TokenType:        "Bearer",
		ExpiresIn:        int(s.AccessTTL.Seconds()),
		RefreshExpiresIn: int(s.RefreshTTL.Seconds()),
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
	}, nil
}
