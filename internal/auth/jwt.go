package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed token, wrong signing method, elapsed expiry. Callers map it
// to a single 401; nothing downstream needs to tell the cases apart.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrSigning is returned when token issuance itself fails. This only
// happens on broken configuration and is not retryable.
var ErrSigning = errors.New("signing token")

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the access/refresh token pair. The
// two token types use independent secrets and TTLs so a leaked access
// token has a bounded exposure window while sessions stay long-lived.
type TokenService struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:    []byte(accessSecret),
		refreshSecret:   []byte(refreshSecret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}
}

// IssuePair creates a fresh access/refresh token pair for the user and
// returns it along with the SHA-256 hash of the refresh token, which is
// what gets persisted on the user record.
func (s *TokenService) IssuePair(userID string) (*TokenPair, string, error) {
	accessExpiry := time.Now().Add(s.accessTokenTTL)
	accessToken, err := s.sign(userID, s.accessSecret, accessExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("%w: access: %v", ErrSigning, err)
	}

	refreshToken, err := s.sign(userID, s.refreshSecret, time.Now().Add(s.refreshTokenTTL))
	if err != nil {
		return nil, "", fmt.Errorf("%w: refresh: %v", ErrSigning, err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiry,
	}, HashRefreshToken(refreshToken), nil
}

func (s *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	return verify(tokenString, s.accessSecret)
}

func (s *TokenService) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return verify(tokenString, s.refreshSecret)
}

func (s *TokenService) sign(userID string, secret []byte, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// HashRefreshToken returns the hex SHA-256 digest stored on the user
// record. A presented refresh token is valid only while its digest
// equals the stored one; any later login or refresh overwrites it.
func HashRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
