package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/conf"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carry the user id and the admin flag so that authenticated
// requests need no user lookup.
type Claims struct {
	UserID uint `json:"uid"`
	Admin  bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

var (
	secretMu sync.RWMutex
	secret   []byte
)

// SetSecret installs the HMAC key. An empty value gets a random per-process
// key, which invalidates tokens on restart.
func SetSecret(s string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	if s != "" {
		secret = []byte(s)
		return
	}
	log.Warnf("auth.jwt_secret is empty, tokens will not survive a restart")
	secret = randomSecret()
}

func signingKey() []byte {
	secretMu.RLock()
	key := secret
	secretMu.RUnlock()
	if key != nil {
		return key
	}
	secretMu.Lock()
	defer secretMu.Unlock()
	if secret == nil {
		secret = randomSecret()
	}
	return secret
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate jwt secret: %v", err))
	}
	return b
}

// GenerateJWTToken signs a token for u. expiresMin 0 means 15 minutes, -1
// means 30 days.
func GenerateJWTToken(u *model.User, expiresMin int) (string, string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: u.ID,
		Admin:  u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    conf.APP_NAME,
		},
	}
	if expiresMin == 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(15) * time.Minute))
	} else if expiresMin > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(expiresMin) * time.Minute))
	} else if expiresMin == -1 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(30) * 24 * time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey())
	if err != nil {
		return "", "", err
	}
	expire := ""
	if claims.ExpiresAt != nil {
		expire = claims.ExpiresAt.Format(time.RFC3339)
	}
	return token, expire, nil
}

func VerifyJWTToken(token string) (*Claims, error) {
	claims := &Claims{}
	jwtToken, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return signingKey(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(conf.APP_NAME))
	if err != nil {
		return nil, err
	}
	if !jwtToken.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// NewAnonymousID returns a fresh anonymous session id.
func NewAnonymousID() string {
	return uuid.NewString()
}

func ValidAnonymousID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
