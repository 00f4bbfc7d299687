package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"rideshare/internal/domain"
)

// TokenClaims is the identity carried by an issued token.
type TokenClaims struct {
	Email     string
	Name      string
	PhoneNo   string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token never expires
}

// CredentialService hashes secrets and issues signed tokens.
type CredentialService struct {
	secretKey []byte
	tokenTTL  time.Duration
	cost      int
	now       func() time.Time
}

// NewCredentialService creates a CredentialService. A tokenTTL of zero issues
// tokens without an exp claim. Out-of-range costs fall back to bcrypt.DefaultCost.
func NewCredentialService(secretKey string, tokenTTL time.Duration, cost int, opts ...Option) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	o := buildOptions(opts)
	return &CredentialService{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
		cost:      cost,
		now:       o.now,
	}
}

// Hash returns a salted bcrypt digest of secret.
func (s *CredentialService) Hash(secret string) (string, error) {
	if err := domain.ValidateSecret(secret); err != nil {
		return "", err
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether secret matches digest. Malformed digests never match,
// and neither do secrets longer than bcrypt reads, since only their prefix
// would be compared.
func (s *CredentialService) Verify(secret, digest string) bool {
	if len(secret) > domain.MaxSecretBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}

// IssueToken signs claims with HS256.
func (s *CredentialService) IssueToken(claims TokenClaims) (string, error) {
	issuedAt := s.now()
	mapClaims := jwt.MapClaims{
		"email":    claims.Email,
		"name":     claims.Name,
		"phone_no": claims.PhoneNo,
		"iat":      issuedAt.Unix(),
	}
	if s.tokenTTL > 0 {
		mapClaims["exp"] = issuedAt.Add(s.tokenTTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token issued by IssueToken and returns its claims.
func (s *CredentialService) ParseToken(tokenString string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}

	email, _ := mapClaims["email"].(string)
	name, _ := mapClaims["name"].(string)
	phoneNo, _ := mapClaims["phone_no"].(string)
	if email == "" {
		return TokenClaims{}, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}

	claims := TokenClaims{Email: email, Name: name, PhoneNo: phoneNo}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
