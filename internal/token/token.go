package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const (
	Issuer   = "blogboot"
	Audience = "blogboot-admin"

	// TypeRefresh marks a token that may only be presented to the refresh
	// endpoint.
	TypeRefresh = "refresh"

	DefaultAccessTTL  = 2 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour

	defaultSweepDelay = time.Hour
)

var (
	ErrMissingSecret = errors.New("token signing secret is not configured")
	ErrExpired       = errors.New("token is expired")
	ErrRevoked       = errors.New("token has been revoked")
	ErrInvalid       = errors.New("token is invalid")
)

// Payload is the application-level identity a token carries.
type Payload struct {
	Role      string
	LoginTime string
	IP        string
	Type      string
}

type Claims struct {
	Role      string `json:"role"`
	LoginTime string `json:"loginTime,omitempty"`
	IP        string `json:"ip,omitempty"`
	Type      string `json:"type,omitempty"`
	jwt.StandardClaims
}

func (c *Claims) Payload() Payload {
	return Payload{Role: c.Role, LoginTime: c.LoginTime, IP: c.IP, Type: c.Type}
}

// Service issues and verifies HS256-signed bearer tokens bound to a fixed
// issuer/audience pair. Verification is stateless apart from the revocation
// store, which is the one piece of mutable state logout needs.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationStore
	sweepDelay time.Duration
}

type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewService(config Config, revoked RevocationStore) *Service {
	if config.AccessTTL <= 0 {
		config.AccessTTL = DefaultAccessTTL
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = DefaultRefreshTTL
	}
	if revoked == nil {
		revoked = NewMemoryRevocationStore()
	}
	return &Service{
		secret:     []byte(config.Secret),
		accessTTL:  config.AccessTTL,
		refreshTTL: config.RefreshTTL,
		revoked:    revoked,
		sweepDelay: defaultSweepDelay,
	}
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue signs a token embedding payload with an expiry ttl from now.
func (s *Service) Issue(payload Payload, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := &Claims{
		Role:      payload.Role,
		LoginTime: payload.LoginTime,
		IP:        payload.IP,
		Type:      payload.Type,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
			Id:        uuid.New().String(),
			Issuer:    Issuer,
			Audience:  Audience,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssueAccess issues a regular access token for payload.
func (s *Service) IssueAccess(payload Payload) (string, error) {
	payload.Type = ""
	return s.Issue(payload, s.accessTTL)
}

// IssueRefresh issues a refresh-type token carrying the same identity.
func (s *Service) IssueRefresh(payload Payload) (string, error) {
	payload.Type = TypeRefresh
	return s.Issue(payload, s.refreshTTL)
}

// Verify checks signature, expiry, issuer/audience and the revocation set,
// in that order of precedence for the returned error: a revoked token
// reports ErrRevoked even when it is also expired.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}

	revoked, err := s.revoked.Contains(tokenString)
	if err != nil {
		return nil, fmt.Errorf("revocation lookup failed: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}
	if !claims.VerifyIssuer(Issuer, true) || !claims.VerifyAudience(Audience, true) {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Revoke adds the raw token string to the revocation set and schedules a
// sweep of naturally-expired entries, bounding the set's growth. The sweep
// timing is best-effort, not a guarantee.
func (s *Service) Revoke(tokenString string) error {
	expiresAt := s.expiryOf(tokenString)
	if err := s.revoked.Add(tokenString, expiresAt); err != nil {
		return err
	}
	time.AfterFunc(s.sweepDelay, func() {
		_ = s.revoked.Sweep(time.Now())
	})
	return nil
}

// expiryOf reads the expiry out of a token that may already be invalid;
// unparseable tokens get a conservative expiry one refresh-TTL out.
func (s *Service) expiryOf(tokenString string) time.Time {
	claims := &Claims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || claims.ExpiresAt == 0 {
		return time.Now().Add(s.refreshTTL)
	}
	return time.Unix(claims.ExpiresAt, 0)
}
