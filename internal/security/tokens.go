package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	membership "workforce-console/backend/internal/membership/domain"
)

// ErrInvalidToken is returned when a session token is malformed, expired or not ours.
var ErrInvalidToken = errors.New("invalid token")

// OrgClaim is one entry of the session's organization list.
type OrgClaim struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// SessionClaims are the claims the identity provider puts on console session tokens.
// Subject is the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
	OrgID         string     `json:"org_id"`
	SessionID     string     `json:"session_id"`
	Email         string     `json:"email,omitempty"`
	OrgRole       string     `json:"org_role,omitempty"`
	MemberRole    string     `json:"member_role,omitempty"`
	Organizations []OrgClaim `json:"organizations,omitempty"`
}

// Hints returns the session-derived role hints. The membership role is left empty;
// it comes from the member record, not the token.
func (c *SessionClaims) Hints() membership.RoleHints {
	h := membership.RoleHints{ActiveOrgRole: c.OrgRole, CurrentMemberRole: c.MemberRole}
	for _, o := range c.Organizations {
		h.Organizations = append(h.Organizations, membership.OrgRole{OrgID: o.ID, Role: o.Role})
	}
	return h
}

// TokenVerifier validates session tokens issued by the identity provider (RS256 or ES256).
type TokenVerifier struct {
	publicKey crypto.PublicKey
	issuer    string
	audience  string
	leeway    time.Duration
}

// NewTokenVerifier returns a verifier for tokens signed with the key matching publicKey.
// Empty issuer or audience skip that check.
func NewTokenVerifier(publicKey crypto.PublicKey, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{publicKey: publicKey, issuer: issuer, audience: audience, leeway: 30 * time.Second}
}

// Verify parses tokenString and returns its claims. Any failure is ErrInvalidToken.
func (v *TokenVerifier) Verify(tokenString string) (*SessionClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if v == nil || v.publicKey == nil || tokenString == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return v.publicKey, nil
		}
		return nil, ErrInvalidToken
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenSigner mints session tokens. The console never issues sessions in production;
// it backs fixtures and local tooling.
type TokenSigner struct {
	key      crypto.Signer
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokenSigner returns a signer stamping issuer, audience and a ttl expiry on every token.
func NewTokenSigner(key crypto.Signer, issuer, audience string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{key: key, issuer: issuer, audience: audience, ttl: ttl}
}

// Sign fills the registered claims and signs c.
func (s *TokenSigner) Sign(c SessionClaims, now time.Time) (string, error) {
	var method jwt.SigningMethod
	switch s.key.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidKey
	}
	c.Issuer = s.issuer
	if s.audience != "" {
		c.Audience = jwt.ClaimStrings{s.audience}
	}
	c.IssuedAt = jwt.NewNumericDate(now)
	if c.ExpiresAt == nil {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	return jwt.NewWithClaims(method, c).SignedString(s.key)
}
