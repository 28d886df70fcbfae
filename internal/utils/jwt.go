package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for refresh token storage
	"encoding/hex"  // hex encoding for the digest
	"errors"        // sentinel verification errors
	"fmt"           // claim conversion errors
	"strconv"       // subject <-> uint64 conversion
	"time"          // expiry arithmetic

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // unique token ids (jti)
)

// Issuer and audience embedded in every token this service signs. Tokens
// minted by other services (or with other purposes) fail verification even
// when the secret happens to match.
const (
	TokenIssuer   = "ecommerce-api"
	TokenAudience = "ecommerce-clients"
)

// ClockSkew is the constant leeway applied when checking exp/iat. Sixty
// seconds is the documented maximum tolerance; it is not configurable.
const ClockSkew = 60 * time.Second

// Verification failures. Expired is distinct from a bad signature so
// clients can decide between refreshing and forcing a re-login.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrWrongTokenType   = errors.New("wrong token type")
)

// Claims is the verified content of a token. Access tokens carry a role;
// refresh tokens leave it empty and set the refresh type marker instead.
type Claims struct {
	UserID   uint64    // sub
	Role     string    // role (access tokens only)
	JTI      string    // jti, unique per token
	IssuedAt time.Time // iat
	Expires  time.Time // exp
}

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header when
// calling protected endpoints. They are stateless: never stored, never
// individually revoked, bounded only by their TTL.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used solely to obtain a new
// token pair. The Raw field is returned to the client; the database stores
// only a SHA-256 hash of it plus the JTI, so a leaked table cannot mint
// sessions.
type RefreshToken struct {
	Raw string    // raw serialized JWT returned to the client
	JTI string    // unique id embedded in the claims
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The JWT carries
// subject, role, issuer, audience, issued-at, expiry and a unique jti.
// Signing can only fail on key misconfiguration, which is fatal for the
// service, not a user-facing condition.
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
		"jti":  uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh JWT with the refresh
// secret. It carries no role claim; a refresh token proves only the right
// to mint a new pair, the role is re-read from the user record at that
// point so role changes take effect on rotation.
func NewRefreshToken(secret string, userID uint64, ttl time.Duration) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"typ": "refresh",
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"iat": now.Unix(),
		"exp": exp.Unix(),
		"jti": jti,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: signed, JTI: jti, Exp: exp}, nil
}

// VerifyAccessToken parses and validates an access token against the access
// secret. It returns ErrExpired when the token is past its expiry (with
// ClockSkew leeway), ErrWrongTokenType when handed a refresh token, and
// ErrInvalidSignature for every other failure mode.
func VerifyAccessToken(secret, raw string) (Claims, error) {
	claims, typ, err := verify(secret, raw)
	if err != nil {
		return Claims{}, err
	}
	if typ == "refresh" {
		return Claims{}, ErrWrongTokenType
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token against the
// refresh secret. Revocation is checked separately by the token repository;
// this function only covers signature, expiry and token type.
func VerifyRefreshToken(secret, raw string) (Claims, error) {
	claims, typ, err := verify(secret, raw)
	if err != nil {
		return Claims{}, err
	}
	if typ != "refresh" {
		return Claims{}, ErrWrongTokenType
	}
	return claims, nil
}

// verify runs the shared parse/validate path and maps library errors onto
// the package sentinels.
func verify(secret, raw string) (Claims, string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithLeeway(ClockSkew),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, "", ErrExpired
		}
		return Claims{}, "", ErrInvalidSignature
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, "", ErrInvalidSignature
	}
	c, err := fromMapClaims(mc)
	if err != nil {
		return Claims{}, "", ErrInvalidSignature
	}
	typ, _ := mc["typ"].(string)
	return c, typ, nil
}

// fromMapClaims converts raw map claims into the typed Claims struct. The
// subject is stored as a decimal string; numeric subjects from older
// tokens are accepted too.
func fromMapClaims(mc jwt.MapClaims) (Claims, error) {
	var c Claims
	switch sub := mc["sub"].(type) {
	case string:
		id, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return c, fmt.Errorf("bad sub claim: %q", sub)
		}
		c.UserID = id
	case float64:
		c.UserID = uint64(sub)
	default:
		return c, fmt.Errorf("missing sub claim")
	}
	c.Role, _ = mc["role"].(string)
	c.JTI, _ = mc["jti"].(string)
	if iat, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := mc["exp"].(float64); ok {
		c.Expires = time.Unix(int64(exp), 0).UTC()
	}
	return c, nil
}

// HashRefreshRaw returns the SHA-256 hash of the serialized refresh token
// as a hex string. Only this hash is persisted.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
