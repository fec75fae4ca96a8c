package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	HeaderAuthorization = "authorization"
	HeaderSessionID     = "x-session-id"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is who is calling: a signed-in user, an anonymous session, or both
// during the login request that transfers the session cart.
type Identity struct {
	UserID    string
	Email     string
	IsStaff   bool
	SessionID string
}

func (i Identity) Owner() model.CartOwner {
	return model.CartOwner{UserID: i.UserID, SessionID: i.SessionID}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}

type Claims struct {
	Email   string `json:"email,omitempty"`
	IsStaff bool   `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens issued by the account service.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Issue(userID, email string, staff bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:   email,
		IsStaff: staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// Resolve builds an Identity from a raw Authorization header value and a
// session id. An invalid bearer token is an error; a missing one is not.
func (v *Verifier) Resolve(authorization, sessionID string) (Identity, error) {
	id := Identity{SessionID: strings.TrimSpace(sessionID)}
	if authorization == "" {
		return id, nil
	}
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok {
		return id, ErrUnauthenticated
	}
	claims, err := v.Parse(strings.TrimSpace(token))
	if err != nil {
		return id, ErrUnauthenticated
	}
	id.UserID = claims.Subject
	id.Email = claims.Email
	id.IsStaff = claims.IsStaff
	return id, nil
}

// FromMetadata resolves the caller from incoming gRPC metadata.
func (v *Verifier) FromMetadata(ctx context.Context) (Identity, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Identity{}, nil
	}
	return v.Resolve(first(md, HeaderAuthorization), first(md, HeaderSessionID))
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// RequireStaff guards back-office RPCs.
func RequireStaff(ctx context.Context) (Identity, error) {
	id := FromContext(ctx)
	if id.UserID == "" {
		return id, status.Error(codes.Unauthenticated, "sign in required")
	}
	if !id.IsStaff {
		return id, status.Error(codes.PermissionDenied, "staff only")
	}
	return id, nil
}

// RequireOwner guards cart and order RPCs, which need a user or a session.
func RequireOwner(ctx context.Context) (Identity, error) {
	id := FromContext(ctx)
	if id.Owner().IsZero() {
		return id, status.Error(codes.Unauthenticated, "missing user or session")
	}
	return id, nil
}
