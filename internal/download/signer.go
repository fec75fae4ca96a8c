package download

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// Signer turns a stored download into a tamper-proof URL. The JWT subject
// is the download id and its jti the stored random token.
type Signer struct {
	secret  []byte
	baseURL string
}

func NewSigner(secret, baseURL string) *Signer {
	return &Signer{secret: []byte(secret), baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Signer) Sign(d *model.DigitalDownload) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   d.ID,
		ID:        d.Token,
		IssuedAt:  jwt.NewNumericDate(d.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(d.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign download token: %w", err)
	}
	return signed, nil
}

func (s *Signer) Link(d *model.DigitalDownload) (string, error) {
	token, err := s.Sign(d)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/downloads/" + token, nil
}

// Parse checks the signature and returns the download id and jti. Expiry is
// judged against the stored record by the caller.
func (s *Signer) Parse(token string) (id, jti string, err error) {
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return "", "", errors.Join(apperror.ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return "", "", apperror.ErrInvalidToken
	}
	return claims.Subject, claims.ID, nil
}
