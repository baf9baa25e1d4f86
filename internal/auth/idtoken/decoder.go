// Package idtoken reads the payload of a compact JWT identity token.
package idtoken

import (
	"fmt"
	"strings"

	"replica-auth/internal/auth"

	"github.com/golang-jwt/jwt/v5"
)

type idClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

var parser = jwt.NewParser()

// Decode parses token without verifying its signature. It fails closed with
// auth.ErrInvalidToken on any malformed segment, a claim of the wrong type,
// or a missing subject.
func Decode(token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, fmt.Errorf("%w: empty token", auth.ErrInvalidToken)
	}

	var claims idClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing sub claim", auth.ErrInvalidToken)
	}

	return auth.Claims{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	}, nil
}
