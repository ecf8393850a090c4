// Package tablelink signs and verifies the table links printed in table QR codes.
package tablelink

import (
	"errors"
	"fmt"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type Table struct {
	TableID  string
	BranchID string
}

type claims struct {
	TableID  string `json:"tid"`
	BranchID string `json:"bid"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign issues a link token for t. A zero ttl produces a token without expiry, which is
// what printed QR codes use.
func (s *Signer) Sign(t Table, ttl time.Duration) (string, error) {
	c := claims{
		TableID:  t.TableID,
		BranchID: t.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl != 0 {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign table link: %w", err)
	}
	return signed, nil
}

func (s *Signer) Parse(token string) (Table, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", domain.ErrInvalidTableLink, err)
	}

	if c.TableID == "" || c.BranchID == "" {
		return Table{}, fmt.Errorf("%w: %v", domain.ErrInvalidTableLink, errors.New("missing table or branch"))
	}

	return Table{TableID: c.TableID, BranchID: c.BranchID}, nil
}
