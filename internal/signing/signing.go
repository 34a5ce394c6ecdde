// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package signing signs a diff report with an ed25519 key pair so a
// downstream consumer can verify it was produced by a trusted dbc-tool
// instance and not tampered with in transit, the same JWT-over-ed25519
// scheme the teacher uses for session tokens.
package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ReportClaims is the JWT claim set carried by a signed diff report.
type ReportClaims struct {
	jwt.RegisteredClaims
	LeftPath   string `json:"left_path"`
	RightPath  string `json:"right_path"`
	Difference string `json:"difference"`
}

// Signer holds the key pair used to sign and verify reports.
type Signer struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewSigner builds a Signer from base64-encoded (standard encoding) raw
// ed25519 keys, the same encoding cmd/dbc-keygen emits.
func NewSigner(publicKeyB64, privateKeyB64 string) (*Signer, error) {
	pub, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("signing: decode public key: %w", err)
	}
	priv, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("signing: decode private key: %w", err)
	}
	return &Signer{public: ed25519.PublicKey(pub), private: ed25519.PrivateKey(priv)}, nil
}

// SignReport produces a compact JWT asserting the given diff was
// produced now and has not been altered since.
func (s *Signer) SignReport(leftPath, rightPath, difference string) (string, error) {
	claims := ReportClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   "cc-dbc",
		},
		LeftPath:   leftPath,
		RightPath:  rightPath,
		Difference: difference,
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.private)
}

// VerifyReport parses and validates a token produced by SignReport,
// returning its claims on success.
func (s *Signer) VerifyReport(token string) (*ReportClaims, error) {
	var claims ReportClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodEdDSA {
			return nil, fmt.Errorf("signing: unexpected signing method %v", t.Method)
		}
		return s.public, nil
	})
	if err != nil {
		return nil, fmt.Errorf("signing: verify report: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("signing: report token is not valid")
	}
	return &claims, nil
}
