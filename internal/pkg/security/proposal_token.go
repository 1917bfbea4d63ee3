package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TokenPurpose scopes a proposal token to exactly one action. Confirm tokens
// travel in notification emails and must never be accepted by the edit
// endpoints, and vice versa.
type TokenPurpose string

const (
	PurposeConfirm TokenPurpose = "confirm"
	PurposeEdit    TokenPurpose = "edit"
)

// ProposalTokenTTL is how long a minted token stays valid.
const ProposalTokenTTL = 72 * time.Hour

// ErrTokenInvalid covers every verification failure: bad format, bad
// signature, wrong purpose, wrong proposal, expired. Callers surface all of
// them as "not found" so an attacker learns nothing about entity existence.
var ErrTokenInvalid = errors.New("invalid proposal token")

type ProposalTokenClaims struct {
	ProposalID uint         `json:"proposal_id"`
	Purpose    TokenPurpose `json:"purpose"`
	IssuedAt   int64        `json:"iat"`
	ExpiresAt  int64        `json:"exp"`
}

// GenerateProposalToken mints an HMAC-sealed token for one action on one
// proposal. Tokens are derived, not stored; minting twice yields
// independently valid tokens.
func GenerateProposalToken(proposalID uint, purpose TokenPurpose, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for token generation")
	}
	if purpose != PurposeConfirm && purpose != PurposeEdit {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}
	now := time.Now()
	claims := ProposalTokenClaims{
		ProposalID: proposalID,
		Purpose:    purpose,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(ProposalTokenTTL).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	sig := mac.Sum(nil)
	token := fmt.Sprintf("%s.%s", base64.RawURLEncoding.EncodeToString(payload), base64.RawURLEncoding.EncodeToString(sig))
	return token, nil
}

// VerifyProposalToken checks signature, purpose, target and expiry. Every
// failure path returns ErrTokenInvalid; the caller must not distinguish them
// in responses.
func VerifyProposalToken(token string, purpose TokenPurpose, proposalID uint, secret string) error {
	if secret == "" {
		return errors.New("secret is required for token verification")
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return ErrTokenInvalid
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return ErrTokenInvalid
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ErrTokenInvalid
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payloadBytes)
	expected := mac.Sum(nil)
	if !hmac.Equal(sigBytes, expected) {
		return ErrTokenInvalid
	}
	var claims ProposalTokenClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return ErrTokenInvalid
	}
	if claims.ProposalID != proposalID {
		return ErrTokenInvalid
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return ErrTokenInvalid
	}
	return nil
}
