package queue

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/post-scheduler/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// SignatureVerifier checks the signature the queue attaches to every
// delivery: a JWT over a hash of the request body, signed with one of two
// HMAC keys. Two keys make rotation possible: deliveries signed with the
// next key stay valid while the current key is being retired.
type SignatureVerifier struct {
	currentKey []byte
	nextKey    []byte
}

func NewSignatureVerifier(currentKey, nextKey string) *SignatureVerifier {
	return &SignatureVerifier{
		currentKey: []byte(currentKey),
		nextKey:    []byte(nextKey),
	}
}

// Verify validates the signature token against the raw request body.
// Any failure maps to domain.ErrSignatureInvalid; callers must not process
// the delivery.
func (v *SignatureVerifier) Verify(signature string, body []byte) error {
	if signature == "" {
		return fmt.Errorf("%w: missing signature header", domain.ErrSignatureInvalid)
	}

	err := v.verifyWithKey(signature, body, v.currentKey)
	if err == nil {
		return nil
	}
	if v.verifyWithKey(signature, body, v.nextKey) == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
}

func (v *SignatureVerifier) verifyWithKey(signature string, body []byte, key []byte) error {
	token, err := jwt.Parse(signature, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("parse signature: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("unexpected claims type")
	}

	claimedHash, ok := claims["body"].(string)
	if !ok {
		return errors.New("missing body claim")
	}

	sum := sha256.Sum256(body)
	wantHash := base64.URLEncoding.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(claimedHash), []byte(wantHash)) != 1 {
		return errors.New("body hash mismatch")
	}
	return nil
}
