package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
)

// IdentityVerifier checks that a widget identity claim was signed with the
// inbox's shared HMAC secret. Stateless.
type IdentityVerifier interface {
	// Verify returns (true, nil) on a matching signature, (false, nil) when
	// no signature was presented (the claim proceeds unverified), and
	// (false, ErrAuthentication) on a mismatch.
	Verify(secret, identifier, presentedHash string) (bool, error)
}

type identityVerifier struct {
	log *logger.Logger
}

func NewIdentityVerifier(log *logger.Logger) IdentityVerifier {
	serviceLog := log.With("service", "IdentityVerifier")
	return &identityVerifier{log: serviceLog}
}

func (iv *identityVerifier) Verify(secret, identifier, presentedHash string) (bool, error) {
	// Missing signature is a deliberate low-friction path: the claim is
	// accepted but never trusted to overwrite verified data.
	if presentedHash == "" {
		return false, nil
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(identifier))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(presentedHash)) {
		iv.log.Warn("HMAC verification failed", "identifier", identifier)
		return false, ErrAuthentication
	}
	return true, nil
}
