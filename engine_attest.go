package sentinel

import "github.com/sentinelforge/sentinel/attest"

// ParseAttestation verifies a signed session attestation and returns its
// claims. Verification is purely cryptographic and never touches the
// session store; callers that need revocation awareness must follow up
// with ValidateSession on the embedded session token.
func (e *Engine) ParseAttestation(token string) (*attest.Claims, error) {
	if e == nil || e.attest == nil {
		return nil, ErrAttestationDisabled
	}
	return e.attest.Parse(token)
}
