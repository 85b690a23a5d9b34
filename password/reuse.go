package password

// ReuseResult is the outcome of a reuse check. Allowed=false means the
// candidate matched a recent prior hash and the change must be rejected.
type ReuseResult struct {
	Allowed bool

	// Matched is true when the rejection came from an actual hash match,
	// as opposed to reuse prevention being disabled or inapplicable.
	Matched bool
}

// CheckReuse compares a candidate password against the most recent prior
// hashes, newest first, bounded by the policy's reuse window.
//
// Individual hashes that fail to verify (corrupt entry, retired scheme the
// hasher no longer recognizes) are skipped rather than rejected: reuse
// prevention fails open so an unreadable history cannot lock a user out of
// changing their password. This is the one deliberate fail-open path in the
// engine; authentication paths fail secure.
func (h *Hasher) CheckReuse(candidate string, priorHashes []string, window int) ReuseResult {
	if window <= 0 || len(priorHashes) == 0 {
		return ReuseResult{Allowed: true}
	}
	if window > len(priorHashes) {
		window = len(priorHashes)
	}

	for _, prior := range priorHashes[:window] {
		ok, err := h.verify(candidate, prior)
		if err != nil {
			continue
		}
		if ok {
			return ReuseResult{Allowed: false, Matched: true}
		}
	}

	return ReuseResult{Allowed: true}
}
