// Package risk scores authentication and session context into a bounded
// risk score, a discrete security level, and explanatory factors.
//
// Scoring is additive over independent signals, clamped to [0,100]. The
// engine is pure given its inputs and clock, and it never propagates an
// internal failure: any panic during assessment degrades to a fail-safe
// elevated assessment rather than reporting the context as normal.
package risk
