package device

// Type is the coarse device category inferred from a client signature.
type Type string

const (
	TypeMobile  Type = "mobile"
	TypeTablet  Type = "tablet"
	TypeDesktop Type = "desktop"
	TypeUnknown Type = "unknown"
)

// Descriptor is the structured form of a raw client signature. Derived once
// per request and immutable afterwards.
type Descriptor struct {
	// Name is an optional user-assigned display name ("Work laptop").
	Name string `json:"name,omitempty"`

	Type     Type   `json:"type"`
	Platform string `json:"platform,omitempty"`
	Browser  string `json:"browser,omitempty"`
	OS       string `json:"os,omitempty"`

	// Fingerprint is the opaque hash identifying this device signature.
	Fingerprint string `json:"fingerprint,omitempty"`

	// RawSignature echoes the signature the descriptor was derived from.
	RawSignature string `json:"raw_signature,omitempty"`
}
