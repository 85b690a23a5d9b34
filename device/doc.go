// Package device classifies raw client signatures into structured device
// descriptors and derives opaque fingerprint hashes.
//
// Classification is a fixed substring-rule match over the signature; it is
// pure and deterministic. Fingerprinting salts and hashes the signature so
// sessions can be correlated per device without persisting raw identifying
// data. Fingerprinting never fails: if the salted path cannot complete, a
// deterministic fallback hash over the signature and timestamp is used.
package device
