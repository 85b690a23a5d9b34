// Package internaldefs holds the shared metric definitions consumed by the
// Prometheus and OpenTelemetry exporters. It exists so both exporters emit
// the same names, help strings, and bucket layout without duplicating them.
package internaldefs
