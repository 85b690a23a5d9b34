// Package otel bridges engine metrics into an OpenTelemetry meter using
// observable instruments. Values are pulled from a snapshot on each
// collection, so the bridge adds no cost to the engine's hot paths.
package otel
