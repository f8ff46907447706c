package entities

// ResolveToken exports resolveToken for testing.
var ResolveToken = resolveToken //nolint:gochecknoglobals // test export

// Validate exports validate for testing.
var Validate = validate //nolint:gochecknoglobals // test export

// NormalizePlatforms exports normalizePlatforms for testing.
var NormalizePlatforms = normalizePlatforms //nolint:gochecknoglobals // test export
