package gitsource

// AuthFor exports authFor for testing.
var AuthFor = authFor //nolint:gochecknoglobals // test export

// IsNetworkURL exports isNetworkURL for testing.
var IsNetworkURL = isNetworkURL //nolint:gochecknoglobals // test export
