package types

// Credentials is the resolved bearer credential used for remote requests.
//
// It is resolved once at process start and passed explicitly to the fetcher.
// The token is opaque to the tracking core.
type Credentials struct {
	// Token is the bearer token.
	Token string

	// Source names where the token was found (e.g., "gh hosts.yml", "env GITHUB_TOKEN").
	Source string
}

// IsZero reports whether no token is present.
func (c Credentials) IsZero() bool {
	return c.Token == ""
}

// AuthorizationHeader returns the value for the HTTP Authorization header.
func (c Credentials) AuthorizationHeader() string {
	return "bearer " + c.Token
}

// String never reveals the token.
func (c Credentials) String() string {
	if c.IsZero() {
		return "credentials(none)"
	}

	return "credentials(" + c.Source + ")"
}
