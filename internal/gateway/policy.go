// Package gateway decides, per request path, which credential a request
// must carry, and enforces that decision in front of every route.
package gateway

import "strings"

// Access is the credential a path requires.
type Access int

const (
	// Public paths need nothing, or authenticate themselves.
	Public Access = iota
	// NeedsSession paths need a valid admin session cookie.
	NeedsSession
	// NeedsAPIKey paths need the shared x-api-key secret.
	NeedsAPIKey
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case NeedsSession:
		return "session"
	case NeedsAPIKey:
		return "api_key"
	default:
		return "unknown"
	}
}

// Rule maps a path prefix to an Access. A prefix matches the path itself
// and anything below it, so "/login" does not match "/loginx".
type Rule struct {
	Prefix string
	Access Access
}

// Policy is an ordered rule table. The first matching rule wins; paths
// that match nothing get Fallback.
type Policy struct {
	Rules    []Rule
	Fallback Access
}

// DefaultPolicy is the dashboard's routing table.
func DefaultPolicy() Policy {
	return Policy{
		Rules: []Rule{
			{"/login", Public},
			{"/health", Public},
			{"/metrics", Public},
			{"/assets", Public},
			{"/favicon.ico", Public},
			// These check their own credentials.
			{"/api/auth", Public},
			{"/api/cron", Public},
			{"/api/dashboard", NeedsSession},
			{"/api", NeedsAPIKey},
		},
		Fallback: NeedsSession,
	}
}

// Classify returns the Access required for path.
func (p Policy) Classify(path string) Access {
	for _, r := range p.Rules {
		if matchPrefix(path, r.Prefix) {
			return r.Access
		}
	}
	return p.Fallback
}

// IsAPIPath reports whether a failed session check on path should answer
// with JSON rather than a redirect to the login page.
func IsAPIPath(path string) bool {
	return matchPrefix(path, "/api")
}

func matchPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
