// Package appconf holds the settings the server is started with.
package appconf

import "strings"

// Environment is the operating environment of the application.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps the --env flag to an Environment. Unknown values
// mean Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds all the configuration settings for the Application.
type Config struct {
	Port      int
	Env       Environment
	ApiKeys   []string
	RateLimit int // requests per second per client, 0 disables limiting

	DBType string // "sqlite" or "pgx"
	DBPath string // sqlite file, ":memory:" in tests
	DBConn string // postgres connection string for pgx

	TLSDomain string // serve HTTPS with autocert for this host when set
	CertDir   string // autocert cache directory
}

// ParseAPIKeys splits a comma separated flag value, dropping blanks.
func ParseAPIKeys(flag string) []string {
	var keys []string
	for _, k := range strings.Split(flag, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
