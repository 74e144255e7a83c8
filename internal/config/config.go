package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The AnimeCon block carries the settings of
// the upstream programme API; absence of any of them is a fatal
// construction-time error because the importer cannot run without a
// fully configured integration.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days

	AdminEmail        string // email of the single admin account
	AdminPasswordHash string // bcrypt hash of the admin password

	AnimeConAPIEndpoint  string // base URL of the programme API
	AnimeConAuthEndpoint string // URL of the password-grant token endpoint
	AnimeConClientID     string // OAuth client id
	AnimeConClientSecret string // OAuth client secret
	AnimeConUsername     string // account username for the password grant
	AnimeConPassword     string // account password for the password grant
	AnimeConScopes       string // requested scopes, space separated

	FestivalID     int    // festival whose programme is imported
	ImportSchedule string // cron spec for periodic imports (default "@every 5m")
	SnapshotsKept  int    // snapshot history length retained per festival
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),

		AdminEmail:        must("ADMIN_EMAIL"),
		AdminPasswordHash: must("ADMIN_PASSWORD_HASH"),

		AnimeConAPIEndpoint:  must("ANIMECON_API_ENDPOINT"),
		AnimeConAuthEndpoint: must("ANIMECON_AUTH_ENDPOINT"),
		AnimeConClientID:     must("ANIMECON_CLIENT_ID"),
		AnimeConClientSecret: must("ANIMECON_CLIENT_SECRET"),
		AnimeConUsername:     must("ANIMECON_USERNAME"),
		AnimeConPassword:     must("ANIMECON_PASSWORD"),
		AnimeConScopes:       must("ANIMECON_SCOPES"),

		FestivalID:     mustInt("ANIMECON_FESTIVAL_ID"),
		ImportSchedule: getenv("IMPORT_SCHEDULE", "@every 5m"),
		SnapshotsKept:  atoi(getenv("SNAPSHOTS_KEPT", "20")),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
