package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits and normalizes list values
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The types reflect how the values are used:
// strings for identifiers and secrets, ints for durations and costs, a
// set for the upload extension allow-list.
type Config struct {
	Env            string          // application environment (e.g. "dev", "prod")
	Port           string          // HTTP port to listen on
	DBUser         string          // database username
	DBPass         string          // database password (optional)
	DBHost         string          // database host address
	DBPort         string          // database port number
	DBName         string          // database name
	JWTSecret      string          // secret used to sign JWTs
	AccessTTLMin   int             // access token time-to-live in minutes
	RefreshTTLDays int             // refresh token time-to-live in days
	BcryptCost     int             // bcrypt cost for password hashing
	UploadDir      string          // root directory for uploaded files
	MaxUploadBytes int64           // maximum accepted upload size in bytes
	AllowedExts    map[string]bool // lowercased extension allow-list; empty means anything goes
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Upload settings
// have defaults so a dev setup only needs the DB and JWT variables.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(atoi(getenv("MAX_UPLOAD_BYTES", "16777216"))),
		AllowedExts:    ParseExtensions(os.Getenv("ALLOWED_EXTENSIONS")),
	}
}

// ParseExtensions turns a comma-separated list like "pdf,png,docx" into a
// set of lowercased extensions without dots.  An empty value yields an
// empty set, which the attachment policy treats as "accept any extension".
func ParseExtensions(s string) map[string]bool {
	out := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(p, ".")))
		if p != "" {
			out[p] = true
		}
	}
	return out
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

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
