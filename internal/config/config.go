package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable; required variables are enforced by must()
// so a misconfigured instance fails at startup rather than mid-request.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    DBUser    string // database username
    DBPass    string // database password (optional)
    DBHost    string // database host address
    DBPort    string // database port number
    DBName    string // database name
    JWTSecret string // secret used to verify bearer tokens

    // EventOpeningDate is the fallback event date for scope keys that
    // are not themselves dates.  Empty means no fallback: such scopes
    // are rejected as unknown.
    EventOpeningDate time.Time

    // MinLeadTimeDays gates cancellation: bookings may only be
    // cancelled while the event is at least this many whole days away.
    MinLeadTimeDays int
}

// Load reads configuration from the environment.  Missing required
// variables cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:              must("APP_ENV"),
        Port:             must("APP_PORT"),
        DBUser:           must("DB_USER"),
        DBPass:           os.Getenv("DB_PASS"), // empty allowed
        DBHost:           must("DB_HOST"),
        DBPort:           must("DB_PORT"),
        DBName:           must("DB_NAME"),
        JWTSecret:        must("JWT_SECRET"),
        EventOpeningDate: optionalDate("EVENT_OPENING_DATE"),
        MinLeadTimeDays:  envInt("MIN_LEAD_TIME_DAYS", 0), // 0 = service default
    }
}

// must retrieves a required environment variable or exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// optionalDate parses a YYYY-MM-DD variable, exiting on malformed
// input.  Unset is fine and yields the zero time.
func optionalDate(key string) time.Time {
    v := os.Getenv(key)
    if v == "" {
        return time.Time{}
    }
    d, err := time.Parse("2006-01-02", v)
    if err != nil {
        log.Fatalf("invalid date for %s: %q (want YYYY-MM-DD)", key, v)
    }
    return d.UTC()
}
