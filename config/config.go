package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port string

	// AllowedOrigins is the CORS allow-list for the REST surface.
	AllowedOrigins []string

	// DefaultVariant is used when a join or create carries no variant.
	DefaultVariant string

	// EmptyRoomGrace is how long an emptied room survives before eviction.
	// Zero removes the room the moment its last player leaves.
	EmptyRoomGrace time.Duration

	// IdleSweepInterval and IdleStaleAfter drive the periodic sweep that
	// evicts rooms with no recent activity regardless of roster size.
	IdleSweepInterval time.Duration
	IdleStaleAfter    time.Duration

	// RecentCallLimit caps the called-number history included in outbound
	// room snapshots. Zero sends the full history.
	RecentCallLimit int

	// SendBuffer is the per-client outbound channel size.
	SendBuffer int

	PaymentSuccessRate    float64
	WithdrawalSuccessRate float64
	FinanceDelay          time.Duration
}

// Load reads .env (if present) and the environment, falling back to defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	return Config{
		Port:                  envString("PORT", "4000"),
		AllowedOrigins:        envList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DefaultVariant:        envString("DEFAULT_VARIANT", "75ball"),
		EmptyRoomGrace:        envDuration("EMPTY_ROOM_GRACE", 2*time.Minute),
		IdleSweepInterval:     envDuration("IDLE_SWEEP_INTERVAL", 5*time.Minute),
		IdleStaleAfter:        envDuration("IDLE_STALE_AFTER", 30*time.Minute),
		RecentCallLimit:       envInt("RECENT_CALL_LIMIT", 0),
		SendBuffer:            envInt("SEND_BUFFER", 32),
		PaymentSuccessRate:    envRate("PAYMENT_SUCCESS_RATE", 0.9),
		WithdrawalSuccessRate: envRate("WITHDRAWAL_SUCCESS_RATE", 0.8),
		FinanceDelay:          envDuration("FINANCE_DELAY", 2*time.Second),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("[WARN] invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("[WARN] invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

func envRate(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		log.Printf("[WARN] invalid %s=%q, using default %.2f", key, v, def)
		return def
	}
	return f
}
