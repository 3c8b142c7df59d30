package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr        string
	AppMode         string
	LogLevel        string
	WebSocketOrigin string
	InternalToken   string
	JWTIssuer       string
	JWTSecret       string

	PositionStore string
	DBDSN         string
	RedisAddr     string

	InfowayAPIKey  string
	InfowayWSURL   string
	InfowayHTTPURL string
	SpreadRatio    float64

	FeedReconnectDelay      time.Duration
	FeedHeartbeatInterval   time.Duration
	FeedDepthSubscribeDelay time.Duration
	FeedPollInterval        time.Duration
	FeedHTTPTimeout         time.Duration

	SnapshotInterval    time.Duration
	SubscriberQueueSize int
	BatchCacheTTL       time.Duration

	StopOutInterval  time.Duration
	SLTPInterval     time.Duration
	StopOutLevel     decimal.Decimal
	SLTPTriggerPrice string
	SwapAt           string
	CommissionAt     string
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Load reads the environment, after merging an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.AppMode = strings.ToLower(strings.TrimSpace(os.Getenv("APP_MODE")))
	if c.AppMode == "" {
		c.AppMode = "development"
	}
	if c.AppMode != "development" && c.AppMode != "production" {
		return c, errors.New("invalid APP_MODE: use development or production")
	}
	c.LogLevel = stringEnv("LOG_LEVEL", "info")
	c.WebSocketOrigin = stringEnv("WS_ORIGIN", "*")
	c.InternalToken = strings.TrimSpace(os.Getenv("INTERNAL_API_TOKEN"))
	c.JWTSecret = os.Getenv("JWT_SECRET")
	c.JWTIssuer = stringEnv("JWT_ISSUER", "lv-trade")

	c.PositionStore = strings.ToLower(stringEnv("POSITION_STORE", StorePostgres))
	if c.PositionStore != StorePostgres && c.PositionStore != StoreMemory {
		return c, errors.New("invalid POSITION_STORE: use postgres or memory")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" && c.PositionStore == StorePostgres {
		missing = append(missing, "DB_DSN")
	}
	c.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))

	c.InfowayAPIKey = os.Getenv("INFOWAY_API_KEY")
	if c.InfowayAPIKey == "" {
		missing = append(missing, "INFOWAY_API_KEY")
	}
	c.InfowayWSURL = stringEnv("INFOWAY_WS_URL", "wss://data.infoway.io/ws")
	c.InfowayHTTPURL = strings.TrimRight(stringEnv("INFOWAY_HTTP_URL", "https://data.infoway.io"), "/")

	var err error
	if c.SpreadRatio, err = floatEnv("DEFAULT_SPREAD_RATIO", 0.0001); err != nil {
		return c, err
	}
	durations := []struct {
		dst *time.Duration
		key string
		def time.Duration
	}{
		{&c.FeedReconnectDelay, "FEED_RECONNECT_DELAY", 5 * time.Second},
		{&c.FeedHeartbeatInterval, "FEED_HEARTBEAT_INTERVAL", 30 * time.Second},
		{&c.FeedDepthSubscribeDelay, "FEED_DEPTH_SUBSCRIBE_DELAY", time.Second},
		{&c.FeedPollInterval, "FEED_POLL_INTERVAL", 5 * time.Second},
		{&c.FeedHTTPTimeout, "FEED_HTTP_TIMEOUT", 5 * time.Second},
		{&c.SnapshotInterval, "SNAPSHOT_INTERVAL", 10 * time.Millisecond},
		{&c.BatchCacheTTL, "BATCH_CACHE_TTL", 2 * time.Second},
		{&c.StopOutInterval, "STOPOUT_INTERVAL", 5 * time.Second},
		{&c.SLTPInterval, "SLTP_INTERVAL", time.Second},
	}
	for _, d := range durations {
		if *d.dst, err = durationEnv(d.key, d.def); err != nil {
			return c, err
		}
	}
	if c.SubscriberQueueSize, err = intEnv("SUBSCRIBER_QUEUE_SIZE", 64); err != nil {
		return c, err
	}
	level := stringEnv("STOPOUT_LEVEL_PCT", "20")
	if c.StopOutLevel, err = decimal.NewFromString(level); err != nil || !c.StopOutLevel.IsPositive() {
		return c, fmt.Errorf("invalid STOPOUT_LEVEL_PCT %q", level)
	}
	c.SLTPTriggerPrice = strings.ToLower(stringEnv("SLTP_TRIGGER_PRICE", "side"))
	if c.SwapAt, err = clockEnv("SWAP_AT_UTC", "22:00"); err != nil {
		return c, err
	}
	if c.CommissionAt, err = clockEnv("COMMISSION_AT_UTC", "23:59"); err != nil {
		return c, err
	}

	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

func stringEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return f, nil
}

// clockEnv validates an HH:MM UTC time of day.
func clockEnv(key, def string) (string, error) {
	v := stringEnv(key, def)
	if _, err := time.Parse("15:04", v); err != nil {
		return "", fmt.Errorf("invalid %s %q", key, v)
	}
	return v, nil
}
