package config

import (
	"time"
)

type DB struct {
	Url string `envconfig:"URL" default:"stakesim.db"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:""`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"stakesim:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	Stream       string        `envconfig:"STREAM" default:"stakesim:events"`
	Group        string        `envconfig:"GROUP" default:"stakesim"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

//revive:disable
type CoinGecko struct {
	ApiUrl            string        `envconfig:"API_URL" default:"https://api.coingecko.com/api/v3"`
	ApiKey            string        `envconfig:"API_KEY"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	MaxRetries        int           `envconfig:"MAX_RETRIES" default:"2"`
	RetryBaseDelay    time.Duration `envconfig:"RETRY_BASE_DELAY" default:"500ms"`
	RequestsPerMinute int           `envconfig:"REQUESTS_PER_MINUTE" default:"30"`
	BurstSize         int           `envconfig:"BURST_SIZE" default:"5"`
}

//revive:enable

type Prices struct {
	// Provider is "coingecko" or "static".
	Provider        string        `envconfig:"PROVIDER" default:"coingecko"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"60s"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"1h"`
	CachePrefix     string        `envconfig:"CACHE_PREFIX" default:"prices:"`
}

type EventBus struct {
	// Driver is "memory", "memory-sync" or "redis".
	Driver string `envconfig:"DRIVER" default:"memory"`
}

type Simulator struct {
	Debounce      time.Duration `envconfig:"DEBOUNCE" default:"500ms"`
	DefaultAmount float64       `envconfig:"DEFAULT_AMOUNT" default:"50000"`
	DefaultPeriod int           `envconfig:"DEFAULT_PERIOD" default:"365"`
	DefaultCoin   string        `envconfig:"DEFAULT_COIN" default:"bitcoin"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"30m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[stakesim]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Redis     *Redis     `envconfig:"REDIS"`
	EventBus  *EventBus  `envconfig:"EVENT_BUS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	CoinGecko *CoinGecko `envconfig:"COINGECKO"`
	Prices    *Prices    `envconfig:"PRICES"`
	Simulator *Simulator `envconfig:"SIMULATOR"`
}
