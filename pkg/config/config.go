package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CHECKUP_DB_DSN"
	EnvDBHost = "CHECKUP_DB_HOST"
	EnvDBUser = "CHECKUP_DB_USER"
	EnvDBName = "CHECKUP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Engine       EngineConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHECKUP_APP_ENV" required:"true"`
	Port         string `envconfig:"CHECKUP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CHECKUP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHECKUP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CHECKUP_DB_DSN"`
	Driver string `envconfig:"CHECKUP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHECKUP_DB_HOST"`
	LegacyPort     int    `envconfig:"CHECKUP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHECKUP_DB_USER"`
	LegacyPassword string `envconfig:"CHECKUP_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHECKUP_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHECKUP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHECKUP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHECKUP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHECKUP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHECKUP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHECKUP_REDIS_URL"`
	Address      string        `envconfig:"CHECKUP_REDIS_ADDR"`
	Password     string        `envconfig:"CHECKUP_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHECKUP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHECKUP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHECKUP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHECKUP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHECKUP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHECKUP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// EngineConfig tunes the recommendation and occupancy behaviors. Defaults
// mirror the dispatch heuristics the facility runs with today.
type EngineConfig struct {
	WaitingWeight       int           `envconfig:"CHECKUP_ENGINE_WAITING_WEIGHT" default:"10"`
	DependencyPenalty   int           `envconfig:"CHECKUP_ENGINE_DEPENDENCY_PENALTY" default:"1000"`
	BrokenPenalty       int           `envconfig:"CHECKUP_ENGINE_BROKEN_PENALTY" default:"1000"`
	WarningPenalty      int           `envconfig:"CHECKUP_ENGINE_WARNING_PENALTY" default:"200"`
	FastingBonus        int           `envconfig:"CHECKUP_ENGINE_FASTING_BONUS" default:"10"`
	FastingCutoffHour   int           `envconfig:"CHECKUP_ENGINE_FASTING_CUTOFF_HOUR" default:"10"`
	ConsultLastPenalty  int           `envconfig:"CHECKUP_ENGINE_CONSULT_LAST_PENALTY" default:"40"`
	WarnUtilization     float64       `envconfig:"CHECKUP_ENGINE_WARN_UTILIZATION" default:"0.70"`
	NearCapacityFract   float64       `envconfig:"CHECKUP_ENGINE_NEAR_CAPACITY_FRACTION" default:"0.80"`
	SnapshotTTL         time.Duration `envconfig:"CHECKUP_ENGINE_SNAPSHOT_TTL" default:"5s"`
	AvgDurationLookback int           `envconfig:"CHECKUP_ENGINE_AVG_DURATION_LOOKBACK_DAYS" default:"7"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CHECKUP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CHECKUP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
