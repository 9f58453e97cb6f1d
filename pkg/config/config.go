package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	Redis   RedisConfig
	Storage StorageConfig
	SMTP    SMTPConfig
	Worker  WorkerConfig
	Timer   TimerConfig
	Billing BillingConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Store    string // postgres | memory
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT. Solo se verifican tokens; la emisión es del proveedor de auth.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig caché del temporizador y canal de notificaciones. Host vacío = modo en proceso.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Host != "" }

// Addr host:port.
func (c RedisConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// StorageConfig almacenamiento de objetos compatible con S3. Bucket vacío = almacenamiento en memoria.
type StorageConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	SignedURLTTL time.Duration
}

// SMTPConfig transporte de correo. Host vacío = solo se registra en el log.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// WorkerConfig procesamiento de la cola documental.
type WorkerConfig struct {
	Concurrency       int
	PollInterval      time.Duration
	MaxAttempts       int
	BaseBackoff       time.Duration
	VisibilityTimeout time.Duration
	OverdueInterval   time.Duration
}

// TimerConfig temporizador activo.
type TimerConfig struct {
	CacheTTL time.Duration
}

// BillingConfig numeración y moneda por defecto.
type BillingConfig struct {
	InvoicePrefix   string
	DefaultCurrency string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, REDIS_HOST, STORAGE_BUCKET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "timebill"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Store:    getString(v, "APP_STORE", "postgres"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "timebill"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "timebill"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Host:     getString(v, "REDIS_HOST", ""),
			Port:     getInt(v, "REDIS_PORT", 6379),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:     getString(v, "STORAGE_ENDPOINT", ""),
			Region:       getString(v, "STORAGE_REGION", "us-east-1"),
			Bucket:       getString(v, "STORAGE_BUCKET", ""),
			AccessKey:    getString(v, "STORAGE_ACCESS_KEY", ""),
			SecretKey:    getString(v, "STORAGE_SECRET_KEY", ""),
			UsePathStyle: getBool(v, "STORAGE_USE_PATH_STYLE", false),
			SignedURLTTL: getDuration(v, "STORAGE_SIGNED_URL_TTL", 15*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", "facturacion@timebill.local"),
		},
		Worker: WorkerConfig{
			Concurrency:       getInt(v, "WORKER_CONCURRENCY", 4),
			PollInterval:      getDuration(v, "WORKER_POLL_INTERVAL", time.Second),
			MaxAttempts:       getInt(v, "WORKER_MAX_ATTEMPTS", 5),
			BaseBackoff:       getDuration(v, "WORKER_BASE_BACKOFF", 2*time.Second),
			VisibilityTimeout: getDuration(v, "WORKER_VISIBILITY_TIMEOUT", 5*time.Minute),
			OverdueInterval:   getDuration(v, "WORKER_OVERDUE_INTERVAL", time.Hour),
		},
		Timer: TimerConfig{
			CacheTTL: getDuration(v, "TIMER_CACHE_TTL", 72*time.Hour),
		},
		Billing: BillingConfig{
			InvoicePrefix:   getString(v, "INVOICE_PREFIX", "INV"),
			DefaultCurrency: getString(v, "DEFAULT_CURRENCY", "USD"),
		},
	}

	if cfg.App.Store != "postgres" && cfg.App.Store != "memory" {
		return nil, fmt.Errorf("config: APP_STORE inválido %q (postgres | memory)", cfg.App.Store)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getDuration acepta "15m", "2s" o un número de segundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := v.GetString(key)
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
