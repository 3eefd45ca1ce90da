package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const DefaultAPIBaseURL = "https://docmaster.digital/api"

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		LoginRateLimit            int
		LoginRateWindow           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	DigestConfig struct {
		Enabled  bool
		Schedule string
	}

	ClientConfig struct {
		BaseURL     string
		SessionFile string
		Timeout     time.Duration
	}

	Config struct {
		AppName                   string
		Build                     string
		Env                       string
		Debug                     bool
		TestMode                  bool
		SecretKey                 string
		DefaultFromEmailAddr      string `mapstructure:"defaultfromemail"`
		FrontendBaseURL           string
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string
		SendgridApiKey            string
		Server                    ServerConfig
		Database                  DatabaseConfig
		Redis                     RedisConfig
		Digest                    DigestConfig
		Client                    ClientConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DefaultFromEmail parses DefaultFromEmailAddr, falling back to a bare address on parse errors.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmailAddr); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmailAddr}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "Docmaster")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "t3f!x9&lq0v#_docmaster_dev_only_k8@w2m$e5r7")
	v.SetDefault("defaultFromEmail", "Docmaster <noreply@docmaster.digital>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("passwordResetTimeoutDelta", "72h")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "15s")
	v.SetDefault("server.shutdownTimeout", "5s")
	v.SetDefault("server.jwtExpirationDelta", "168h")
	v.SetDefault("server.jwtRefreshExpirationDelta", "4h")
	v.SetDefault("server.loginRateLimit", 10)
	v.SetDefault("server.loginRateWindow", "1m")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "docmaster")
	v.SetDefault("database.user", "docmaster")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.schedule", "0 0 8 * * *")

	v.SetDefault("client.baseURL", DefaultAPIBaseURL)
	v.SetDefault("client.sessionFile", defaultSessionFile())
	v.SetDefault("client.timeout", "30s")
}

func defaultSessionFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "docmaster", "session.json")
	}
	return ".docmaster-session.json"
}

// LoadConfig reads the configuration of the given environment (DEV, TEST, QA, PROD).
// Values come from defaults, then `config/.env.<env>` if present, then the process environment
// prefixed with the environment name, e.g. `PROD_DATABASE_HOST`.
func LoadConfig(env string) (*Config, error) {
	env = strings.ToUpper(strings.TrimSpace(env))
	if env == "" {
		env = "DEV"
	}

	v := viper.New()
	setDefaults(v)
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetDefault("env", env)

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}
	dotEnvPath := filepath.Join(configDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var conf Config
	if err := v.Unmarshal(&conf, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	conf.Client.BaseURL = strings.TrimRight(conf.Client.BaseURL, "/")
	if conf.Client.BaseURL == "" {
		conf.Client.BaseURL = DefaultAPIBaseURL
	}
	return &conf, nil
}

// NewConfig loads the configuration of the environment named by $ENV and exits on failure.
func NewConfig() *Config {
	conf, err := LoadConfig(os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}
