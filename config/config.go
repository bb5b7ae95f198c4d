package config

import (
	"os"
	"path"
	"strconv"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Secret        string `yaml:"secret"`
	SessionSecret string `yaml:"session_secret"`
}

type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// StoreConfig carries storefront behavior knobs.
type StoreConfig struct {
	SkuPrefix  string `yaml:"sku_prefix"`
	Currency   string `yaml:"currency"`
	Locale     string `yaml:"locale"`
	OpenTime   string `yaml:"open_time"`
	CloseTime  string `yaml:"close_time"`
	WebhookURL string `yaml:"webhook_url"`
}

type SmtpConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	AlertTo  string `yaml:"alert_to"`
}

type AppConfig struct {
	System   SysConfig   `yaml:"system"`
	Web      WebConfig   `yaml:"web"`
	Database DBConfig    `yaml:"database"`
	Logger   LogConfig   `yaml:"logger"`
	Store    StoreConfig `yaml:"store"`
	Smtp     SmtpConfig  `yaml:"smtp"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "toughstore",
		Location: "Asia/Kuala_Lumpur",
		Workdir:  "/var/toughstore",
		Debug:    true,
	},
	Web: WebConfig{
		Host:          "0.0.0.0",
		Port:          1820,
		Secret:        "9b6de5cc-0001-1203-xxtx-0f568ac9da37",
		SessionSecret: "9b6de5cc-store-sess-0f568ac9da37",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "toughstore_v1",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/toughstore/toughstore.log",
	},
	Store: StoreConfig{
		SkuPrefix: "TSK",
		Currency:  "USD",
		Locale:    "en",
		OpenTime:  "09:00",
		CloseTime: "21:00",
	},
	Smtp: SmtpConfig{
		Host: "",
		Port: 587,
	},
}

func setEnvValue(name string, val *string) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = evalue
	}
}

func setEnvIntValue(name string, val *int) {
	if evalue, ok := os.LookupEnv(name); ok {
		if p, err := strconv.ParseInt(evalue, 10, 64); err == nil {
			*val = int(p)
		}
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

// LoadConfig loads the yaml configuration file and applies environment overrides.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				panic(err)
			}
		}
	}

	setEnvValue("TOUGHSTORE_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("TOUGHSTORE_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("TOUGHSTORE_WEB_HOST", &cfg.Web.Host)
	setEnvValue("TOUGHSTORE_WEB_SECRET", &cfg.Web.Secret)
	setEnvIntValue("TOUGHSTORE_WEB_PORT", &cfg.Web.Port)

	setEnvValue("TOUGHSTORE_DB_TYPE", &cfg.Database.Type)
	setEnvValue("TOUGHSTORE_DB_HOST", &cfg.Database.Host)
	setEnvValue("TOUGHSTORE_DB_NAME", &cfg.Database.Name)
	setEnvValue("TOUGHSTORE_DB_USER", &cfg.Database.User)
	setEnvValue("TOUGHSTORE_DB_PWD", &cfg.Database.Passwd)
	setEnvIntValue("TOUGHSTORE_DB_PORT", &cfg.Database.Port)
	setEnvBoolValue("TOUGHSTORE_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("TOUGHSTORE_STORE_SKU_PREFIX", &cfg.Store.SkuPrefix)
	setEnvValue("TOUGHSTORE_STORE_WEBHOOK_URL", &cfg.Store.WebhookURL)

	setEnvValue("TOUGHSTORE_SMTP_HOST", &cfg.Smtp.Host)
	setEnvValue("TOUGHSTORE_SMTP_USERNAME", &cfg.Smtp.Username)
	setEnvValue("TOUGHSTORE_SMTP_PASSWORD", &cfg.Smtp.Password)
	setEnvIntValue("TOUGHSTORE_SMTP_PORT", &cfg.Smtp.Port)

	return cfg
}

// InitDirs creates the runtime directory layout under workdir.
func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "metrics"), 0755)
}

// GetLogDir returns the log directory under workdir.
func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

// GetDataDir returns the data directory under workdir.
func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}
