package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigName is the file name (without extension) looked up in the data folder.
const ConfigName = "config"

// Message keys.
const (
	MsgTrappedTntGiven  = "trapped-tnt-given"
	MsgTrappedTntPlaced = "trapped-tnt-placed"
	MsgRegionNotAllowed = "region-not-allowed"
	MsgExplosionDamage  = "explosion-damage"
	MsgShieldPenalty    = "shield-penalty"
	MsgShieldUseless    = "shield-useless"
)

// DefaultMessages are the built-in chat templates. '&' starts a colour code.
var DefaultMessages = map[string]string{
	MsgTrappedTntGiven:  "&aYou have been given &6{amount} &atrapped TNT!",
	MsgTrappedTntPlaced: "&eTrapped TNT placed! Be careful...",
	MsgRegionNotAllowed: "&cYou cannot place trapped TNT in this area!",
	MsgExplosionDamage:  "&cYou took explosion damage that bypassed your shield!",
	MsgShieldPenalty:    "&4Your shield is useless against trapped TNT! You took &c{damage} &4damage!",
	MsgShieldUseless:    "&cYour shield couldn't protect you from the trapped TNT!",
}

// Trap holds the gameplay settings read on every event.
type Trap struct {
	FuseTicks                 int
	InstantExplosionOnContact bool
	BypassShields             bool
	DirectBypassDamage        bool
	ExplosionPower            float64
	ShieldDamageMultiplier    float64
	DamageThreshold           float64
	Debug                     bool
}

// ZoneDefinition is one statically configured zone.
type ZoneDefinition struct {
	Name    string `mapstructure:"name"`
	World   string `mapstructure:"world"`
	Polygon string `mapstructure:"polygon"`
	MinY    int    `mapstructure:"minY"`
	MaxY    int    `mapstructure:"maxY"`
}

// ZoneConfig holds placement restriction settings.
type ZoneConfig struct {
	AllowedRegions []string
	Definitions    []ZoneDefinition
}

// SQLiteConfig holds the sqlite journal settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PostgresConfig holds the postgres journal settings.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// StorageConfig selects and configures the journal backend.
type StorageConfig struct {
	Type     string
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// InfluxConfig holds the optional telemetry sink settings.
type InfluxConfig struct {
	Enabled    bool
	Protocol   string
	Host       string
	Port       string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// GraylogConfig holds the optional GELF log sink settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// SetDefaults registers every default value. Load calls it; tests that skip
// the file can call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("general.debug", false)

	viper.SetDefault("trapped-tnt.fuse-timer", 80)
	viper.SetDefault("trapped-tnt.instant-explosion-on-contact", true)
	viper.SetDefault("trapped-tnt.bypass-shields", true)
	viper.SetDefault("trapped-tnt.direct-bypass-damage", false)
	viper.SetDefault("trapped-tnt.explosion-power", 4.0)
	viper.SetDefault("trapped-tnt.shield-damage-multiplier", 3.0)
	viper.SetDefault("trapped-tnt.damage-threshold", 1.0)

	viper.SetDefault("zones.allowed-regions", []string{})
	viper.SetDefault("zones.definitions", []map[string]any{})

	for key, msg := range DefaultMessages {
		viper.SetDefault("messages."+key, msg)
	}

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "./trappedtnt.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "trappedtnt")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "trappedtnt")
	viper.SetDefault("influx.bucket", "trap_events")
	viper.SetDefault("influx.backupPath", "./logs/influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load reads configuration from the YAML file in configDir and sets default values.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(ConfigName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("yaml")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Reload re-reads the config file found by Load.
func Reload() error {
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reloading config file: %w", err)
	}
	return nil
}

// GetTrapConfig returns the current gameplay settings.
func GetTrapConfig() Trap {
	return Trap{
		FuseTicks:                 viper.GetInt("trapped-tnt.fuse-timer"),
		InstantExplosionOnContact: viper.GetBool("trapped-tnt.instant-explosion-on-contact"),
		BypassShields:             viper.GetBool("trapped-tnt.bypass-shields"),
		DirectBypassDamage:        viper.GetBool("trapped-tnt.direct-bypass-damage"),
		ExplosionPower:            viper.GetFloat64("trapped-tnt.explosion-power"),
		ShieldDamageMultiplier:    viper.GetFloat64("trapped-tnt.shield-damage-multiplier"),
		DamageThreshold:           viper.GetFloat64("trapped-tnt.damage-threshold"),
		Debug:                     viper.GetBool("general.debug"),
	}
}

// GetZoneConfig returns the placement restriction settings.
// A malformed definitions list is reported and treated as empty.
func GetZoneConfig() (ZoneConfig, error) {
	cfg := ZoneConfig{
		AllowedRegions: viper.GetStringSlice("zones.allowed-regions"),
	}
	if err := viper.UnmarshalKey("zones.definitions", &cfg.Definitions); err != nil {
		return ZoneConfig{AllowedRegions: cfg.AllowedRegions}, fmt.Errorf("decoding zone definitions: %w", err)
	}
	return cfg, nil
}

// GetStorageConfig returns the journal backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetInfluxConfig returns the telemetry sink settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Protocol:   viper.GetString("influx.protocol"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// Message returns the raw template for key, falling back to the built-in one.
func Message(key string) string {
	if msg := viper.GetString("messages." + key); msg != "" {
		return msg
	}
	return DefaultMessages[key]
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
