// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Sources  SourcesConfig
	Planning PlanningConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	DemandTTLSeconds int
	StockTTLSeconds  int
}

// SourcesConfig configures the two external data sources: the analytics
// API that serves historical demand rows and the stock spreadsheet.
type SourcesConfig struct {
	DemandBaseURL        string
	DemandAPIKey         string
	DemandTimeoutSeconds int

	SheetsCredentialsJSON string
	SpreadsheetID         string
	StockSheet            string
	LocationsSheet        string
	SharesSheet           string

	// StockXLSXPath, when set, reads the stock snapshot from a local XLSX
	// export instead of the Sheets API.
	StockXLSXPath string
}

type PlanningConfig struct {
	RoutesConfigPath   string
	TrailingWindowDays int
	DefaultTargetDays  float64
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "demandplan")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_DEMAND_TTL_SECONDS", 900)
		viper.SetDefault("CACHE_STOCK_TTL_SECONDS", 600)
		viper.SetDefault("DEMAND_SOURCE_BASE_URL", "")
		viper.SetDefault("DEMAND_SOURCE_API_KEY", "")
		viper.SetDefault("DEMAND_SOURCE_TIMEOUT_SECONDS", 30)
		viper.SetDefault("SHEETS_CREDENTIALS_JSON", "")
		viper.SetDefault("STOCK_SPREADSHEET_ID", "")
		viper.SetDefault("STOCK_SHEET_NAME", "Stock")
		viper.SetDefault("LOCATIONS_SHEET_NAME", "Locations")
		viper.SetDefault("COUNTRY_SHARES_SHEET_NAME", "Country Shares")
		viper.SetDefault("STOCK_XLSX_PATH", "")
		viper.SetDefault("ROUTES_CONFIG_PATH", "./configs/routes.json")
		viper.SetDefault("TRAILING_WINDOW_DAYS", 30)
		viper.SetDefault("DEFAULT_TARGET_DAYS", 30)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "forecast-snapshots")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				DemandTTLSeconds: viper.GetInt("CACHE_DEMAND_TTL_SECONDS"),
				StockTTLSeconds:  viper.GetInt("CACHE_STOCK_TTL_SECONDS"),
			},
			Sources: SourcesConfig{
				DemandBaseURL:         viper.GetString("DEMAND_SOURCE_BASE_URL"),
				DemandAPIKey:          viper.GetString("DEMAND_SOURCE_API_KEY"),
				DemandTimeoutSeconds:  viper.GetInt("DEMAND_SOURCE_TIMEOUT_SECONDS"),
				SheetsCredentialsJSON: viper.GetString("SHEETS_CREDENTIALS_JSON"),
				SpreadsheetID:         viper.GetString("STOCK_SPREADSHEET_ID"),
				StockSheet:            viper.GetString("STOCK_SHEET_NAME"),
				LocationsSheet:        viper.GetString("LOCATIONS_SHEET_NAME"),
				SharesSheet:           viper.GetString("COUNTRY_SHARES_SHEET_NAME"),
				StockXLSXPath:         viper.GetString("STOCK_XLSX_PATH"),
			},
			Planning: PlanningConfig{
				RoutesConfigPath:   viper.GetString("ROUTES_CONFIG_PATH"),
				TrailingWindowDays: viper.GetInt("TRAILING_WINDOW_DAYS"),
				DefaultTargetDays:  viper.GetFloat64("DEFAULT_TARGET_DAYS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
		}
	})

	return instance
}
