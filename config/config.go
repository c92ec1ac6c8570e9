package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controla el servidor HTTP.
type ServerConfig struct {
	Addr                string `yaml:"addr"`
	AllowedOrigins      string `yaml:"allowed_origins"` // regex de orígenes CORS
	BatchTimeoutSeconds int    `yaml:"batch_timeout_seconds"`
	DefaultRange        string `yaml:"default_range"`
	DefaultLimit        int    `yaml:"default_limit"`
}

// APIConfig contiene los base URLs y los límites de las APIs de Polymarket.
type APIConfig struct {
	DataBase        string  `yaml:"data_base"`
	GammaBase       string  `yaml:"gamma_base"`
	DataRatePerSec  float64 `yaml:"data_rate_per_sec"`
	GammaRatePerSec float64 `yaml:"gamma_rate_per_sec"`
	MaxRetries      int     `yaml:"max_retries"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	MaxFills        int     `yaml:"max_fills"`       // fills leídos como máximo por wallet
	DiscoveryPages  int     `yaml:"discovery_pages"` // páginas de /trades para descubrir candidatos
}

// AnalysisConfig controla el pipeline, los filtros del top-N y el score.
type AnalysisConfig struct {
	Workers               int         `yaml:"workers"`
	MaxWallets            int         `yaml:"max_wallets"`
	MaxLimit              int         `yaml:"max_limit"`
	MinResolvedMarkets    int         `yaml:"min_resolved_markets"`     // negativo desactiva el filtro
	MinVolume             float64     `yaml:"min_volume"`               // negativo desactiva el filtro
	MaxSingleMarketWeight float64     `yaml:"max_single_market_weight"` // negativo desactiva el filtro
	CandidateOversample   int         `yaml:"candidate_oversample"`
	MaxCandidates         int         `yaml:"max_candidates"`
	Score                 ScoreConfig `yaml:"score"`
}

// ScoreConfig son los parámetros del trader score. Los ceros toman el default del modelo.
type ScoreConfig struct {
	Z                 float64 `yaml:"z"`
	ConfidenceK       float64 `yaml:"confidence_k"`
	ConsistencyWeight float64 `yaml:"consistency_weight"`
	ROIWeight         float64 `yaml:"roi_weight"`
	EvidenceWeight    float64 `yaml:"evidence_weight"`
}

// CacheConfig controla el cache de resúmenes por (wallet, rango).
type CacheConfig struct {
	Backend       string `yaml:"backend"` // memory | sqlite | redis | none
	TTLSeconds    int    `yaml:"ttl_seconds"`
	SQLitePath    string `yaml:"sqlite_path"` // ruta al archivo SQLite, o ":memory:"
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate comprueba los valores que no tienen un default razonable.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "sqlite", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q (memory|sqlite|redis|none)", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend redis requires redis_addr")
	}
	switch c.Server.DefaultRange {
	case "7d", "30d", "90d":
	default:
		return fmt.Errorf("invalid default_range %q", c.Server.DefaultRange)
	}
	sc := c.Analysis.Score
	if (sc.ConsistencyWeight != 0 || sc.ROIWeight != 0) && !(sc.EvidenceWeight > 0) {
		return fmt.Errorf("analysis.score.evidence_weight must be > 0 when other weights are set, got %v", sc.EvidenceWeight)
	}
	return nil
}

// BatchTimeout devuelve el plazo total de un batch como time.Duration.
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.Server.BatchTimeoutSeconds) * time.Second
}

// APITimeout devuelve el timeout por request HTTP upstream.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CacheTTL devuelve el TTL de los resúmenes cacheados.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Cache.RedisDB = db
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.BatchTimeoutSeconds <= 0 {
		cfg.Server.BatchTimeoutSeconds = 60
	}
	if cfg.Server.DefaultRange == "" {
		cfg.Server.DefaultRange = "30d"
	}
	if cfg.Server.DefaultLimit <= 0 {
		cfg.Server.DefaultLimit = 50
	}

	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = 3
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = 8
	}
	if cfg.Analysis.MaxWallets <= 0 {
		cfg.Analysis.MaxWallets = 10
	}
	if cfg.Analysis.MaxLimit <= 0 {
		cfg.Analysis.MaxLimit = 100
	}
	if cfg.Analysis.MinResolvedMarkets == 0 {
		cfg.Analysis.MinResolvedMarkets = 3
	}
	if cfg.Analysis.MinVolume == 0 {
		cfg.Analysis.MinVolume = 50
	}
	if cfg.Analysis.MaxSingleMarketWeight == 0 {
		cfg.Analysis.MaxSingleMarketWeight = 0.6
	}
	if cfg.Analysis.CandidateOversample <= 0 {
		cfg.Analysis.CandidateOversample = 3
	}
	if cfg.Analysis.MaxCandidates <= 0 {
		cfg.Analysis.MaxCandidates = 300
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = "polalfa.db"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
