package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type (
	File struct {
		Server Config `yaml:"socialcard"`
	}

	CloudinaryConfig struct {
		CloudName    string `yaml:"cloudName"`
		BaseURL      string `yaml:"baseUrl"`
		APIBase      string `yaml:"apiBase"`
		UploadPreset string `yaml:"uploadPreset"`
		UploadFolder string `yaml:"uploadFolder"`
	}

	StorageConfig struct {
		Type           string `yaml:"type"`
		LocalPath      string `yaml:"localPath"`
		DataSourceName string `yaml:"dataSourceName"`
		PostgresDSN    string `yaml:"postgresDsn"`
		S3Bucket       string `yaml:"s3Bucket"`
	}

	Config struct {
		ListenAddr     string           `yaml:"listen"`
		AllowedOrigins []string         `yaml:"allowedOrigins"`
		Cloudinary     CloudinaryConfig `yaml:"cloudinary"`
		Storage        StorageConfig    `yaml:"storage"`

		// BadgeAssetID is the logo drawn on badged templates; empty disables it.
		BadgeAssetID  string `yaml:"badgeAssetId"`
		SampleAssetID string `yaml:"sampleAssetId"`

		FetchTimeoutMS     int   `yaml:"fetchTimeoutMs"`
		MetadataCacheSize  int   `yaml:"metadataCacheSize"`
		RateLimitPerMinute int   `yaml:"rateLimitPerMinute"`
		MaxUploadBytes     int64 `yaml:"maxUploadBytes"`
	}
)

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":3002",
		Cloudinary: CloudinaryConfig{
			CloudName:    "demo",
			BaseURL:      "https://res.cloudinary.com",
			APIBase:      "https://api.cloudinary.com",
			UploadFolder: "social_cards",
		},
		Storage: StorageConfig{
			Type:           "memory",
			LocalPath:      "./data",
			DataSourceName: "cards.db",
		},
		SampleAssetID:      "sample",
		FetchTimeoutMS:     10_000,
		MetadataCacheSize:  256,
		RateLimitPerMinute: 30,
		MaxUploadBytes:     10 << 20,
	}
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then environment variables.
func Load(path string) (*Config, error) {
	cfgFile := File{Server: DefaultConfig()}

	if path != "" {
		data, err := os.ReadFile(os.ExpandEnv(path))
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfgFile); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg := &cfgFile.Server
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(c *Config) {
	c.ListenAddr = getString("LISTEN_ADDR", c.ListenAddr)
	c.AllowedOrigins = getList("ALLOWED_ORIGINS", c.AllowedOrigins)

	c.Cloudinary.CloudName = getString("CLOUDINARY_CLOUD_NAME", c.Cloudinary.CloudName)
	c.Cloudinary.BaseURL = getString("CLOUDINARY_BASE_URL", c.Cloudinary.BaseURL)
	c.Cloudinary.APIBase = getString("CLOUDINARY_API_BASE", c.Cloudinary.APIBase)
	c.Cloudinary.UploadPreset = getString("CLOUDINARY_UPLOAD_PRESET", c.Cloudinary.UploadPreset)
	c.Cloudinary.UploadFolder = getString("CLOUDINARY_UPLOAD_FOLDER", c.Cloudinary.UploadFolder)

	c.Storage.Type = getString("STORAGE_TYPE", c.Storage.Type)
	c.Storage.LocalPath = getString("LOCAL_STORAGE_PATH", c.Storage.LocalPath)
	c.Storage.DataSourceName = getString("DATA_SOURCE_NAME", c.Storage.DataSourceName)
	c.Storage.PostgresDSN = getString("POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.S3Bucket = getString("S3_BUCKET_NAME", c.Storage.S3Bucket)

	c.BadgeAssetID = getString("BADGE_PUBLIC_ID", c.BadgeAssetID)
	c.SampleAssetID = getString("SAMPLE_PUBLIC_ID", c.SampleAssetID)

	c.FetchTimeoutMS = getInt("FETCH_TIMEOUT_MS", c.FetchTimeoutMS)
	c.MetadataCacheSize = getInt("METADATA_CACHE_SIZE", c.MetadataCacheSize)
	c.RateLimitPerMinute = getInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.MaxUploadBytes = int64(getInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
