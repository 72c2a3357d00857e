package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type LanguageConfig struct {
	Code string
	Name string
}

type Config struct {
	Database struct {
		Driver string
		URL    string
	}
	Server struct {
		Port int
	}
	Sitemap struct {
		BaseURL            string
		DefaultLanguage    string
		RegenerateInterval string
	}
	Fixture struct {
		ActorName    string
		Languages    []LanguageConfig
		Capabilities []string
	}
	Crawler struct {
		UserAgent      string
		MaxDepth       int
		AllowedDomains []string
		Parallelism    int
		Delay          string
	}
}

// LoadConfig reads config.yaml from path (or "." and "./config" when path is
// empty) and applies defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Default values
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "xmlsitemap.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("sitemap.baseurl", "http://localhost:8080")
	v.SetDefault("sitemap.defaultlanguage", "en")
	v.SetDefault("sitemap.regenerateinterval", "1h")
	v.SetDefault("fixture.actorname", "sitemap-admin")
	v.SetDefault("crawler.useragent", "XML Sitemap Bot v1.0")
	v.SetDefault("crawler.maxdepth", 3)
	v.SetDefault("crawler.parallelism", 2)
	v.SetDefault("crawler.delay", "0s")

	v.SetEnvPrefix("xmlsitemap")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) GetRegenerateInterval() time.Duration {
	duration, err := time.ParseDuration(c.Sitemap.RegenerateInterval)
	if err != nil || duration <= 0 {
		return time.Hour
	}
	return duration
}

func (c *Config) GetCrawlDelay() time.Duration {
	duration, err := time.ParseDuration(c.Crawler.Delay)
	if err != nil {
		return 0
	}
	return duration
}
