package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL       = "https://app.deweydata.io/external-api/v3/products"
	DefaultCensusFTPHost    = "ftp2.census.gov:21"
	DefaultCensusRootPrefix = "/geo/tiger/TIGER"
	DefaultCensusLocalDir   = "census"
)

type Config struct {
	APIKey     string
	APIBaseURL string

	CensusFTPHost    string
	CensusRootPrefix string
	CensusLocalDir   string

	// S3-compatible bucket used by the export command.
	ApiURL     string
	AccessKey  string
	SecretKey  string
	BucketName string
	Region     string
}

// fileConfig mirrors Config for the optional YAML file named by DEWEY_CONFIG.
type fileConfig struct {
	APIKey     string `yaml:"api_key"`
	APIBaseURL string `yaml:"api_base_url"`
	Census     struct {
		FTPHost    string `yaml:"ftp_host"`
		RootPrefix string `yaml:"root_prefix"`
		LocalDir   string `yaml:"local_dir"`
	} `yaml:"census"`
	S3 struct {
		ApiURL     string `yaml:"api_url"`
		AccessKey  string `yaml:"access_key"`
		SecretKey  string `yaml:"secret_key"`
		BucketName string `yaml:"bucket_name"`
		Region     string `yaml:"region"`
	} `yaml:"s3"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables only")
	}

	var file fileConfig
	if path := os.Getenv("DEWEY_CONFIG"); path != "" {
		f, err := readFile(path)
		if err != nil {
			return nil, err
		}
		file = *f
	}

	config := &Config{
		APIKey:     getEnv("DEWEY_API_KEY", file.APIKey),
		APIBaseURL: getEnv("DEWEY_API_BASE_URL", orDefault(file.APIBaseURL, DefaultAPIBaseURL)),

		CensusFTPHost:    getEnv("CENSUS_FTP_HOST", orDefault(file.Census.FTPHost, DefaultCensusFTPHost)),
		CensusRootPrefix: getEnv("CENSUS_FTP_ROOT_PREFIX", orDefault(file.Census.RootPrefix, DefaultCensusRootPrefix)),
		CensusLocalDir:   getEnv("CENSUS_LOCAL_DIR", orDefault(file.Census.LocalDir, DefaultCensusLocalDir)),

		ApiURL:     getEnv("API_URL", file.S3.ApiURL),
		AccessKey:  getEnv("ACCESS_KEY", file.S3.AccessKey),
		SecretKey:  getEnv("SECRET_KEY", file.S3.SecretKey),
		BucketName: getEnv("BUCKET_NAME", file.S3.BucketName),
		Region:     getEnv("REGION", file.S3.Region),
	}

	return config, nil
}

// readFile parses a YAML config file. ${VAR} references are expanded from the
// environment before parsing.
func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}
