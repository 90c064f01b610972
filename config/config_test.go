package config

import (
	"os"
	"path/filepath"
	"testing"
)

var configKeys = []string{
	"DEWEY_CONFIG",
	"DEWEY_API_KEY",
	"DEWEY_API_BASE_URL",
	"CENSUS_FTP_HOST",
	"CENSUS_FTP_ROOT_PREFIX",
	"CENSUS_LOCAL_DIR",
	"API_URL",
	"ACCESS_KEY",
	"SECRET_KEY",
	"BUCKET_NAME",
	"REGION",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")

	result := getEnv("TEST_VAR", "default_value")
	if result != "test_value" {
		t.Errorf("getEnv() = %s, want %s", result, "test_value")
	}

	result = getEnv("NON_EXISTENT_VAR", "default_value")
	if result != "default_value" {
		t.Errorf("getEnv() = %s, want %s", result, "default_value")
	}

	t.Setenv("EMPTY_VAR", "")
	result = getEnv("EMPTY_VAR", "default_value")
	if result != "default_value" {
		t.Errorf("getEnv() = %s, want %s", result, "default_value")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("config.APIBaseURL = %s, want %s", config.APIBaseURL, DefaultAPIBaseURL)
	}
	if config.CensusFTPHost != DefaultCensusFTPHost {
		t.Errorf("config.CensusFTPHost = %s, want %s", config.CensusFTPHost, DefaultCensusFTPHost)
	}
	if config.CensusRootPrefix != DefaultCensusRootPrefix {
		t.Errorf("config.CensusRootPrefix = %s, want %s", config.CensusRootPrefix, DefaultCensusRootPrefix)
	}
	if config.APIKey != "" {
		t.Errorf("config.APIKey = %s, want empty", config.APIKey)
	}
	if config.BucketName != "" {
		t.Errorf("config.BucketName = %s, want empty", config.BucketName)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)

	testVars := map[string]string{
		"DEWEY_API_KEY":      "key-123",
		"DEWEY_API_BASE_URL": "http://localhost:9000/products",
		"CENSUS_FTP_HOST":    "localhost:2121",
		"BUCKET_NAME":        "test-bucket",
		"REGION":             "test-region",
	}
	for key, value := range testVars {
		t.Setenv(key, value)
	}

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.APIKey != testVars["DEWEY_API_KEY"] {
		t.Errorf("config.APIKey = %s, want %s", config.APIKey, testVars["DEWEY_API_KEY"])
	}
	if config.APIBaseURL != testVars["DEWEY_API_BASE_URL"] {
		t.Errorf("config.APIBaseURL = %s, want %s", config.APIBaseURL, testVars["DEWEY_API_BASE_URL"])
	}
	if config.CensusFTPHost != testVars["CENSUS_FTP_HOST"] {
		t.Errorf("config.CensusFTPHost = %s, want %s", config.CensusFTPHost, testVars["CENSUS_FTP_HOST"])
	}
	if config.BucketName != testVars["BUCKET_NAME"] {
		t.Errorf("config.BucketName = %s, want %s", config.BucketName, testVars["BUCKET_NAME"])
	}
	if config.Region != testVars["REGION"] {
		t.Errorf("config.Region = %s, want %s", config.Region, testVars["REGION"])
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "dewey.yaml")
	yamlData := `api_key: ${TEST_DEWEY_KEY}
census:
  local_dir: /data/tiger
s3:
  bucket_name: yaml-bucket
`
	if err := os.WriteFile(path, []byte(yamlData), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TEST_DEWEY_KEY", "from-yaml")
	t.Setenv("DEWEY_CONFIG", path)
	t.Setenv("BUCKET_NAME", "env-bucket")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.APIKey != "from-yaml" {
		t.Errorf("config.APIKey = %s, want from-yaml", config.APIKey)
	}
	if config.CensusLocalDir != "/data/tiger" {
		t.Errorf("config.CensusLocalDir = %s, want /data/tiger", config.CensusLocalDir)
	}
	if config.BucketName != "env-bucket" {
		t.Errorf("config.BucketName = %s, want env-bucket (env wins over yaml)", config.BucketName)
	}
	if config.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("config.APIBaseURL = %s, want %s", config.APIBaseURL, DefaultAPIBaseURL)
	}
}

func TestLoadMissingYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEWEY_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Load() with missing config file returned nil error")
	}
}
