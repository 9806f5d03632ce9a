package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/photovault/internal/flagx"
)

// JSONConfig is an intermediate DTO used only for reading JSON
// configuration files. Duration fields are accepted as integers: seconds
// for the classifier timeout, minutes for the unlock TTL. After
// unmarshalling, its fields are copied into the runtime Config.
type JSONConfig struct {
	DataDir              string `json:"data_dir"`
	BlobBackend          string `json:"blob_backend"`
	KeyringService       string `json:"keyring_service"`
	KeyringDir           string `json:"keyring_dir"`
	S3RootUser           string `json:"s3_root_user"`
	S3RootPassword       string `json:"s3_root_password"`
	S3Bucket             string `json:"s3_bucket"`
	S3Region             string `json:"s3_region"`
	S3BaseEndpoint       string `json:"s3_base_endpoint"`
	APIKey               string `json:"api_key"`
	APIBaseURL           string `json:"api_base_url"`
	APIModel             string `json:"api_model"`
	APIMaxTokens         int    `json:"api_max_tokens"`
	ClassifierTimeoutSec int    `json:"classifier_timeout_sec"`
	UnlockTTLMin         int    `json:"unlock_ttl_min"`
}

// parseJSON loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. When no file is named,
// nothing happens. An unreadable or invalid file panics, matching the
// flag layer.
func parseJSON(config *Config) {

	jsonConfigFile := flagx.JSONConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JSONConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.DataDir != "" {
		config.DataDir = c.DataDir
	}
	if c.BlobBackend != "" {
		config.BlobBackend = c.BlobBackend
	}
	if c.KeyringService != "" {
		config.KeyringService = c.KeyringService
	}
	if c.KeyringDir != "" {
		config.KeyringDir = c.KeyringDir
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.APIKey != "" {
		config.APIKey = c.APIKey
	}
	if c.APIBaseURL != "" {
		config.APIBaseURL = c.APIBaseURL
	}
	if c.APIModel != "" {
		config.APIModel = c.APIModel
	}
	if c.APIMaxTokens != 0 {
		config.APIMaxTokens = c.APIMaxTokens
	}
	if c.ClassifierTimeoutSec != 0 {
		config.ClassifierTimeout = time.Duration(c.ClassifierTimeoutSec) * time.Second
	}
	if c.UnlockTTLMin != 0 {
		config.UnlockTTL = time.Duration(c.UnlockTTLMin) * time.Minute
	}
}
