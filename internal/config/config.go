// Package config handles configuration for the PhotoVault CLI,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for PhotoVault.
//
// Fields:
//   - DataDir: root directory for indices and encrypted blobs.
//   - BlobBackend: "file" for local blobs or "s3" for object storage.
//   - KeyringService: service name the master key is stored under.
//   - KeyringDir: directory for the encrypted-file keyring backend when no
//     OS keychain is available (headless hosts).
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     object storage settings for the "s3" backend (MinIO-compatible).
//   - APIKey / APIBaseURL / APIModel: classifier and chat endpoint settings
//     (OpenAI-compatible wire format).
//   - APIMaxTokens: completion budget for chat replies.
//   - ClassifierTimeout: upper bound on one classification call.
//   - UnlockTTL: lifetime of a collection unlock token.
type Config struct {
	DataDir           string
	BlobBackend       string
	KeyringService    string
	KeyringDir        string
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	APIKey            string
	APIBaseURL        string
	APIModel          string
	APIMaxTokens      int
	ClassifierTimeout time.Duration
	UnlockTTL         time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: The API key must always be provided via file or flag.
func (c *Config) LoadDefaults() {
	c.DataDir = "photovault-data"
	c.BlobBackend = "file"
	c.KeyringService = "com.photovault.encryption"
	c.KeyringDir = ""
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "photovault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.APIKey = ""
	c.APIBaseURL = "https://api.openai.com/v1"
	c.APIModel = "gpt-4o-mini"
	c.APIMaxTokens = 1024
	c.ClassifierTimeout = 60 * time.Second
	c.UnlockTTL = 15 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
