package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "data dir and backend", args: []string{"cmd", "-d", "/srv/vault", "-backend", "s3"}, expectPanic: false,
			expected: &Config{DataDir: "/srv/vault", BlobBackend: "s3"}},
		{name: "api settings", args: []string{"cmd", "-k", "sk-test", "-url", "http://localhost:1234/v1", "-m", "gpt-4o"}, expectPanic: false,
			expected: &Config{APIKey: "sk-test", APIBaseURL: "http://localhost:1234/v1", APIModel: "gpt-4o"}},
		{name: "durations in seconds and minutes", args: []string{"cmd", "-t", "30", "-l", "5"}, expectPanic: false,
			expected: &Config{ClassifierTimeout: 30 * time.Second, UnlockTTL: 5 * time.Minute}},
		{name: "incorrect timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
