package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/photovault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory for indices and blobs
//	-backend string   blob backend: "file" or "s3"
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-k string   API key for the classifier/chat endpoint
//	-url string API base URL
//	-m string   API model name
//	-t int      classifier timeout, seconds
//	-l int      unlock token TTL, minutes
//
// The args are first filtered to the flags handled here using
// flagx.FilterArgs, avoiding collisions with the -c/-config flags.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-backend", "-u", "-p", "-b", "-g", "-e", "-k", "-url", "-m", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")
	fs.StringVar(&config.BlobBackend, "backend", config.BlobBackend, "blob backend (file|s3)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.APIKey, "k", config.APIKey, "API key")
	fs.StringVar(&config.APIBaseURL, "url", config.APIBaseURL, "API base URL")
	fs.StringVar(&config.APIModel, "m", config.APIModel, "API model")

	classifierTimeout := fs.Int("t", int(config.ClassifierTimeout.Seconds()), "classifier timeout (in seconds)")
	unlockTTL := fs.Int("l", int(config.UnlockTTL.Minutes()), "unlock token TTL (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ClassifierTimeout = time.Duration(*classifierTimeout) * time.Second
	config.UnlockTTL = time.Duration(*unlockTTL) * time.Minute
}
