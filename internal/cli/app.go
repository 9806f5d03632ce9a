// Package cli implements the interactive PhotoVault shell.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photovault/internal/chat"
	"github.com/dmitrijs2005/photovault/internal/classifier"
	"github.com/dmitrijs2005/photovault/internal/config"
	"github.com/dmitrijs2005/photovault/internal/ingest"
	"github.com/dmitrijs2005/photovault/internal/keycustodian"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/vault"
)

// App wires the vault, the ingestion pipeline, and the chat service
// behind the REPL. Unlock tokens for protected collections are cached
// per process.
type App struct {
	config   *config.Config
	vault    *vault.Vault
	pipeline *ingest.Pipeline
	chat     *chat.Service
	log      logging.Logger
	reader   *bufio.Reader
	unlocks  map[uuid.UUID]string
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {

	custodian, err := keycustodian.Open(cfg.KeyringService, cfg.KeyringDir, promptKeyringPassword)
	if err != nil {
		return nil, err
	}

	var blobs vault.BlobStore
	if cfg.BlobBackend == "s3" {
		blobs, err = vault.NewS3BlobStore(ctx, vault.S3Config{
			User:         cfg.S3RootUser,
			Password:     cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Prefix:       "items",
		})
		if err != nil {
			return nil, err
		}
	}

	v, err := vault.New(vault.Options{
		DataDir:   cfg.DataDir,
		Blobs:     blobs,
		UnlockTTL: cfg.UnlockTTL,
	}, custodian, log)
	if err != nil {
		return nil, err
	}

	cls := classifier.New(cfg.APIKey, cfg.APIBaseURL, cfg.APIModel, log)
	pipeline := ingest.New(v, cls.Classify, log)

	history := chat.NewHistory(cfg.DataDir + "/chat_history.json")
	chatSvc := chat.NewService(cfg.APIKey, cfg.APIBaseURL, cfg.APIModel, cfg.APIMaxTokens, history, log)

	return &App{
		config:   cfg,
		vault:    v,
		pipeline: pipeline,
		chat:     chatSvc,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		unlocks:  make(map[uuid.UUID]string),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	fmt.Println("Welcome to PhotoVault (type 'help' for commands)")
	a.repl(ctx)
}
