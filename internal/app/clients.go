package app

import (
	"fmt"
	"os"
	"strings"

	notionclient "github.com/vidgist/vidgist-backend/internal/clients/notion"
	"github.com/vidgist/vidgist-backend/internal/clients/redis"
	"github.com/vidgist/vidgist-backend/internal/platform/cryptoutil"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
	"github.com/vidgist/vidgist-backend/internal/services"
)

type Clients struct {
	Notion notionclient.Client
	Engine services.AnalysisEngine
	JobBus redis.JobEventBus
	Cipher *cryptoutil.Cipher
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var bus redis.JobEventBus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := redis.NewJobEventBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis job bus: %w", err)
		}
		bus = b
	}

	// Notion
	notion, err := notionclient.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init notion client: %w", err)
	}

	// Analysis engine
	engine, err := services.NewHTTPEngine(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init analysis engine: %w", err)
	}

	cipher, err := cryptoutil.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return Clients{}, fmt.Errorf("init token cipher: %w", err)
	}

	return Clients{
		Notion: notion,
		Engine: engine,
		JobBus: bus,
		Cipher: cipher,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.JobBus != nil {
		_ = c.JobBus.Close()
	}
}
