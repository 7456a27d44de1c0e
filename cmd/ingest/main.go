// Command ingest loads reference documents from a JSONL file into the vector
// index. Each line is one document: {"id", "text", "title", "url"}.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"server/internal/infra"
	"server/internal/providers/huggingface"
	"server/internal/providers/pinecone"
	"server/internal/retrieval"
)

type document struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func main() {
	_ = godotenv.Load()

	var (
		file    = flag.String("file", "", "path to a JSONL corpus file")
		timeout = flag.Duration("timeout", 30*time.Second, "per-document timeout")
	)
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallback := infra.NewLogger("production")
		fallback.Fatal().Err(err).Msg("load config")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *file == "" {
		logger.Fatal().Msg("-file is required")
	}

	hf, err := huggingface.NewClient(huggingface.Options{
		APIKey:     cfg.HFAPIKey,
		BaseURL:    cfg.HFBaseURL,
		Model:      cfg.HFModel,
		EmbedModel: cfg.HFEmbedModel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("huggingface client")
	}
	index, err := pinecone.NewClient(pinecone.Options{
		APIKey:     cfg.PineconeAPIKey,
		ControlURL: cfg.PineconeControlURL,
		IndexName:  cfg.PineconeIndexName,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("pinecone client")
	}
	svc := retrieval.NewService(hf, index, cfg.RetrievalTopK)

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal().Err(err).Msg("open corpus file")
	}
	defer f.Close()

	var line, loaded, skipped int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var doc document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("skipping malformed line")
			skipped++
			continue
		}
		if strings.TrimSpace(doc.Text) == "" {
			logger.Warn().Int("line", line).Msg("skipping document without text")
			skipped++
			continue
		}
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		err = svc.UpsertDocument(ctx, doc.ID, doc.Text, map[string]string{
			"title": doc.Title,
			"url":   doc.URL,
		})
		cancel()
		if err != nil {
			logger.Error().Err(err).Int("line", line).Str("id", doc.ID).Msg("upsert failed")
			skipped++
			continue
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal().Err(err).Msg("read corpus file")
	}

	logger.Info().Int("loaded", loaded).Int("skipped", skipped).Msg("ingest complete")
}
