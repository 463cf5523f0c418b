// import-chat imports a WhatsApp-style chat export from disk, running
// the full pipeline (parse, segment, index, summarize) against a local
// database and blob directory. Useful for backfills and for inspecting
// what the server would build for a given export.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sevgi-app/memoir/pkg/analysis"
	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/memconfig"
	"github.com/sevgi-app/memoir/pkg/pipeline"
	"github.com/sevgi-app/memoir/pkg/store"
)

var (
	filePath = flag.String("file", "", "Path to the chat export text file (required)")
	uid      = flag.String("uid", "", "User ID to import under (required)")
	relID    = flag.String("relationship", "", "Relationship ID to replace (new one created if empty)")
	dbPath   = flag.String("db", "", "Path to SQLite database (defaults to storage.sqlite from config)")
	blobRoot = flag.String("blobs", "", "Blob root directory (defaults to storage.blob_root from config)")
	cfgPath  = flag.String("config", "", "Path to memoir.yaml (auto-detected if not specified)")
	debug    = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *filePath == "" || *uid == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := loadConfig()

	db := *dbPath
	if db == "" {
		db = cfg.Storage.SQLite
	}
	root := *blobRoot
	if root == "" {
		root = cfg.Storage.BlobRoot
	}

	chatText, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *filePath).Msg("Failed to read chat export")
	}

	docs, err := store.NewSQLite(db)
	if err != nil {
		log.Fatal().Err(err).Str("path", db).Msg("Failed to open document store")
	}
	defer docs.Close()

	blobs, err := store.NewFileBlobStore(root)
	if err != nil {
		log.Fatal().Err(err).Str("root", root).Msg("Failed to open blob store")
	}

	var llm analysis.Completer = analysis.Disabled{}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		llm = analysis.NewOpenAIClient(key, cfg.Analysis.Model)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, importing with fallback index entries only")
	}

	pipe := pipeline.New(cfg, docs, blobs, indexing.NewIndexer(cfg, llm))

	result, err := pipe.ProcessUpload(context.Background(), *uid, string(chatText), *relID)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	log.Info().
		Str("relationship", result.RelationshipID).
		Int("messages", result.MessageCount).
		Int("chunks", result.ChunkCount).
		Strs("speakers", result.Speakers).
		Msg("Import complete")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

func loadConfig() *memconfig.Config {
	if *cfgPath != "" {
		cfg, err := memconfig.Load(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *cfgPath).Msg("Failed to load configuration")
		}
		return cfg
	}
	return memconfig.LoadOrDefault(".")
}
