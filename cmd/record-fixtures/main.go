package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/engine"
	"github.com/garyjia/content-validation/internal/config"
	"github.com/garyjia/content-validation/internal/container"
	"github.com/garyjia/content-validation/internal/infrastructure/persistence/sqlite"
)

// record-fixtures runs one validation against OpenAI and stores every
// provider response in the recordings database, so the server can later
// replay them in playback mode.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	contentFile := flag.String("content", "", "JSON file with the content to validate")
	dbPath := flag.String("db", "", "Recordings database (defaults to database.path)")
	contentType := flag.String("content-type", engine.ContentTypeProject, "Content type: project or chapter")
	validators := flag.String("validators", "", "Comma separated validator ids (default: all enabled)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *contentFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: record-fixtures --content <file.json> [--db <path>] [--content-type project|chapter] [--validators a,b]\n")
		os.Exit(1)
	}
	if *contentType != engine.ContentTypeProject && *contentType != engine.ContentTypeChapter {
		fmt.Fprintf(os.Stderr, "ERROR: unknown content type %q\n", *contentType)
		os.Exit(1)
	}

	content, err := loadContent(*contentFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load content: %v\n", err)
		os.Exit(1)
	}

	_ = gotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Provider.Mode = config.ProviderModeRecord
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	cfg.Metrics.Enabled = false
	cfg.Lark.AppID = ""

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	eng := c.Engine()
	if ids := splitIDs(*validators); len(ids) > 0 {
		eng.Config().EnabledValidators = ids
	}

	fmt.Println("=== Recording provider responses ===")
	fmt.Printf("  Content: %s (%s)\n", *contentFile, *contentType)
	fmt.Printf("  Database: %s\n", cfg.Database.Path)
	fmt.Println()

	var runErr error
	if *contentType == engine.ContentTypeChapter {
		_, runErr = eng.ValidateChapter(ctx, content, map[string]interface{}{})
	} else {
		_, runErr = eng.ValidateProject(ctx, content, "")
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Validation failed: %v\n", runErr)
		os.Exit(1)
	}

	count, err := sqlite.NewRecordingRepository(c.Providers().DB.DB, logger).Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to count recordings: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Recordings stored: %d\n", count)
}

func loadContent(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var content map[string]interface{}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("content must be a JSON object: %w", err)
	}
	return content, nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
