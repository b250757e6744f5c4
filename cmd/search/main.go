package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"issue-reviewer/internal/chunker"
	"issue-reviewer/internal/config"
	"issue-reviewer/internal/domain"
	"issue-reviewer/internal/embedding"
	"issue-reviewer/internal/index"
	"issue-reviewer/internal/retriever"
	"issue-reviewer/internal/summarizer"
	"issue-reviewer/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		root    string
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&root, "root", ".", "Directory to index and search")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The TUI owns the terminal, so logs go to a file instead of stderr.
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"search.log"}
	logger, err := logCfg.Build()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "bagofwords", "":
		emb = embedding.NewBagOfWords()
	default:
		log.Fatalf("embedder %q not supported in interactive mode", cfg.Embedder.Type)
	}

	ch, err := chunker.NewLineChunker(cfg.Chunker.WindowSize, cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("bad chunker config: %v", err)
	}

	idx := index.New(ch, emb)
	ret := retriever.New(idx, cfg.Search.DefaultK, logger)

	fmt.Printf("Indexing %s...\n", root)
	total, err := ret.IndexDirectory(root, retriever.WalkOptions{
		Extensions:   cfg.Indexer.Extensions,
		ExcludedDirs: cfg.Indexer.ExcludedDirs,
		MaxFileSize:  cfg.Indexer.MaxFileSizeKB * 1024,
	})
	if err != nil {
		log.Fatalf("indexing failed: %v", err)
	}
	if total == 0 {
		fmt.Println("Nothing to search: no indexable files found.")
		os.Exit(1)
	}
	summary := summarizer.NewFrequency().Summarize(idx.Chunks(), cfg.Summary.MaxTerms)
	logger.Info("corpus ready", zap.Int("chunks", total), zap.String("summary", summary))

	p := tea.NewProgram(tui.New(ret, summary), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}
