package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"issue-reviewer/internal/agent"
	"issue-reviewer/internal/chunker"
	"issue-reviewer/internal/config"
	"issue-reviewer/internal/domain"
	"issue-reviewer/internal/embedding"
	"issue-reviewer/internal/github"
	"issue-reviewer/internal/index"
	"issue-reviewer/internal/retriever"
	"issue-reviewer/internal/review"
	"issue-reviewer/internal/summarizer"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath     string
		root        string
		issueNumber int
		topK        int
		dryRun      bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/issue-reviewer/config.yaml if not provided)")
	flag.StringVar(&root, "root", "", "Repository root to index (defaults to $REPO_PATH or .)")
	flag.IntVar(&issueNumber, "issue", 0, "Issue number to review")
	flag.IntVar(&topK, "k", 0, "Results per search (overrides config default_k)")
	flag.BoolVar(&dryRun, "dry-run", false, "Print the review instead of posting it")
	flag.Parse()

	if issueNumber <= 0 {
		fmt.Println("Usage: reviewer [--config=config.yaml] [--root=path] [--dry-run] --issue=N")
		os.Exit(1)
	}
	if root == "" {
		root = os.Getenv("REPO_PATH")
	}
	if root == "" {
		root = "."
	}

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
	if topK > 0 {
		cfg.Search.DefaultK = topK
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "bagofwords", "":
		emb = embedding.NewBagOfWords()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			logger.Fatal("openai embedder config missing")
		}
		emb, err = embedding.NewOpenAI(embedding.OpenAIConfig{
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			logger.Fatal("openai embedder init failed", zap.Error(err))
		}
	default:
		logger.Fatal("unknown embedder", zap.String("type", cfg.Embedder.Type))
	}

	ch, err := chunker.NewLineChunker(cfg.Chunker.WindowSize, cfg.Chunker.Overlap)
	if err != nil {
		logger.Fatal("bad chunker config", zap.Error(err))
	}

	idx := index.New(ch, emb)
	ret := retriever.New(idx, cfg.Search.DefaultK, logger)

	total, err := ret.IndexDirectory(root, retriever.WalkOptions{
		Extensions:   cfg.Indexer.Extensions,
		ExcludedDirs: cfg.Indexer.ExcludedDirs,
		MaxFileSize:  cfg.Indexer.MaxFileSizeKB * 1024,
	})
	if err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}
	summary := summarizer.NewFrequency().Summarize(idx.Chunks(), cfg.Summary.MaxTerms)
	logger.Info("corpus ready", zap.Int("chunks", total), zap.String("summary", summary))

	gh, err := github.NewClient(github.Config{
		Owner:    cfg.GitHub.Owner,
		Repo:     cfg.GitHub.Repo,
		TokenEnv: cfg.GitHub.TokenEnv,
		BaseURL:  cfg.GitHub.BaseURL,
	}, logger)
	if err != nil {
		logger.Fatal("github client init failed", zap.Error(err))
	}

	apiKey := os.Getenv(cfg.Agent.APIKeyEnv)
	if apiKey == "" {
		logger.Fatal("missing chat API key", zap.String("env", cfg.Agent.APIKeyEnv))
	}
	chatCfg := openai.DefaultConfig(apiKey)
	if cfg.Agent.BaseURL != "" {
		chatCfg.BaseURL = cfg.Agent.BaseURL
	}
	tools := []agent.Tool{
		&agent.SearchCode{Retriever: ret, K: cfg.Search.DefaultK},
		&agent.ReadFile{Root: root},
	}
	reviewer := agent.NewReviewer(openai.NewClientWithConfig(chatCfg), cfg.Agent.Model, tools, cfg.Agent.MaxTurns, logger)

	ctx := context.Background()
	start := time.Now()
	issue, err := gh.FetchIssue(ctx, issueNumber)
	if err != nil {
		logger.Fatal("fetch issue failed", zap.Int("issue", issueNumber), zap.Error(err))
	}
	logger.Info("fetched issue", zap.Int("issue", issue.Number), zap.String("title", issue.Title))

	rev, err := reviewer.Review(ctx, fmt.Sprintf("Title: %s\n\n%s", issue.Title, issue.Body))
	if err != nil {
		logger.Fatal("review failed", zap.Int("issue", issueNumber), zap.Error(err))
	}
	logger.Info("review complete",
		zap.Int("issue", issueNumber),
		zap.Int("difficulty", rev.DifficultyScore),
		zap.String("level", rev.RecommendedLevel),
		zap.Duration("elapsed", time.Since(start)))

	comment := rev.Comment()
	if dryRun {
		fmt.Println(comment)
		fmt.Printf("label: %s\n", review.DifficultyLabel(rev.DifficultyScore))
		return
	}
	if err := gh.PostComment(ctx, issueNumber, comment); err != nil {
		logger.Fatal("post comment failed", zap.Error(err))
	}
	if err := gh.AddLabels(ctx, issueNumber, []string{review.DifficultyLabel(rev.DifficultyScore)}); err != nil {
		logger.Fatal("add labels failed", zap.Error(err))
	}
	fmt.Printf("Review posted to issue #%d (%.1fs)\n", issueNumber, time.Since(start).Seconds())
}
