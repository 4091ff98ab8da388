// Command careai answers questions about uploaded medical reports.
//
//	careai process report1.pdf report2.pdf   rebuild the index from a batch
//	careai ask "What medication is prescribed?"
//	careai                                   interactive ask loop
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/chunker"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/config"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/domain"
	embopenai "github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/embedding/openai"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/embedding/tfidf"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/extract"
	genopenai "github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/generation/openai"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/prompt"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/service"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/summarizer"
	"github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/tui"
	vecchromem "github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/vectorstore/chromem"
	vecfile "github.com/rajdip-i/CareAI-Medical-Report-Companion/internal/vectorstore/file"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var topK int
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config (optional; uses ./config.yaml or ~/.config/careai/config.yaml)")
	flag.IntVar(&topK, "k", 0, "Number of chunks to retrieve per question (default from config)")
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
	if topK > 0 {
		cfg.Retrieval.TopK = topK
	}

	args := flag.Args()
	mode := ""
	if len(args) > 0 {
		mode = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "process":
		if len(args) < 2 {
			fmt.Println("Usage: careai process report1.pdf [report2.pdf ...]")
			os.Exit(1)
		}
		runProcess(ctx, cfg, args[1:])
	case "ask":
		if len(args) < 2 {
			fmt.Println(`Usage: careai ask "your question"`)
			os.Exit(1)
		}
		runAsk(ctx, cfg, args[1])
	case "":
		runInteractive(cfg)
	default:
		fmt.Printf("unknown command %q; expected process, ask, or no command\n", mode)
		os.Exit(1)
	}
}

func runProcess(ctx context.Context, cfg *config.AppConfig, paths []string) {
	if err := os.MkdirAll(cfg.Index.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	ch, err := chunker.NewWindowChunker(cfg.Chunker.MaxSize, *cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("bad chunker settings: %v", err)
	}
	emb, err := buildEmbedder(cfg, false)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	p := service.NewPipeline(extract.NewRegistry(), ch, emb, buildStore(cfg),
		summarizer.NewFrequencySummarizer(), cfg.Summary.MaxSentences)

	report, err := p.Ingest(ctx, paths)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCorpus) {
			log.Fatalf("no usable text in the uploaded documents; nothing was indexed")
		}
		log.Fatalf("processing failed: %v", err)
	}

	fmt.Printf("Processed %d documents into %d chunks (dimension %d).\n",
		report.Documents, report.Chunks, report.Dimension)
	for _, skip := range report.Skipped {
		fmt.Printf("  skipped %s: %v\n", skip.Name, skip.Err)
	}
	if report.Summary != "" {
		fmt.Printf("\nCorpus overview: %s\n", report.Summary)
	}
	fmt.Println("\nYour records have been processed. Ask your questions with: careai ask")
}

func runAsk(ctx context.Context, cfg *config.AppConfig, question string) {
	engine, err := buildEngine(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	answer, err := engine.Answer(ctx, question, cfg.Retrieval.TopK)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			log.Fatalf("no processed documents found; run: careai process <files>")
		}
		log.Fatalf("query failed: %v", err)
	}
	fmt.Println(answer.Text)
}

func runInteractive(cfg *config.AppConfig) {
	engine, err := buildEngine(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if _, err := tea.NewProgram(tui.New(engine)).Run(); err != nil {
		log.Fatal(err)
	}
}

func buildEngine(cfg *config.AppConfig) (*service.Engine, error) {
	emb, err := buildEmbedder(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}
	gen, err := genopenai.NewGenerator(genopenai.Config{
		BaseURL:     cfg.Generation.BaseURL,
		APIKeyEnv:   cfg.Generation.APIKeyEnv,
		Model:       cfg.Generation.Model,
		Temperature: *cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("generator init failed: %w", err)
	}
	tmpl, err := loadTemplate(cfg)
	if err != nil {
		return nil, err
	}
	return service.NewEngine(buildStore(cfg), emb, gen, tmpl, cfg.Retrieval.TopK), nil
}

// buildEmbedder assembles the configured embedder. For TF-IDF the fitted
// model is loaded from disk when querying; ingestion fits a fresh one.
func buildEmbedder(cfg *config.AppConfig, forQuery bool) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb := tfidf.NewEmbedder(cfg.TFIDFStatePath())
		if forQuery {
			if err := emb.LoadState(); err != nil {
				return nil, fmt.Errorf("%w (%v)", domain.ErrIndexNotFound, err)
			}
		}
		return emb, nil
	case "openai":
		return embopenai.NewEmbedder(embopenai.Config{
			BaseURL:     cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv:   cfg.Embedder.OpenAI.APIKeyEnv,
			Model:       cfg.Embedder.OpenAI.Model,
			Timeout:     time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			Concurrency: cfg.Embedder.OpenAI.Concurrency,
		})
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}
}

func buildStore(cfg *config.AppConfig) domain.Store {
	switch cfg.Index.Backend {
	case "chromem":
		return vecchromem.New(cfg.Index.DataDir)
	default:
		return vecfile.New(cfg.IndexPath())
	}
}

func loadTemplate(cfg *config.AppConfig) (*prompt.Template, error) {
	if cfg.Prompt.TemplateFile == "" {
		return prompt.MustDefault(), nil
	}
	data, err := os.ReadFile(cfg.Prompt.TemplateFile)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	tmpl, err := prompt.New(string(data))
	if err != nil {
		return nil, fmt.Errorf("prompt template %s: %w", cfg.Prompt.TemplateFile, err)
	}
	return tmpl, nil
}
