package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ai-docqa-be/internal/bootstrap"
	"ai-docqa-be/internal/config"
	"ai-docqa-be/internal/dto"
	"ai-docqa-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	userFlag     = flag.String("user", "", "User ID owning the documents (random when empty)")
	fileFlag     = flag.String("file", "", "Text file to ingest before asking")
	providerFlag = flag.String("provider", "", "Embedding provider tag (default from config)")
	topKFlag     = flag.Int("top-k", 0, "Contexts to retrieve (default from config)")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	cfg := config.Load()
	cfg.RateLimit.Enabled = false

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, red("Failed to connect to database:"), err)
		os.Exit(1)
	}
	container, err := bootstrap.NewContainer(db, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, red("Failed to bootstrap:"), err)
		os.Exit(1)
	}
	defer container.Close()

	userId := uuid.New()
	if *userFlag != "" {
		if userId, err = uuid.Parse(*userFlag); err != nil {
			fmt.Fprintln(os.Stderr, red("Invalid -user:"), err)
			os.Exit(1)
		}
	}
	fmt.Println(boldGreen("Document Q&A"))
	fmt.Printf("User: %s  LLM: %s (%s)\n", boldCyan(userId.String()), cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	if *fileFlag != "" {
		if err := ingest(ctx, container, userId, *fileFlag, *providerFlag); err != nil {
			fmt.Fprintln(os.Stderr, red("Ingestion failed:"), err)
			os.Exit(1)
		}
		fmt.Println(yellow("Ingested " + *fileFlag))
	}

	fmt.Println("Type a question and press Enter. Type 'exit' to quit.")
	fmt.Println()

	var sessionId *uuid.UUID
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") {
			break
		}

		res, err := container.ChatService.Ask(ctx, userId, &dto.AskRequest{
			ChatSessionId: sessionId,
			Question:      question,
			Provider:      *providerFlag,
			TopK:          *topKFlag,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, red("Error:"), err)
			continue
		}
		sessionId = &res.ChatSessionId

		fmt.Println(boldCyan("Assistant: ") + res.RenderedAnswer)
		for i, s := range res.Sources {
			fmt.Printf("  %s %s #%d (%.3f)\n", yellow(fmt.Sprintf("[%d]", i+1)), s.Filename, s.ChunkIndex, s.Score)
		}
		if ev := res.Evaluation; ev != nil && !ev.Skipped {
			fmt.Printf("  %s overall %.2f  faithfulness %.2f  relevance %.2f  completeness %.2f\n",
				yellow("eval"), ev.Overall, ev.Faithfulness.Score, ev.Relevance.Score, ev.Completeness.Score)
		}
		fmt.Printf("  %s %s\n\n", yellow("category"), res.Category)
	}
}

func ingest(ctx context.Context, c *bootstrap.Container, userId uuid.UUID, path, provider string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := c.DocumentService.Create(ctx, userId, &dto.CreateDocumentRequest{
		Filename: filepath.Base(path),
		Content:  string(content),
		Provider: provider,
	})
	if err != nil {
		return err
	}
	res, err := c.DocumentService.ProcessDocument(ctx, doc.Id)
	if err != nil {
		return err
	}
	fmt.Printf("%d chunks embedded with %s\n", len(res.Chunks), doc.EmbeddingProvider)
	return nil
}
