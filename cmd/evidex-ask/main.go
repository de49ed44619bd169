package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex"
	"github.com/kailas-cloud/evidex/internal/config"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
	logpkg "github.com/kailas-cloud/evidex/internal/logger"
	"github.com/kailas-cloud/evidex/internal/version"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "evidex-ask:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "evidex-ask",
		Usage:   "Ask questions about the corpus from the command line",
		Version: version.String(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (reads config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the full report as JSON",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall deadline for one question",
				Value: 3 * time.Minute,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Extract keywords with the chat model, retrieve evidence and answer",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:      "search",
				Usage:     "Retrieve and rerank evidence for an explicit keyword profile",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "keywords",
						Aliases:  []string{"k"},
						Usage:    "Weighted keywords, e.g. \"emancipation:8,union:4\"",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "years",
						Usage: "Comma-separated years the source must mention",
					},
					&cli.StringFlag{
						Name:  "sources",
						Usage: "Comma-separated source titles to restrict to",
					},
					&cli.StringFlag{
						Name:  "initial-answer",
						Usage: "Draft answer appended to the semantic query when HyDE is on",
					},
				},
			},
		},
	}
}

func askCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}

	client, logger, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := commandContext(c)
	defer cancel()

	answer, err := client.Ask(ctx, query)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, answer)
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\n\n--- Evidence ---\n%s\n", answer.Text, answer.Report.Evidence)
	return err
}

func searchCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	keywords, err := parseKeywords(c.String("keywords"))
	if err != nil {
		return err
	}
	prof := evidex.Profile{
		Keywords:      keywords,
		Years:         profile.SplitList(c.String("years")),
		Sources:       profile.SplitList(c.String("sources")),
		InitialAnswer: c.String("initial-answer"),
	}

	client, logger, err := openClient(c)
	if err != nil {
		return err
	}
	defer client.Close()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := commandContext(c)
	defer cancel()

	report, err := client.Search(ctx, query, prof)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, report)
	}
	return writeResults(c.App.Writer, report)
}

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", errors.New("a question is required")
	}
	return query, nil
}

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	return ctx, func() {
		cancel()
		stop()
	}
}

func openClient(c *cli.Context) (*evidex.Client, *zap.Logger, error) {
	env := c.String("env")
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, c.String("log-level"))
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	opts, err := clientOptions(&cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	client, err := evidex.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}

// clientOptions maps the service configuration onto library options.
func clientOptions(cfg *config.Config, logger *zap.Logger) ([]evidex.Option, error) {
	opts := []evidex.Option{
		evidex.WithLogger(logger),
		evidex.WithCorpusFiles(cfg.Corpus.DocumentsPath, cfg.Corpus.TermsPath),
		evidex.WithOpenAIEmbeddings(cfg.Embedding.APIKey, cfg.Embedding.BaseURL,
			cfg.Embedding.Model, cfg.Embedding.Dimensions),
		evidex.WithQueryInstruction(cfg.Embedding.QueryInstruction),
		evidex.WithRerankTopN(cfg.Rerank.TopN),
		evidex.WithSearchLimits(cfg.Search.KeywordTopN, cfg.Search.SemanticTopN, cfg.Search.EvidenceTopN),
		evidex.WithSnippetRadius(cfg.Search.SnippetRadius),
		evidex.WithSegments(cfg.Search.SegmentWords, cfg.Search.SegmentWorkers),
		evidex.WithHyDE(cfg.Search.HyDEEnabled()),
		evidex.WithRetry(cfg.Retry.MaxAttempts,
			time.Duration(cfg.Retry.BaseDelayMs)*time.Millisecond,
			time.Duration(cfg.Retry.MaxDelayMs)*time.Millisecond),
		evidex.WithTimeout(time.Duration(cfg.Timeouts.LLMSec) * time.Second),
	}

	switch cfg.Rerank.Provider {
	case "tei":
		opts = append(opts, evidex.WithTEIReranker(cfg.Rerank.BaseURL, cfg.Rerank.Model))
	default:
		opts = append(opts, evidex.WithCohereReranker(cfg.Rerank.APIKey, cfg.Rerank.Model))
	}

	if cfg.LLM.Enabled() {
		keywordPrompt, err := config.ReadPrompt(cfg.LLM.KeywordPromptPath, "")
		if err != nil {
			return nil, err
		}
		answerPrompt, err := config.ReadPrompt(cfg.LLM.AnswerPromptPath, "")
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			evidex.WithLanguageModel(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.KeywordModel, cfg.LLM.AnswerModel),
			evidex.WithPrompts(keywordPrompt, answerPrompt),
			evidex.WithTemperature(cfg.LLM.Temperature),
		)
	}

	if cfg.Cache.Driver == config.CacheRedis && len(cfg.Cache.Addrs) > 0 {
		opts = append(opts, evidex.WithRedisCache(cfg.Cache.Addrs[0], cfg.Cache.Password,
			time.Duration(cfg.Cache.TTLHours)*time.Hour))
	}
	return opts, nil
}

// parseKeywords reads "term:weight" pairs separated by commas. A bare term weighs 1.
func parseKeywords(s string) ([]evidex.Keyword, error) {
	var out []evidex.Keyword
	for _, part := range profile.SplitList(s) {
		term, weight, found := strings.Cut(part, ":")
		kw := evidex.Keyword{Term: strings.TrimSpace(term), Weight: 1}
		if found {
			w, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
			if err != nil {
				return nil, fmt.Errorf("keyword %q: invalid weight %q", kw.Term, weight)
			}
			kw.Weight = w
		}
		out = append(out, kw)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one keyword is required")
	}
	return out, nil
}

func writeResults(w io.Writer, report *evidex.Report) error {
	for _, r := range report.Results {
		if _, err := fmt.Fprintf(w, "%2d. [%s] %s (%s) %.3f\n    %s\n",
			r.Rank, r.Kind, r.TextID, r.Source, r.Score, r.Quote); err != nil {
			return err
		}
	}
	if len(report.Results) == 0 {
		_, err := fmt.Fprintln(w, "No matching documents.")
		return err
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
