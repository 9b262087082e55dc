package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/watchdog/internal/analyze"
	"github.com/ppiankov/watchdog/internal/evidence"
	"github.com/ppiankov/watchdog/internal/logging"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/pipeline"
	"github.com/ppiankov/watchdog/internal/policy"
	"github.com/ppiankov/watchdog/internal/rules"
)

var (
	analyzeDomain   string
	analyzeResponse string
	analyzeEvidence []string
	analyzeTimeout  time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <prompt>",
	Short: "Score a prompt and its answer from the command line",
	Long: `Analyze runs one prompt through the gateway and prints the result as JSON.

Without --response the prompt is forwarded to the configured LLM (or the
mock with --mock) and the full decision is printed, as /api/analyze would
return it. With --response the given answer is scored offline and the
risk report plus the policy decision are printed; no LLM is called.

Use "-" as the prompt to read it from stdin.

Example:
  watchdog analyze --mock "What are the side effects of ibuprofen?" --domain health
  watchdog analyze "Is it safe?" --response "It is 100% safe with zero side effects."
  watchdog analyze "Ibuprofen?" --response "Ibuprofen may cause stomach upset." --evidence docs/ibuprofen.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeDomain, "domain", "general", "policy domain (general, health, finance, legal)")
	analyzeCmd.Flags().StringVar(&analyzeResponse, "response", "", "score this answer instead of calling the LLM")
	analyzeCmd.Flags().StringSliceVar(&analyzeEvidence, "evidence", nil, "evidence files for offline scoring")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall timeout")
}

// offlineResult is printed for --response
type offlineResult struct {
	Report   model.RiskReport `json:"report"`
	Decision model.Decision   `json:"decision"`
	Output   string           `json:"user_output"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	domain := model.ParseDomain(analyzeDomain)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if !verbose {
		level = "error"
	}
	log, err := logging.New(level, "console")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cmd.Flags().Changed("response") {
		return analyzeOffline(cmd, cfg, log, prompt, domain)
	}

	// Keep analyze runs out of the server's audit log.
	cfg.Audit.Path = ""
	comps, err := pipeline.Build(cfg, log, nil)
	if err != nil {
		return err
	}
	defer func() { _ = comps.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	res, err := comps.Gateway.Analyze(ctx, prompt, domain)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res.Enforcement)
}

func analyzeOffline(cmd *cobra.Command, cfg *model.Config, log *zap.Logger, prompt string, domain model.Domain) error {
	set, err := rules.LoadOrDefault(cfg.Rules.Path)
	if err != nil {
		return err
	}

	var docs []model.Document
	for _, path := range analyzeEvidence {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read evidence: %w", err)
		}
		content := string(data)
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".html" || ext == ".htm" {
			title, text, err := evidence.VisibleText(content)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			content = strings.TrimSpace(title + "\n" + text)
		}
		docs = append(docs, model.Document{Content: content, Source: path})
	}

	report := analyze.NewDefault(set).AnalyzeOrConservative(prompt, analyzeResponse, docs)
	engine := policy.NewEngine(policy.NewStore(cfg.Policy.Path), log)
	enf := engine.Enforce(prompt, analyzeResponse, report, domain)

	return writeJSON(cmd.OutOrStdout(), offlineResult{
		Report:   report,
		Decision: enf.Decision,
		Output:   enf.Response,
	})
}

func readPrompt(arg string, stdin io.Reader) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
