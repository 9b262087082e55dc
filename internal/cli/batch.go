package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/watchdog/internal/analyze"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/policy"
	"github.com/ppiankov/watchdog/internal/rules"
	"github.com/ppiankov/watchdog/internal/worker"
)

var (
	concurrency  int
	batchOutput  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Score many prompt/answer pairs from a file in parallel",
	Long: `Batch analyzes recorded LLM answers concurrently:
- Read one JSON object per line: {"prompt", "llm_response", "rag_results"?, "domain"?}
- Analyze lines in parallel with a configurable worker count
- Apply the policy thresholds to each report
- Write one JSON result per line, in input order

No LLM is called; the answers come from the file.

Example:
  watchdog batch answers.jsonl
  watchdog batch answers.jsonl --concurrency 8 --output results.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "-", "output file for JSON-lines results (- for stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// batchLine is one line of batch output
type batchLine struct {
	Line   int               `json:"line"`
	Prompt string            `json:"prompt"`
	Action model.Action      `json:"action,omitempty"`
	Domain model.Domain      `json:"domain,omitempty"`
	Report *model.RiskReport `json:"report,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("concurrency") && cfg.Concurrency.Workers > 0 {
		concurrency = cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Watchdog Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", batchOutput)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	set, err := rules.LoadOrDefault(cfg.Rules.Path)
	if err != nil {
		return err
	}
	engine := policy.NewEngine(policy.NewStore(cfg.Policy.Path), zap.NewNop())
	processor := worker.NewBatchProcessor(analyze.NewDefault(set), concurrency)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	out, closeOut, err := openOutput(batchOutput)
	if err != nil {
		return err
	}

	counts := map[model.Action]int{}
	failures := 0
	for i, result := range results {
		line := batchLine{Line: i + 1, Prompt: result.Item.Prompt}
		if result.Error != nil {
			failures++
			line.Error = result.Error.Error()
		} else {
			report := result.Report
			domain := model.ParseDomain(result.Item.Domain)
			if result.Item.Domain == "" && report.Metadata.Domain != "" {
				domain = report.Metadata.Domain
			}
			enf := engine.Enforce(result.Item.Prompt, result.Item.LLMResponse, report, domain)
			line.Action = enf.FinalAction
			line.Domain = domain
			line.Report = &report
			counts[enf.FinalAction]++
		}
		if err := writeJSONLine(out, line); err != nil {
			_ = closeOut()
			return err
		}
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  ALLOW:     %d\n", counts[model.ActionAllow])
	fmt.Fprintf(os.Stderr, "  WARN:      %d\n", counts[model.ActionWarn])
	fmt.Fprintf(os.Stderr, "  BLOCK:     %d\n", counts[model.ActionBlock])
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
