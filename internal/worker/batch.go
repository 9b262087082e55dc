package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
)

// Analyzer scores one response and always yields a report
type Analyzer interface {
	AnalyzeOrConservative(prompt, response string, docs []model.Document) model.RiskReport
}

// BatchItem is one line of a batch input file
type BatchItem struct {
	Prompt      string           `json:"prompt"`
	LLMResponse string           `json:"llm_response"`
	RAGResults  []model.Document `json:"rag_results,omitempty"`
	Domain      string           `json:"domain,omitempty"` // Policy domain; the detected one when empty
}

// AnalysisJob analyzes one batch item
type AnalysisJob struct {
	Item     BatchItem
	Analyzer Analyzer
}

// Execute runs the analysis; cancellation yields a conservative report
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &AnalysisResult{Item: j.Item, Error: err}
	}
	return &AnalysisResult{
		Item:   j.Item,
		Report: j.Analyzer.AnalyzeOrConservative(j.Item.Prompt, j.Item.LLMResponse, j.Item.RAGResults),
	}
}

// AnalysisResult is the outcome of one batch item
type AnalysisResult struct {
	Item   BatchItem
	Report model.RiskReport
	Error  error
}

// GetError returns the job error
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many items concurrently, preserving input order
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{analyzer: analyzer, concurrency: concurrency}
}

// Process analyzes items; result i belongs to item i
func (b *BatchProcessor) Process(ctx context.Context, items []BatchItem) []*AnalysisResult {
	if len(items) == 0 {
		return []*AnalysisResult{}
	}

	jobs := make([]Job, len(items))
	for i, item := range items {
		jobs[i] = &AnalysisJob{Item: item, Analyzer: b.analyzer}
	}

	pool := NewPool(ctx, min(b.concurrency, len(items)))
	pool.Start()
	results := pool.Run(jobs)

	out := make([]*AnalysisResult, len(items))
	for i, r := range results {
		if ar, ok := r.(*AnalysisResult); ok {
			out[i] = ar
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("item %d was not processed", i)
		}
		out[i] = &AnalysisResult{Item: items[i], Error: err}
	}
	return out
}

// ProcessFile reads a JSON-lines batch file and analyzes it
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalysisResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	items, err := ReadItems(file)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return b.Process(ctx, items), nil
}

// ReadItems decodes one BatchItem per line, skipping blanks and # comments
func ReadItems(r io.Reader) ([]BatchItem, error) {
	var items []BatchItem

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var item BatchItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return items, nil
}
