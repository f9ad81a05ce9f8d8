// bom-extract is the one-shot CLI: parse a markdown document, run an
// extraction pass, and print the reconciled facts. No database involved; the
// optional -out flag writes the BOM workbook next to the printout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/stroydoc/bom-tracker/internal/common"
	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/export"
	"github.com/stroydoc/bom-tracker/internal/llm"
	"github.com/stroydoc/bom-tracker/internal/llm/openai"
	"github.com/stroydoc/bom-tracker/internal/pipeline"
	"github.com/stroydoc/bom-tracker/internal/repository"
)

func main() {
	inPath := flag.String("in", "", "input markdown file (required)")
	outPath := flag.String("out", "", "optional XLSX output path")
	useLLM := flag.Bool("llm", true, "call the LLM for routed blocks (needs OPENAI_API_KEY)")
	configPath := flag.String("config", "", "optional YAML config file overlaying env vars")
	asJSON := flag.Bool("json", false, "print facts as JSON instead of a table")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: bom-extract -in document.md [-out bom.xlsx]")
		os.Exit(2)
	}
	text, err := os.ReadFile(*inPath)
	if err != nil {
		fatal("read input: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal("load config: %v", err)
	}

	var gateway *llm.Gateway
	if *useLLM && cfg.LLM.APIKey != "" {
		client := openai.NewClient(openai.Config{
			BaseURL:      cfg.LLM.BaseURL,
			APIKey:       cfg.LLM.APIKey,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			Timeout:      cfg.LLM.Timeout,
			RetryBackoff: cfg.LLM.RetryBackoff,
		}, logger)
		gateway = llm.NewGateway(client, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processor := pipeline.NewProcessor(gateway, logger)
	progress := func(completed, total int) {
		fmt.Fprintf(os.Stderr, "LLM: %d/%d blocks\n", completed, total)
	}
	res := processor.Run(ctx, string(text), progress)

	if *asJSON {
		printJSON(res)
	} else {
		printTable(res)
	}

	if *outPath != "" {
		if err := writeWorkbook(*outPath, res); err != nil {
			fatal("write workbook: %v", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", *outPath)
	}
}

func loadConfig(path string) (*common.Config, error) {
	if path == "" {
		return common.LoadConfig(), nil
	}
	return common.LoadConfigFile(path)
}

func printJSON(res *pipeline.Result) {
	type blockOut struct {
		UID   string                `json:"uid"`
		Page  int                   `json:"page"`
		Facts []entity.MaterialFact `json:"facts"`
	}
	out := struct {
		Title  string     `json:"title"`
		Blocks []blockOut `json:"blocks"`
	}{Title: res.Document.Title}
	for _, br := range res.Blocks {
		if len(br.Merged) == 0 {
			continue
		}
		out.Blocks = append(out.Blocks, blockOut{UID: br.Block.UID, Page: br.PageNumber, Facts: br.Merged})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func printTable(res *pipeline.Result) {
	fmt.Printf("Document: %s\n", res.Document.Title)
	fmt.Printf("Blocks: %d (errors: %d, to LLM: %d)\n\n", res.Document.TotalBlocks, res.Document.ErrorBlocks, res.BlocksToLLM)
	for _, br := range res.Blocks {
		if len(br.Merged) == 0 {
			continue
		}
		fmt.Printf("[%s] page %d\n", br.Block.UID, br.PageNumber)
		for _, f := range br.Merged {
			qty := "-"
			if f.Quantity != nil {
				qty = fmt.Sprintf("%g", *f.Quantity)
			}
			unit := ""
			if f.Unit != nil {
				unit = *f.Unit
			}
			fmt.Printf("  %-50s %10s %-8s conf=%.2f\n", f.RawName, qty, unit, f.Confidence)
		}
	}
	fmt.Printf("\nTotal: %d rule-based + %d LLM facts\n", res.RuleFacts, res.LLMFacts)
}

// writeWorkbook renders the pipeline output with an in-memory rollup, matching
// the aggregation the fact store performs for persisted documents.
func writeWorkbook(path string, res *pipeline.Result) error {
	var facts []export.FactRow
	type group struct {
		repository.RollupRow
		hasQty bool
		total  float64
	}
	groups := make(map[string]*group)
	var order []string

	for _, br := range res.Blocks {
		for _, f := range br.Merged {
			facts = append(facts, export.FactRow{Fact: f, BlockUID: br.Block.UID, Source: sourceOf(f, br)})
			if f.CanonicalKey == nil {
				continue
			}
			unit := ""
			if f.Unit != nil {
				unit = *f.Unit
			}
			gk := *f.CanonicalKey + "\x00" + unit
			g, ok := groups[gk]
			if !ok {
				g = &group{}
				g.CanonicalKey = *f.CanonicalKey
				if f.CanonicalName != nil {
					g.CanonicalName = *f.CanonicalName
				} else {
					g.CanonicalName = f.RawName
				}
				g.Unit = f.Unit
				groups[gk] = g
				order = append(order, gk)
			}
			g.Items++
			if f.Quantity != nil {
				g.hasQty = true
				g.total += *f.Quantity
			}
		}
	}
	sort.Strings(order)

	rollup := make([]repository.RollupRow, 0, len(order))
	for _, gk := range order {
		g := groups[gk]
		if g.hasQty {
			t := g.total
			g.TotalQuantity = &t
		}
		rollup = append(rollup, g.RollupRow)
	}

	data, err := export.WriteWorkbook(res.Document.Title, facts, rollup)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// sourceOf labels a merged fact by whether the rule pass produced it.
func sourceOf(f entity.MaterialFact, br pipeline.BlockResult) string {
	for _, rf := range br.RuleFacts {
		if rf.RawName == f.RawName {
			return "rule_based"
		}
	}
	return "llm"
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
