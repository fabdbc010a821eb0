package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/poiesic/docingest"
	"github.com/poiesic/docingest/config"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/ingestion"
	"github.com/poiesic/docingest/reembed"
	"github.com/poiesic/docingest/search"
	"github.com/urfave/cli/v2"
)

// openService builds the service for a command. Tests replace it.
var openService = func(ctx context.Context, cfg *config.Config) (*docingest.Service, error) {
	return docingest.New(ctx, cfg)
}

func withService(c *cli.Context, fn func(ctx context.Context, svc *docingest.Service) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := openService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()
	return fn(ctx, svc)
}

func registerCommand(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	out := c.App.Writer

	return withService(c, func(ctx context.Context, svc *docingest.Service) error {
		var refs []ingestion.FileRef
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			fileType := c.String("type")
			if fileType == "" {
				fileType = filepath.Ext(file)
			}
			doc, key, err := svc.Register(ctx, data, fileType)
			if err != nil {
				return fmt.Errorf("register %s: %w", file, err)
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", doc.ID.Hex(), key, file)
			refs = append(refs, ingestion.FileRef{Key: key})
		}

		if !c.Bool("process") {
			return nil
		}
		return runPipeline(ctx, svc, refs, 0, out)
	})
}

func processCommand(c *cli.Context) error {
	refs, err := collectRefs(c)
	if err != nil {
		return err
	}
	return withService(c, func(ctx context.Context, svc *docingest.Service) error {
		return runPipeline(ctx, svc, refs, c.Int("concurrency"), c.App.Writer)
	})
}

// collectRefs gathers object keys from the arguments and the --event file.
func collectRefs(c *cli.Context) ([]ingestion.FileRef, error) {
	var refs []ingestion.FileRef
	if event := c.String("event"); event != "" {
		var r io.Reader = os.Stdin
		if event != "-" {
			f, err := os.Open(event)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}
		parsed, err := ingestion.ParseS3Event(r)
		if err != nil {
			return nil, err
		}
		refs = append(refs, parsed...)
	}
	for _, key := range c.Args().Slice() {
		refs = append(refs, ingestion.FileRef{Key: key})
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no object keys given: pass keys as arguments or use --event")
	}
	if t := c.String("type"); t != "" {
		for i := range refs {
			refs[i].FileType = t
		}
	}
	return refs, nil
}

func runPipeline(ctx context.Context, svc *docingest.Service, refs []ingestion.FileRef, concurrency int, out io.Writer) error {
	var opts []ingestion.Option
	if concurrency > 0 {
		opts = append(opts, ingestion.WithConcurrency(concurrency))
	}
	pipeline, err := svc.NewPipeline(opts...)
	if err != nil {
		return err
	}

	results, err := pipeline.ProcessDocuments(ctx, refs)
	if err != nil {
		return err
	}

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(out, "%s\t%s\t%d\t%v\n", res.Key, res.Status, ingestion.StatusCode(res.Err), res.Err)
			errs = append(errs, fmt.Errorf("%s: %w", res.Key, res.Err))
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%d chunks\t%s\n", res.Key, res.Status, res.ChunkCount, res.Strategy)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d documents failed: %w", len(errs), len(results), errors.Join(errs...))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query argument is required")
	}
	query := c.Args().First()

	var opts []search.SearchOption
	if id := c.String("document"); id != "" {
		docID, err := core.ParseDocumentID(id)
		if err != nil {
			return err
		}
		opts = append(opts, search.WithDocument(docID))
	}

	return withService(c, func(ctx context.Context, svc *docingest.Service) error {
		searcher, err := svc.NewSearcher()
		if err != nil {
			return err
		}
		results, err := searcher.Search(ctx, query, c.Int("top-k"), opts...)
		if err != nil {
			return err
		}
		printResults(c.App.Writer, results)
		return nil
	})
}

func printResults(w io.Writer, results []*core.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "%d. [%.4f] %s#%d\n   %s\n",
			i+1, r.Score, r.Chunk.DocumentID.Hex(), r.Chunk.ChunkNumber, r.Chunk.Text)
	}
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		OnlyMissing:    c.Bool("only-missing"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	return withService(c, func(ctx context.Context, svc *docingest.Service) error {
		reembedder, err := svc.NewReembedder(reembedConfig, c.App.ErrWriter)
		if err != nil {
			return err
		}
		if _, err := reembedder.Run(ctx); err != nil {
			return fmt.Errorf("reembedding failed: %w", err)
		}
		return nil
	})
}
