package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"alfredoptarigan/resume-ranker/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files or directories...]",
	Short: "Extract and store résumé PDFs",
	Long: `Ingest reads every .pdf file given directly or found under the given
directories, extracts the candidate fields and appends them to the store.
Files that fail are reported and skipped.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Int("concurrency", 0, "number of files processed in parallel (default WORKER_CONCURRENCY)")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files or directories")
	}

	paths, err := collectPDFs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .pdf files found")
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency == 0 {
		concurrency = cfg.Worker.Concurrency
	}

	container, err := newContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx := commandContext(cmd)
	worker := services.NewIngestWorker(container.IngestService, concurrency, len(paths), container.Logger)
	worker.Start(ctx)

	go func() {
		for _, path := range paths {
			worker.Enqueue(path)
		}
		worker.Stop()
	}()

	out := cmd.OutOrStdout()
	var failed int
	for result := range worker.Results() {
		if result.Err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", result.Path, result.Err)
			continue
		}
		fmt.Fprintf(out, "OK    %s -> %s <%s>\n", result.Path, result.Candidate.Name, result.Candidate.Email)
	}

	fmt.Fprintf(out, "\nIngested %d of %d file(s)\n", len(paths)-failed, len(paths))
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed ingestion", failed)
	}
	return nil
}

// collectPDFs expands directories into the .pdf files below them, sorted.
func collectPDFs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && services.AllowedFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}
