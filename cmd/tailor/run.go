package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/core/usecase"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze a resume, apply keywords and export",
	Long:  "Runs the full tailoring workflow: analyze the resume against the job description, apply the selected missing keywords and export the edited document.",
	RunE:  runTailor,
}

var (
	runResume   string
	runJob      string
	runJobFile  string
	runKeywords []string
	runFormats  []string
	runNoApply  bool
)

func init() {
	runCmd.Flags().StringVarP(&runResume, "resume", "r", "", "Path to the resume (PDF or DOCX, required)")
	runCmd.Flags().StringVarP(&runJob, "job", "j", "", "Job description text")
	runCmd.Flags().StringVar(&runJobFile, "job-file", "", "Path to a file holding the job description")
	runCmd.Flags().StringSliceVarP(&runKeywords, "keywords", "k", nil, "Missing keywords to apply (default: all)")
	runCmd.Flags().StringSliceVarP(&runFormats, "format", "f", []string{"pdf"}, "Export formats: pdf, docx")
	runCmd.Flags().BoolVar(&runNoApply, "analyze-only", false, "Stop after the analysis")

	if err := runCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}

	rootCmd.AddCommand(runCmd)
}

func runTailor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	jobDescription, err := readJobDescription(runJob, runJobFile)
	if err != nil {
		return err
	}
	formats, err := parseFormats(runFormats)
	if err != nil {
		return err
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	wf := app.Workflow

	data, err := os.ReadFile(runResume)
	if err != nil {
		return fmt.Errorf("read resume %s: %w", runResume, err)
	}
	resume, err := app.Inspector.Inspect(filepath.Base(runResume), data)
	if err != nil {
		return errors.New(domain.Message(err))
	}
	if err := wf.SetResume(resume); err != nil {
		return err
	}
	if err := wf.SetJobDescription(jobDescription); err != nil {
		return err
	}

	if err := wf.Analyze(ctx); err != nil {
		return errors.New(domain.Message(err))
	}
	if err := wf.AwaitPersistence(ctx); err != nil {
		return err
	}
	analyzed, ok := wf.State().(domain.AnalyzedState)
	if !ok {
		return fmt.Errorf("unexpected workflow stage %s", wf.State().Stage())
	}
	printAnalysis(out, analyzed)

	if runNoApply {
		return nil
	}
	if len(runKeywords) > 0 {
		if err := selectKeywords(wf, runKeywords); err != nil {
			return err
		}
	}
	if err := wf.ApplyKeywords(ctx); err != nil {
		return errors.New(domain.Message(err))
	}
	if cov, err := wf.Coverage(); err == nil {
		fmt.Fprintf(out, "\nKeywords present in the tailored resume: %s\n", joinOrNone(cov.Present))
		if len(cov.Absent) > 0 {
			fmt.Fprintf(out, "Keywords not found after rewrite: %s\n", joinOrNone(cov.Absent))
		}
	}

	paths, err := exportAll(ctx, wf, formats)
	for _, format := range formats {
		if path, ok := paths[format]; ok {
			fmt.Fprintf(out, "%s saved to %s\n", format.Label(), path)
		}
	}
	return err
}

func readJobDescription(text, path string) (string, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read job description %s: %w", path, err)
		}
		text = string(raw)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("a job description is required (--job or --job-file)")
	}
	return text, nil
}

func parseFormats(raw []string) ([]domain.ExportFormat, error) {
	seen := make(map[domain.ExportFormat]bool, len(raw))
	formats := make([]domain.ExportFormat, 0, len(raw))
	for _, item := range raw {
		format, err := domain.ParseExportFormat(item)
		if err != nil {
			return nil, err
		}
		if seen[format] {
			continue
		}
		seen[format] = true
		formats = append(formats, format)
	}
	return formats, nil
}

// selectKeywords narrows the selection to the requested keywords. Requests
// for keywords the analysis did not report are an error.
func selectKeywords(wf *usecase.WorkflowController, keywords []string) error {
	analyzed, ok := wf.State().(domain.AnalyzedState)
	if !ok {
		return fmt.Errorf("keywords can only be chosen after analysis")
	}
	if err := wf.DeselectAllKeywords(); err != nil {
		return err
	}
	universe := analyzed.Selection.Universe()
	chosen := make(map[string]bool, len(keywords))
	for _, requested := range keywords {
		match := ""
		for _, candidate := range universe {
			if strings.EqualFold(candidate, strings.TrimSpace(requested)) {
				match = candidate
				break
			}
		}
		if match == "" {
			return fmt.Errorf("keyword %q is not among the missing keywords", requested)
		}
		if chosen[match] {
			continue
		}
		chosen[match] = true
		if err := wf.ToggleKeyword(match); err != nil {
			return err
		}
	}
	return nil
}

// exportAll runs one export per format concurrently. Each format fails or
// succeeds on its own.
func exportAll(ctx context.Context, wf *usecase.WorkflowController, formats []domain.ExportFormat) (map[domain.ExportFormat]string, error) {
	var (
		mu    sync.Mutex
		paths = make(map[domain.ExportFormat]string, len(formats))
		errs  []error
	)
	var g errgroup.Group
	for _, format := range formats {
		g.Go(func() error {
			path, err := wf.Export(ctx, format)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s export: %s", format.Label(), domain.Message(err)))
				return nil
			}
			paths[format] = path
			return nil
		})
	}
	_ = g.Wait()
	return paths, errors.Join(errs...)
}

func printAnalysis(out io.Writer, st domain.AnalyzedState) {
	r := st.Result
	fmt.Fprintf(out, "ATS score: %d (%s)\n", r.ATSScore, domain.ScoreLabel(r.ATSScore))
	if r.JobTitle != "" {
		fmt.Fprintf(out, "Job title: %s\n", r.JobTitle)
	}
	fmt.Fprintf(out, "Matched keywords: %s\n", joinOrNone(r.MatchedKeywords))
	fmt.Fprintf(out, "Missing keywords: %s\n", joinOrNone(r.MissingKeywords))
	if len(r.Suggestions) > 0 {
		fmt.Fprintln(out, "Suggestions:")
		for _, s := range r.Suggestions {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	if st.PersistenceWarning != "" {
		fmt.Fprintf(out, "\n%s\n", st.PersistenceWarning)
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
