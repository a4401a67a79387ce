package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past analyses",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past analyses, newest first",
	RunE:  runHistoryList,
}

var historyRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Reopen a past analysis and export it",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRestore,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a past analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var (
	historyXLSX    string
	restoreFormats []string
)

func init() {
	historyListCmd.Flags().StringVar(&historyXLSX, "xlsx", "", "Also write the list to this spreadsheet file")
	historyRestoreCmd.Flags().StringSliceVarP(&restoreFormats, "format", "f", []string{"pdf"}, "Export formats: pdf, docx")

	historyCmd.AddCommand(historyListCmd, historyRestoreCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	items, err := app.History.List(ctx)
	if err != nil {
		return errors.New(domain.Message(err))
	}
	if err := printHistory(cmd.OutOrStdout(), items); err != nil {
		return err
	}

	if historyXLSX == "" {
		return nil
	}
	f, err := os.Create(historyXLSX)
	if err != nil {
		return fmt.Errorf("create %s: %w", historyXLSX, err)
	}
	if err := report.WriteHistoryXLSX(f, items); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", historyXLSX, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "spreadsheet written to %s\n", historyXLSX)
	return nil
}

func printHistory(out io.Writer, items []domain.HistorySnapshot) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "No saved analyses.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSCORE\tJOB TITLE\tEDITED")
	for _, item := range items {
		edited := "no"
		if item.FinalResumeHTML != "" {
			edited = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d (%s)\t%s\t%s\n",
			item.ID,
			item.CreatedAt.Local().Format("2006-01-02 15:04"),
			item.ATSScore,
			domain.ScoreLabel(item.ATSScore),
			item.JobTitle,
			edited,
		)
	}
	return tw.Flush()
}

func runHistoryRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formats, err := parseFormats(restoreFormats)
	if err != nil {
		return err
	}
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	snapshot, err := app.History.Find(ctx, args[0])
	if err != nil {
		return errors.New(domain.Message(err))
	}
	if err := app.Workflow.Restore(*snapshot); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored analysis %s, ATS score %d (%s)\n",
		snapshot.ID, snapshot.ATSScore, domain.ScoreLabel(snapshot.ATSScore))

	paths, err := exportAll(ctx, app.Workflow, formats)
	for _, format := range formats {
		if path, ok := paths[format]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s saved to %s\n", format.Label(), path)
		}
	}
	return err
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.History.Delete(ctx, args[0]); err != nil {
		if domain.IsKind(err, domain.ErrNotConfirmed) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		return errors.New(domain.Message(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
