package main

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/readyhire/internal"
	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/report"
	"github.com/DukeRupert/readyhire/internal/storage"
)

// reportLinkTTL is how long an uploaded report link stays valid.
const reportLinkTTL = 7 * 24 * time.Hour

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions and weak areas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := a.svc.History()
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			weak := a.svc.WeakAreas()

			if a.jsonOut {
				return a.printJSON(struct {
					Sessions  []domain.SessionRecord `json:"sessions"`
					WeakAreas []domain.WeakArea      `json:"weakAreas"`
				}{entries, weak})
			}

			p := a.palette(cmd.Context())
			if len(entries) == 0 {
				fmt.Fprintln(a.stdout, "No sessions yet.")
				return nil
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTYPE\tSCORE\tTITLE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Date.Local().Format("02 Jan 15:04"), e.Type, p.score(e.Score), e.Title)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(weak) > 0 {
				fmt.Fprintf(a.stdout, "\n%s\n", p.heading.Render("Weak areas"))
				for _, w := range weak {
					fmt.Fprintf(a.stdout, "  %-30s missed %dx\n", w.Area, w.Count)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "sessions to show (0 for all)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		out    string
		format string
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a progress report",
		Long: `Write a progress report as HTML or PDF.

With --upload the report is stored in the configured object storage
(local directory or R2) and a link is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now := time.Now()

			f, err := report.ParseFormat(format)
			if err != nil {
				return domain.NewValidationError("cli.export", "format", "Format must be html or pdf")
			}

			var buf bytes.Buffer
			if err := a.svc.ExportReport(ctx, f, &buf); err != nil {
				return err
			}

			if upload {
				user, ok := a.svc.User(ctx)
				if !ok {
					return domain.Invalid("cli.export", "Sign in before uploading a report.")
				}
				objects, err := internal.NewObjectStorage(a.cfg, a.logger)
				if err != nil {
					return fmt.Errorf("report storage: %w", err)
				}
				key := storage.ReportKey(user.ID, now, string(f))
				if err := objects.Put(ctx, key, &buf, storage.PutOptions{ContentType: f.ContentType()}); err != nil {
					return fmt.Errorf("upload report: %w", err)
				}
				link, err := objects.URL(ctx, key, reportLinkTTL)
				if err != nil {
					return fmt.Errorf("report link: %w", err)
				}
				fmt.Fprintln(a.stdout, link)
				return nil
			}

			if out == "" {
				out = report.Filename(now, f)
			}
			if out == "-" {
				_, err := buf.WriteTo(a.stdout)
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(a.stdout, "Report written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (\"-\" for stdout)")
	cmd.Flags().StringVar(&format, "format", "html", "report format: html or pdf")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload to object storage and print a link")
	return cmd
}
