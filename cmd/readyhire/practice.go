package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/service"
)

// readText returns flag text, the contents of path ("-" is stdin), or all
// of stdin when both are empty.
func (a *app) readText(text, path string) (string, error) {
	if text != "" {
		return text, nil
	}
	var r io.Reader = a.stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func newAnswerCmd(a *app, kind domain.SessionType) *cobra.Command {
	var (
		answer  string
		file    string
		manager bool
	)

	use, short := "answer <n>", "Answer question n of your bank"
	if kind == domain.SessionTypeCase {
		use, short = "case <n>", "Answer case study n of your bank"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

The answer is read from --answer, --file or standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("%q is not a question number", args[0])
			}
			text, err := a.readText(answer, file)
			if err != nil {
				return err
			}

			rec, err := a.svc.SubmitAnswer(cmd.Context(), service.SubmitParams{
				Type:    kind,
				Index:   n - 1,
				Answer:  text,
				Manager: manager,
			})
			if err != nil {
				return err
			}
			return a.printRecord(cmd.Context(), rec)
		},
	}

	cmd.Flags().StringVarP(&answer, "answer", "a", "", "answer text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the answer from a file")
	cmd.Flags().BoolVar(&manager, "manager", false, "count as a manager-level session")
	return cmd
}

func (a *app) printRecord(ctx context.Context, rec *domain.SessionRecord) error {
	if a.jsonOut {
		return a.printJSON(rec)
	}
	p := a.palette(ctx)
	fb := rec.Feedback

	fmt.Fprintf(a.stdout, "%s  %s/100  %s\n", p.heading.Render(rec.Title), p.score(rec.Score), p.muted.Render("("+string(fb.Source)+")"))
	if fb.Summary != "" {
		fmt.Fprintf(a.stdout, "\n%s\n", fb.Summary)
	}
	printPoints(a.stdout, p, "Strengths", fb.Strengths)
	printPoints(a.stdout, p, "Improvements", fb.Improvements)
	if len(fb.Found) > 0 {
		fmt.Fprintf(a.stdout, "\n%s %s\n", p.good.Render("Covered:"), strings.Join(fb.Found, ", "))
	}
	if len(fb.Missing) > 0 {
		fmt.Fprintf(a.stdout, "%s %s\n", p.poor.Render("Missing:"), strings.Join(fb.Missing, ", "))
	}
	return nil
}

func printPoints(w io.Writer, p palette, heading string, points []domain.Point) {
	if len(points) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", p.heading.Render(heading))
	for _, pt := range points {
		if pt.Detail == "" {
			fmt.Fprintf(w, "  - %s\n", pt.Title)
			continue
		}
		fmt.Fprintf(w, "  - %s: %s\n", pt.Title, pt.Detail)
	}
}

// =============================================================================
// Drill
// =============================================================================

func newDrillCmd(a *app) *cobra.Command {
	var start int

	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Work through your question bank interactively",
		Long: `Work through your question bank interactively.

Type each answer and finish it with an empty line. The drill stops at the
end of the bank, at end of input, or when the monthly allowance runs out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go a.svc.RunRollover(ctx, a.cfg.RolloverInterval)

			bank, ok := a.svc.Bank(ctx)
			if !ok || len(bank.Questions) == 0 {
				return domain.Errorf(domain.ENOTFOUND, "cli.drill", "No question bank yet. Generate one first.")
			}
			p := a.palette(ctx)
			in := bufio.NewScanner(a.stdin)
			in.Buffer(make([]byte, 0, 64*1024), maxAnswerLine)

			for i := max(start-1, 0); i < len(bank.Questions); i++ {
				q := bank.Questions[i]
				fmt.Fprintf(a.stdout, "\n%s %s\n> ", p.muted.Render(fmt.Sprintf("[%d/%d]", i+1, len(bank.Questions))), p.heading.Render(q.Text))

				answer, more, err := readParagraph(in)
				if err != nil {
					return err
				}
				if strings.TrimSpace(answer) == "" {
					if !more {
						return nil
					}
					fmt.Fprintln(a.stdout, p.muted.Render("skipped"))
					continue
				}

				rec, err := a.svc.SubmitAnswer(ctx, service.SubmitParams{Type: domain.SessionTypeQuestion, Index: i, Answer: answer})
				var ve *domain.ValidationError
				switch {
				case errors.As(err, &ve):
					fmt.Fprintln(a.stdout, p.poor.Render(userMessage(err)))
					i--
					if !more {
						return nil
					}
					continue
				case err != nil:
					return err
				}
				if err := a.printRecord(ctx, rec); err != nil {
					return err
				}
				if !more {
					return nil
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&start, "from", 1, "question number to start at")
	return cmd
}

// maxAnswerLine caps one line of a typed or piped answer.
const maxAnswerLine = 1 << 20

// readParagraph reads lines until an empty line. more is false at end of input.
// A read failure, including a line longer than maxAnswerLine, is returned
// rather than treated as end of input.
func readParagraph(in *bufio.Scanner) (text string, more bool, err error) {
	var lines []string
	for in.Scan() {
		line := in.Text()
		if strings.TrimSpace(line) == "" {
			return strings.Join(lines, "\n"), true, nil
		}
		lines = append(lines, line)
	}
	switch scanErr := in.Err(); {
	case errors.Is(scanErr, bufio.ErrTooLong):
		return "", false, domain.Invalid("cli.drill", fmt.Sprintf("Answer line is too long (limit %d KiB).", maxAnswerLine/1024))
	case scanErr != nil:
		return "", false, fmt.Errorf("read answer: %w", scanErr)
	}
	return strings.Join(lines, "\n"), false, nil
}

// =============================================================================
// Generation
// =============================================================================

func newGenerateCmd(a *app) *cobra.Command {
	var (
		jdFile  string
		role    string
		company string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a question bank from your CV and target role",
		Long: `Generate a question bank from your CV and target role.

Uses the parsed CV (see "readyhire cv"), a job description file and the
target role. Role and company default to the [profile] section of the
config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var jd string
			if jdFile != "" {
				text, err := a.readText("", jdFile)
				if err != nil {
					return err
				}
				jd = text
			}
			if !cmd.Flags().Changed("role") {
				role = stringOr(a.file.Profile.TargetRole, role)
			}
			if !cmd.Flags().Changed("company") {
				company = stringOr(a.file.Profile.TargetCompany, company)
			}

			bank, err := a.svc.GenerateBank(cmd.Context(), service.BankRequest{
				JobDescription: jd,
				TargetRole:     role,
				TargetCompany:  company,
			})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(bank)
			}

			p := a.palette(cmd.Context())
			fmt.Fprintf(a.stdout, "%s %d questions, %d case studies\n", p.heading.Render("Generated"), len(bank.Questions), len(bank.Cases))
			for i, q := range bank.Questions {
				fmt.Fprintf(a.stdout, "  %2d. %s\n", i+1, q.Text)
			}
			for i, c := range bank.Cases {
				fmt.Fprintf(a.stdout, "  %s %s\n", p.muted.Render(fmt.Sprintf("case %d:", i+1)), c.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jdFile, "jd", "", "job description file (\"-\" for stdin)")
	cmd.Flags().StringVar(&role, "role", "", "target role")
	cmd.Flags().StringVar(&company, "company", "", "target company")
	return cmd
}

func newCVCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cv <file>",
		Short: "Parse your CV for personalised questions",
		Long: `Parse your CV for personalised questions.

Pass "-" to read the CV text from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readText("", args[0])
			if err != nil {
				return err
			}
			cv, err := a.svc.ParseCV(cmd.Context(), text)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(cv)
			}

			p := a.palette(cmd.Context())
			fmt.Fprintf(a.stdout, "%s %s\n", p.heading.Render("Parsed CV for"), cv.CandidateProfile.FullName)
			if role := cv.CurrentRole(); role != nil {
				fmt.Fprintf(a.stdout, "  Current role: %s at %s\n", role.JobTitle, role.CompanyName)
			}
			fmt.Fprintf(a.stdout, "  Roles: %d\n", len(cv.EmploymentHistory))
			return nil
		},
	}
}

func newProblemCmd(a *app) *cobra.Command {
	var (
		kind    string
		level   string
		company string
		style   string
		sector  string
	)

	cmd := &cobra.Command{
		Use:   "problem",
		Short: "Generate one custom question or case study",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := domain.SessionType(kind)
			if t != domain.SessionTypeQuestion && t != domain.SessionTypeCase {
				return fmt.Errorf("--type must be question or case, got %q", kind)
			}

			pr, err := a.svc.GenerateProblem(cmd.Context(), service.ProblemRequest{
				Type:          t,
				LevelName:     level,
				CompanyName:   company,
				CompanyStyle:  style,
				CompanySector: sector,
			})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(pr)
			}

			p := a.palette(cmd.Context())
			fmt.Fprintf(a.stdout, "%s\n\n%s\n\n%s %s\n", p.heading.Render(pr.Title), pr.Scenario, p.heading.Render("Task:"), pr.Task)
			if pr.Minutes > 0 {
				fmt.Fprintln(a.stdout, p.muted.Render(fmt.Sprintf("Suggested time: %d minutes", pr.Minutes)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", string(domain.SessionTypeQuestion), "question or case")
	cmd.Flags().StringVar(&level, "level", "", "seniority, e.g. Manager")
	cmd.Flags().StringVar(&company, "company", "", "company to set the problem at")
	cmd.Flags().StringVar(&style, "style", "", "company interview style")
	cmd.Flags().StringVar(&sector, "sector", "", "company sector")
	return cmd
}
