package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/readyhire/internal/domain"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your plan, monthly usage and readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st := a.svc.Status()
			prefs := a.svc.Preferences(ctx)
			days := prefs.DaysUntilInterview(time.Now())

			if a.jsonOut {
				return a.printJSON(struct {
					Tier               domain.TierID    `json:"tier"`
					MonthKey           domain.MonthKey  `json:"monthKey"`
					Usage              domain.Usage     `json:"usage"`
					Questions          domain.Remaining `json:"questionsRemaining"`
					Cases              domain.Remaining `json:"casesRemaining"`
					ManagerSessions    domain.Remaining `json:"managerSessionsRemaining"`
					Readiness          int              `json:"readiness"`
					Streak             int              `json:"streak"`
					DaysUntilInterview int              `json:"daysUntilInterview"`
				}{st.Tier.ID, st.MonthKey, st.Usage, st.Questions, st.Cases, st.ManagerSessions,
					a.svc.Readiness(), a.svc.Streak(), days})
			}

			p := paletteFor(prefs.DarkMode)
			if u, ok := a.svc.User(ctx); ok {
				fmt.Fprintf(a.stdout, "%s %s\n", p.muted.Render("Signed in as"), u.DisplayName())
			}
			fmt.Fprintf(a.stdout, "%s %s plan, %s\n\n", p.heading.Render("ReadyHire"), st.Tier.Name, st.MonthKey)

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ALLOWANCE\tUSED\tLIMIT\tREMAINING")
			rows := []struct {
				kind      domain.QuotaType
				remaining domain.Remaining
			}{
				{domain.QuotaTypeQuestions, st.Questions},
				{domain.QuotaTypeCases, st.Cases},
				{domain.QuotaTypeManagerSessions, st.ManagerSessions},
			}
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", row.kind.Label(), st.Usage.Get(row.kind), st.Tier.Limit(row.kind), row.remaining)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "\nReadiness %s%%  Streak %d days\n", p.score(a.svc.Readiness()), a.svc.Streak())
			if days >= 0 {
				fmt.Fprintf(a.stdout, "Interview in %d days\n", days)
			}
			return nil
		},
	}
}

func newSignInCmd(a *app) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Set the email used to look up your subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("email") {
				email = stringOr(a.file.Profile.Email, email)
			}
			if !cmd.Flags().Changed("name") {
				name = stringOr(a.file.Profile.Name, name)
			}
			if !strings.Contains(email, "@") {
				return domain.NewValidationError("cli.signin", "email", "A valid email address is required")
			}

			u := a.svc.SignIn(cmd.Context(), email, name)
			if a.jsonOut {
				return a.printJSON(u)
			}
			fmt.Fprintf(a.stdout, "Signed in as %s\n", u.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (default from [profile])")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh your plan from the billing provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.svc.SyncSubscription(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(status)
			}

			fmt.Fprintf(a.stdout, "Plan: %s (%s)\n", domain.GetTier(status.Tier).Name, status.Status)
			if status.CurrentPeriodEnd != nil {
				fmt.Fprintf(a.stdout, "Current period ends %s\n", status.CurrentPeriodEnd.Format("2 January 2006"))
			}
			if status.CancelAtPeriodEnd {
				fmt.Fprintln(a.stdout, "Cancels at period end")
			}
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear your account, history and bank from this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.svc.Logout(cmd.Context())
			fmt.Fprintln(a.stdout, "Logged out. Local practice data cleared.")
			return nil
		},
	}
}

func newPrefsCmd(a *app) *cobra.Command {
	var (
		interview string
		company   string
		dark      bool
	)

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
		Long: `Show or change preferences.

--interview takes a date (YYYY-MM-DD) or "none" to clear it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if cmd.Flags().Changed("interview") {
				if strings.EqualFold(interview, "none") {
					a.svc.SetInterviewDate(ctx, nil)
				} else {
					d, err := time.Parse(time.DateOnly, interview)
					if err != nil {
						return domain.NewValidationError("cli.prefs", "interview", "Interview date must look like 2026-11-03")
					}
					a.svc.SetInterviewDate(ctx, &d)
				}
			}
			if cmd.Flags().Changed("company") {
				a.svc.SetTargetCompany(ctx, company)
			}
			if cmd.Flags().Changed("dark") {
				a.svc.SetDarkMode(ctx, dark)
			}

			prefs := a.svc.Preferences(ctx)
			if a.jsonOut {
				return a.printJSON(prefs)
			}

			date := "not set"
			if prefs.InterviewDate != nil {
				date = prefs.InterviewDate.Format(time.DateOnly)
			}
			target := prefs.TargetCompany
			if target == "" {
				target = "not set"
			}
			fmt.Fprintf(a.stdout, "Interview date:  %s\n", date)
			fmt.Fprintf(a.stdout, "Target company:  %s\n", target)
			fmt.Fprintf(a.stdout, "Dark mode:       %t\n", prefs.DarkMode)
			return nil
		},
	}

	cmd.Flags().StringVar(&interview, "interview", "", "interview date")
	cmd.Flags().StringVar(&company, "company", "", "target company")
	cmd.Flags().BoolVar(&dark, "dark", false, "use colours for a dark terminal")
	return cmd
}
