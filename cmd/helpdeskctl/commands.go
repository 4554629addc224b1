package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fixit/helpdesk-service/internal/config"
	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/service"
)

type outputFlags struct {
	json bool
}

func (o *outputFlags) bind(flags *pflag.FlagSet) {
	flags.BoolVar(&o.json, "json", false, "output as JSON")
}

// emit writes v as indented JSON when --json is set and reports whether
// it did.
func (o *outputFlags) emit(w io.Writer, v any) (bool, error) {
	if !o.json {
		return false, nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

func newRootCommand(cfg *config.Config, open appOpener) *cobra.Command {
	var out outputFlags
	var current *app

	root := &cobra.Command{
		Use:          "helpdeskctl",
		Short:        "Operate the FixIt helpdesk store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if current == nil || current.close == nil {
				return nil
			}
			return current.close()
		},
	}
	out.bind(root.PersistentFlags())
	get := func() *app { return current }

	root.AddCommand(
		newSeedCommand(get),
		newUsersCommand(get, &out),
		newIncidentsCommand(get, &out),
		newReportCommand(get, &out),
	)
	return root
}

func newSeedCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin and technician accounts if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			added, err := get().identity.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d account(s)\n", added)
			return nil
		},
	}
}

func newUsersCommand(get func() *app, out *outputFlags) *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Inspect registered users"}

	var technicians bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			var (
				result []domain.User
				err    error
			)
			if technicians {
				result, err = a.identity.ListTechnicians(cmd.Context())
			} else {
				result, err = a.identity.ListUsers(cmd.Context())
			}
			if err != nil {
				return err
			}
			if done, err := out.emit(cmd.OutOrStdout(), result); done {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tDEPARTMENT")
			for _, u := range result {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.EffectiveRole(), u.Department)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&technicians, "technicians", false, "only list technicians")
	users.AddCommand(list)
	return users
}

func newIncidentsCommand(get func() *app, out *outputFlags) *cobra.Command {
	incidents := &cobra.Command{Use: "incidents", Short: "Inspect incidents"}

	var filter struct {
		query, status, priority, department string
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List incidents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := get().incidents.Search(cmd.Context(), service.IncidentFilter{
				Query:      filter.query,
				Status:     domain.IncidentStatus(filter.status),
				Priority:   domain.IncidentPriority(filter.priority),
				Department: filter.department,
			})
			if err != nil {
				return err
			}
			if done, err := out.emit(cmd.OutOrStdout(), result); done {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDEPARTMENT\tASSIGNEE\tTITLE")
			for _, inc := range result {
				assignee := "-"
				if inc.Assignee != nil {
					assignee = inc.Assignee.Name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", inc.ID, inc.Status, inc.Priority, inc.Department, assignee, inc.Title)
			}
			return tw.Flush()
		},
	}
	flags := list.Flags()
	flags.StringVarP(&filter.query, "query", "q", "", "match id, title, department or reporter name")
	flags.StringVar(&filter.status, "status", "", "open, in_progress, resolved or closed")
	flags.StringVar(&filter.priority, "priority", "", "low, medium, high or critical")
	flags.StringVar(&filter.department, "department", "", "department, case-insensitive")
	incidents.AddCommand(list)
	return incidents
}

func newReportCommand(get func() *app, out *outputFlags) *cobra.Command {
	var rangeName string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize incidents over a time range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := service.ParseReportRange(rangeName)
			if err != nil {
				return err
			}
			summary, err := get().reports.Summary(cmd.Context(), r, operator)
			if err != nil {
				return err
			}
			if done, err := out.emit(cmd.OutOrStdout(), summary); done {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "range: %s\ntotal: %d\nresolution rate: %d%%\n", summary.Range, summary.Total, summary.ResolutionRate)
			fmt.Fprintf(w, "priority: high %d, medium %d, low %d\n", summary.HighPriority, summary.MediumPriority, summary.LowPriority)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tCOUNT")
			for _, status := range domain.IncidentStatuses {
				fmt.Fprintf(tw, "%s\t%d\n", status, summary.ByStatus[status])
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if len(summary.TopDepartments) == 0 {
				return nil
			}
			tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DEPARTMENT\tCOUNT")
			for _, d := range summary.TopDepartments {
				fmt.Fprintf(tw, "%s\t%d\n", d.Department, d.Count)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&rangeName, "range", string(service.ReportRangeAll), "all, today, week, month or quarter")
	return cmd
}
