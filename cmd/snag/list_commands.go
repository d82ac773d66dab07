package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"snag/internal/ipc"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List download jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.List(statuses)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(stdout, "No jobs")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Added"},
					buildJobListRows(resp.Jobs, shouldColorize(stdout)),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show details for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolveJobID(client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.Describe(id)
				if err != nil {
					return err
				}
				printJobDetails(cmd, resp.Job)
				return nil
			})
		},
	}
}

func printJobDetails(cmd *cobra.Command, job ipc.Job) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	fmt.Fprintf(stdout, "ID:       %s\n", job.ID)
	fmt.Fprintf(stdout, "URL:      %s\n", job.URL)
	if strings.TrimSpace(job.Title) != "" {
		fmt.Fprintf(stdout, "Title:    %s\n", job.Title)
	}
	fmt.Fprintf(stdout, "Status:   %s\n", formatStatusLabel(job.Status, colorize))
	if job.FormatID != "" {
		fmt.Fprintf(stdout, "Format:   %s\n", job.FormatID)
	}
	if progress := formatProgress(job); progress != "" {
		fmt.Fprintf(stdout, "Progress: %s\n", strings.TrimSpace(progress))
	}
	if job.OutputPath != "" {
		fmt.Fprintf(stdout, "Output:   %s\n", job.OutputPath)
	}
	if job.ErrorMessage != "" {
		fmt.Fprintf(stdout, "Error:    %s\n", job.ErrorMessage)
	}
	fmt.Fprintf(stdout, "Added:    %s\n", formatDisplayTime(job.CreatedAt))
	fmt.Fprintf(stdout, "Updated:  %s\n", formatDisplayTime(job.UpdatedAt))

	if len(job.Formats) > 0 && job.Status == "ready" {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, renderTable(
			[]string{"Format", "Resolution", "Ext", "Size", "Bitrate"},
			buildFormatRows(job.Formats),
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
		))
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs (completed, failed, cancelled)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Clear(all)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", resp.Removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every job, cancelling active downloads")
	return cmd
}

func newConcurrencyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "concurrency <limit>",
		Short: "Set the maximum number of simultaneous downloads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := parsePositiveInt(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Concurrency(limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Concurrency set to %d\n", resp.Limit)
				return nil
			})
		},
	}
}

func parsePositiveInt(raw string) (int, error) {
	var value int
	if _, err := fmt.Sscanf(raw, "%d", &value); err != nil || value < 1 {
		return 0, fmt.Errorf("invalid limit %q: must be a positive integer", raw)
	}
	return value, nil
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Daemon:      running (pid %d)\n", resp.PID)
				fmt.Fprintf(stdout, "Downloads:   %d active, limit %d\n", resp.ActiveDownloads, resp.Concurrency)
				fmt.Fprintf(stdout, "Socket:      %s\n", resp.SocketPath)
				fmt.Fprintf(stdout, "Database:    %s\n", resp.JobDBPath)

				rows := buildStatusRows(resp.JobCounts)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "No jobs")
					return nil
				}
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
			if err != nil {
				fmt.Fprintln(stdout, "Daemon:      not running")
				fmt.Fprintf(stdout, "             (%v)\n", err)
			}
			return nil
		},
	}
}
