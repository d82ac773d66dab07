package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snag/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Queue a URL and fetch its formats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Add(args[0])
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Added job %s\n", resp.Job.ID)
				fmt.Fprintf(stdout, "Fetching formats; run `snag formats %s` once ready\n", shortID(resp.Job.ID))
				return nil
			})
		},
	}
}

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "playlist <url>",
		Short: "Expand a playlist URL into one job per entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.AddPlaylist(args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Playlist expansion started; run `snag list` to watch jobs appear")
				return nil
			})
		},
	}
}

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "formats <job-id>",
		Short: "Show selectable formats for a job",
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
				stdout := cmd.OutOrStdout()
				job := resp.Job
				fmt.Fprintf(stdout, "%s (%s)\n", jobTitle(job), formatStatusLabel(job.Status, shouldColorize(stdout)))
				if len(job.Formats) == 0 {
					fmt.Fprintln(stdout, "No formats available yet")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Format", "Resolution", "Ext", "Size", "Bitrate"},
					buildFormatRows(job.Formats),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start <job-id> <format-id>",
		Short: "Start downloading a ready job with the chosen format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolveJobID(client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.Start(id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Download queued for %s (format %s)\n",
					jobTitle(resp.Job), resp.Job.FormatID)
				return nil
			})
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolveJobID(client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.Cancel(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s is %s\n", shortID(resp.Job.ID), resp.Job.Status)
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <job-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a job from the collection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolveJobID(client, args[0])
				if err != nil {
					return err
				}
				if _, err := client.Remove(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", shortID(id))
				return nil
			})
		},
	}
}

// resolveJobID accepts either a full job UUID or a unique prefix of one.
func resolveJobID(client *ipc.Client, raw string) (string, error) {
	if len(raw) == 36 {
		return raw, nil
	}
	list, err := client.List(nil)
	if err != nil {
		return "", err
	}
	var match string
	for _, job := range list.Jobs {
		if len(job.ID) >= len(raw) && job.ID[:len(raw)] == raw {
			if match != "" {
				return "", fmt.Errorf("job id prefix %q is ambiguous", raw)
			}
			match = job.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no job matches id %q", raw)
	}
	return match, nil
}
