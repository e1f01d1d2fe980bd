package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nudge/internal/ipc"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a monitoring session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Started {
					fmt.Fprintln(stdout, resp.Message)
					return nil
				}
				fmt.Fprintf(stdout, "Monitoring session started (%s)\n", resp.SessionID)
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active monitoring session and export it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Stopped {
					fmt.Fprintln(stdout, resp.Message)
					return nil
				}
				fmt.Fprintf(stdout, "Monitoring session stopped (%s)\n", resp.SessionID)
				if resp.ExportPath != "" {
					fmt.Fprintf(stdout, "Session exported to %s\n", resp.ExportPath)
				}
				return nil
			})
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printStatus(cmd, resp)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}

func printStatus(cmd *cobra.Command, resp *ipc.StatusResponse) {
	rows := [][]string{
		{"Running", yesNo(resp.Running)},
		{"Session active", yesNo(resp.SessionActive)},
	}
	if resp.SessionActive {
		rows = append(rows,
			[]string{"Session ID", resp.SessionID},
			[]string{"Session uptime", time.Since(resp.SessionStart).Round(time.Second).String()},
		)
	}
	rows = append(rows,
		[]string{"Processing level", resp.ProcessingLevel},
		[]string{"Frame interval", strconv.Itoa(resp.FrameInterval)},
		[]string{"Camera present", yesNo(resp.CameraPresent)},
		[]string{"Attention score", fmt.Sprintf("%.0f%%", resp.LatestScore*100)},
		[]string{"Confidence", fmt.Sprintf("%.0f%%", resp.LatestConfidence*100)},
		[]string{"Remote available", yesNo(resp.RemoteAvailable)},
		[]string{"Remote calls today", strconv.Itoa(resp.RemoteDailyCount)},
		[]string{"Active patterns", strconv.Itoa(resp.ActivePatterns)},
		[]string{"Daemon PID", strconv.Itoa(resp.PID)},
	)

	stdout := cmd.OutOrStdout()
	fmt.Fprintln(stdout, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	for _, insight := range resp.LatestInsights {
		fmt.Fprintf(stdout, "  - %s\n", insight)
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the current or most recent session to JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Export()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s exported to %s\n", resp.SessionID, resp.Path)
				return nil
			})
		},
	}
}

func newPatternsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show mined behavioral patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Patterns()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printPatterns(cmd, resp)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output patterns as JSON")
	return cmd
}

func printPatterns(cmd *cobra.Command, resp *ipc.PatternsResponse) {
	stdout := cmd.OutOrStdout()
	if len(resp.Patterns) == 0 {
		fmt.Fprintln(stdout, "No behavioral patterns mined yet")
		return
	}

	rows := make([][]string, 0, len(resp.Patterns))
	for _, p := range resp.Patterns {
		context := p.ApplicationContext
		if p.TimeOfDay != nil {
			context = fmt.Sprintf("%02d:00", *p.TimeOfDay)
		}
		if p.DayOfWeek != nil {
			context = p.DayOfWeek.String()
		}
		rows = append(rows, []string{
			string(p.Type),
			context,
			strconv.Itoa(p.Frequency),
			string(p.Trend),
			fmt.Sprintf("%.0f%%", p.Confidence*100),
		})
	}
	fmt.Fprintln(stdout, renderTable(
		[]string{"Pattern", "Context", "Samples", "Trend", "Confidence"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	))

	for _, insight := range resp.Insights {
		fmt.Fprintf(stdout, "  - %s\n", insight)
	}
}
