package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/partsignal/content-audit/internal/app"
	"github.com/partsignal/content-audit/internal/audit"
)

// newRunCmd creates the 'run' subcommand, a one-shot pipeline execution
// from the terminal.
func newRunCmd() *cobra.Command {
	var (
		manufacturer string
		category     string
		partNumber   string
		channels     []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs one discovery-resolution-audit session end to end",
		Long: `Discovers candidates and channels for the manufacturer/category pair,
resolves product page URLs for the chosen part across five channels,
audits every page, and prints the scores and content gaps. When no part
or channels are given, the top candidate and the first five channels are
used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, manufacturer, category, partNumber, channels)
		},
	}
	cmd.Flags().StringVar(&manufacturer, "manufacturer", "", "manufacturer name (required)")
	cmd.Flags().StringVar(&category, "category", "", "product category (required)")
	cmd.Flags().StringVar(&partNumber, "part", "", "part number to audit (default: top candidate)")
	cmd.Flags().StringSliceVar(&channels, "channels", nil, "exactly five channel names (default: first five discovered)")
	_ = cmd.MarkFlagRequired("manufacturer")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func runSession(cmd *cobra.Command, manufacturer, category, partNumber string, channels []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx := cmd.Context()
	services, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}
	defer services.Close()
	orch := services.Orchestrator()

	view, err := orch.Discover(ctx, manufacturer, category)
	if err != nil {
		return err
	}
	cmd.Printf("session %s: %d candidates, %d channels\n", view.ID, len(view.Candidates), len(view.Channels))

	if partNumber == "" {
		partNumber = view.Candidates[0].PartNumber
	}
	if len(channels) == 0 {
		for _, ch := range view.Channels {
			if len(channels) == 5 {
				break
			}
			channels = append(channels, ch.Name)
		}
	}
	cmd.Printf("auditing %s across %v\n", partNumber, channels)

	if err := orch.StartResolution(ctx, view.ID, partNumber, channels); err != nil {
		return err
	}
	states, err := orch.ResolutionStates(view.ID)
	if err != nil {
		return err
	}
	for _, st := range states {
		cmd.Printf("  %-12s %-8s %s\n", st.SiteName, st.Status, st.URL)
	}

	if err := orch.RunAudits(ctx, view.ID); err != nil {
		return err
	}
	results, err := orch.Results(view.ID)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Blocked() {
			cmd.Printf("  %-12s blocked (%s)\n", r.SiteName, r.URL)
			continue
		}
		cmd.Printf("  %-12s score %d  %s\n", r.SiteName, *r.OverallScore, r.Summary)
	}

	gaps, err := orch.Gaps(view.ID)
	if err != nil {
		return err
	}
	if len(gaps) == 0 {
		cmd.Println("no content gaps")
		return nil
	}
	for field, records := range gaps {
		cmd.Printf("gap %s (%s):\n", field, audit.FieldLabel(field))
		for _, rec := range records {
			cmd.Printf("  %-12s %-6s %s\n", rec.Distributor, rec.Score, rec.Notes)
		}
	}

	logger.Info("session complete", zap.String("session", view.ID.String()))
	return nil
}
