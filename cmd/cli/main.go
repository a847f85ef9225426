package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mkurata/teampulse/internal/aggregate"
	"github.com/mkurata/teampulse/internal/config"
	"github.com/mkurata/teampulse/internal/domain"
	"github.com/mkurata/teampulse/internal/fetch"
	"github.com/mkurata/teampulse/internal/report"
	"github.com/mkurata/teampulse/internal/service"
	"github.com/mkurata/teampulse/internal/storage"
	"github.com/mkurata/teampulse/internal/storage/postgres"
	"github.com/mkurata/teampulse/internal/storage/sqlite"
	"github.com/mkurata/teampulse/internal/window"
)

var (
	reportCfgFile string
	outputJSON    bool
	startDate     string
	endDate       string
	year          int
	quarter       int
	runID         string
	weekly        bool
)

var rootCmd = &cobra.Command{
	Use:   "teampulse",
	Short: "Team activity metrics tool",
	Long: `A CLI tool for collecting and reporting team activity metrics.

This tool collects tickets from an issue tracker and pull requests,
commits, and reviews from GitHub, then produces per-contributor and
per-team summaries with flow and delivery metrics.`,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect activity data",
	Long:  `Fetch tickets, pull requests, and commits for the selected window and store the raw records locally.`,
	RunE:  runCollect,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the team activity report",
	Long:  `Display per-contributor and per-team summaries computed from stored records.`,
	RunE:  runReport,
}

var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Show quarterly engineer performance",
	Long:  `Display the weekly engineer breakdown for a quarter with trend classification and coaching insights.`,
	RunE:  runPerformance,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List collection runs",
	RunE:  runRuns,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&reportCfgFile, "config", "teampulse.yaml", "report configuration file")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD, inclusive)")
	rootCmd.PersistentFlags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD, inclusive)")
	rootCmd.PersistentFlags().IntVar(&year, "year", 0, "report year")
	rootCmd.PersistentFlags().IntVar(&quarter, "quarter", 0, "report quarter (1-4)")
	rootCmd.PersistentFlags().StringVar(&runID, "run", "", "collection run to report on (default latest)")
	rootCmd.PersistentFlags().BoolVar(&weekly, "week", false, "report on one week: the trailing seven days, or the week containing --start")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(performanceCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

// buildService loads both config layers and opens storage
func buildService() (*service.Service, *config.Config, *config.ReportConfig, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	reportCfg, err := config.LoadReport(reportCfgFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return service.New(store, reportCfg), cfg, reportCfg, func() { store.Close() }, nil
}

// resolveWindow builds the report window from flags: weekly mode,
// explicit quarter, explicit dates, or the current quarter.
func resolveWindow() (domain.TimeWindow, error) {
	if weekly {
		if startDate != "" {
			return window.WeekContaining(startDate)
		}
		return window.CurrentWeek(time.Now()), nil
	}
	if quarter != 0 {
		y := year
		if y == 0 {
			y = time.Now().Year()
		}
		return window.FromQuarter(y, quarter)
	}
	if startDate != "" || endDate != "" {
		return window.FromDates(startDate, endDate)
	}
	return window.CurrentQuarter(time.Now()), nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	svc, cfg, reportCfg, closeStore, err := buildService()
	if err != nil {
		return err
	}
	defer closeStore()

	win, err := resolveWindow()
	if err != nil {
		return err
	}

	var github fetch.GitHubFetcher
	if len(reportCfg.Repositories) > 0 {
		if err := cfg.ValidateGitHub(); err != nil {
			return err
		}
		github = fetch.NewGitHubFetcher(cfg.GitHubToken)
	}

	var tickets fetch.TicketFetcher
	if len(reportCfg.JiraProjects) > 0 {
		if err := cfg.ValidateJira(); err != nil {
			return err
		}
		tickets = fetch.NewJiraFetcher(cfg.JiraServer, cfg.JiraEmail, cfg.JiraAPIToken)
	}

	fmt.Printf("Collecting activity for %s\n", win)

	ctx := context.Background()
	run, err := svc.Collect(ctx, github, tickets, win, func(repo string, progress float64) {
		fmt.Printf("\rProgress: %.1f%% (%s)", progress*100, repo)
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %s: %d tickets, %d pull requests, %d commits\n", run.ID, run.Tickets, run.PRs, run.Commits)
	fmt.Println("Data collection complete!")
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	svc, _, _, closeStore, err := buildService()
	if err != nil {
		return err
	}
	defer closeStore()

	win, err := resolveWindow()
	if err != nil {
		return err
	}

	summary, err := svc.Report(context.Background(), win, runID, time.Time{})
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	report.NewRenderer(os.Stdout).RenderSummary(summary)
	return nil
}

func runPerformance(cmd *cobra.Command, args []string) error {
	svc, _, reportCfg, closeStore, err := buildService()
	if err != nil {
		return err
	}
	defer closeStore()

	var series domain.WeeklySeries
	var engineers []*aggregate.EngineerWeekly
	if weekly || startDate != "" || endDate != "" {
		// Explicit window: Monday-aligned weeks covering it
		win, werr := resolveWindow()
		if werr != nil {
			return werr
		}
		series, engineers, err = svc.PerformanceRange(context.Background(), win, runID)
	} else {
		now := time.Now()
		y := year
		if y == 0 {
			y = now.Year()
		}
		q := quarter
		if q == 0 {
			q = (int(now.Month())-1)/3 + 1
		}
		series, engineers, err = svc.Performance(context.Background(), y, q, runID)
	}
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"weeks":     series,
			"engineers": engineers,
		})
	}

	report.NewRenderer(os.Stdout).RenderWeekly(series, engineers, reportCfg.CoachingConfig())
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	svc, _, _, closeStore, err := buildService()
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := svc.Runs(context.Background(), 20)
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(runs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Window", "Tickets", "PRs", "Commits", "Collected At"})
	for _, run := range runs {
		table.Append([]string{
			run.ID,
			fmt.Sprintf("%s to %s", run.WindowStart.Format("2006-01-02"), run.WindowEnd.Format("2006-01-02")),
			fmt.Sprintf("%d", run.Tickets),
			fmt.Sprintf("%d", run.PRs),
			fmt.Sprintf("%d", run.Commits),
			run.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	table.Render()

	return nil
}
