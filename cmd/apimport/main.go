package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"apsiteimport/internal/artifact"
	"apsiteimport/internal/config"
	"apsiteimport/internal/db"
	"apsiteimport/internal/domain"
	"apsiteimport/internal/mist"
	"apsiteimport/internal/pipeline"
	"apsiteimport/internal/runlog"
)

const maxIssueSummary = 50

var (
	configPath string
	verbose    bool
	workers    int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "apimport [file]",
	Short: "Assign access points from a spreadsheet to a site",
	Long: `apimport reads a CSV or XLSX file of access points, validates every row
against the org's device inventory, and - only when the whole file is
clean - assigns each device to a chosen site.

Validation is all-or-none: a single bad row blocks the entire batch and a
validation report is written next to the results directory instead.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return runImport(cmd.Context(), path)
	},
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the org's sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		client := mist.NewClient(cfg.Mist, logger)
		sites, err := client.ListSites(cmd.Context())
		if err != nil {
			return err
		}
		for i, site := range sites {
			fmt.Printf("%d. %s (%s)\n", i+1, site.Name, site.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "assignment worker pool size (0 uses the configured value)")
	rootCmd.AddCommand(sitesCmd)
}

func runImport(ctx context.Context, path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	stdin := bufio.NewScanner(os.Stdin)

	if path == "" {
		path = prompt(stdin, "Enter CSV or XLSX filename: ")
		if path == "" {
			return fmt.Errorf("no filename provided")
		}
	}

	client := mist.NewClient(cfg.Mist, logger)

	sites, err := client.ListSites(ctx)
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		return fmt.Errorf("the org has no sites")
	}
	site := chooseSite(stdin, sites)
	fmt.Printf("\nSelected site: %s\n", site.Name)

	poolSize := cfg.Workers
	if workers > 0 {
		poolSize = workers
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithWorkers(poolSize),
		pipeline.WithSheetName(cfg.SheetName),
	}
	if cfg.Database != nil {
		if err := db.Migrate(*cfg.Database); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		pool, err := db.NewPool(ctx, *cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		opts = append(opts, pipeline.WithRecorder(runlog.NewRepository(pool)))
	}

	service := pipeline.NewService(client, artifact.NewWriter(cfg.Results.Directory), opts...)

	result, err := service.Run(ctx, pipeline.Request{
		Path:     path,
		SiteID:   site.ID,
		SiteName: site.Name,
	})
	if err != nil {
		return err
	}

	if result.Status == domain.RunBlocked {
		printIssues(result)
		os.Exit(2)
	}

	fmt.Printf("\nCompleted. SUCCESS=%d FAILED=%d TOTAL=%d\n",
		result.Counts.Success, result.Counts.Failed, result.Counts.Total)
	fmt.Printf("Results written to: %s\n", result.ArtifactPath)
	return nil
}

func prompt(stdin *bufio.Scanner, message string) string {
	fmt.Print(message)
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}

func chooseSite(stdin *bufio.Scanner, sites []domain.Site) domain.Site {
	fmt.Println("\nAvailable Sites:")
	for i, site := range sites {
		fmt.Printf("%d. %s\n", i+1, site.Name)
	}

	for {
		raw := prompt(stdin, "Select target site number: ")
		index, err := strconv.Atoi(raw)
		if err != nil || index < 1 || index > len(sites) {
			fmt.Println("Invalid selection. Try again.")
			continue
		}
		return sites[index-1]
	}
}

func printIssues(result domain.RunResult) {
	fmt.Println("\nIMPORT BLOCKED - fix the file and re-run (all-or-none).")
	fmt.Printf("Validation report written to: %s\n", result.ArtifactPath)
	fmt.Println("\nProblems found:")
	for i, issue := range result.Issues {
		if i >= maxIssueSummary {
			fmt.Printf("  ... and %d more. See the report for full details.\n", len(result.Issues)-maxIssueSummary)
			break
		}
		fmt.Printf("  Row %d | %s | %q | %s\n", issue.Row, issue.Field, issue.Value, issue.Message)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
