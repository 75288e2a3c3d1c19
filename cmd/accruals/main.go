/*
main.go - Application entry point

PURPOSE:
  The accruals CLI. One binary with three commands:

  accruals build   Read the four source workbooks and write the report
  accruals serve   Start the HTTP upload service
  accruals version Print version information

COMMAND-LINE FLAGS:
  --config     YAML configuration file (optional, defaults apply)
  build:
    --lifecycle   Activity Lifecycle workbook path
    --tracker     GBD Payment Tracker workbook path
    --countries   Country Codes workbook path
    --activities  Activities Table workbook path
    --out         Output directory (overrides config)

GRACEFUL SHUTDOWN (serve):
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Batch build
  accruals build --lifecycle lifecycle.xlsx --tracker tracker.xlsx \
      --countries countries.xlsx --activities activities.xlsx

  # Upload service with a config file
  accruals serve --config ./config.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - pipeline: The build itself
  - config: Configuration file format
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/mdf-accruals/api"
	"github.com/warp/mdf-accruals/config"
	"github.com/warp/mdf-accruals/ingest"
	"github.com/warp/mdf-accruals/pipeline"
	"github.com/warp/mdf-accruals/store/sqlite"
)

// Version is set at build time using ldflags.
var Version = "dev"

var (
	cfgFile string

	lifecyclePath  string
	trackerPath    string
	countriesPath  string
	activitiesPath string
	outDir         string
)

var rootCmd = &cobra.Command{
	Use:   "accruals",
	Short: "MDF accruals report generator",
	Long: `Generates the partner-funding accruals report from the four source
reports (activity lifecycle, payment tracker, country reference, activity
reference), either as a one-shot batch build or as an HTTP upload service.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the accruals report from source workbooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if outDir != "" {
			cfg.Report.OutputDir = outDir
		}

		result, err := pipeline.Run(cfg, log, pipeline.Inputs{
			ingest.ReportActivityLifecycle: lifecyclePath,
			ingest.ReportPaymentTracker:    trackerPath,
			ingest.ReportCountryCodes:      countriesPath,
			ingest.ReportActivitiesTable:   activitiesPath,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d rows, %s)\n", result.OutputPath, result.OutputRows, result.Elapsed.Round(time.Millisecond))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP upload service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer store.Close()

		handler := api.NewHandler(store, cfg, log)
		server := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      api.NewRouter(handler),
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info().Int("port", cfg.Server.Port).Msg("server starting")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("server failed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info().Msg("server stopped")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("MDF Accruals")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Go Version: %s\n", runtime.Version())
	},
}

// loadConfig loads the configuration file and builds the logger it asks for.
func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, zerolog.Logger{}, err
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return config.Config{}, zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	return cfg, log, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the configuration file")

	buildCmd.Flags().StringVar(&lifecyclePath, "lifecycle", "", "Activity Lifecycle workbook")
	buildCmd.Flags().StringVar(&trackerPath, "tracker", "", "GBD Payment Tracker workbook")
	buildCmd.Flags().StringVar(&countriesPath, "countries", "", "Country Codes workbook")
	buildCmd.Flags().StringVar(&activitiesPath, "activities", "", "Activities Table workbook")
	buildCmd.Flags().StringVar(&outDir, "out", "", "Output directory (overrides config)")
	buildCmd.MarkFlagRequired("lifecycle")
	buildCmd.MarkFlagRequired("tracker")
	buildCmd.MarkFlagRequired("countries")
	buildCmd.MarkFlagRequired("activities")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
