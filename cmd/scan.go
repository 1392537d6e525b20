package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/hbomb79/Sectrans/internal"
	"github.com/hbomb79/Sectrans/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	scanDryRun      bool
	scanParallelism int
	scanCars        []string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index every car directory and register its recordings",
	Long: `Fetch the company's cars from the registry, match them by name to the
car directories in the source path, then walk and register each car in turn.

Recordings which cannot be read are skipped and logged. Use --dry-run to
print each payload instead of uploading it.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanDryRun, "dry-run", "n", false, "Print payloads instead of uploading them")
	scanCmd.Flags().IntVarP(&scanParallelism, "parallelism", "p", 0, "Number of recordings processed at once (default from config)")
	scanCmd.Flags().StringSliceVar(&scanCars, "car", nil, "Only index the named car directories (repeatable)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	if scanParallelism > 0 {
		config.Ingest.IngestionParallelism = scanParallelism
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexer := internal.NewFromConfig(config).WithOptions(internal.Options{
		DryRun: scanDryRun,
		Output: cmd.OutOrStdout(),
		Cars:   scanCars,
	})

	report, err := indexer.Run(ctx)
	printReport(report)
	if err != nil {
		if ctx.Err() != nil {
			log.Emit(logger.STOP, "Scan interrupted\n")
			return nil
		}
		return err
	}

	if report.Failed() {
		log.Emit(logger.WARNING, "Scan finished with %d failed walks and %d failed uploads\n", report.WalksFailed, report.UploadsFailed)
	}

	return nil
}

func printReport(report internal.Report) {
	if len(report.Cars) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CAR\tREGISTRY ID\tRECORDS\tSKIPPED\tDEGRADED\tSTATUS")
	fmt.Fprintln(w, "---\t-----------\t-------\t-------\t--------\t------")
	for _, car := range report.Cars {
		status := "ok"
		if car.Err != nil {
			status = car.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", car.Name, car.RemoteID, car.Records, car.Skipped, car.Degraded, status)
	}
	w.Flush()
}
