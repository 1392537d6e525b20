package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hbomb79/Sectrans/internal/http/registry"
	"github.com/spf13/cobra"
)

var carsCmd = &cobra.Command{
	Use:   "cars",
	Short: "List the cars registered for the configured company",
	RunE:  runCars,
}

func init() {
	rootCmd.AddCommand(carsCmd)
}

func runCars(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	client := registry.NewClient(config.API, config.APIToken)
	cars, err := client.ListCars(cmd.Context(), config.App.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to list cars: %w", err)
	}

	if len(cars) == 0 {
		fmt.Println("No cars registered")
		return nil
	}

	fmt.Printf("Cars for company %s (%d):\n\n", config.App.CompanyID, len(cars))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	fmt.Fprintln(w, "--\t----")
	for _, car := range cars {
		fmt.Fprintf(w, "%s\t%s\n", car.ID, car.Name)
	}
	return w.Flush()
}
