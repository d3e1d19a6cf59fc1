package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/funkysandman/geowise/internal/config"
	"github.com/funkysandman/geowise/internal/extractor"
	"github.com/funkysandman/geowise/internal/geocode"
	"github.com/funkysandman/geowise/internal/llm"
	"github.com/funkysandman/geowise/internal/matcher"
	"github.com/funkysandman/geowise/internal/pipeline"
	"github.com/funkysandman/geowise/internal/store"
)

var (
	extractProject string
	extractModel   string
	extractCountry string
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract and geocode locations from text, then store the records",
	Long: `Reads article text from the given file (or stdin), extracts location/event
mentions with the completion model, geocodes each one, asks the model to pick
the best candidate in context, and stores the geocoded records.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("model") {
			extractModel = cfg.Extract.Model
		}
		if !cmd.Flags().Changed("country") {
			extractCountry = cfg.Extract.CountryCode
		}

		text, err := readInput(args)
		if err != nil {
			return err
		}

		provider, err := config.ProviderEnv()
		if err != nil {
			return err
		}

		deployment, err := provider.Deployment(extractModel)
		if err != nil {
			return err
		}

		s, err := store.New(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		// One limiter across extraction and disambiguation: both hit the
		// same deployment.
		completer := llm.NewClient(provider, deployment, rate.NewLimiter(rate.Limit(1), 1))

		p := &pipeline.Pipeline{
			Extractor:   extractor.New(completer),
			Geocoder:    geocode.NewClient(provider.MapsKey),
			Selector:    matcher.New(completer),
			CountryCode: extractCountry,
			Progress: func(done, total int, name string) {
				fmt.Printf("  [%d/%d] %s\n", done, total, name)
			},
		}

		fmt.Printf("Extracting locations using %s (%d chars)...\n", extractModel, len(text))

		records, err := p.Run(ctx, text, extractProject)
		if err != nil {
			return fmt.Errorf("enrichment run failed: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No geocoded locations to store.")
			return nil
		}

		written, err := s.WriteRecords(records)
		if err != nil {
			return fmt.Errorf("storing records: %w", err)
		}

		fmt.Printf("Stored %d records under project %q (extraction %s)\n",
			len(written), extractProject, written[0].ExtractionID)
		return nil
	},
}

// readInput returns the article text from the file argument, or stdin when
// no file is given.
func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no input text: pass a file argument or pipe text to stdin")
	}
	return string(data), nil
}

func init() {
	extractCmd.Flags().StringVar(&extractProject, "project", "Default", "Project name to group records under")
	extractCmd.Flags().StringVar(&extractModel, "model", "chatgpt", "Model deployment to use (chatgpt or gpt4)")
	extractCmd.Flags().StringVar(&extractCountry, "country", "", "Restrict geocode searches to a country code")
	rootCmd.AddCommand(extractCmd)
}
