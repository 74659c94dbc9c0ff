package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/logger"
)

var matchCmd = &cobra.Command{
	Use:   "match <collection-id>",
	Short: "Find the images of a collection containing a face",
	Long: `Run a face search against a collection, exactly as the guest endpoint does.

The embedding file holds either a JSON array of numbers or an object of the
form {"descriptor": [...]}.

Example:
  snapx match 0b7e3a52-3f0c-4f43-9d0a-6a1f2f1b9c11 --embedding selfie.json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().String("embedding", "", "JSON file with the query face descriptor (required)")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

// readDescriptor loads a query descriptor from a JSON file.
func readDescriptor(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading embedding: %w", err)
	}
	data = bytes.TrimSpace(data)

	var descriptor []float64
	if len(data) > 0 && data[0] == '{' {
		var req struct {
			Descriptor []float64 `json:"descriptor"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		descriptor = req.Descriptor
	} else if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return descriptor, nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	path := mustGetString(cmd, "embedding")
	if path == "" {
		return errors.New("--embedding is required")
	}
	descriptor, err := readDescriptor(path)
	if err != nil {
		return err
	}

	cfg := config.Load()
	log, err := logger.New(config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	matches, err := b.service.FindMatches(ctx, args[0], descriptor)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		fmt.Println("No matching images")
		return nil
	}
	fmt.Printf("%d matching images (threshold %.2f):\n\n", len(matches), b.service.Config().Threshold)
	for i, m := range matches {
		fmt.Printf("%3d. %.4f  %s  %s\n", i+1, m.Distance, m.CreatedAt.Format("2006-01-02 15:04"), m.URL)
	}
	return nil
}
