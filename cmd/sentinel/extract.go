package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"PortfolioSentinel/internal/extraction"
	"PortfolioSentinel/internal/model"
)

var (
	extractFile   string
	extractDryRun bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <ticker>",
	Short: "Score research notes with Gemini and update the security's thesis",
	Long:  "Read research notes from --file (or stdin), extract a structured thesis with Gemini and write it onto the tracked security.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := readNotes(cmd.InOrStdin(), extractFile)
		if err != nil {
			return err
		}

		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ticker := args[0]
		if _, ok := a.book.Security(ticker); !ok && !extractDryRun {
			return fmt.Errorf("%s is not tracked, add it with `sentinel track` first", ticker)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		ex, err := extraction.NewGeminiExtractor(ctx, a.cfg.Gemini.APIKey, a.cfg.Gemini.Model, a.log)
		if err != nil {
			return err
		}
		ext, err := ex.Extract(ctx, ticker, notes)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if extractDryRun {
			return enc.Encode(ext)
		}
		if err := a.book.UpdateSecurity(ticker, func(sec *model.Security) { extraction.Apply(sec, ext) }); err != nil {
			return err
		}
		sec, _ := a.book.Security(ticker)
		return enc.Encode(sec)
	},
}

func readNotes(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no research notes given")
	}
	return string(data), nil
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "notes file, stdin when empty")
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "print the extraction without saving it")
	rootCmd.AddCommand(extractCmd)
}
