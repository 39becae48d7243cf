package main

import (
	"fmt"
	"os"

	"github.com/example/vocabdeck/internal/files"
	"github.com/example/vocabdeck/internal/vocab"
	"github.com/example/vocabdeck/pkg/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shuffleOutput bool

// convertCmd converts a list between file formats
var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a card list between json, xlsx and csv",
	Long: `Reads a card list, validates it and writes it in the format implied by the
output file's extension. Cards keep their original order unless --shuffle is
given, in which case they are written in a fresh shuffled order.

Example:
  vocabdeck convert words.xlsx vocab.json --shuffle`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&shuffleOutput, "shuffle", false, "write the cards in shuffled order")
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	inFormat, err := files.FormatOf(in)
	if err != nil {
		return err
	}
	outFormat, err := files.FormatOf(out)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	entries, err := files.Decode(inFormat, data)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", in, err)
	}

	list := vocab.New()
	list.Import(entries)

	if shuffleOutput {
		entries = make([]models.Entry, 0, list.Len())
		for _, c := range list.Cards() {
			entries = append(entries, c.Entry)
		}
	} else {
		entries = list.Entries()
	}

	encoded, err := files.Encode(outFormat, entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	logger.Debug("Converted list", zap.String("in", in), zap.String("out", out), zap.Int("entries", len(entries)))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cards to %s\n", len(entries), out)
	return nil
}
