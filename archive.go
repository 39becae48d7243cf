package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/vocabdeck/internal/database"
	"github.com/example/vocabdeck/internal/files"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// archiveCmd groups the deck archive commands
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage saved decks",
	Long: `Offline access to the deck archive configured by archive.driver and
archive.dsn (or ARCHIVE_DRIVER and ARCHIVE_DSN).`,
}

var archiveSaveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Save a card file as a named deck",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveSave,
}

var archiveLoadCmd = &cobra.Command{
	Use:   "load <name> <file>",
	Short: "Write a saved deck to a card file",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveLoad,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved decks",
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved deck",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveDelete,
}

func init() {
	archiveCmd.AddCommand(archiveSaveCmd, archiveLoadCmd, archiveListCmd, archiveDeleteCmd)
}

var errArchiveDisabled = errors.New("deck archive is not configured (set archive.driver and archive.dsn)")

// openArchive connects to the configured archive. The caller closes the DB.
func openArchive() (*sqlx.DB, *database.DeckRepository, error) {
	if cfg.Archive.Driver == "" {
		return nil, nil, errArchiveDisabled
	}
	db, err := database.Connect(cfg.Archive.Driver, cfg.Archive.DSN)
	if err != nil {
		return nil, nil, err
	}
	return db, database.NewDeckRepository(db), nil
}

func runArchiveSave(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	format, err := files.FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	entries, err := files.Decode(format, data)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}

	db, repo, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.Save(cmd.Context(), name, entries); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d cards as %q\n", len(entries), name)
	return nil
}

func runArchiveLoad(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	format, err := files.FormatOf(path)
	if err != nil {
		return err
	}

	db, repo, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := repo.Load(cmd.Context(), name)
	if err != nil {
		return err
	}
	data, err := files.Encode(format, entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cards to %s\n", len(entries), path)
	return nil
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	db, repo, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	decks, err := repo.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(decks) == 0 {
		fmt.Fprintln(out, "No saved decks")
		return nil
	}
	for _, d := range decks {
		fmt.Fprintf(out, "%-20s %5d cards  %s\n", d.Name, d.EntryCount, d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runArchiveDelete(cmd *cobra.Command, args []string) error {
	db, repo, err := openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %q\n", args[0])
	return nil
}
