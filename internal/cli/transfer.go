package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/dukerupert/choremane/internal/actionlog"
	"github.com/dukerupert/choremane/internal/chore"
	"github.com/dukerupert/choremane/internal/config"
	"github.com/dukerupert/choremane/internal/database"
	"github.com/dukerupert/choremane/internal/export"
	"github.com/dukerupert/choremane/internal/store"
)

type ExportOptions struct {
	User   string
	Format string
	Output string
	Upload bool
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export chores and the action log",
		Long: `Export every chore visible to --user, archived ones included, together with
the log entries that user can see. Writes to stdout unless --output is given;
--upload stores the document in the configured archive bucket instead.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "email of the user to export as")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "json", "output format (json|yaml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Upload, "upload", false, "upload to the archive bucket")

	return cmd
}

func runExport(rootOpts *RootOptions, opts *ExportOptions, cmd *cobra.Command) error {
	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(rootOpts)
	if err != nil {
		return err
	}
	db, svc, err := openService(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := svc.Export(cmd.Context(), opts.User)
	if err != nil {
		return err
	}

	if opts.Upload {
		uploader := export.NewUploader(archiveConfig(cfg), logger.With("component", "export"))
		if uploader == nil {
			return fmt.Errorf("archive bucket is not configured")
		}
		archive, err := uploader.Upload(cmd.Context(), snap, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded s3://%s/%s (%d bytes)\n", archive.Bucket, archive.Key, archive.Size)
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.Output, err)
		}
		defer f.Close()
		w = f
	}
	return export.Encode(w, snap, format)
}

type ImportOptions struct {
	User string
}

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import chores and log entries from a JSON or YAML export",
		Long: `Import a document produced by export. Chores whose id already exists are
overwritten, others are added. Private chores become owned by --user.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "email of the importing user")

	return cmd
}

func runImport(rootOpts *RootOptions, opts *ImportOptions, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	req, err := export.DecodeImport(bytes.NewReader(data), export.FormatForPath(path))
	if err != nil {
		return err
	}

	cfg, logger, err := setup(rootOpts)
	if err != nil {
		return err
	}
	db, svc, err := openService(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := svc.Import(cmd.Context(), opts.User, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func openService(cfg *config.Config, logger *slog.Logger) (*sqlx.DB, *chore.Service, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	st := store.New(db)
	rec := actionlog.NewRecorder(logger.With("component", "actionlog"))
	return db, chore.NewService(st, rec, logger.With("component", "chore")), nil
}
