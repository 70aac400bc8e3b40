package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choremane/internal/export"
)

type DecryptOptions struct {
	Output     string
	Passphrase string
}

func NewDecryptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecryptOptions{}

	cmd := &cobra.Command{
		Use:   "decrypt <file>",
		Short: "Decrypt a sealed export archive",
		Long: `Decrypt an archive uploaded with archive.passphrase set. The passphrase
defaults to the configured one. Output goes next to the input with the .enc
suffix removed unless --output is given; "-" writes to stdout.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecrypt(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the decrypted document here")
	cmd.Flags().StringVar(&opts.Passphrase, "passphrase", "", "passphrase (default: archive.passphrase)")

	return cmd
}

func runDecrypt(rootOpts *RootOptions, opts *DecryptOptions, path string, cmd *cobra.Command) error {
	passphrase := opts.Passphrase
	if passphrase == "" {
		cfg, _, err := setup(rootOpts)
		if err != nil {
			return err
		}
		passphrase = cfg.Archive.Passphrase
	}
	if passphrase == "" {
		return errors.New("no passphrase: pass --passphrase or set archive.passphrase")
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	plain, err := export.Open(sealed, passphrase)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == "" {
		out = strings.TrimSuffix(path, export.SealedExt)
		if out == path {
			out = path + ".out"
		}
	}
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(plain)
		return err
	}
	if err := os.WriteFile(out, plain, 0600); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	return nil
}
