package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/seed"
	"github.com/editorial-cms/internal/service"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import posts from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(s *service.Services) error {
			report, err := s.Import.ImportFile(cmd.Context(), args[0], models.ImportSourceCLI)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		})
	},
}

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every post as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(s *service.Services) error {
			var w io.Writer = cmd.OutOrStdout()
			if exportOutput != "" && exportOutput != "-" {
				f, err := os.Create(exportOutput)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := s.Export.WriteCSV(cmd.Context(), w)
			if err != nil {
				return err
			}
			log.Info().Int("posts", n).Str("output", exportOutput).Msg("Export completed")
			return nil
		})
	},
}

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Import posts from a YAML seed file",
	Long:  "Imports the seed file when the store is empty. --force imports it regardless.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(s *service.Services) error {
			if !seedForce {
				report, err := seed.IfEmpty(cmd.Context(), args[0], s.Posts, s.Import, log)
				if err != nil {
					return err
				}
				if report == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "store is not empty, nothing seeded")
					return nil
				}
				return printReport(cmd.OutOrStdout(), report)
			}

			candidates, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			report, err := s.Import.ImportCandidates(cmd.Context(), candidates, models.ImportSourceSeed)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		})
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Upload a CSV snapshot to the configured bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(s *service.Services) error {
			result, err := s.Export.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to FILE instead of stdout")
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "import even when the store has posts")
}

func printReport(w io.Writer, report *models.ImportReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
