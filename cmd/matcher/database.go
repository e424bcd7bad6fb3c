package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/votermatch/internal/phonetics"
	"github.com/votermatch/internal/store"
	"github.com/votermatch/internal/voterfile"
)

// pingCmd checks connectivity and reports what the database can serve
func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			probe, err := store.Probe(cmd.Context(), conn.DB)
			if err != nil {
				return err
			}
			version, err := store.SchemaVersion(cmd.Context(), conn.DB)
			if err != nil {
				return err
			}

			fmt.Println("Database connection successful!")
			fmt.Printf("Schema version: %d\n", version)
			fmt.Printf("Voter records loaded: %d\n", probe.Voters)
			if probe.Fuzzy {
				fmt.Println("Fuzzy retrieval: available")
			} else {
				fmt.Println("Fuzzy retrieval: unavailable (pg_trgm not installed), matching will run degraded")
			}
			return nil
		},
	}
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			return store.Migrate(cmd.Context(), conn.DB)
		},
	}
}

// importCmd creates the import subcommand
func (a *app) importCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import reference data",
	}

	importCmd.AddCommand(&cobra.Command{
		Use:   "voters [filename]",
		Short: "Import a state voter file CSV",
		Long:  `Loads voter records, computing normalized and phonetic keys. Rows with an existing voter id replace the stored record.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voters, rowErrs, err := voterfile.ReadVotersFile(args[0])
			if err != nil {
				return err
			}

			conn, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			loaded, err := store.NewVoterLoader(conn.DB, phonetics.NewService()).Load(cmd.Context(), voters)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d voter records (%d rows skipped)\n", loaded, len(rowErrs))
			for _, re := range rowErrs {
				fmt.Printf("  %v\n", re)
			}
			return nil
		},
	})

	return importCmd
}
