package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/signedstore/internal/store"
)

// MigrateResult reports the schema state after migrating.
type MigrateResult struct {
	Database string `json:"database"`
	Version  uint   `json:"version"`
	Dirty    bool   `json:"dirty"`
}

func (r MigrateResult) String() string {
	return fmt.Sprintf("%s: schema version %d", r.Database, r.Version)
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Apply the embedded schema migrations to the database.

Every other command migrates on open as well; migrate only does that and
reports the resulting schema version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return formatter.Fail(err)
			}
			db, err := store.Open(cfg.Database)
			if err != nil {
				return formatter.Fail(err)
			}
			defer db.Close()

			version, dirty, err := db.SchemaVersion(cmd.Context())
			if err != nil {
				return formatter.Fail(err)
			}
			return formatter.Success(MigrateResult{Database: cfg.Database, Version: version, Dirty: dirty})
		},
	}
}
