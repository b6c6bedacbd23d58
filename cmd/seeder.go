package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/importer"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/spf13/cobra"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
	seedAdminName     string
	seedAlways        bool
	seedPurge         bool
	seedSkipOpenFDA   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed an admin user and the openFDA item catalog",
	Long:  `Create the bootstrap admin account (when credentials are given) and import openFDA UDI records as catalog items.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		deps, err := initializeDependencies(ctx)
		if err != nil {
			log.Fatalf("failed to init dependencies: %v", err)
		}
		defer deps.Close()

		if err := seedAdmin(ctx, deps.Users); err != nil {
			log.Fatalf("failed to seed admin: %v", err)
		}

		if seedSkipOpenFDA {
			return
		}

		opts := seedOptions(deps.Config.Seed)
		if cmd.Flags().Changed("always") {
			opts.Always = seedAlways
		}
		if cmd.Flags().Changed("purge") {
			opts.PurgeNonFDA = seedPurge
		}

		res, err := importer.NewSeeder(deps.Importer).Run(ctx, opts)
		if err != nil {
			log.Fatalf("openFDA seed failed: %v", err)
		}
		if !res.Seeded {
			fmt.Printf("openFDA seed skipped (%s), existing=%d\n", res.Reason, res.ExistingCount)
			return
		}
		fmt.Printf("openFDA seed: search=%q purged=%d upserted=%d matched=%d modified=%d failed=%d\n",
			res.Search, res.Purged, res.Upserted, res.Matched, res.Modified, res.Failed)
	},
}

func seedAdmin(ctx context.Context, users *user.Service) error {
	if seedAdminEmail == "" || seedAdminPassword == "" {
		fmt.Println("no admin credentials given; skipping admin seed")
		return nil
	}

	u, err := users.CreateAdmin(ctx, user.CreateUserDTO{
		Name:     seedAdminName,
		Email:    seedAdminEmail,
		Password: seedAdminPassword,
	})
	if errors.Is(err, internal.ErrEmailTaken) {
		fmt.Println("admin user already exists:", user.NormalizeEmail(seedAdminEmail))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println("Seeded admin user:", u.Email)
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "email of the bootstrap admin")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the bootstrap admin")
	seedCmd.Flags().StringVar(&seedAdminName, "admin-name", os.Getenv("SEED_ADMIN_NAME"), "display name of the bootstrap admin")
	seedCmd.Flags().BoolVar(&seedAlways, "always", false, "import even when openFDA items already exist")
	seedCmd.Flags().BoolVar(&seedPurge, "purge", false, "delete non-openFDA items before importing")
	seedCmd.Flags().BoolVar(&seedSkipOpenFDA, "skip-openfda", false, "only seed the admin user")
}
