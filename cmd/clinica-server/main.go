package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/config"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/domain/identity"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/domain/scheduling"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/db"
	"github.com/Renan-Portela/Clinica-Medica-sub000/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "clinica-server",
		Short:        "Clinic appointment scheduling API",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(slotsCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if cfg.StoreDriver == config.DriverMySQL {
				gdb, err := db.OpenMySQL(cfg.MySQLDSN, cfg.DBMaxConns, cfg.DBMinConns)
				if err != nil {
					return err
				}
				if sqlDB, err := gdb.DB(); err == nil {
					defer sqlDB.Close()
				}
				models := append(identity.MySQLModels(), scheduling.MySQLModels()...)
				if err := db.AutoMigrate(gdb, models...); err != nil {
					return err
				}
				fmt.Fprintf(out, "MySQL schema synchronized (%d tables).\n", len(models))
				return nil
			}

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(out, "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("migrate status is only available for the %s driver", config.DriverPostgres)
			}
			ctx := cmd.Context()

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	return cmd
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func slotsCmd() *cobra.Command {
	var doctor, date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the free consultation times of a doctor on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			day, err := time.ParseInLocation("2006-01-02", date, loc)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			logger := newLogger(cfg, cmd.ErrOrStderr())
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			idSvc := identity.NewService(st.doctors, st.patients)
			svc := scheduling.NewService(st.appointments, idSvc, logger, scheduling.WithLocation(loc))
			slots, err := svc.AvailableSlotsByLicense(ctx, doctor, day)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatSlots(doctor, day, slots))
			return nil
		},
	}
	cmd.Flags().StringVar(&doctor, "doctor", "", "Doctor license (CRM)")
	cmd.Flags().StringVar(&date, "date", "", "Date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func formatSlots(doctor string, day time.Time, slots []string) string {
	if len(slots) == 0 {
		return fmt.Sprintf("%s %s: no free times", doctor, day.Format("02/01/2006"))
	}
	return fmt.Sprintf("%s %s: %s", doctor, day.Format("02/01/2006"), strings.Join(slots, " "))
}
