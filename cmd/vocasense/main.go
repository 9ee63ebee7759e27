package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vocasense/vocasense/internal/profile"
	"github.com/vocasense/vocasense/internal/version"
	"github.com/vocasense/vocasense/server"
	"github.com/vocasense/vocasense/store"
	"github.com/vocasense/vocasense/store/db"
)

const greetingBanner = `vocasense %s, an adaptive vocabulary review server
`

var rootCmd = &cobra.Command{
	Use:   "vocasense",
	Short: "An adaptive vocabulary review server",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:            viper.GetString("mode"),
			Addr:            viper.GetString("addr"),
			Port:            viper.GetInt("port"),
			Data:            viper.GetString("data"),
			Driver:          viper.GetString("driver"),
			DSN:             viper.GetString("dsn"),
			InstanceURL:     viper.GetString("instance-url"),
			ReviewRateLimit: viper.GetFloat64("review-rate-limit"),
			ReviewRateBurst: viper.GetInt("review-rate-burst"),
			Version:         version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			return err
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			return err
		}
		defer func() {
			if err := storeInstance.Close(); err != nil {
				slog.Error("failed to close store", "error", err)
			}
		}()

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			return err
		}

		fmt.Printf(greetingBanner, instanceProfile.Version)
		return s.Start(ctx)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of the server, one of "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("instance-url", "", "public url of this instance")
	rootCmd.PersistentFlags().Float64("review-rate-limit", 10, "per-user request budget in requests per second, 0 disables")
	rootCmd.PersistentFlags().Int("review-rate-burst", 20, "burst size of the per-user limiter")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "instance-url", "review-rate-limit", "review-rate-burst"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("vocasense")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
