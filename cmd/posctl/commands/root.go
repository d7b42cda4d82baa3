package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"go-pos-ws/internal/config"
	"go-pos-ws/pkg/database"
)

var (
	// Global flags
	envFile  string
	dbURL    string
	dbDriver string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "posctl",
	Short: "Operator tool for the POS backend",
	Long: `posctl runs maintenance tasks against the POS database without going
through the HTTP API: schema migration, admin bootstrap and account recovery.

Connection settings come from the same environment variables as the server.
--db and --driver override them.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Database driver: postgres or sqlite (overrides DB_DRIVER)")
}

func loadConfig() (config.Config, error) {
	if dbURL != "" {
		os.Setenv("DATABASE_URL", dbURL)
	}
	if dbDriver != "" {
		os.Setenv("DB_DRIVER", dbDriver)
	}
	return config.Load(envFile)
}

func openDB() (*gorm.DB, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	db, err := database.ConnectDB(cfg.Database())
	if err != nil {
		return nil, cfg, err
	}
	return db, cfg, nil
}
