package cmd

import (
	"fmt"
	"log"

	"trackvault/config"
	"trackvault/core/access"
	"trackvault/db"
	"trackvault/logger"
	"trackvault/model"
	"trackvault/repository"

	"github.com/spf13/cobra"
)

var (
	settingsClearPassword bool
	settingsEnableAPI     bool
)

// The settings command is the operator recovery path: it talks straight to
// the database, so it works even when the admin password is lost or the
// public API has been switched off by mistake.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or repair the stored admin settings",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}

		settingsRepo := repository.NewMySQLSettingsRepository()

		if settingsClearPassword {
			// Reverts admin auth to the static deployment secret.
			empty := ""
			if _, err := settingsRepo.UpsertSettings(model.SettingsUpdate{PasswordOverride: &empty}); err != nil {
				log.Fatalf("Failed to clear password override: %v", err)
			}
			fmt.Println("Password override cleared; the static ADMIN_PASSWORD is in effect again.")
		}

		if settingsEnableAPI {
			enabled := true
			if _, err := settingsRepo.UpsertSettings(model.SettingsUpdate{APIEnabled: &enabled}); err != nil {
				log.Fatalf("Failed to enable the public API: %v", err)
			}
			fmt.Println("Public API enabled.")
		}

		resolver := access.NewResolver(settingsRepo, cfg.AdminPassword)
		settings := resolver.CurrentSettings()
		secret := resolver.AdminSecret()

		fmt.Printf("Username:    %s\n", settings.Username)
		fmt.Printf("API enabled: %v\n", settings.APIEnabled)
		switch secret.Source {
		case access.SourceOverride:
			fmt.Println("Admin secret: stored password override")
		case access.SourceStatic:
			fmt.Println("Admin secret: static ADMIN_PASSWORD")
		default:
			fmt.Println("Admin secret: NOT CONFIGURED — no admin request can authenticate")
		}
	},
}

func init() {
	settingsCmd.Flags().BoolVar(&settingsClearPassword, "clear-password", false, "clear the stored password override")
	settingsCmd.Flags().BoolVar(&settingsEnableAPI, "enable-api", false, "switch the public API back on")
	rootCmd.AddCommand(settingsCmd)
}
