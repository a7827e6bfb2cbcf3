package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaxflow/core/cmd/api/commands"
)

// @title RelaxFlow API
// @version 1.0
// @description Admin back end for the RelaxFlow meditation platform: users, device owners, products, music meditations, daily plays and dashboard metrics.

// @contact.name RelaxFlow Support
// @contact.url https://github.com/relaxflow/core
// @contact.email support@relaxflow.dev

// @license.name MIT
// @license.url https://github.com/relaxflow/core/blob/main/LICENSE

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "relaxflow",
		Short:        "RelaxFlow API Server",
		Long:         `RelaxFlow serves the admin API for meditation content, device owners and products, and computes the dashboard metrics.`,
		SilenceUsage: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewDashboardCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
