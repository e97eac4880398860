package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const Version = "0.1.0"

// RootCmd is the base command when remotedram is called without a
// subcommand.
var RootCmd = &cobra.Command{
	Use:   "remotedram",
	Short: "remote DRAM key-value store driver",
	Long: fmt.Sprintf(`remotedram (v%s)

A key-value driver exposing one process's in-memory storage to a peer
over a TCP transport, addressed by the remote_dram driver identifier.`, Version),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("remotedram v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(putCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(versionCmd)
}

// initConfig loads .env files and wires environment-variable binding.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("remotedram")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
