package main

import (
	"context"
	"fmt"

	"github.com/isamuradli/remotedram/remotedram"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var getCmd = &cobra.Command{
	Use:     "get [key]",
	Short:   "Reads a key from a remote_dram server",
	Args:    cobra.ExactArgs(1),
	PreRunE: bindRemoteFlags,
	RunE:    runGet,
}

func init() {
	getCmd.Flags().String("remote-addr", "127.0.0.1:8080", "Address of the remote_dram server (host:port)")
}

func runGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	driver, err := remotedram.Open(context.Background(), remotedram.Config{
		Driver:     remotedram.DriverName,
		RemoteAddr: viper.GetString("remote-addr"),
	})
	if err != nil {
		return err
	}
	defer driver.Close()

	res, err := driver.Read(context.Background(), []byte(key))
	if err != nil {
		return err
	}

	if !res.Found {
		fmt.Printf("key=%s not found\n", key)
		return nil
	}
	fmt.Printf("key=%s value=%s generation=%s\n", key, res.Value, res.GenerationStamp)
	return nil
}
