package main

import (
	"context"
	"fmt"

	"github.com/isamuradli/remotedram/remotedram"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var putCmd = &cobra.Command{
	Use:     "put [key] [value]",
	Short:   "Writes a key/value pair to a remote_dram server",
	Args:    cobra.ExactArgs(2),
	PreRunE: bindRemoteFlags,
	RunE:    runPut,
}

func init() {
	putCmd.Flags().String("remote-addr", "127.0.0.1:8080", "Address of the remote_dram server (host:port)")
}

func bindRemoteFlags(cmd *cobra.Command, _ []string) error {
	return viper.BindPFlags(cmd.Flags())
}

func runPut(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	driver, err := remotedram.Open(context.Background(), remotedram.Config{
		Driver:     remotedram.DriverName,
		RemoteAddr: viper.GetString("remote-addr"),
	})
	if err != nil {
		return err
	}
	defer driver.Close()

	res, err := driver.Write(context.Background(), []byte(key), []byte(value))
	if err != nil {
		return err
	}

	fmt.Printf("wrote key=%s generation=%s at %s\n", key, res.GenerationStamp, res.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}
