package cmd

import (
	"github.com/aleph-zero/stacklab/server"
	"github.com/aleph-zero/stacklab/service/stacks"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run a stacklab server",
	Long:  "Run a stacklab server exposing stacks and the differential replay over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		config := server.NewConfig(
			server.WithAddress(viper.GetString("server.addr")),
			server.WithPort(viper.GetUint16("server.port")),
			server.WithStacksConfig(stacks.NewConfig(
				stacks.WithMaxCapacity(viper.GetInt("server.max-capacity")))))
		server.Bootstrap(config)
	},
}

const (
	apiListenAddr = "0.0.0.0"
	apiListenPort = 1234
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.PersistentFlags().String("server.addr", apiListenAddr, "Address to bind to")
	serverCmd.PersistentFlags().Uint16("server.port", apiListenPort, "Port to listen on")
	serverCmd.PersistentFlags().Int("server.max-capacity", stacks.DefaultMaxCapacity, "Largest capacity a client may request")

	viper.BindPFlag("server.addr", serverCmd.PersistentFlags().Lookup("server.addr"))
	viper.BindPFlag("server.port", serverCmd.PersistentFlags().Lookup("server.port"))
	viper.BindPFlag("server.max-capacity", serverCmd.PersistentFlags().Lookup("server.max-capacity"))
}
