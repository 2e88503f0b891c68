package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kasuboski/umaru/pkg/client"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var clientTimeout time.Duration

var errEmptyReply = errors.New("daemon closed the connection without replying")

// send runs a single command against the daemon and prints the reply as is
func send(fn func(c client.Client, ctx context.Context) (string, error)) {
	log := logger.Get()
	ctx := logger.WithCtx(context.Background(), log)

	c := client.New(viper.GetString("server.address"), clientTimeout)
	reply, err := fn(c, ctx)
	if err == nil && reply == "" {
		err = errEmptyReply
	}
	if err != nil {
		log.Fatalw("command failed", "error", err)
	}
	fmt.Fprint(os.Stdout, reply)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print the daemon's clocks, last refresh and activity",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		send(client.Client.Status)
	},
}

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "print the watchlist as the daemon reads it",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		send(client.Client.Watchlist)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <user> <secret>",
	Short: "store list service credentials on the daemon",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		send(func(c client.Client, ctx context.Context) (string, error) {
			return c.Login(ctx, args[0], args[1])
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "run a refresh cycle now and wait for it to finish",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		send(client.Client.Refresh)
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, watchlistCmd, loginCmd, refreshCmd} {
		c.Flags().DurationVar(&clientTimeout, "timeout", client.DefaultTimeout, "how long to wait for the daemon")
		rootCmd.AddCommand(c)
	}
}
