package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "umaru",
	Short: "umaru keeps a watchlist of seasonal shows in sync with a catalog",
	Long: `umaru crawls the current season's catalog on a schedule, matches it against
a hand-edited watchlist and answers status queries over a line protocol.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().String("address", "", "command listener address (default :6969)")
	viper.BindPFlag("server.address", rootCmd.PersistentFlags().Lookup("address"))
}

const (
	defaultDataDir = "data"
)

func initConfig() {
	viper.SetConfigFile(cfgFile)

	viper.SetEnvPrefix("UMARU")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	viper.SetDefault("server.address", ":6969")
	viper.SetDefault("server.bufferSize", 2048)
	viper.SetDefault("server.readTimeout", 10*time.Second)
	viper.SetDefault("server.maxConnections", 16)
	viper.SetDefault("server.httpAddress", ":8080")

	viper.SetDefault("data.dir", defaultDataDir)
	viper.SetDefault("data.watchlist", defaultDataDir+"/watchlist.txt")
	viper.SetDefault("data.snapshot", defaultDataDir+"/data.json")
	viper.SetDefault("data.connectionLog", defaultDataDir+"/LogFile.txt")
	viper.SetDefault("data.credentials", defaultDataDir+"/credentials.toml")

	viper.SetDefault("scheduler.interval", 30*time.Second)
	viper.SetDefault("scheduler.heartbeat", time.Second)

	viper.SetDefault("reconcile.minScore", 0.0)

	viper.SetDefault("ledger.backend", "file")
	viper.SetDefault("ledger.filePath", defaultDataDir+"/last_down.json")

	viper.SetDefault("crawler.kind", "exec")
	viper.SetDefault("crawler.command", "scrapy")
	viper.SetDefault("crawler.args", []string{"crawl", "anime", "-o", "{output}", "--nolog"})
	viper.SetDefault("crawler.workDir", "downloader/downloader")
	viper.SetDefault("crawler.requestsPerSecond", 1.0)
	viper.SetDefault("crawler.maxRetries", 3)

	viper.SetDefault("status.sourceTimezone", "America/Los_Angeles")
}
