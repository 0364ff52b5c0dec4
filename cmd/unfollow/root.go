package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jointwt/unfollow"
	"github.com/jointwt/unfollow/client"
	"github.com/jointwt/unfollow/internal"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var (
	configFile string
	configErr  error
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "unfollow [flags]",
	Version: unfollow.FullVersion(),
	Short:   "Track who follows and unfollows a Twitter account",
	Long: `unfollow keeps a snapshot of an account's followers, records who
disappears from it between refreshes and resolves user ids to names,
falling back to a local user store for suspended or deleted accounts.

Only one operation runs per invocation. A count for --recent must be
attached with an equals sign, as in --recent=25.

` + workflowHint,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return usageErrorf("unexpected argument %q", args[0])
		}
		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// set logging level
		if viper.GetBool("debug") {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := ParseInvocation(cmd.Flags())
		if err != nil {
			return err
		}
		if configErr != nil {
			return configErr
		}
		return run(inv)
	},
}

// Execute adds all child commands to the root command, runs it and exits
// with 1 on failure or 2 on a usage error.
func Execute() {
	err := RootCmd.Execute()
	switch code := exitCode(err); code {
	case exitOK:
	case exitUsage:
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", RootCmd.Name())
		os.Exit(code)
	default:
		log.WithError(err).Error("error executing command")
		os.Exit(code)
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrUsage):
		return exitUsage
	default:
		return exitFailure
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.SetOutput(os.Stderr)

	RootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%s", err)
	})

	RootCmd.PersistentFlags().StringVarP(
		&configFile, "config", "c", "",
		"config file (default $HOME/.unfollow.yaml)",
	)

	RootCmd.PersistentFlags().BoolP(
		"debug", "d", false,
		"Enable debug logging",
	)

	RootCmd.PersistentFlags().StringP(
		"username", "u", "",
		"account whose followers are tracked",
	)

	RootCmd.PersistentFlags().String(
		"db", internal.DefaultStore,
		"store uri to use (json://<dir> or bitcask://<dir>)",
	)

	RootCmd.PersistentFlags().String(
		"api-uri", client.DefaultURI,
		"Twitter API endpoint URI to connect to",
	)

	RootCmd.PersistentFlags().StringP(
		"output", "o", outputText,
		"output format (text, json or yaml)",
	)

	addOperationFlags(RootCmd.Flags())

	viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))
	viper.SetDefault("debug", false)

	viper.BindPFlag("username", RootCmd.PersistentFlags().Lookup("username"))

	viper.BindPFlag("store", RootCmd.PersistentFlags().Lookup("db"))
	viper.SetDefault("store", internal.DefaultStore)

	viper.BindPFlag("uri", RootCmd.PersistentFlags().Lookup("api-uri"))
	viper.SetDefault("uri", client.DefaultURI)

	viper.BindPFlag("output", RootCmd.PersistentFlags().Lookup("output"))
	viper.SetDefault("output", outputText)

	viper.SetDefault("token_uri", client.DefaultTokenURI)
	viper.SetDefault("max_store_requests", internal.DefaultMaxStoreRequests)
	viper.SetDefault("lookup_batch_size", internal.DefaultLookupBatchSize)
	viper.SetDefault("recent_count", internal.DefaultRecentCount)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configErr = nil

	if configFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(configFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			configErr = fmt.Errorf("error finding home directory: %w", err)
			return
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".unfollow")
		viper.SetConfigType("yaml")
	}

	// from the environment
	viper.SetEnvPrefix("UNFOLLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug("no config file found, using flags and environment")
			return
		}
		configErr = fmt.Errorf("error loading config file: %w", err)
		return
	}
	log.Debugf("Using config file: %s", viper.ConfigFileUsed())
}

func newClient() (*client.Client, error) {
	return client.NewClient(
		client.WithURI(viper.GetString("uri")),
		client.WithTokenURI(viper.GetString("token_uri")),
		client.WithConsumer(
			viper.GetString("consumer_key"),
			viper.GetString("consumer_secret"),
		),
		client.WithAccessToken(
			viper.GetString("access_token"),
			viper.GetString("access_token_secret"),
		),
		client.WithBearerToken(viper.GetString("bearer_token")),
	)
}

func newTracker(api internal.API) (*internal.Tracker, error) {
	return internal.NewTracker(api,
		internal.WithUsername(viper.GetString("username")),
		internal.WithStore(viper.GetString("store")),
		internal.WithMaxStoreRequests(viper.GetInt("max_store_requests")),
		internal.WithLookupBatchSize(viper.GetInt("lookup_batch_size")),
		internal.WithRecentCount(viper.GetInt("recent_count")),
	)
}

// closeStore closes c, logging any error. The close error is returned only
// when err is nil.
func closeStore(c io.Closer, err error) error {
	if cerr := c.Close(); cerr != nil {
		log.WithError(cerr).Error("error closing store")
		if err == nil {
			return fmt.Errorf("error closing store: %w", cerr)
		}
	}
	return err
}

func run(inv *Invocation) (err error) {
	if inv.Op == OpNone {
		fmt.Println(workflowHint)
		return nil
	}

	printer, err := NewPrinter(os.Stdout, viper.GetString("output"))
	if err != nil {
		return usageErrorf("%s", err)
	}

	// counting cached users is the one operation that never calls out
	var api internal.API
	if inv.Op != OpCacheCount {
		cli, err := newClient()
		if err != nil {
			return fmt.Errorf("error creating client: %w", err)
		}
		api = cli
	}

	tracker, err := newTracker(api)
	if err != nil {
		return fmt.Errorf("error creating tracker: %w", err)
	}
	defer func() { err = closeStore(tracker, err) }()

	log.Debugf("running %s", inv.Op)

	switch inv.Op {
	case OpRefresh:
		report, err := tracker.Refresh()
		if err != nil {
			return err
		}
		return printer.Refresh(report)
	case OpLookupHandle:
		res, err := tracker.LookupHandle(inv.Handle)
		if err != nil {
			return err
		}
		return printer.Results([]internal.Result{res})
	case OpLookupID:
		results, err := tracker.LookupIDs(inv.IDs)
		if perr := printer.Results(results); perr != nil && err == nil {
			err = perr
		}
		return err
	case OpCacheSync:
		report, err := tracker.SyncCache()
		if err != nil {
			return err
		}
		return printer.Sync(report)
	case OpCacheCount:
		n, err := tracker.CacheCount()
		if err != nil {
			return err
		}
		return printer.Count(n)
	case OpRecent:
		unfollowers, err := tracker.Recent(inv.Recent)
		if perr := printer.Unfollowers(unfollowers); perr != nil && err == nil {
			err = perr
		}
		return err
	default:
		return usageErrorf("unknown operation %s", inv.Op)
	}
}
