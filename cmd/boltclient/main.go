// Package main provides the boltclient CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orneryd/boltclient/pkg/boltclient"
	"github.com/orneryd/boltclient/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "boltclient",
		Short: "boltclient - Minimal Bolt protocol client for graph databases",
		Long: `boltclient is a minimal command-line client for Bolt-speaking graph
databases (Neo4j, NornicDB and compatible servers).

Features:
  • Parameterized Cypher queries over a single Bolt connection
  • Explicit transaction control (BEGIN/COMMIT/ROLLBACK)
  • Per-query execution statistics
  • Plain or TLS transport (bolt:// / bolt+s://)`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("boltclient v%s (%s)\n", version, commit)
		},
	})

	runCmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Execute a single query and print its rows",
		Long: `Execute a single query against a Bolt server and print the result.

Configuration is read from the environment (BOLTCLIENT_*, NEO4J_AUTH), then
from --config if given, then overridden by flags.`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}
	runCmd.Flags().String("config", "", "YAML config file")
	runCmd.Flags().String("host", "", "Server host, optionally with scheme (bolt+s:// enables TLS)")
	runCmd.Flags().Int("port", 0, "Bolt port (default 7687)")
	runCmd.Flags().String("user", "", "Username (enables basic auth)")
	runCmd.Flags().String("password", "", "Password")
	runCmd.Flags().String("timeout", "", "Connect timeout (Go duration or seconds)")
	runCmd.Flags().String("protocol", "", "Pin the Bolt protocol version, e.g. 5.4")
	runCmd.Flags().String("params", "", "Query parameters as a JSON object")
	runCmd.Flags().Bool("stats", false, "Print mutation counters after the query")
	runCmd.Flags().Bool("verbose", false, "Log query timing and statistics")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	params := map[string]any{}
	if raw, _ := cmd.Flags().GetString("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return fmt.Errorf("parsing --params: %w", err)
		}
	}

	client := boltclient.New(cfg)
	defer client.Close()

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		client.SetLogHook(func(query string, _ map[string]any, elapsed int64, stats boltclient.Statistics) {
			fmt.Fprintf(os.Stderr, "[boltclient] %s (%dms, %d rows)\n",
				query, elapsed, stats.Int("rows"))
		})
	}

	failed := false
	client.SetErrorHook(func(err error) {
		failed = true
		fmt.Fprintf(os.Stderr, "boltclient: %v\n", err)
	})

	rows := client.Query(args[0], params, nil)
	if failed {
		return fmt.Errorf("query did not complete")
	}

	printRows(rows)

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		printStats(client)
	}
	return nil
}

// loadConfig builds the effective configuration: environment, then optional
// file, then flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.LoadFromEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		password, _ := cmd.Flags().GetString("password")
		cfg.Auth = config.AuthConfig{Scheme: "basic", Principal: user, Credentials: password}
	}
	if timeout, _ := cmd.Flags().GetString("timeout"); timeout != "" {
		d, err := config.ParseTimeout(timeout)
		if err != nil {
			return nil, err
		}
		cfg.ConnectTimeout = d
	}
	if protocol, _ := cmd.Flags().GetString("protocol"); protocol != "" {
		cfg.Protocol = protocol
	}

	return cfg, nil
}

func printRows(rows []boltclient.Row) {
	for i, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
		}
		fmt.Printf("%d\t%s\n", i+1, strings.Join(parts, "\t"))
	}
	fmt.Printf("(%d rows)\n", len(rows))
}

func printStats(client *boltclient.Client) {
	counters := []string{
		"nodes-created", "nodes-deleted",
		"relationships-created", "relationships-deleted",
		"properties-set",
		"labels-added", "labels-removed",
		"indexes-added", "indexes-removed",
		"constraints-added", "constraints-removed",
	}
	for _, key := range counters {
		if n := client.Statistic(key); n != 0 {
			fmt.Printf("%s: %d\n", key, n)
		}
	}
}
