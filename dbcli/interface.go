package dbcli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"btreestore/config"
	"btreestore/database"
	"btreestore/logger"
	"btreestore/server"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configPath string
	branching  uint16
	workers    uint8
	logLevel   string
	cryptoKey  string
	nonce      uint64
	format     string
	outPath    string
	addr       string
)

const (
	defaultCryptoKey = "0,0,0,0"
	defaultNonce     = 0
)

// Root command for the CLI
var RootCmd = &cobra.Command{
	Use:   "dbcli",
	Short: "CLI for the encrypted B-tree store",
	Long:  "A Command Line Interface (CLI) for running scripts against an encrypted in-memory B-tree store and serving it over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := settings(cmd)
		if err != nil {
			return err
		}
		logger.New(cfg.Log.Level)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %v\n", err)
		logger.OnExit()
		os.Exit(1)
	}
}

// settings loads --config and applies any explicitly set flags over it.
func settings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("branching") {
		cfg.Store.Branching = branching
	}
	if flags.Changed("workers") {
		cfg.Store.Workers = workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = strings.ToUpper(logLevel)
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runScript opens a store sized by cfg and feeds it the script named by
// path. "-" reads the script from the command's input.
func runScript(cmd *cobra.Command, path string, out io.Writer) (*database.Store, error) {
	cfg, err := settings(cmd)
	if err != nil {
		return nil, err
	}
	key, err := ParseCryptoKey(cryptoKey)
	if err != nil {
		return nil, err
	}

	var in io.Reader
	if path == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open script")
		}
		defer f.Close()
		in = f
	}

	store, err := database.NewStore(cfg.Store.Branching, cfg.Store.Workers)
	if err != nil {
		return nil, err
	}
	if err := NewDriver(store, key, nonce, out).Run(in); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a script against a fresh store",
	Long:  "Executes insert, delete, retrieve, decrypt, print, export and count lines from a script file, or from stdin when the script is \"-\".",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := runScript(cmd, args[0], cmd.OutOrStdout())
		if err != nil {
			return err
		}
		store.Close()
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <script>",
	Short: "Run a script and write the pre-order node snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := runScript(cmd, args[0], io.Discard)
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.Export()
		if err != nil {
			return err
		}
		data, err := encodeSnapshot(list, format)
		if err != nil {
			return err
		}

		if outPath == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return errors.Wrap(err, "failed to write export")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d nodes to %s\n", len(list), outPath)
		return nil
	},
}

func encodeSnapshot(list []database.NodeSnapshot, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode json")
		}
		return append(data, '\n'), nil
	case "cbor":
		data, err := cbor.Marshal(list)
		return data, errors.Wrap(err, "failed to encode cbor")
	default:
		return nil, errors.Errorf("unknown export format %q", format)
	}
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Replay the reference insert and delete sequences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Demo(cmd.OutOrStdout())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stores over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := settings(cmd)
		if err != nil {
			return err
		}
		db := database.NewDatabase()
		defer db.Close()
		return server.Server(db, cfg.Server.Addr)
	},
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	pf.Uint16VarP(&branching, "branching", "b", config.DefaultBranching, "B-tree branching factor")
	pf.Uint8VarP(&workers, "workers", "w", config.DefaultWorkers, "worker count recorded on new stores")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (DEBUG, INFO, WARN, ERROR, NOOP)")

	for _, cmd := range []*cobra.Command{runCmd, exportCmd} {
		cmd.Flags().StringVarP(&cryptoKey, "key", "k", defaultCryptoKey, "crypto key as four comma-separated words")
		cmd.Flags().Uint64VarP(&nonce, "nonce", "n", defaultNonce, "counter-mode nonce")
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json or cbor)")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(demoCmd)
	RootCmd.AddCommand(serveCmd)
}
