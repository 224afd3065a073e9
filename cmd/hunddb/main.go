// Command hunddb is a minimal CLI front-end for the storage engine,
// driving put/get/del/range against a local data directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hunddb/internal/config"
	"hunddb/internal/engine"
)

var (
	dir    string
	memMax int64
	sync   bool
)

func main() {
	root := &cobra.Command{
		Use:           "hunddb",
		Short:         "A single-node LSM-tree key-value store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "./data", "root directory (WAL + SSTables live here)")
	root.PersistentFlags().Int64Var(&memMax, "mem", 67_108_864, "MemTable byte watermark")
	root.PersistentFlags().BoolVar(&sync, "sync", true, "fsync WAL on each write")

	root.AddCommand(putCmd(), getCmd(), delCmd(), rangeCmd())

	if err := root.Execute(); err != nil {
		fatal(err)
	}
}

func openEngine() (*engine.Engine, error) {
	cfg := &config.Config{}
	cfg.Storage.RootDir = dir
	cfg.Storage.MemTableMaxBytes = memMax
	cfg.Storage.SparseIndexStep = 100
	cfg.Storage.BloomFilterBits = 100_000
	cfg.Storage.BloomFilterHashes = 3
	cfg.Storage.SyncWrites = sync
	return engine.Open(cfg)
}

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Write a key/value pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()
			if err := e.Put([]byte(args[0]), []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()
			v, ok, err := e.Get([]byte(args[0]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("(not found)")
				os.Exit(1)
			}
			fmt.Println(string(v))
			return nil
		},
	}
}

func delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()
			if err := e.Delete([]byte(args[0])); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func rangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "range <start> <end>",
		Short: "Scan an inclusive key range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()
			items, err := e.ReadRange([]byte(args[0]), []byte(args[1]))
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Printf("%s=%s\n", item.Key, item.Value)
			}
			return nil
		},
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
