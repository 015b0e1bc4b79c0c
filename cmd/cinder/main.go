// Cinder node: proof-of-work consensus core with signed mining.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cinderchain/cinder/chain"
	"github.com/cinderchain/cinder/codec"
	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/log"
	"github.com/cinderchain/cinder/miner"
	"github.com/cinderchain/cinder/powhash"
	"github.com/cinderchain/cinder/types"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "cinder",
		Short: "Cinder proof-of-work node",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		dataPath   string
		logLevel   string
		logModules string
	)
	rootCmd.PersistentFlags().StringVar(&dataPath, "datadir", defaultDataDir(), "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logModules, "logmodules", "", "comma-separated modules to restrict trace/debug logging to (default: all)")

	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the mining key",
	}

	keyGenerateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new mining key and print its public identifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := types.GenerateMiningKey()
			if err != nil {
				return err
			}
			if err := key.Save(keystoreDir(dataPath)); err != nil {
				return err
			}
			fmt.Printf("Public key: %s\n", key.Public)
			return nil
		},
	}

	var seedHex string
	keyImportCmd := &cobra.Command{
		Use:   "import",
		Short: "Import a mining key from a 32-byte secret seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := types.MiningKeyFromSeed(common.FromHex(seedHex))
			if err != nil {
				return err
			}
			if err := key.Save(keystoreDir(dataPath)); err != nil {
				return err
			}
			fmt.Printf("Public key: %s\n", key.Public)
			return nil
		},
	}
	keyImportCmd.Flags().StringVar(&seedHex, "seed", "", "secret seed, hex encoded")
	keyImportCmd.MarkFlagRequired("seed")

	keyInspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the public identifier of the stored mining key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := types.LoadMiningKey(keystoreDir(dataPath))
			if err != nil {
				return err
			}
			fmt.Printf("Public key: %s\n", key.Public)
			return nil
		},
	}

	keyCmd.AddCommand(keyGenerateCmd, keyImportCmd, keyInspectCmd)

	var (
		authorHex string
		threads   int
	)
	mineCmd := &cobra.Command{
		Use:   "mine",
		Short: "Run as a miner",
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging(logLevel, logModules)
			return runMiner(dataPath, authorHex, threads)
		},
	}
	mineCmd.Flags().StringVar(&authorHex, "author", "", "author public key the produced blocks are tagged with")
	mineCmd.Flags().IntVar(&threads, "threads", runtime.NumCPU(), "parallel search goroutines")
	mineCmd.MarkFlagRequired("author")

	importBlocksCmd := &cobra.Command{
		Use:   "import-blocks <file>",
		Short: "Import wire-encoded headers from a file, verifying each seal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging(logLevel, logModules)
			return runImportBlocks(dataPath, args[0])
		},
	}

	exportBlocksCmd := &cobra.Command{
		Use:   "export-blocks <file>",
		Short: "Export the canonical chain as wire-encoded headers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportBlocks(dataPath, args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cinder %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(keyCmd, mineCmd, importBlocksCmd, exportBlocksCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogging(logLevel, logModules string) {
	log.InitLogger(logLevel)
	if logModules == "" {
		return
	}
	for _, m := range []string{log.PowMonitoring, log.MinerMonitoring, log.ChainMonitoring, log.RewardMonitoring} {
		log.DisableModule(m)
	}
	log.EnableModules(logModules)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cinder"
	}
	return filepath.Join(home, ".cinder")
}

func keystoreDir(dataPath string) string {
	return filepath.Join(dataPath, "keystore")
}

func runImportBlocks(dataPath, file string) error {
	store, err := chain.NewStore(filepath.Join(dataPath, "chaindata"))
	if err != nil {
		return err
	}
	defer store.Close()

	c := chain.NewChain(store, powhash.NewOracle())
	if _, err := c.Bootstrap(chain.DefaultGenesis()); err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	dec := codec.NewDecoder(r)
	var imported, known int
	for {
		if _, err := r.Peek(1); err == io.EOF {
			break
		}
		h := &types.Header{}
		if err := h.UnmarshalWire(dec); err != nil {
			return fmt.Errorf("decoding header after %d imports: %w", imported, err)
		}
		switch err := c.ImportHeader(h); {
		case err == nil:
			imported++
		case errors.Is(err, chain.ErrKnownBlock):
			known++
		default:
			return fmt.Errorf("block %d rejected: %w", h.Number, err)
		}
	}
	fmt.Printf("Imported %d blocks (%d already known)\n", imported, known)
	return nil
}

func runExportBlocks(dataPath, file string) error {
	store, err := chain.NewStore(filepath.Join(dataPath, "chaindata"))
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := codec.NewEncoder(w)

	// Genesis is reconstructed by the importer's bootstrap; export starts
	// at block 1.
	count := 0
	for n := uint64(1); ; n++ {
		hash, found, err := store.HashByNumber(n)
		if err != nil {
			return err
		}
		if !found {
			break
		}
		h, found, err := store.HeaderByHash(hash)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("canonical header %s missing", hash.StringShort())
		}
		h.MarshalWire(enc)
		count++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("Exported %d blocks\n", count)
	return nil
}

func runMiner(dataPath, authorHex string, threads int) error {
	key, err := types.LoadMiningKey(keystoreDir(dataPath))
	if err != nil {
		return fmt.Errorf("loading mining key (run `cinder key generate` first): %w", err)
	}
	author := types.HexToEd25519Key(authorHex)
	if author != key.Public {
		return errors.New("author key does not match the stored mining key")
	}

	store, err := chain.NewStore(filepath.Join(dataPath, "chaindata"))
	if err != nil {
		return err
	}
	defer store.Close()

	oracle := powhash.NewOracle()
	c := chain.NewChain(store, oracle)
	head, err := c.Bootstrap(chain.DefaultGenesis())
	if err != nil {
		return err
	}
	log.Info(log.ChainMonitoring, "Chain ready", "head", head.Number, "author", author.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := miner.NewWorker(oracle, key, threads)
	headCh := c.SubscribeHead()

	go worker.Run(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-headCh:
				select {
				case worker.HeadCh() <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	if err := c.StartMiningOn(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Info(log.ChainMonitoring, "Shutting down")
			return nil
		case sealed := <-worker.Sealed():
			if err := c.ImportHeader(sealed); err != nil {
				log.Warn(log.ChainMonitoring, "Mined block rejected", "number", sealed.Number, "err", err)
			}
		}
	}
}
