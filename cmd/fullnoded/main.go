// Command fullnoded runs one node process: it opens the block, transaction,
// and UTXO stores under -datadir, resolves the requested coin's
// chaincfg.Params, and then serves forever — dialing out, accepting
// inbound connections, and running the sync/heartbeat loop until
// interrupted (spec.md §6).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreward/fullnode/blockchain"
	"github.com/coreward/fullnode/chaincfg"
	"github.com/coreward/fullnode/discovery"
	"github.com/coreward/fullnode/node"
	"github.com/coreward/fullnode/txindex"
	"github.com/coreward/fullnode/utxoset"
	"go.uber.org/zap"
)

func resolveCoin(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet", "":
		return chaincfg.MainNetParams(), nil
	case "testnet":
		return chaincfg.TestNetParams(), nil
	case "scrypt":
		return chaincfg.ScryptParams(), nil
	default:
		return nil, fmt.Errorf("unknown coin %q", name)
	}
}

func main() {
	confPath := flag.String("conf", "", "path to a JSON config file to load as the base configuration; flags explicitly given on the command line override its fields")
	datadir := flag.String("datadir", node.DefaultDataDir(), "data directory for chain/tx/utxo stores and the address book")
	bindAddr := flag.String("addr", "0.0.0.0:8333", "address to listen for inbound peers on")
	seekPeers := flag.Int("seek-peers", 5, "target number of outbound connections")
	maxPeers := flag.Int("max-peers", 64, "maximum number of simultaneous peer connections")
	bootstrap := flag.String("bootstrap", "", "comma-separated list of peer addresses to seed the address book with")
	coinName := flag.String("coin", "mainnet", "coin profile: mainnet, testnet, or scrypt")
	flag.Parse()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fullnoded: logger init: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*confPath, *datadir, *bindAddr, *seekPeers, *maxPeers, *bootstrap, *coinName, explicit, log); err != nil {
		log.Fatal("fullnoded exited with error", zap.Error(err))
	}
}

// run resolves the effective Config (a -conf file, if given, as the base,
// with any flag the caller explicitly passed overriding its field), opens
// the stores under its data directory, and serves until interrupted.
func run(confPath, datadir, bindAddr string, seekPeers, maxPeers int, bootstrap, coinName string, explicit map[string]bool, log *zap.Logger) error {
	cfg := node.DefaultConfig()
	if confPath != "" {
		loaded, err := node.LoadConfigFile(confPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if explicit["datadir"] || confPath == "" {
		cfg.DataDir = datadir
	}
	if explicit["addr"] || confPath == "" {
		cfg.BindAddr = bindAddr
	}
	if explicit["seek-peers"] || confPath == "" {
		cfg.SeekPeers = seekPeers
	}
	if explicit["max-peers"] || confPath == "" {
		cfg.MaxPeers = maxPeers
	}
	if explicit["coin"] || confPath == "" {
		cfg.Network = coinName
	}
	if explicit["bootstrap"] || confPath == "" {
		cfg.Peers = node.NormalizePeers(bootstrap)
	}
	if err := node.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	coin, err := resolveCoin(cfg.Network)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating datadir: %w", err)
	}

	chain, err := blockchain.Open(filepath.Join(cfg.DataDir, "blocks.db"))
	if err != nil {
		return fmt.Errorf("opening block store: %w", err)
	}
	defer chain.Close()
	if err := chain.InitGenesis(coin.GenesisHeader()); err != nil {
		return fmt.Errorf("seeding genesis: %w", err)
	}

	txs, err := txindex.Open(filepath.Join(cfg.DataDir, "txindex"), coin.Name, 0)
	if err != nil {
		return fmt.Errorf("opening transaction index: %w", err)
	}
	defer txs.Close()

	utxo, err := utxoset.Open(filepath.Join(cfg.DataDir, "utxo.db"), blockchain.GenesisBlockID)
	if err != nil {
		return fmt.Errorf("opening utxo set: %w", err)
	}
	defer utxo.Close()

	source := discovery.DNSSeedSource{Hostnames: coin.DNSSeeds, Port: coin.Port}

	srv := node.NewServer(cfg, *coin, chain, txs, utxo, source, log)

	bookPath := filepath.Join(cfg.DataDir, "peers.json")
	if book, err := discovery.LoadBook(bookPath); err == nil {
		srv.Book = book
	}
	for _, addr := range cfg.Peers {
		if ap, err := netip.ParseAddrPort(addr); err == nil {
			srv.Book.Add(ap, 0, time.Now())
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(ctx) }()

	ticker := time.NewTicker(node.HeartbeatInterval)
	defer ticker.Stop()
	syncTicker := time.NewTicker(node.GetHeadersCadence)
	defer syncTicker.Stop()

	log.Info("fullnoded started", zap.String("bind_addr", cfg.BindAddr), zap.String("coin", cfg.Network))

	for {
		select {
		case <-ctx.Done():
			_ = discovery.SaveBook(bookPath, srv.Book)
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			srv.Heartbeat(ctx)
		case <-syncTicker.C:
			if err := srv.SyncHeaders(); err != nil {
				log.Warn("sync headers failed", zap.Error(err))
			}
			if err := srv.SyncBlocks(); err != nil {
				log.Warn("sync blocks failed", zap.Error(err))
			}
		}
	}
}
