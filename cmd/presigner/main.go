// Command presigner runs a pre-signature process manager node: it ticks
// the engine against a block reader and artifact pool, applying the
// resulting change set back to the pool each interval.
package main

import (
	"crypto/ed25519"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	gethlog "github.com/ethereum/go-ethereum/log"
	gethmetrics "github.com/ethereum/go-ethereum/metrics"

	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/config"
	"github.com/tolelom/ecdsapresign/crypto/ed25519capability"
	"github.com/tolelom/ecdsapresign/pool/leveldb"
	"github.com/tolelom/ecdsapresign/presign"
	"github.com/tolelom/ecdsapresign/types"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	genKey := flag.Bool("genkey", false, "generate a new node key pair and exit")
	keyPath := flag.String("key", "node.key", "path to the node's private key file")
	flag.Parse()

	if *genKey {
		priv, _, err := ed25519capability.GenerateKeyPair()
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*keyPath, priv, 0o600); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Generated key, saved to %s\n", *keyPath)
		return
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	priv, err := loadKey(*keyPath)
	if err != nil {
		log.Fatalf("load key: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}
	p, err := leveldb.Open(cfg.DataDir + "/pool")
	if err != nil {
		log.Fatalf("open pool: %v", err)
	}
	defer p.Close()

	// A single-node demo registers only its own key; a real deployment
	// would source every committee member's public key from the
	// registry instead.
	pub := priv.Public().(ed25519.PublicKey)
	capability := ed25519capability.New(cfg.NodeIdentity(), priv, map[types.NodeID]ed25519.PublicKey{
		cfg.NodeIdentity(): pub,
	})

	logger := gethlog.Root()
	registry := gethmetrics.NewRegistry()
	engine := presign.New(cfg.NodeIdentity(), capability, registry, logger)

	// Demo block reader: no transcripts requested until something
	// updates it (e.g. a future registry-watching component).
	reader := blockreader.NewMutable(0, nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runLoop(time.Duration(cfg.TickIntervalMS)*time.Millisecond, done, func() {
			changes := engine.OnStateChange(reader, p)
			if len(changes) == 0 {
				return
			}
			if err := p.Apply(changes); err != nil {
				logger.Error("failed to apply change set", "err", err)
			}
		})
	}()
	logger.Info("presigner running", "node", cfg.NodeID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	close(done)
	wg.Wait()
	logger.Info("shutdown complete")
}

// runLoop calls tick every interval until done is closed.
func runLoop(interval time.Duration, done <-chan struct{}, tick func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tick()
		case <-done:
			return
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("config file not found at %s, using defaults", path)
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func loadKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("key file %s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(data))
	}
	return ed25519.PrivateKey(data), nil
}
