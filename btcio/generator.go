package btcio

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/log"

	"github.com/MdTeach/strata/metrics"
)

// BlockSource is the slice of the L1 client the generator needs.
type BlockSource interface {
	GetNewAddress() (btcutil.Address, error)
	GenerateToAddress(n int64, addr btcutil.Address) ([]*chainhash.Hash, error)
}

// Generator mines one L1 block to a fixed address every interval. It keeps
// confirmation depth advancing for the foreground finality checks without
// them having to mine themselves.
//
// Generation failures are deliberately lenient: the first failed mining
// request logs a warning and ends the loop, because a dying node should
// not take the whole harness down with it.
type Generator struct {
	src      BlockSource
	log      log.Logger
	metr     metrics.Metricer
	interval time.Duration
	addr     btcutil.Address

	stop chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	started bool
}

func NewGenerator(src BlockSource, logger log.Logger, metr metrics.Metricer, interval time.Duration, addr btcutil.Address) *Generator {
	return &Generator{
		src:      src,
		log:      logger.New("role", "block_generator"),
		metr:     metr,
		interval: interval,
		addr:     addr,
		stop:     make(chan struct{}),
	}
}

// Start launches the background mining loop. Duplicate starts are ignored.
func (g *Generator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.started = true

	g.wg.Add(1)
	go g.loop()
}

// Stop ends the loop and waits for it to exit. Safe to call even if the
// loop already terminated on a mining failure.
func (g *Generator) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		return
	}
	select {
	case <-g.stop:
	default:
		close(g.stop)
	}
	g.wg.Wait()
}

func (g *Generator) loop() {
	defer g.wg.Done()
	for {
		select {
		case <-g.stop:
			return
		case <-time.After(g.interval):
		}
		if _, err := g.src.GenerateToAddress(1, g.addr); err != nil {
			g.log.Warn("Block generation failed, stopping generator", "addr", g.addr, "err", err)
			g.metr.RecordGenerationFailure()
			return
		}
		g.metr.RecordBlocksGenerated(1)
	}
}

// GenerateNBlocks mines n blocks to a fresh address and returns the block
// hashes. Failures are logged and swallowed so transient mining errors do
// not abort the run; the strict-fail paths belong to the finality checks.
func GenerateNBlocks(src BlockSource, logger log.Logger, metr metrics.Metricer, n int64) []*chainhash.Hash {
	addr, err := src.GetNewAddress()
	if err != nil {
		logger.Warn("Could not get fresh address for block generation", "err", err)
		metr.RecordGenerationFailure()
		return nil
	}
	logger.Debug("Generating blocks", "n", n, "addr", addr)
	hashes, err := src.GenerateToAddress(n, addr)
	if err != nil {
		logger.Warn("Block generation failed", "n", n, "addr", addr, "err", err)
		metr.RecordGenerationFailure()
		return nil
	}
	metr.RecordBlocksGenerated(int(n))
	return hashes
}
