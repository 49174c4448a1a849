// Package metrics implements throughput logging: blocks/sec and tx/sec,
// logged at intervals of at least the configured period. It keeps an
// elapsed-time accumulator and logs once it exceeds the threshold rather
// than on a fixed ticker, so a slow stretch doesn't spam the log with
// near-empty samples.
package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Throughput accumulates block and transaction counts and logs a
// blocks/sec, tx/sec summary once at least minInterval has elapsed since
// the last log line.
type Throughput struct {
	log         log.Logger
	minInterval time.Duration
	lastLog     time.Time
	blocks      int
	txs         int
}

// New returns a Throughput logger under the given component name, using
// minInterval as the minimum time between log lines.
func New(component string, minInterval time.Duration) *Throughput {
	return &Throughput{
		log:         log.New("component", component),
		minInterval: minInterval,
		lastLog:     time.Now(),
	}
}

// Observe records one processed block carrying txCount transactions, and
// logs a throughput summary if minInterval has elapsed.
func (t *Throughput) Observe(blockNum uint32, blockHash string, txCount int) {
	t.blocks++
	t.txs += txCount

	elapsed := time.Since(t.lastLog)
	if elapsed < t.minInterval {
		return
	}

	blocksSec := float64(t.blocks) / elapsed.Seconds()
	txSec := float64(t.txs) / elapsed.Seconds()
	t.log.Info("throughput", "block_num", blockNum, "block_hash", blockHash,
		"blocks_sec", blocksSec, "tx_sec", txSec)

	t.blocks = 0
	t.txs = 0
	t.lastLog = time.Now()
}
