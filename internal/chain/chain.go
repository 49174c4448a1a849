// Package chain tracks the tentative native-chain blocks above the last
// irreversible block (LIB) in memory, pruning blocks below LIB as it
// advances. It does not detect forks: a block that is not the head's
// immediate successor is rejected.
package chain

import (
	"fmt"
	"sync"
)

// TrackedBlock is the minimal identity of one native block this tracker
// cares about.
type TrackedBlock struct {
	Number uint32
	Hash   string
}

// Chain is the in-memory tentative chain above LIB. All methods are safe
// for concurrent use; callers needn't hold an external lock.
type Chain struct {
	mu     sync.Mutex
	lib    *TrackedBlock
	blocks []TrackedBlock
}

// New returns an empty Chain with no LIB set.
func New() *Chain {
	return &Chain{}
}

// SetLib advances LIB. A repeat of the current LIB is a no-op returning
// (nil, nil). Regression to a lower block number is a programmer error.
func (c *Chain) SetLib(lib TrackedBlock) (*TrackedBlock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lib != nil && *c.lib == lib {
		return nil, nil
	}
	if c.lib == nil {
		c.lib = &lib
		return c.lib, nil
	}
	if lib.Number < c.lib.Number {
		return nil, fmt.Errorf("chain: cannot set LIB to %d, current LIB is %d", lib.Number, c.lib.Number)
	}

	c.lib = &lib
	if len(c.blocks) > 0 && c.blocks[len(c.blocks)-1].Number >= lib.Number {
		pruned := c.blocks[:0:0]
		for _, b := range c.blocks {
			if b.Number >= lib.Number {
				pruned = append(pruned, b)
			}
		}
		c.blocks = pruned
	}
	return c.lib, nil
}

// Add appends a processed block. It fails if LIB is unset or if block is
// not the immediate successor of the current head. The returned fork flag
// is always false, since Add never replaces a tracked chain tail; it
// stays in the signature so non-irreversible streaming can be enabled
// without a signature change.
func (c *Chain) Add(block TrackedBlock) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lib == nil {
		return false, fmt.Errorf("chain: cannot add block, LIB is not set")
	}
	if len(c.blocks) > 0 {
		last := c.blocks[len(c.blocks)-1]
		if block.Number != last.Number+1 {
			return false, fmt.Errorf("chain: block %d is not next after block %d", block.Number, last.Number)
		}
	}
	c.blocks = append(c.blocks, block)
	return false, nil
}

func (c *Chain) Length() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks)
}

func (c *Chain) Lib() (TrackedBlock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lib == nil {
		return TrackedBlock{}, false
	}
	return *c.lib, true
}

func (c *Chain) Last() (TrackedBlock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.blocks) == 0 {
		return TrackedBlock{}, false
	}
	return c.blocks[len(c.blocks)-1], true
}

func (c *Chain) Get(number uint32) (TrackedBlock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.blocks {
		if b.Number == number {
			return b, true
		}
	}
	return TrackedBlock{}, false
}

// LastOrLib returns the tentative head if any blocks are tracked,
// otherwise LIB itself. Used by the subscription driver to pick a resume
// point.
func (c *Chain) LastOrLib() (TrackedBlock, bool) {
	if b, ok := c.Last(); ok {
		return b, true
	}
	return c.Lib()
}
