package pipeline

import "fmt"

// FatalError marks a data- or protocol-invariant violation the pipeline
// cannot recover from: the operator must investigate before restarting.
// The top-level launcher logs these at log.Crit and exits non-zero,
// rather than retrying.
type FatalError struct {
	BlockNum uint32
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal at block %d: %v", e.BlockNum, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatalf(blockNum uint32, format string, args ...any) error {
	return &FatalError{BlockNum: blockNum, Err: fmt.Errorf(format, args...)}
}
