package spn

import (
	"context"
	"runtime"

	"github.com/bgallie/spn/cryptors"
	"golang.org/x/sync/errgroup"
)

// blocksPerTask is the number of blocks a single worker processes before
// the context is checked again.
const blocksPerTask = 256

// EncryptBlocks encrypts blocks in place.  blocks[n] is encrypted with block
// index startIndex+n.  The work is spread over GOMAXPROCS goroutines.  If ctx
// is cancelled the remaining work is abandoned, blocks is left partially
// encrypted and the context's error is returned.
func (e *Engine) EncryptBlocks(ctx context.Context, blocks []cryptors.Block, startIndex uint64) error {
	return e.process(ctx, blocks, startIndex, encrypt)
}

// DecryptBlocks undoes EncryptBlocks for the same startIndex.
func (e *Engine) DecryptBlocks(ctx context.Context, blocks []cryptors.Block, startIndex uint64) error {
	return e.process(ctx, blocks, startIndex, decrypt)
}

func (e *Engine) process(ctx context.Context, blocks []cryptors.Block, startIndex uint64,
	apply func([]cryptors.Crypter, *cryptors.Block, uint64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for lo := 0; lo < len(blocks); lo += blocksPerTask {
		chunk := blocks[lo:min(lo+blocksPerTask, len(blocks))]
		base := startIndex + uint64(lo)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for n := range chunk {
				apply(e.ecms, &chunk[n], base+uint64(n))
			}
			return nil
		})
	}

	return g.Wait()
}
