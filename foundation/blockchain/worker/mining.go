package worker

import (
	"context"
	"time"
)

// retryDelay is how long a session waits before trying again after a block
// could not be mined.
const retryDelay = time.Second

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case s := <-w.startMining:
			w.runMiningOperation(s)
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines blocks back to back until the session is
// cancelled.
func (w *Worker) runMiningOperation(s session) {
	w.evHandler("worker: runMiningOperation: MINING: started: beneficiary[%s]", s.beneficiaryID)
	defer func() {
		close(s.done)
		w.evHandler("worker: runMiningOperation: MINING: completed")
	}()

	track := w.track(s.ctx)

	for s.ctx.Err() == nil {
		t := time.Now()
		block, err := w.state.MineNewBlock(s.ctx, s.beneficiaryID, track)
		duration := time.Since(t)

		w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

		if err != nil {
			switch {
			case s.ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
				return

			default:
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
				if !sleep(s.ctx, retryDelay) {
					return
				}
			}
			continue
		}

		w.evHandler("worker: runMiningOperation: MINING: block mined: blk[%d]: hash[%s]: txs[%d]", block.Header.Number, block.Hash(), len(block.Values()))
	}
}

// sleep waits for the duration and reports false if the context was
// cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
