// Package worker implements the mining session for the blockchain.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/state"
)

// ErrShutdown is returned when a session is requested after the worker
// was shut down.
var ErrShutdown = errors.New("worker is shut down")

// session represents one continuous mining run.
type session struct {
	ctx           context.Context
	beneficiaryID database.AccountID
	done          chan struct{}
}

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state       *state.State
	wg          sync.WaitGroup
	shut        chan struct{}
	startMining chan session
	evHandler   state.EventHandler

	// mu serializes starting and stopping sessions. It is held while Stop
	// waits for a session to end, so a new session can't overlap it.
	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	done   chan struct{}

	statusMu      sync.RWMutex
	status        state.MiningStatus
	beneficiaryID database.AccountID
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	w := Worker{
		state:       st,
		shut:        make(chan struct{}),
		startMining: make(chan session, 1),
		evHandler:   evHandler,
		status:      state.MiningIdle,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.miningOperations()
	}()

	<-hasStarted

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop mining")
	w.StopMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	w.mu.Lock()
	close(w.shut)
	w.mu.Unlock()
	w.wg.Wait()
}

// StartMining starts a mining session paying the specified account. Only one
// session can run at a time.
func (w *Worker) StartMining(beneficiaryID database.AccountID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active {
		return state.ErrAlreadyMining
	}

	select {
	case <-w.shut:
		return ErrShutdown
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := session{
		ctx:           ctx,
		beneficiaryID: beneficiaryID,
		done:          make(chan struct{}),
	}

	w.active = true
	w.cancel = cancel
	w.done = s.done
	w.setStatus(state.MiningAssembling, beneficiaryID)

	// The channel is empty since the previous session was fully received
	// before it could be stopped.
	w.startMining <- s

	w.evHandler("worker: StartMining: MINING: signaled: beneficiary[%s]", beneficiaryID)

	return nil
}

// StopMining cancels the mining session and waits for it to end. No block
// is added by the session once this returns.
func (w *Worker) StopMining() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.active {
		return state.ErrNotMining
	}

	w.evHandler("worker: StopMining: MINING: CANCEL: signaled")
	w.cancel()

	_, beneficiaryID := w.Status()
	w.setStatus(state.MiningStopped, beneficiaryID)

	<-w.done
	w.evHandler("worker: StopMining: MINING: CANCEL: complete")

	w.active = false
	w.cancel = nil
	w.done = nil
	w.setStatus(state.MiningIdle, "")

	return nil
}

// IsMining reports if a session is running and has not been asked to stop.
func (w *Worker) IsMining() bool {
	status, _ := w.Status()
	return status != state.MiningIdle && status != state.MiningStopped
}

// Status returns the phase of the session and the account being paid.
func (w *Worker) Status() (state.MiningStatus, database.AccountID) {
	w.statusMu.RLock()
	defer w.statusMu.RUnlock()

	return w.status, w.beneficiaryID
}

// =============================================================================

// setStatus records the phase of the session.
func (w *Worker) setStatus(status state.MiningStatus, beneficiaryID database.AccountID) {
	w.statusMu.Lock()
	defer w.statusMu.Unlock()

	w.status = status
	w.beneficiaryID = beneficiaryID
}

// track is given to the state to report phases of the current session. A
// stopped session keeps its stopped status.
func (w *Worker) track(ctx context.Context) func(state.MiningStatus) {
	return func(status state.MiningStatus) {
		w.statusMu.Lock()
		defer w.statusMu.Unlock()

		if ctx.Err() == nil {
			w.status = status
		}
	}
}
