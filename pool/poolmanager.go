package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/patchwell/poolhouse/models"
)

// PoolManager hands out a bounded set of reusable resources to concurrent
// callers with exclusive ownership, FIFO fairness under contention,
// per-request acquire timeouts and periodic idle reclamation. It is the
// sole mutator of pool state.
type PoolManager struct {
	Config *models.PoolConfig

	factory        Factory
	logger         *zap.Logger
	acquireTimeout time.Duration
	idleTimeout    time.Duration
	reapInterval   time.Duration

	poolLock    *sync.Mutex
	records     []*connectionRecord
	waiters     []*waiter
	initialized bool
	reaperStop  chan struct{}
}

// NewPoolManager creates the hosting structure for a PoolManager. The pool
// is inert until Initialize is called. A nil logger is replaced with a
// no-op logger.
func NewPoolManager(config *models.PoolConfig, factory Factory, logger *zap.Logger) (*PoolManager, error) {

	if config == nil {
		return nil, errors.New("poolmanager config can't be nil")
	}

	if config.Size < 0 {
		return nil, errors.New("poolmanager size can't be negative")
	}

	if factory == nil {
		return nil, errors.New("poolmanager factory can't be nil")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PoolManager{
		Config:         config,
		factory:        factory,
		logger:         logger,
		acquireTimeout: millisOrDefault(config.AcquireTimeoutMilliseconds, models.DefaultAcquireTimeoutMilliseconds),
		idleTimeout:    millisOrDefault(config.IdleTimeoutMilliseconds, models.DefaultIdleTimeoutMilliseconds),
		reapInterval:   millisOrDefault(config.ReapIntervalMilliseconds, models.DefaultReapIntervalMilliseconds),
		poolLock:       &sync.Mutex{},
	}

	return pm, nil
}

func millisOrDefault(value uint32, fallback uint32) time.Duration {
	if value == 0 {
		value = fallback
	}
	return time.Duration(value) * time.Millisecond
}

// Initialize creates Config.Size records sequentially, each connected
// before it is marked idle, then starts the idle reaper. If any creation
// fails the records created so far are torn down best-effort and an
// InitializationError carrying the cause is returned. Calling Initialize
// on an already-initialized pool is a no-op.
func (pm *PoolManager) Initialize(ctx context.Context) error {
	pm.poolLock.Lock()
	defer pm.poolLock.Unlock()

	if pm.initialized {
		return nil
	}

	for i := 0; i < pm.Config.Size; i++ {
		if err := pm.addRecord(ctx); err != nil {
			pm.teardownRecords(pm.records)
			pm.records = nil
			return &InitializationError{Err: err}
		}
	}

	pm.initialized = true
	pm.reaperStop = make(chan struct{})
	go pm.reapLoop(pm.reaperStop)

	return nil
}

// addRecord creates one connected record and appends it idle.
// Callers must hold poolLock.
func (pm *PoolManager) addRecord(ctx context.Context) error {

	res, err := pm.factory.Create(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	pm.records = append(pm.records, &connectionRecord{
		resource:   res,
		lastUsedAt: now,
		createdAt:  now,
	})

	return nil
}

// teardownRecords disconnects records best-effort, logging failures.
func (pm *PoolManager) teardownRecords(records []*connectionRecord) {
	for _, rec := range records {
		if err := pm.factory.Disconnect(rec.resource); err != nil {
			pm.logger.Warn("failed to disconnect resource", zap.Error(err))
		}
	}
}

// Acquire returns an exclusively owned Resource. The first idle record
// found during the scan is handed out synchronously; otherwise the caller
// is queued behind older waiters and suspended until a Release hands a
// resource over, the acquire timeout elapses (ErrAcquireTimeout) or ctx
// is cancelled. The resource must be returned with Release.
func (pm *PoolManager) Acquire(ctx context.Context) (Resource, error) {
	pm.poolLock.Lock()

	if !pm.initialized {
		pm.poolLock.Unlock()
		return nil, ErrNotInitialized
	}

	for _, rec := range pm.records {
		if !rec.inUse {
			rec.inUse = true
			rec.lastUsedAt = time.Now()
			res := rec.resource
			pm.poolLock.Unlock()
			return res, nil
		}
	}

	// Nothing idle - suspend behind the oldest waiters.
	w := newWaiter()
	pm.waiters = append(pm.waiters, w)
	pm.poolLock.Unlock()

	timer := time.NewTimer(pm.acquireTimeout)
	defer timer.Stop()

	select {
	case result := <-w.result:
		return result.resource, result.err

	case <-timer.C:
		if pm.removeWaiter(w) {
			return nil, ErrAcquireTimeout
		}
		// Fulfillment won the race - the hand-off already happened.
		result := <-w.result
		return result.resource, result.err

	case <-ctx.Done():
		if pm.removeWaiter(w) {
			return nil, ctx.Err()
		}
		result := <-w.result
		return result.resource, result.err
	}
}

// removeWaiter takes w out of the queue, reporting whether it was still
// queued. A waiter that is gone has already been fulfilled or rejected.
func (pm *PoolManager) removeWaiter(w *waiter) bool {
	pm.poolLock.Lock()
	defer pm.poolLock.Unlock()

	for i, queued := range pm.waiters {
		if queued == w {
			pm.waiters = append(pm.waiters[:i], pm.waiters[i+1:]...)
			return true
		}
	}

	return false
}

// Release returns a resource to the pool. Unknown or already-idle handles
// are logged and ignored so double-release never crashes the caller. When
// waiters are queued the resource is handed directly to the oldest one and
// the record stays checked out - an interleaving Acquire can never steal a
// just-freed resource ahead of an already-waiting caller.
func (pm *PoolManager) Release(res Resource) {
	pm.poolLock.Lock()

	rec := pm.findRecord(res)
	if rec == nil || !rec.inUse {
		pm.poolLock.Unlock()
		pm.logger.Warn("release of unknown or already-released resource ignored")
		return
	}

	rec.lastUsedAt = time.Now()

	if len(pm.waiters) > 0 {
		w := pm.waiters[0]
		pm.waiters = pm.waiters[1:]
		w.result <- acquireResult{resource: res}
		pm.poolLock.Unlock()
		return
	}

	rec.inUse = false
	pm.poolLock.Unlock()
}

// findRecord locates the owning record by resource identity.
// Callers must hold poolLock.
func (pm *PoolManager) findRecord(res Resource) *connectionRecord {
	for _, rec := range pm.records {
		if rec.resource == res {
			return rec
		}
	}
	return nil
}

// Execute acquires a resource, runs op with it and guarantees the release
// on every exit path, including panics. Errors from op propagate to the
// caller after the release has run. This is the primary entry point;
// direct Acquire/Release is for callers needing fine-grained control.
func (pm *PoolManager) Execute(ctx context.Context, op func(res Resource) error) error {

	res, err := pm.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pm.Release(res)

	return op(res)
}

// Resize changes the target pool size. Growth creates the missing records
// through the same path as Initialize; shrink destroys idle records only,
// so a pool with too few idle records stays above the new size until
// enough are released and reaped. Config.Size is updated unconditionally.
func (pm *PoolManager) Resize(ctx context.Context, newSize int) error {

	if newSize < 0 {
		return errors.New("poolmanager size can't be negative")
	}

	pm.poolLock.Lock()

	current := len(pm.records)
	pm.Config.Size = newSize

	if newSize > current {
		added := make([]*connectionRecord, 0, newSize-current)
		for i := current; i < newSize; i++ {
			if err := pm.addRecord(ctx); err != nil {
				// Keep the pre-existing pool intact, drop only what
				// this call created.
				pm.records = pm.records[:current]
				pm.teardownRecords(added)
				pm.poolLock.Unlock()
				return &InitializationError{Err: err}
			}
			added = append(added, pm.records[len(pm.records)-1])
		}
		pm.poolLock.Unlock()
		return nil
	}

	victims := pm.evictIdle(current - newSize)
	pm.poolLock.Unlock()

	pm.teardownRecords(victims)
	return nil
}

// evictIdle removes up to max idle records from tracking and returns them
// for disconnection. Callers must hold poolLock.
func (pm *PoolManager) evictIdle(max int) []*connectionRecord {

	victims := make([]*connectionRecord, 0, max)
	kept := pm.records[:0]

	for _, rec := range pm.records {
		if !rec.inUse && len(victims) < max {
			victims = append(victims, rec)
			continue
		}
		kept = append(kept, rec)
	}

	pm.records = kept
	return victims
}

// GetStatus reports current record and waiter counts.
func (pm *PoolManager) GetStatus() models.PoolStatus {
	pm.poolLock.Lock()
	defer pm.poolLock.Unlock()

	active := 0
	for _, rec := range pm.records {
		if rec.inUse {
			active++
		}
	}

	return models.PoolStatus{
		Total:   len(pm.records),
		Active:  active,
		Idle:    len(pm.records) - active,
		Waiting: len(pm.waiters),
	}
}

// HealthCheck synthesizes a HealthReport from the initialized flag, the
// record counts, the wait-queue depth and a live probe run through
// Execute. It never fails - every failure mode becomes an entry in the
// report's Errors list.
func (pm *PoolManager) HealthCheck(ctx context.Context) models.HealthReport {

	pm.poolLock.Lock()
	initialized := pm.initialized
	pm.poolLock.Unlock()

	status := pm.GetStatus()
	errs := make([]string, 0, 4)

	if !initialized {
		errs = append(errs, "pool is not initialized")
	}
	if status.Total == 0 {
		errs = append(errs, "pool has no connections")
	}
	if status.Waiting > status.Total {
		errs = append(errs, "wait queue is deeper than the pool")
	}

	probeFailed := false
	if initialized {
		probeCtx, cancel := context.WithTimeout(ctx, pm.acquireTimeout)
		err := pm.Execute(probeCtx, func(res Resource) error {
			if !pm.factory.Probe(probeCtx, res) {
				return errors.New("resource probe reported not live")
			}
			return nil
		})
		cancel()

		if err != nil {
			errs = append(errs, "live probe failed: "+err.Error())
			probeFailed = true
		}
	}

	state := models.Healthy
	switch {
	case probeFailed || len(errs) >= 3:
		state = models.Unhealthy
	case len(errs) > 0:
		state = models.Degraded
	}

	return models.HealthReport{
		State:  state,
		Pool:   status,
		Errors: errs,
	}
}

// Close rejects every queued waiter with ErrPoolClosing, disconnects all
// tracked resources concurrently and resets the pool to its
// pre-initialized state. Callers must stop issuing Acquire before calling
// Close; a racing Acquire has an undefined outcome.
func (pm *PoolManager) Close() {
	pm.poolLock.Lock()

	if !pm.initialized {
		pm.poolLock.Unlock()
		return
	}

	close(pm.reaperStop)
	pm.reaperStop = nil

	for _, w := range pm.waiters {
		w.result <- acquireResult{err: ErrPoolClosing}
	}
	pm.waiters = nil

	records := pm.records
	pm.records = nil
	pm.initialized = false
	pm.poolLock.Unlock()

	wg := &sync.WaitGroup{}
	for _, rec := range records {
		wg.Add(1)

		go func(rec *connectionRecord) {
			defer wg.Done()
			defer func() { _ = recover() }()

			if err := pm.factory.Disconnect(rec.resource); err != nil {
				pm.logger.Warn("failed to disconnect resource during close", zap.Error(err))
			}
		}(rec)
	}

	wg.Wait()
}

// reapLoop periodically reclaims idle capacity until stop is closed.
func (pm *PoolManager) reapLoop(stop chan struct{}) {

	ticker := time.NewTicker(pm.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			pm.reapIdle()
		}
	}
}

// reapIdle destroys records idle beyond the idle timeout, never taking the
// total below half the configured size. Destruction is best-effort.
func (pm *PoolManager) reapIdle() {
	pm.poolLock.Lock()

	floor := pm.Config.Size / 2
	now := time.Now()

	victims := make([]*connectionRecord, 0)
	kept := pm.records[:0]

	for _, rec := range pm.records {
		expired := !rec.inUse && now.Sub(rec.lastUsedAt) > pm.idleTimeout
		if expired && len(pm.records)-len(victims) > floor {
			victims = append(victims, rec)
			continue
		}
		kept = append(kept, rec)
	}

	pm.records = kept
	pm.poolLock.Unlock()

	for _, rec := range victims {
		if err := pm.factory.Disconnect(rec.resource); err != nil {
			pm.logger.Warn("failed to disconnect idle resource", zap.Error(err))
			continue
		}
		pm.logger.Debug("reaped idle resource", zap.Duration("idle", now.Sub(rec.lastUsedAt)))
	}
}
