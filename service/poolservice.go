// Package service hosts a registry of named pools so request handlers,
// audit and cache subsystems can share managed database handles without
// ambient global state - one PoolService is constructed and passed down.
package service

import (
	"context"
	"errors"
	"sync"

	cmap "github.com/orcaman/concurrent-map"
	"go.uber.org/zap"

	"github.com/patchwell/poolhouse/models"
	"github.com/patchwell/poolhouse/pool"
)

// PoolService is the struct for containing every named PoolManager.
type PoolService struct {
	logger      *zap.Logger
	pools       cmap.ConcurrentMap
	serviceLock *sync.Mutex
	shutdown    bool
}

// NewPoolService creates an empty registry. A nil logger is replaced with
// a no-op logger.
func NewPoolService(logger *zap.Logger) *PoolService {

	if logger == nil {
		logger = zap.NewNop()
	}

	return &PoolService{
		logger:      logger,
		pools:       cmap.New(),
		serviceLock: &sync.Mutex{},
	}
}

// Register creates, initializes and stores a named pool. Registering a
// name twice is an error; so is registering after Shutdown.
func (ps *PoolService) Register(ctx context.Context, name string, config *models.PoolConfig, factory pool.Factory) (*pool.PoolManager, error) {
	ps.serviceLock.Lock()
	defer ps.serviceLock.Unlock()

	if ps.shutdown {
		return nil, errors.New("poolservice has been shutdown")
	}

	if ps.pools.Has(name) {
		return nil, errors.New("pool " + name + " is already registered")
	}

	pm, err := pool.NewPoolManager(config, factory, ps.logger.With(zap.String("pool", name)))
	if err != nil {
		return nil, err
	}

	if err = pm.Initialize(ctx); err != nil {
		return nil, err
	}

	ps.pools.Set(name, pm)
	return pm, nil
}

// Get retrieves a registered pool by name.
func (ps *PoolService) Get(name string) (*pool.PoolManager, bool) {

	value, ok := ps.pools.Get(name)
	if !ok {
		return nil, false
	}

	return value.(*pool.PoolManager), true
}

// Execute runs op against a resource from the named pool.
func (ps *PoolService) Execute(ctx context.Context, name string, op func(res pool.Resource) error) error {

	pm, ok := ps.Get(name)
	if !ok {
		return errors.New("pool " + name + " is not registered")
	}

	return pm.Execute(ctx, op)
}

// Status reports the status of every registered pool.
func (ps *PoolService) Status() map[string]models.PoolStatus {

	statuses := make(map[string]models.PoolStatus, ps.pools.Count())
	for name, value := range ps.pools.Items() {
		statuses[name] = value.(*pool.PoolManager).GetStatus()
	}

	return statuses
}

// HealthCheck runs every registered pool's health check.
func (ps *PoolService) HealthCheck(ctx context.Context) map[string]models.HealthReport {

	reports := make(map[string]models.HealthReport, ps.pools.Count())
	for name, value := range ps.pools.Items() {
		reports[name] = value.(*pool.PoolManager).HealthCheck(ctx)
	}

	return reports
}

// Shutdown closes every registered pool and empties the registry. The
// service refuses new registrations afterwards.
func (ps *PoolService) Shutdown() {
	ps.serviceLock.Lock()
	defer ps.serviceLock.Unlock()

	if ps.shutdown {
		return
	}
	ps.shutdown = true

	for name, value := range ps.pools.Items() {
		value.(*pool.PoolManager).Close()
		ps.pools.Remove(name)
		ps.logger.Info("pool closed", zap.String("pool", name))
	}
}
