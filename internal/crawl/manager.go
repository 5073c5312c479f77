package crawl

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manager runs a set of drivers concurrently. The drivers are independent:
// one domain failing does not stop the others. Wait still surfaces the
// first failure once every driver has returned.
type Manager struct {
	drivers []*Driver
	logger  *zap.Logger
}

// NewManager builds a Manager over the given drivers.
func NewManager(logger *zap.Logger, drivers ...*Driver) (*Manager, error) {
	if len(drivers) == 0 {
		return nil, errors.New("at least one driver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{drivers: drivers, logger: logger}, nil
}

// Run starts every driver and blocks until all have finished. Cancellation
// of ctx stops all drivers; each saves its checkpoint on the way out.
func (m *Manager) Run(ctx context.Context) error {
	// A plain group, not WithContext: a fatal page in one domain must not
	// cancel the siblings mid-crawl.
	var g errgroup.Group
	for _, d := range m.drivers {
		g.Go(func() error {
			err := d.Run(ctx)
			switch {
			case err == nil:
				m.logger.Info("driver finished", zap.String("domain", d.Domain()))
			case errors.Is(err, context.Canceled):
				m.logger.Info("driver stopped", zap.String("domain", d.Domain()))
			default:
				m.logger.Error("driver failed",
					zap.String("domain", d.Domain()),
					zap.Error(err),
				)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// Status reports every driver's position and completion count.
func (m *Manager) Status() []DriverStatus {
	statuses := make([]DriverStatus, 0, len(m.drivers))
	for _, d := range m.drivers {
		statuses = append(statuses, d.Status())
	}
	return statuses
}
