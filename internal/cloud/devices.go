package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/pagecloud/internal/ir"
	"github.com/roach88/pagecloud/internal/signal"
)

// DeviceSet tracks the fingerprints of registered devices. Erasing the set
// wakes every device watching it, telling them to re-register.
type DeviceSet struct {
	mu           sync.RWMutex
	fingerprints map[ir.Fingerprint]struct{}
	erased       *signal.Signal

	logger  *slog.Logger
	journal Journal
	metrics *Metrics
}

func newDeviceSet(logger *slog.Logger, journal Journal, metrics *Metrics) *DeviceSet {
	return &DeviceSet{
		fingerprints: make(map[ir.Fingerprint]struct{}),
		erased:       signal.New(),
		logger:       logger,
		journal:      journal,
		metrics:      metrics,
	}
}

// SetFingerprint registers fp. Registering a known fingerprint is a no-op.
// Only a journal failure returns an error.
func (d *DeviceSet) SetFingerprint(ctx context.Context, fp ir.Fingerprint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.fingerprints[fp]; ok {
		return nil
	}
	if d.journal != nil {
		if err := d.journal.PutFingerprint(ctx, fp); err != nil {
			return fmt.Errorf("set fingerprint: %w", err)
		}
	}
	d.fingerprints[fp] = struct{}{}
	return nil
}

// CheckFingerprint reports whether fp is registered.
func (d *DeviceSet) CheckFingerprint(fp ir.Fingerprint) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.fingerprints[fp]
	return ok
}

// Erase forgets every fingerprint and wakes all watchers.
func (d *DeviceSet) Erase(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.journal != nil {
		if err := d.journal.EraseFingerprints(ctx); err != nil {
			return fmt.Errorf("erase device set: %w", err)
		}
	}

	n := len(d.fingerprints)
	clear(d.fingerprints)
	d.erased.SignalAndRearm()
	d.metrics.erased()
	d.logger.Info("device set erased", "fingerprints", n)
	return nil
}

// Watch returns a watcher that fires on the next Erase. ok is false when fp
// is not registered: the device has already been erased and should not wait.
func (d *DeviceSet) Watch(fp ir.Fingerprint) (w *signal.Watcher, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, registered := d.fingerprints[fp]; !registered {
		return nil, false
	}
	return d.erased.Watch(), true
}

// Fingerprints returns the registered fingerprints, sorted.
func (d *DeviceSet) Fingerprints() []ir.Fingerprint {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]ir.Fingerprint, 0, len(d.fingerprints))
	for fp := range d.fingerprints {
		out = append(out, fp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// restore registers fp without journaling it.
func (d *DeviceSet) restore(fp ir.Fingerprint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fingerprints[fp] = struct{}{}
}
