package page

import (
	"context"
	"fmt"

	"github.com/roach88/pagecloud/internal/ir"
)

// AddObject stores obj under id, replacing any previous object. Re-adding an
// existing id is not an error.
func (p *PageCloud) AddObject(ctx context.Context, id ir.ObjectID, obj ir.Object) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.journal != nil {
		if err := p.journal.PutObject(ctx, id, obj); err != nil {
			return fmt.Errorf("add object: %w", err)
		}
	}
	p.objects[id] = obj.Clone()
	return nil
}

// RestoreObject stores an object read back from the journal.
func (p *PageCloud) RestoreObject(id ir.ObjectID, obj ir.Object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[id] = obj.Clone()
}

// GetObject returns a copy of the object stored under id, or NOT_FOUND.
func (p *PageCloud) GetObject(id ir.ObjectID) (ir.Object, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	obj, ok := p.objects[id]
	if !ok {
		return ir.Object{}, NewUnknownObjectError(id)
	}
	return obj.Clone(), nil
}
