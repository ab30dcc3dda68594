package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/registry"
)

// ModelFactory builds the chat model backing one worker.
type ModelFactory func(ctx context.Context, id contractx.WorkerID) (einomodel.ToolCallingChatModel, error)

type ToolCatalog interface {
	Infos(names []string) ([]*schema.ToolInfo, error)
}

type Set struct {
	workers map[contractx.WorkerID]contractx.Worker
}

var _ contractx.WorkerSet = (*Set)(nil)

func (s *Set) Worker(id contractx.WorkerID) (contractx.Worker, bool) {
	w, ok := s.workers[id]
	return w, ok
}

// NewSet builds one model-backed worker per registry entry.
func NewSet(ctx context.Context, reg *registry.Registry, models ModelFactory, tools ToolCatalog) (*Set, error) {
	set := &Set{workers: make(map[contractx.WorkerID]contractx.Worker, len(reg.IDs()))}
	for _, id := range reg.IDs() {
		w, _ := reg.Worker(id)

		chatModel, err := models(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: create model for worker=%s: %v", contractx.ErrModelInvoke, id, err)
		}
		infos, err := tools.Infos(w.Tools)
		if err != nil {
			return nil, err
		}

		impl, err := newSpecialist(ctx, w, chatModel, infos)
		if err != nil {
			return nil, err
		}
		set.workers[id] = impl
	}
	return set, nil
}
