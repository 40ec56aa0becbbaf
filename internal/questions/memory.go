package questions

import (
	"context"
	"sort"
	"sync"
)

type MemoryProvider struct {
	mu   sync.RWMutex
	sets map[string]Set
}

func NewMemoryProvider(sets ...Set) *MemoryProvider {
	p := &MemoryProvider{sets: make(map[string]Set, len(sets))}
	for _, set := range sets {
		p.sets[set.ID] = set
	}
	return p
}

func (p *MemoryProvider) Add(set Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets[set.ID] = Set{
		ID:        set.ID,
		Title:     set.Title,
		Subject:   set.Subject,
		CreatedBy: set.CreatedBy,
		Questions: cloneQuestions(set.Questions),
	}
	return nil
}

func (p *MemoryProvider) Questions(_ context.Context, setID string) ([]Question, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.sets[setID]
	if !ok {
		return nil, ErrSetNotFound
	}
	return cloneQuestions(set.Questions), nil
}

func (p *MemoryProvider) Sets(_ context.Context) ([]SetSummary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	list := make([]SetSummary, 0, len(p.sets))
	for _, set := range p.sets {
		list = append(list, SetSummary{
			ID:            set.ID,
			Title:         set.Title,
			Subject:       set.Subject,
			QuestionCount: len(set.Questions),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Title == list[j].Title {
			return list[i].ID < list[j].ID
		}
		return list[i].Title < list[j].Title
	})
	return list, nil
}
