package backend

import (
	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

// MemoryOpStore is a fixture OperationStore: a linear operation log with one
// parent each, sufficient to exercise at_operation(@, @-, @--, ...) in tests
// without a real sqlite-backed store.
type MemoryOpStore struct {
	views   map[OperationId]*types.ViewSnapshot
	parents map[OperationId]OperationId
	order   []OperationId
	head    OperationId
}

// NewMemoryOpStore returns an empty fixture operation log.
func NewMemoryOpStore() *MemoryOpStore {
	return &MemoryOpStore{
		views:   map[OperationId]*types.ViewSnapshot{},
		parents: map[OperationId]OperationId{},
	}
}

// RecordOp appends a new head operation with view snapshot, becoming the
// parent of all subsequent RecordOp calls.
func (s *MemoryOpStore) RecordOp(id OperationId, view *types.ViewSnapshot) {
	if s.head != "" {
		s.parents[id] = s.head
	}
	s.views[id] = view
	s.order = append(s.order, id)
	s.head = id
}

func (s *MemoryOpStore) ResolveOp(symbol string) (OperationId, error) {
	if symbol == "@" {
		if s.head == "" {
			return "", rerrors.NewNoSuchOperation(symbol)
		}
		return s.head, nil
	}
	// "@-", "@--", ... walk back from head by the number of trailing '-'.
	if len(symbol) > 0 && symbol[0] == '@' {
		steps := 0
		for i := 1; i < len(symbol); i++ {
			if symbol[i] != '-' {
				return s.resolveByPrefix(symbol)
			}
			steps++
		}
		op := s.head
		for i := 0; i < steps; i++ {
			parent, ok := s.parents[op]
			if !ok {
				return "", rerrors.NewNoSuchOperation(symbol)
			}
			op = parent
		}
		if op == "" {
			return "", rerrors.NewNoSuchOperation(symbol)
		}
		return op, nil
	}
	return s.resolveByPrefix(symbol)
}

func (s *MemoryOpStore) resolveByPrefix(prefix string) (OperationId, error) {
	var match OperationId
	found := 0
	for _, id := range s.order {
		if len(prefix) <= len(id) && string(id[:len(prefix)]) == prefix {
			match = id
			found++
		}
	}
	if found != 1 {
		return "", rerrors.NewNoSuchOperation(prefix)
	}
	return match, nil
}

func (s *MemoryOpStore) ViewAt(op OperationId) (*types.ViewSnapshot, error) {
	v, ok := s.views[op]
	if !ok {
		return nil, rerrors.NewNoSuchOperation(string(op))
	}
	return v, nil
}

func (s *MemoryOpStore) ParentOps(op OperationId) ([]OperationId, error) {
	if p, ok := s.parents[op]; ok {
		return []OperationId{p}, nil
	}
	return nil, nil
}
