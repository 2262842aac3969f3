package state

import (
	"context"
	"fmt"

	"github.com/ts4z/homegame/builtins"
	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/paytable"
)

var _ PaytableStorage = (*BuiltinPaytableStorage)(nil)

// BuiltinPaytableStorage serves the compiled-in paytables.
type BuiltinPaytableStorage struct {
	byID map[int64]*paytable.Paytable
}

func NewBuiltinPaytableStorage() *BuiltinPaytableStorage {
	s := &BuiltinPaytableStorage{byID: map[int64]*paytable.Paytable{}}
	for _, pt := range builtins.Paytables() {
		s.byID[pt.ID] = pt
	}
	return s
}

func (s *BuiltinPaytableStorage) Close() {}

func (s *BuiltinPaytableStorage) FetchPaytableByID(_ context.Context, id int64) (*paytable.Paytable, error) {
	if pt, ok := s.byID[id]; ok {
		return pt.Clone(), nil
	}
	return nil, he.New(404, fmt.Errorf("paytable %d: %w", id, ErrNotFound))
}

func (s *BuiltinPaytableStorage) FetchPaytableSlugs(_ context.Context) ([]*paytable.PaytableSlug, error) {
	slugs := []*paytable.PaytableSlug{}
	for _, pt := range builtins.Paytables() {
		slugs = append(slugs, &paytable.PaytableSlug{ID: pt.ID, Name: pt.Name})
	}
	return slugs, nil
}
