// Package woocommercetest provides an in-memory WooCommerce store for tests.
package woocommercetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/esimtrip/cashier/internal/platform/woocommerce"
)

type Note struct {
	Text     string
	Customer bool
}

// Store mimics the subset of the WooCommerce REST API the service uses.
// Returned orders are deep copies so callers never share state with the store.
type Store struct {
	mu      sync.Mutex
	orders  map[int64]*woocommerce.Order
	notes   map[int64][]Note
	updates map[int64]int

	// FailUpdate, when set, is returned by UpdateOrder before any change.
	FailUpdate error
	// FailNotes is the number of upcoming CreateNote calls that fail.
	FailNotes int
}

func NewStore(orders ...*woocommerce.Order) *Store {
	s := &Store{
		orders:  map[int64]*woocommerce.Order{},
		notes:   map[int64][]Note{},
		updates: map[int64]int{},
	}
	for _, o := range orders {
		s.Put(o)
	}
	return s
}

func clone(o *woocommerce.Order) *woocommerce.Order {
	b, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}
	var out woocommerce.Order
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return &out
}

func (s *Store) Put(o *woocommerce.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = clone(o)
}

// ListOrders pages through orders by descending ID, which stands in for creation date.
func (s *Store) ListOrders(_ context.Context, page, perPage int) ([]*woocommerce.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	start := (page - 1) * perPage
	if page < 1 || start >= len(ids) {
		return nil, nil
	}
	end := min(start+perPage, len(ids))
	out := make([]*woocommerce.Order, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, clone(s.orders[id]))
	}
	return out, nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*woocommerce.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("woocommerce get order: status 404: order %d", id)
	}
	return clone(o), nil
}

func (s *Store) UpdateOrder(_ context.Context, id int64, upd *woocommerce.OrderUpdate) (*woocommerce.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate != nil {
		return nil, s.FailUpdate
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("woocommerce update order: status 404: order %d", id)
	}
	if upd.Status != "" {
		o.Status = upd.Status
	}
	o.MetaData = o.MetaData.Merge(upd.MetaData...)
	s.updates[id]++
	return clone(o), nil
}

func (s *Store) CreateNote(_ context.Context, id int64, note string, customer bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return fmt.Errorf("woocommerce create note: status 404: order %d", id)
	}
	if s.FailNotes > 0 {
		s.FailNotes--
		return fmt.Errorf("woocommerce create note: status 502: order %d", id)
	}
	s.notes[id] = append(s.notes[id], Note{Text: note, Customer: customer})
	return nil
}

// Order returns a snapshot of the stored order, or nil.
func (s *Store) Order(id int64) *woocommerce.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	return clone(o)
}

func (s *Store) Notes(id int64) []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Note(nil), s.notes[id]...)
}

func (s *Store) Updates(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[id]
}
