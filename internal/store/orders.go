// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/yqpay/theaterpos/internal/models"
)

var (
	// ErrOrderNotFound is returned when no order exists under the key.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateOrderNumber is returned when an order number is reused
	// within the same theater.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")

	// ErrPaymentFinal is returned on an attempt to move a settled payment
	// back to a non-terminal status.
	ErrPaymentFinal = errors.New("payment already in a terminal status")

	// ErrInvalidOrder is returned when an order is missing required fields
	// or carries a negative total.
	ErrInvalidOrder = errors.New("invalid order")
)

// OrderStore persists orders. Orders are archived, never deleted: there
// is no delete operation by design of the key space.
type OrderStore struct {
	db *badger.DB
}

// NewOrderStore creates an order store on db.
func NewOrderStore(db *badger.DB) *OrderStore {
	return &OrderStore{db: db}
}

func orderKey(theaterID, orderID string) []byte {
	return []byte("order:" + theaterID + ":" + orderID)
}

func orderNumberKey(theaterID, number string) []byte {
	return []byte("ordernum:" + theaterID + ":" + number)
}

// CreateOrder stores a new order. An empty ID is assigned a UUID; an
// order number already used in the theater is rejected.
func (s *OrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if order.TheaterID == "" || order.OrderNumber == "" {
		return fmt.Errorf("%w: theaterId and orderNumber are required", ErrInvalidOrder)
	}
	if order.EffectiveTotal() < 0 {
		return fmt.Errorf("%w: negative total", ErrInvalidOrder)
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	return s.db.Update(func(txn *badger.Txn) error {
		numKey := orderNumberKey(order.TheaterID, order.OrderNumber)
		if _, err := txn.Get(numKey); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, order.OrderNumber)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check order number: %w", err)
		}

		body, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("marshal order: %w", err)
		}
		if err := txn.Set(orderKey(order.TheaterID, order.ID), body); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if err := txn.Set(numKey, []byte(order.ID)); err != nil {
			return fmt.Errorf("index order number: %w", err)
		}
		return nil
	})
}

// GetOrder loads one order by theater and id.
func (s *OrderStore) GetOrder(ctx context.Context, theaterID, orderID string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var order models.Order
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(orderKey(theaterID, orderID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &order)
		})
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns up to limit orders for a theater, newest first.
// A non-positive limit returns all of them.
func (s *OrderStore) ListOrders(ctx context.Context, theaterID string, limit int) ([]*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte("order:" + theaterID + ":")
	var orders []*models.Order

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var order models.Order
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &order)
			})
			if err != nil {
				return fmt.Errorf("decode order: %w", err)
			}
			orders = append(orders, &order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// UpdatePayment applies a payment verification result and returns the
// updated order. A terminal status never transitions back to a
// non-terminal one.
func (s *OrderStore) UpdatePayment(ctx context.Context, theaterID, orderID, method, status string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var updated models.Order
	err := s.db.Update(func(txn *badger.Txn) error {
		key := orderKey(theaterID, orderID)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &updated)
		}); err != nil {
			return fmt.Errorf("decode order: %w", err)
		}

		if models.PaymentFinal(updated.Payment.Status) && !models.PaymentFinal(status) {
			return fmt.Errorf("%w: %s", ErrPaymentFinal, updated.Payment.Status)
		}

		updated.Payment.Method = method
		updated.Payment.Status = status
		updated.UpdatedAt = time.Now().UTC()

		body, err := json.Marshal(&updated)
		if err != nil {
			return fmt.Errorf("marshal order: %w", err)
		}
		return txn.Set(key, body)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
