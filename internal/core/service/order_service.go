package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/port"
)

type CreateOrderCommand struct {
	CheckoutID      string
	UserName        string
	TotalPrice      decimal.Decimal
	FirstName       string
	LastName        string
	EmailAddress    string
	ShippingAddress string
	InvoiceAddress  string
}

type UpdateOrderCommand struct {
	ID              int64
	UserName        string
	TotalPrice      decimal.Decimal
	FirstName       string
	LastName        string
	EmailAddress    string
	ShippingAddress string
	InvoiceAddress  string
	Status          domain.OrderStatus
}

// OrderService owns the order write path. Every mutation is committed
// through the repository first; the aggregate's events are dispatched only
// after that call returned nil.
type OrderService struct {
	orders     port.OrderRepository
	dispatcher *DomainEventDispatcher
	log        *slog.Logger
}

func NewOrderService(orders port.OrderRepository, dispatcher *DomainEventDispatcher, log *slog.Logger) *OrderService {
	return &OrderService{orders: orders, dispatcher: dispatcher, log: log}
}

func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (int64, error) {
	details := domain.OrderDetails{
		UserName:        cmd.UserName,
		TotalPrice:      cmd.TotalPrice,
		FirstName:       cmd.FirstName,
		LastName:        cmd.LastName,
		EmailAddress:    cmd.EmailAddress,
		ShippingAddress: cmd.ShippingAddress,
		InvoiceAddress:  cmd.InvoiceAddress,
	}
	if err := validateDetails(details); err != nil {
		return 0, err
	}

	order := domain.NewOrder(details, cmd.CheckoutID)

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, port.ErrDuplicateCheckout) {
			return 0, fmt.Errorf("%w: checkout %s", ErrDuplicateRequest, cmd.CheckoutID)
		}
		return 0, fmt.Errorf("create order: %w", err)
	}

	s.dispatcher.Dispatch(ctx, order)
	return order.ID(), nil
}

func (s *OrderService) UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) error {
	details := domain.OrderDetails{
		UserName:        cmd.UserName,
		TotalPrice:      cmd.TotalPrice,
		FirstName:       cmd.FirstName,
		LastName:        cmd.LastName,
		EmailAddress:    cmd.EmailAddress,
		ShippingAddress: cmd.ShippingAddress,
		InvoiceAddress:  cmd.InvoiceAddress,
	}
	if cmd.ID <= 0 {
		return fmt.Errorf("%w: id must be greater than 0", ErrInvalidOrder)
	}
	if err := validateDetails(details); err != nil {
		return err
	}

	order, err := s.getOrder(ctx, cmd.ID)
	if err != nil {
		return err
	}

	order.UpdateDetails(details)
	if cmd.Status != "" {
		if err := order.SetStatus(cmd.Status); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
		}
	}

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("update order %d: %w", cmd.ID, mapOrderStoreError(err))
	}

	s.dispatcher.Dispatch(ctx, order)
	return nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return err
	}

	order.Delete()
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order %d: %w", id, mapOrderStoreError(err))
	}

	s.dispatcher.Dispatch(ctx, order)
	return nil
}

func (s *OrderService) GetOrdersByUser(ctx context.Context, userName string) ([]*domain.Order, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) getOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return order, nil
}

// mapOrderStoreError covers a row removed between the read and the write.
func mapOrderStoreError(err error) error {
	if errors.Is(err, port.ErrOrderNotFound) {
		return ErrNotFound
	}
	return err
}

func validateDetails(d domain.OrderDetails) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	return nil
}
