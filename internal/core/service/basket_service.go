package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/port"
)

type BasketService struct {
	baskets port.BasketRepository
	stock   port.StockValidator
}

func NewBasketService(baskets port.BasketRepository, stock port.StockValidator) *BasketService {
	return &BasketService{baskets: baskets, stock: stock}
}

// GetBasket returns an empty basket when the user has none.
func (s *BasketService) GetBasket(ctx context.Context, userName string) (*domain.Basket, error) {
	basket, err := s.baskets.GetBasket(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("get basket: %w", err)
	}
	if basket == nil {
		return domain.NewBasket(userName), nil
	}
	return basket, nil
}

func (s *BasketService) UpdateBasket(ctx context.Context, basket *domain.Basket) (*domain.Basket, error) {
	basket.UpdatedAt = time.Now().UTC()
	if err := s.baskets.SaveBasket(ctx, basket); err != nil {
		return nil, fmt.Errorf("save basket: %w", err)
	}
	return s.GetBasket(ctx, basket.UserName)
}

func (s *BasketService) DeleteBasket(ctx context.Context, userName string) (bool, error) {
	deleted, err := s.baskets.DeleteBasket(ctx, userName)
	if err != nil {
		return false, fmt.Errorf("delete basket: %w", err)
	}
	return deleted, nil
}

func (s *BasketService) CheckStock(ctx context.Context, itemNo string) (domain.Stock, error) {
	stock, err := s.stock.GetStock(ctx, itemNo)
	if err != nil {
		return domain.Stock{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return stock, nil
}
