// Package service implements the business logic: cart management,
// checkout orchestration, order queries and payment reconciliation.
package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/repository"
)

// CartView is a cart joined with live catalog data. Prices here are
// informational: the authoritative price snapshot happens at checkout.
type CartView struct {
	CustomerID string         `json:"customer_id"`
	Items      []CartItemView `json:"items"`
	TotalCents int64          `json:"total_cents"`
}

// CartItemView is a cart line enriched with product name and price.
type CartItemView struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// CartService implements cart operations.
type CartService struct {
	carts   repository.CartStore
	catalog repository.CatalogStore
	logger  *slog.Logger
}

// NewCartService creates a cart service.
func NewCartService(carts repository.CartStore, catalog repository.CatalogStore, logger *slog.Logger) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		logger:  logger,
	}
}

// Get returns the customer's cart joined with current catalog data.
// Items whose product vanished from the catalog are dropped from the
// view and from the stored cart.
func (s *CartService) Get(ctx context.Context, customerID string) (*CartView, error) {
	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return s.buildView(ctx, cart)
}

// AddItem adds a product to the cart, merging quantities when the
// product is already there. The stock check here is advisory: the
// binding check happens at checkout.
func (s *CartService) AddItem(ctx context.Context, customerID, productID string, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product for cart: %w", err)
	}

	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	resulting := quantity
	if idx := cart.FindItemIndex(productID); idx >= 0 {
		resulting += cart.Items[idx].Quantity
	}
	if product.Stock < resulting {
		return nil, apperrors.InsufficientStock(product.Name, resulting, product.Stock)
	}

	cart.AddItem(productID, quantity)

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item added",
		slog.String("customer_id", customerID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return s.buildView(ctx, cart)
}

// UpdateItemQuantity sets the quantity of a cart line. Zero or negative
// removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, customerID, productID string, quantity int) (*CartView, error) {
	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if cart.FindItemIndex(productID) < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if quantity > 0 {
		product, err := s.catalog.GetByID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get product for cart: %w", err)
		}
		if product.Stock < quantity {
			return nil, apperrors.InsufficientStock(product.Name, quantity, product.Stock)
		}
	}

	cart.SetItemQuantity(productID, quantity)

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("customer_id", customerID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return s.buildView(ctx, cart)
}

// RemoveItem removes a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID string) (*CartView, error) {
	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if !cart.RemoveItem(productID) {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item removed",
		slog.String("customer_id", customerID),
		slog.String("product_id", productID),
	)

	return s.buildView(ctx, cart)
}

// Clear empties the customer's cart.
func (s *CartService) Clear(ctx context.Context, customerID string) error {
	if err := s.carts.Clear(ctx, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) buildView(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	view := &CartView{
		CustomerID: cart.CustomerID,
		Items:      make([]CartItemView, 0, len(cart.Items)),
	}
	if cart.IsEmpty() {
		return view, nil
	}

	ids := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}

	products, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get cart products: %w", err)
	}

	// Removal mutates cart.Items, so collect stale lines first and
	// prune once the iteration is done.
	var stale []string
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			// Product removed from the catalog since it was added.
			stale = append(stale, item.ProductID)
			continue
		}
		subtotal := product.PriceCents * int64(item.Quantity)
		view.Items = append(view.Items, CartItemView{
			ProductID:      product.ID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
			SubtotalCents:  subtotal,
		})
		view.TotalCents += subtotal
	}

	if len(stale) > 0 {
		for _, id := range stale {
			cart.RemoveItem(id)
		}
		if err := s.carts.Save(ctx, cart); err != nil {
			s.logger.WarnContext(ctx, "failed to prune stale cart items",
				slog.String("customer_id", cart.CustomerID),
				slog.String("error", err.Error()),
			)
		}
	}

	return view, nil
}
