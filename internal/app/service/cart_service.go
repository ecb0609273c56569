package service

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrCartItemMissing = errors.New("cart item not found")
)

// CartSummary is a cart with its recomputed totals. Prices always come from
// the current catalog, never from when the item was added.
type CartSummary struct {
	Items     []model.CartItem `json:"items"`
	ItemCount int              `json:"item_count"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
}

type CartService interface {
	GetCart(userID uint) (*CartSummary, error)
	AddToCart(userID, productID uint, quantity int) (*CartSummary, error)
	UpdateCartItem(userID, productID uint, quantity int) (*CartSummary, error)
	RemoveFromCart(userID, productID uint) (*CartSummary, error)
	ClearCart(userID uint) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(userID uint) (*CartSummary, error) {
	logger.Debug("Fetching cart", map[string]interface{}{
		"user_id": userID,
	})

	items, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	return buildSummary(items), nil
}

// AddToCart is additive: adding a product already in the cart increases its
// quantity. Stock is validated against the combined quantity.
func (s *cartService) AddToCart(userID, productID uint, quantity int) (*CartSummary, error) {
	logger.Info("Adding product to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	// Inactive products are hidden from the storefront, so adding one is
	// indistinguishable from adding a product that does not exist.
	if !product.IsActive {
		return nil, ErrProductNotFound
	}

	existing, err := s.cartRepo.FindByUserAndProduct(userID, productID)
	switch {
	case err == nil:
		newQuantity := existing.Quantity + quantity
		if !product.InStock(newQuantity) {
			logger.Warn("Add to cart rejected: insufficient stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
				"requested":  newQuantity,
				"available":  product.StockQuantity,
			})
			return nil, &StockConflictError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   newQuantity,
				Available:   product.StockQuantity,
			}
		}
		existing.Quantity = newQuantity
		if err := s.cartRepo.Update(existing); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !product.InStock(quantity) {
			return nil, &StockConflictError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   quantity,
				Available:   product.StockQuantity,
			}
		}
		item := &model.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := s.cartRepo.Create(item); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.GetCart(userID)
}

// UpdateCartItem replaces the quantity outright. Zero or negative removes
// the item.
func (s *cartService) UpdateCartItem(userID, productID uint, quantity int) (*CartSummary, error) {
	logger.Info("Updating cart item", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity <= 0 {
		return s.RemoveFromCart(userID, productID)
	}

	existing, err := s.cartRepo.FindByUserAndProduct(userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemMissing
		}
		return nil, err
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.InStock(quantity) {
		return nil, &StockConflictError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.StockQuantity,
		}
	}

	existing.Quantity = quantity
	if err := s.cartRepo.Update(existing); err != nil {
		return nil, err
	}

	return s.GetCart(userID)
}

// RemoveFromCart is idempotent: removing an absent product succeeds
func (s *cartService) RemoveFromCart(userID, productID uint) (*CartSummary, error) {
	logger.Info("Removing product from cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if err := s.cartRepo.DeleteByUserAndProduct(userID, productID); err != nil {
		return nil, err
	}

	return s.GetCart(userID)
}

// ClearCart is idempotent: clearing an empty cart succeeds
func (s *cartService) ClearCart(userID uint) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	return s.cartRepo.DeleteByUserID(userID)
}

func buildSummary(items []model.CartItem) *CartSummary {
	summary := &CartSummary{
		Items:    items,
		Subtotal: decimal.Zero,
	}
	if summary.Items == nil {
		summary.Items = []model.CartItem{}
	}

	for _, item := range items {
		summary.ItemCount += item.Quantity
		lineTotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		summary.Subtotal = summary.Subtotal.Add(lineTotal)
	}

	return summary
}
