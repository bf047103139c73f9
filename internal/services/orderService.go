package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arzan03/medistore/internal/db"
	"github.com/arzan03/medistore/internal/events"
	"github.com/arzan03/medistore/internal/models"
	"github.com/arzan03/medistore/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxParallelStockOps bounds concurrent stock reads and writes per order.
const maxParallelStockOps = 8

var errStockTaken = errors.New("stock taken by a concurrent order")

type OrderService struct {
	orders    OrderStore
	medicines MedicineStore
	cache     Cache
	events    EventPublisher
	logger    zerolog.Logger
}

func NewOrderService(orders OrderStore, medicines MedicineStore, cache Cache, publisher EventPublisher, logger zerolog.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		medicines: medicines,
		cache:     cache,
		events:    publisher,
		logger:    logger,
	}
}

// line is one distinct medicine in an order with its summed quantity.
type line struct {
	id   primitive.ObjectID
	raw  string
	name string
	qty  int
}

// PlaceOrder validates every item against current stock, reserves the stock
// with a guarded decrement and then writes one order per item. Reservations
// are released if any later step fails, so stock never goes negative and no
// stored order is left without its stock taken.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, items []models.OrderItem) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user ID format")
	}
	lines, err := collectLines(items)
	if err != nil {
		return err
	}

	if err := s.checkStock(ctx, lines); err != nil {
		return err
	}
	if err := s.reserve(ctx, lines); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)

	now := time.Now().UTC()
	orders := make([]models.Order, len(items))
	ids := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		// collectLines already validated every id
		mid, _ := primitive.ObjectIDFromHex(item.MedicineID())
		ids[i] = primitive.NewObjectID()
		orders[i] = models.Order{
			ID:        ids[i],
			User:      uid,
			Medicine:  mid,
			Quantity:  item.Quantity,
			Status:    models.StatusOrderPlaced,
			CreatedAt: now,
		}
	}
	if err := s.orders.CreateMany(ctx, orders); err != nil {
		s.rollbackOrders(ctx, ids, lines)
		return fmt.Errorf("create orders: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Int("items", len(orders)).Msg("Order placed")

	hexIDs := make([]string, len(ids))
	for i, id := range ids {
		hexIDs[i] = id.Hex()
	}
	s.publish(ctx, events.KeyOrderPlaced, models.OrderPlacedEvent{
		UserID:   userID,
		OrderIDs: hexIDs,
		Items:    items,
		PlacedAt: now,
	})
	return nil
}

// GetUserOrders returns the caller's orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.OrderView, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user ID format")
	}
	orders, err := s.orders.ListByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.OrderView, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus sets the order status. An unknown order id is not an error.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) error {
	st := models.OrderStatus(status)
	if !st.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid status value")
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid order ID format")
	}

	modified, err := s.orders.UpdateStatus(ctx, objID, st)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if modified {
		s.publish(ctx, events.KeyOrderStatusUpdated, models.OrderStatusEvent{
			OrderID:   id,
			Status:    st,
			UpdatedAt: time.Now().UTC(),
		})
	}
	return nil
}

func collectLines(items []models.OrderItem) ([]line, error) {
	if len(items) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Order must be a non-empty array of medicine IDs")
	}

	var lines []line
	index := make(map[primitive.ObjectID]int, len(items))
	for _, item := range items {
		raw := item.MedicineID()
		if raw == "" || item.Quantity < 1 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Each order item must have a valid medicine ID and quantity")
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid medicine ID %s", raw))
		}
		if i, ok := index[id]; ok {
			lines[i].qty += item.Quantity
			continue
		}
		index[id] = len(lines)
		lines = append(lines, line{id: id, raw: raw, qty: item.Quantity})
	}
	return lines, nil
}

// checkStock loads every medicine and reports the first line, in request
// order, that is missing or short.
func (s *OrderService) checkStock(ctx context.Context, lines []line) error {
	found := make([]*models.Medicine, len(lines))
	tasks := make([]utils.ParallelTask, len(lines))
	for i, l := range lines {
		tasks[i] = func(ctx context.Context) error {
			m, err := s.medicines.FindByID(ctx, l.id)
			found[i] = m
			return err
		}
	}
	errs := utils.RunParallelTasks(ctx, maxParallelStockOps, tasks)

	for i, l := range lines {
		if errors.Is(errs[i], db.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Medicine with ID %s not found", l.raw))
		}
		if errs[i] != nil {
			return fmt.Errorf("find medicine %s: %w", l.raw, errs[i])
		}
		if found[i].Stock < l.qty {
			return insufficientStock(found[i], l.qty)
		}
		lines[i].name = found[i].ProductName
	}
	return nil
}

func (s *OrderService) reserve(ctx context.Context, lines []line) error {
	tasks := make([]utils.ParallelTask, len(lines))
	for i, l := range lines {
		tasks[i] = func(ctx context.Context) error {
			ok, err := s.medicines.ReserveStock(ctx, l.id, l.qty)
			if err != nil {
				return err
			}
			if !ok {
				return errStockTaken
			}
			return nil
		}
	}
	errs := utils.RunParallelTasks(ctx, maxParallelStockOps, tasks)
	if utils.FirstError(errs) == nil {
		return nil
	}

	var reserved []line
	for i, err := range errs {
		if err == nil {
			reserved = append(reserved, lines[i])
		}
	}
	s.release(ctx, reserved)

	for i, err := range errs {
		if errors.Is(err, errStockTaken) {
			s.logger.Warn().Str("medicine_id", lines[i].raw).Msg("Lost stock race")
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Insufficient stock for medicine %s. Requested: %d", lines[i].name, lines[i].qty))
		}
	}
	return fmt.Errorf("reserve stock: %w", utils.FirstError(errs))
}

// rollbackOrders removes whatever part of a failed batch insert was stored and
// then gives the stock back. If the cleanup fails the stock stays reserved,
// since releasing it could oversell against orders that still exist.
func (s *OrderService) rollbackOrders(ctx context.Context, ids []primitive.ObjectID, lines []line) {
	if err := s.orders.DeleteMany(context.WithoutCancel(ctx), ids); err != nil {
		s.logger.Error().Err(err).Int("orders", len(ids)).Msg("Failed to remove partially written orders, stock stays reserved")
		return
	}
	s.release(ctx, lines)
}

// release gives reserved stock back. It ignores cancellation of ctx so a
// dropped client cannot leave stock reserved.
func (s *OrderService) release(ctx context.Context, lines []line) {
	if len(lines) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	tasks := make([]utils.ParallelTask, len(lines))
	for i, l := range lines {
		tasks[i] = func(ctx context.Context) error {
			return s.medicines.ReleaseStock(ctx, l.id, l.qty)
		}
	}
	for i, err := range utils.RunParallelTasks(ctx, maxParallelStockOps, tasks) {
		if err != nil {
			s.logger.Error().Err(err).
				Str("medicine_id", lines[i].raw).
				Int("quantity", lines[i].qty).
				Msg("Failed to release reserved stock")
		}
	}
	s.invalidateCatalog(ctx)
}

// invalidateCatalog drops the cached medicine list after stock changed.
func (s *OrderService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.DeleteByPrefix(ctx, medicineCachePrefix); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate medicine cache")
	}
}

func (s *OrderService) publish(ctx context.Context, key string, v any) {
	if err := s.events.PublishJSON(ctx, key, v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to publish event")
	}
}

func insufficientStock(m *models.Medicine, requested int) error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Insufficient stock for medicine %s. Available: %d, Requested: %d",
		m.ProductName, m.Stock, requested))
}
