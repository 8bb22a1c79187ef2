package client

import (
	"context"
	"log/slog"
	"net/http"
)

// CartService manages the logged-in student's cart.
type CartService service

// AddCartItemInput puts a course period into the cart.
type AddCartItemInput struct {
	CourseID string `json:"cursoId" validate:"required"`
	PeriodID string `json:"periodoId" validate:"required"`
}

// CheckoutInput pays for the cart.
type CheckoutInput struct {
	PaymentMethod PaymentMethod `json:"metodoPago" validate:"required,oneof=efectivo transferencia tarjeta"`
}

// AddItem adds a course period to the cart.
func (s *CartService) AddItem(ctx context.Context, in AddCartItemInput) (*Message, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var msg Message
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/carrito/items", body: in}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Items returns the cart content; an empty cart is an empty slice.
func (s *CartService) Items(ctx context.Context) ([]CartItem, error) {
	var cart struct {
		Items []CartItem `json:"items"`
	}
	if err := s.client.call(ctx, request{method: http.MethodGet, path: "/carrito"}, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		return []CartItem{}, nil
	}
	return cart.Items, nil
}

// RemoveItem takes an item out of the cart.
func (s *CartService) RemoveItem(ctx context.Context, itemID string) (*Message, error) {
	var msg Message
	if err := s.client.call(ctx, request{method: http.MethodDelete, path: pathID("/carrito/items", itemID)}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Checkout turns the cart into pending enrollments.
func (s *CartService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var res CheckoutResult
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/carrito/checkout", body: in}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Lines returns the cart with each item's course and period resolved, fetching
// whatever the backend did not populate. An item whose course or period cannot
// be resolved is kept with that part left nil.
func (s *CartService) Lines(ctx context.Context) (CartLines, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}

	lines := make(CartLines, 0, len(items))
	for _, item := range items {
		line := CartLine{Item: item}
		line.Course = s.resolveCourse(ctx, item)
		line.Period = s.resolvePeriod(ctx, item)
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *CartService) resolveCourse(ctx context.Context, item CartItem) *Course {
	log := s.client.logger.With(slog.String("cart_item", item.ID), slog.String("course", item.Course.ID))

	if item.Course.Populated() {
		var c Course
		if err := item.Course.Decode(&c); err != nil {
			log.Debug("cart course not decodable", slog.Any("error", err))
			return nil
		}
		return &c
	}
	if item.Course.ID == "" {
		return nil
	}
	c, err := (*CourseService)(s).Get(ctx, item.Course.ID)
	if err != nil {
		log.Debug("cart course not resolved", slog.Any("error", err))
		return nil
	}
	return c
}

func (s *CartService) resolvePeriod(ctx context.Context, item CartItem) *Period {
	log := s.client.logger.With(slog.String("cart_item", item.ID), slog.String("period", item.Period.ID))

	if item.Period.Populated() {
		var p Period
		if err := item.Period.Decode(&p); err != nil {
			log.Debug("cart period not decodable", slog.Any("error", err))
			return nil
		}
		return &p
	}
	if item.Course.ID == "" || item.Period.ID == "" {
		return nil
	}
	periods, err := (*CourseService)(s).Periods(ctx, item.Course.ID)
	if err != nil {
		log.Debug("cart period not resolved", slog.Any("error", err))
		return nil
	}
	for i := range periods {
		if periods[i].ID == item.Period.ID {
			return &periods[i]
		}
	}
	return nil
}
