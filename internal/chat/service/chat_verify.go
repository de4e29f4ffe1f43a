// Package service — chat_verify.go implements the -verify startup check.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Verify exercises every external dependency once, concurrently: a trivial
// model generation, a knowledge-base query, and an order-store probe. Used by
// the -verify flag to validate AWS wiring before the service goes live.
func (s *ChatService) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		reply, err := s.model.Generate(ctx, "Say 'test' and nothing else.")
		if err != nil {
			return err
		}
		s.logger.Info("model verification ok", zap.Int("reply_length", len(reply)))
		return nil
	})

	g.Go(func() error {
		// An empty result is fine here; only transport errors matter.
		_, err := s.kb.Query(ctx, "What products does Rivertown Ball Company sell?")
		if err != nil {
			return err
		}
		s.logger.Info("knowledge base verification ok")
		return nil
	})

	g.Go(func() error {
		_, _, err := s.orders.GetCustomerOrders(ctx, "Health", "Check")
		if err != nil {
			return err
		}
		s.logger.Info("order store verification ok")
		return nil
	})

	return g.Wait()
}
