package main

import (
	"github.com/hibiken/asynq"

	cartJob "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/job"
	orderJob "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/job"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Order lifecycle
	autoCancel   *orderJob.AutoCancelOrderHandler
	autoComplete *orderJob.AutoCompleteOrdersHandler

	// Promotion maintenance
	removeExpiredPromotions *cartJob.RemoveExpiredPromotionsHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		autoCancel:              c.AutoCancelOrderHandler,
		autoComplete:            c.AutoCompleteOrdersHandler,
		removeExpiredPromotions: c.RemoveExpiredPromotionsHandler,
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeAutoCancelOrder, h.autoCancel.ProcessTask)
	mux.HandleFunc(shared.TypeAutoCompleteOrders, h.autoComplete.ProcessTask)
	mux.HandleFunc(shared.TypeRemoveExpiredPromotions, h.removeExpiredPromotions.ProcessTask)
}
