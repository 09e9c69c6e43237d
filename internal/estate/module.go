// Package estate provides the estate evaluation module.
package estate

import (
	"estate_analyzer/internal/estate/handler"
	"estate_analyzer/internal/estate/service"
	"estate_analyzer/internal/estate/valuation"
	apphttp "estate_analyzer/internal/http"
	"estate_analyzer/platform/logger"
	"estate_analyzer/platform/validator"
)

// Module represents the estate domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new estate module with all dependencies wired.
// cache may be nil, which disables result caching.
func NewModule(assumptions valuation.Assumptions, cache service.Cache, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(assumptions, log)
	svc.SetCache(cache)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "estate"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterEstateRoutes(ctx.V1.Group("/estates"))
	m.handler.RegisterLoanRoutes(ctx.V1.Group("/loans"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
