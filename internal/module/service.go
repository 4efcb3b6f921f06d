// Package module manages the tenant's feature/menu module list. The list
// is owned by the session and replaced wholesale on login or refresh, never
// merged entry by entry.
package module

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gatelink/gatelink/internal/backend"
	"github.com/gatelink/gatelink/internal/session"
)

// listResponse is the backend envelope for GET /modules.
type listResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Results []session.Module `json:"results"`
	} `json:"data"`
}

// Service refreshes and inspects the session's module list.
type Service struct {
	api    *backend.Client
	store  *session.Store
	logger zerolog.Logger
}

// ServiceConfig holds configuration for the module service.
type ServiceConfig struct {
	// API is the backend client. Required.
	API *backend.Client

	// Store is the session store the module list lives in. Required.
	Store *session.Store

	Logger zerolog.Logger
}

// NewService creates a module service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		api:    cfg.API,
		store:  cfg.Store,
		logger: cfg.Logger,
	}
}

// Refresh fetches the current module list and installs it in the session,
// replacing the previous list wholesale.
func (s *Service) Refresh(ctx context.Context) ([]session.Module, error) {
	var resp listResponse
	if err := s.api.Get(ctx, "/modules", nil, &resp); err != nil {
		return nil, fmt.Errorf("refresh modules: %w", err)
	}

	s.store.UpdateModules(ctx, resp.Data.Results)
	s.logger.Info().Int("modules", len(resp.Data.Results)).Msg("module list refreshed")
	return resp.Data.Results, nil
}

// Sorted returns a copy of modules in display order: ascending Order, ties
// broken by ID for a stable menu.
func Sorted(modules []session.Module) []session.Module {
	out := append([]session.Module(nil), modules...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MobileVisible filters modules down to the ones flagged for mobile
// rendering.
func MobileVisible(modules []session.Module) []session.Module {
	out := make([]session.Module, 0, len(modules))
	for _, m := range modules {
		if m.IsRenderMobile == 1 {
			out = append(out, m)
		}
	}
	return out
}
