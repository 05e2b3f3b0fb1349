package handlers

import (
	"github.com/siteforge/domainops/internal/logger"
	"github.com/siteforge/domainops/internal/repository"
	"github.com/siteforge/domainops/services"
)

type APIHandlers struct {
	Purchases *PurchaseHandler
	Domains   *DomainHandler
}

func InitHandlers(log logger.Logger, repos *repository.Repositories, svcs *services.Services) *APIHandlers {
	return &APIHandlers{
		Purchases: NewPurchaseHandler(log, svcs.PurchaseService),
		Domains:   NewDomainHandler(log, repos, svcs.TeardownService),
	}
}
