package service

import (
	"github.com/avbochkov/vendobot/internal/config"
	"github.com/avbochkov/vendobot/internal/pg"
	"github.com/avbochkov/vendobot/internal/repo"
	"github.com/avbochkov/vendobot/internal/service/accountservice"
	"github.com/avbochkov/vendobot/internal/service/depositservice"
	"github.com/avbochkov/vendobot/internal/service/inventoryservice"
	"github.com/avbochkov/vendobot/internal/service/pricingservice"
	"github.com/avbochkov/vendobot/internal/service/settlementservice"
)

type Services struct {
	Account    *accountservice.Service
	Inventory  *inventoryservice.Service
	Settlement *settlementservice.Service
	Deposit    *depositservice.Service
	Pricing    *pricingservice.Service
}

func New(cfg *config.Config, repo *repo.Repositories, txManager pg.TXManager, notifier depositservice.Notifier) *Services {
	inventoryService := inventoryservice.New(repo.Coupon, txManager)
	settlementService := settlementservice.New(inventoryService, repo.Account, repo.Order, repo.Pricing, txManager)
	depositService := depositservice.New(repo.Claim, repo.Account, notifier, txManager, cfg.OperatorID, cfg.DepositMin, cfg.CoinRate)
	accountService := accountservice.New(repo.Account, repo.Order)
	pricingService := pricingservice.New(repo.Pricing)

	return &Services{
		Account:    accountService,
		Inventory:  inventoryService,
		Settlement: settlementService,
		Deposit:    depositService,
		Pricing:    pricingService,
	}
}
