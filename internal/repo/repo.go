package repo

import (
	"github.com/avbochkov/vendobot/internal/pg"
	accountrepo "github.com/avbochkov/vendobot/internal/repo/account-repo"
	claimrepo "github.com/avbochkov/vendobot/internal/repo/claim-repo"
	couponrepo "github.com/avbochkov/vendobot/internal/repo/coupon-repo"
	orderrepo "github.com/avbochkov/vendobot/internal/repo/order-repo"
	pricingrepo "github.com/avbochkov/vendobot/internal/repo/pricing-repo"
)

type Repositories struct {
	Account *accountrepo.Repository
	Coupon  *couponrepo.Repository
	Order   *orderrepo.Repository
	Claim   *claimrepo.Repository
	Pricing *pricingrepo.Repository
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		Account: accountrepo.New(conn),
		Coupon:  couponrepo.New(conn),
		Order:   orderrepo.New(conn),
		Claim:   claimrepo.New(conn),
		Pricing: pricingrepo.New(conn),
	}
}
