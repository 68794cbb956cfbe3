package payment

import (
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/aims-commerce/internal"
)

// ServiceFactory creates payment domain services for the methods it supports.
type ServiceFactory interface {
	SupportsMethod(method string) bool
	SupportsRegion(region string) bool
	CreateService(method string) (DomainService, error)
}

// VietnamFactory serves the Vietnamese market: VNPay redirects and cash on
// delivery.
type VietnamFactory struct {
	vnpay *VNPayService
	cod   *CODService
}

func NewVietnamFactory(vnpayService *VNPayService, codService *CODService) *VietnamFactory {
	return &VietnamFactory{
		vnpay: vnpayService,
		cod:   codService,
	}
}

func (f *VietnamFactory) SupportsMethod(method string) bool {
	return method == MethodVNPay || method == MethodCOD
}

func (f *VietnamFactory) SupportsRegion(region string) bool {
	return region == "" || region == RegionVietnam
}

func (f *VietnamFactory) CreateService(method string) (DomainService, error) {
	switch method {
	case MethodVNPay:
		return f.vnpay, nil
	case MethodCOD:
		return f.cod, nil
	default:
		return nil, errors.NewUnsupportedError(
			fmt.Sprintf("payment method %s is not available in region %s", method, RegionVietnam),
			errors.ErrCodeUnsupportedPaymentMethod)
	}
}

// GlobalFactory reserves the card and bank transfer methods for markets that
// have no gateway wired yet. CreateService always fails with a typed error so
// callers can tell a configuration gap from a gateway rejection.
type GlobalFactory struct{}

func NewGlobalFactory() *GlobalFactory {
	return &GlobalFactory{}
}

func (f *GlobalFactory) SupportsMethod(method string) bool {
	return method == MethodCard || method == MethodBankTransfer
}

func (f *GlobalFactory) SupportsRegion(region string) bool {
	return region == "" || region == RegionGlobal
}

func (f *GlobalFactory) CreateService(method string) (DomainService, error) {
	return nil, errors.NewUnsupportedError(
		fmt.Sprintf("payment method %s is not supported yet", method),
		errors.ErrCodeUnsupportedPaymentMethod)
}

// Coordinator routes a payment method to the first registered factory that
// supports it, filtered by region when one is given.
type Coordinator struct {
	factories []ServiceFactory
	logger    *slog.Logger
}

func NewCoordinator(logger *slog.Logger, factories ...ServiceFactory) *Coordinator {
	return &Coordinator{
		factories: factories,
		logger:    logger,
	}
}

func (c *Coordinator) ServiceFor(method, region string) (DomainService, error) {
	for _, factory := range c.factories {
		if !factory.SupportsMethod(method) {
			continue
		}
		if region != "" && !factory.SupportsRegion(region) {
			continue
		}
		return factory.CreateService(method)
	}

	c.logger.Warn("no payment factory for method", "method", method, "region", region)
	return nil, errors.NewUnsupportedError(
		fmt.Sprintf("unsupported payment method: %s", method),
		errors.ErrCodeUnsupportedPaymentMethod)
}
