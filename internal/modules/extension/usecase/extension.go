package usecase

import (
	"context"

	"lectio/internal/modules/extension/dto"
	extensionin "lectio/internal/modules/extension/port/in"
	"lectio/internal/modules/extension/service"
)

type Interactor struct {
	svc *service.ExtensionService
}

func NewInteractor(svc *service.ExtensionService) extensionin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.ExtensionInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Check(ctx context.Context) ([]dto.CheckResult, error) {
	return i.svc.Check(ctx)
}

func (i *Interactor) Notify(ctx context.Context, input dto.NotifyInput) error {
	return i.svc.Notify(ctx, input)
}

func (i *Interactor) Ping(ctx context.Context, name string) (dto.PingResult, error) {
	meta, err := i.svc.Ping(ctx, name)
	if err != nil {
		return dto.PingResult{}, err
	}
	capabilities := make([]string, 0, len(meta.Capabilities))
	for _, capability := range meta.Capabilities {
		capabilities = append(capabilities, string(capability))
	}
	return dto.PingResult{Name: meta.Name, Version: meta.Version, Capabilities: capabilities}, nil
}
