package in

import (
	"context"

	"lectio/internal/modules/extension/dto"
	extensionin "lectio/internal/modules/extension/port/in"
)

type CLIHandler struct {
	usecase extensionin.Usecase
}

func NewCLIHandler(usecase extensionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.ExtensionInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Check(ctx context.Context) ([]dto.CheckResult, error) {
	return h.usecase.Check(ctx)
}

func (h CLIHandler) Ping(ctx context.Context, name string) (dto.PingResult, error) {
	return h.usecase.Ping(ctx, name)
}
