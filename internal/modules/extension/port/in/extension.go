package in

import (
	"context"

	"lectio/internal/modules/extension/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.ExtensionInfo, error)
	Check(ctx context.Context) ([]dto.CheckResult, error)
	// Notify fans the event out to every enabled notifier extension. A
	// failing extension is reported but never stops the others.
	Notify(ctx context.Context, input dto.NotifyInput) error
	// Ping sends a test notification through one named extension.
	Ping(ctx context.Context, name string) (dto.PingResult, error)
}
