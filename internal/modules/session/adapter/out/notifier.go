package out

import (
	"context"

	extensiondto "lectio/internal/modules/extension/dto"
	extensionin "lectio/internal/modules/extension/port/in"
	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
)

// ExtensionNotifier forwards engine events to the extension host, which fans
// them out to installed notifier extensions.
type ExtensionNotifier struct {
	extensions extensionin.Usecase
}

func NewExtensionNotifier(extensions extensionin.Usecase) sessionout.Notifier {
	return &ExtensionNotifier{extensions: extensions}
}

func (n *ExtensionNotifier) Notify(ctx context.Context, event domain.Event) error {
	return n.extensions.Notify(ctx, extensiondto.NotifyInput{
		Type:       string(event.Type),
		Message:    event.Message,
		OccurredAt: event.OccurredAt,
		Fields:     event.Fields,
	})
}
