package bootstrap

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	annotationinadapter "lectio/internal/modules/annotation/adapter/in"
	annotationoutadapter "lectio/internal/modules/annotation/adapter/out"
	annotationservice "lectio/internal/modules/annotation/service"
	annotationusecase "lectio/internal/modules/annotation/usecase"
	extensioninadapter "lectio/internal/modules/extension/adapter/in"
	extensionoutadapter "lectio/internal/modules/extension/adapter/out"
	extensionservice "lectio/internal/modules/extension/service"
	extensionusecase "lectio/internal/modules/extension/usecase"
	libraryinadapter "lectio/internal/modules/library/adapter/in"
	libraryoutadapter "lectio/internal/modules/library/adapter/out"
	libraryservice "lectio/internal/modules/library/service"
	libraryusecase "lectio/internal/modules/library/usecase"
	sessioninadapter "lectio/internal/modules/session/adapter/in"
	sessionoutadapter "lectio/internal/modules/session/adapter/out"
	sessionservice "lectio/internal/modules/session/service"
	sessionusecase "lectio/internal/modules/session/usecase"
	statsinadapter "lectio/internal/modules/stats/adapter/in"
	statsoutadapter "lectio/internal/modules/stats/adapter/out"
	statsservice "lectio/internal/modules/stats/service"
	statsusecase "lectio/internal/modules/stats/usecase"
	"lectio/internal/platform/clock"
	"lectio/internal/platform/config"
	"lectio/internal/platform/id"
	uiapp "lectio/internal/ui/app"
)

type App struct {
	SessionCLI    sessioninadapter.CLIHandler
	LibraryCLI    libraryinadapter.CLIHandler
	AnnotationCLI annotationinadapter.CLIHandler
	StatsCLI      statsinadapter.CLIHandler
	ExtensionCLI  extensioninadapter.CLIHandler
}

func New(cfg config.Config) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.RandomHex{}

	extensionUC := extensionusecase.NewInteractor(extensionservice.NewExtensionService(
		extensionoutadapter.NewFileManifestStore(cfg.ExtensionsDir),
		extensionoutadapter.NewGRPCHost(),
	))

	bookIndex, err := libraryoutadapter.NewSQLiteBookIndex(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new book index: %w", err)
	}
	libraryUC := libraryusecase.NewInteractor(libraryservice.NewBookService(
		clk, ids,
		libraryoutadapter.NewCardStore(cfg.HomePath),
		bookIndex,
		libraryoutadapter.NewFileInspector(),
	))

	records, err := sessionoutadapter.NewSQLiteRecordStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new record store: %w", err)
	}
	// The highlight source starts unbound; the annotation module needs the
	// session usecase before it can be built, so it is bound below.
	highlights := sessionoutadapter.NewAnnotationHighlightSource()
	sessionSvc := sessionservice.NewSessionService(
		cfg.HomePath,
		records,
		sessionoutadapter.NewYAMLSettingsStore(cfg.SettingsPath),
		sessionoutadapter.NewFileEventStore(cfg.HomePath),
		highlights,
		sessionoutadapter.NewExtensionNotifier(extensionUC),
		sessionoutadapter.NewFileDaemonStore(cfg.HomePath),
		sessionoutadapter.NewJSONRPCServer(),
		sessionoutadapter.NewJSONRPCClient(),
		clk,
		ids,
	)
	sessionUC := sessionusecase.NewInteractor(sessionSvc, libraryUC,
		sessionoutadapter.NewMarkdownWrapUpExporter(cfg.HomePath))

	annotationStore, err := annotationoutadapter.NewSQLiteAnnotationStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new annotation store: %w", err)
	}
	annotationUC := annotationusecase.NewInteractor(annotationservice.NewAnnotationService(
		clk, ids,
		annotationStore,
		annotationStore,
		annotationoutadapter.NewSessionEngineGateway(sessionUC),
	))
	highlights.Bind(annotationUC)

	statsStore, err := statsoutadapter.NewSQLiteStatsStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new stats store: %w", err)
	}
	statsUC := statsusecase.NewInteractor(statsservice.NewStatsService(statsStore, clk))

	return &App{
		SessionCLI:    sessioninadapter.NewCLIHandler(sessionUC),
		LibraryCLI:    libraryinadapter.NewCLIHandler(libraryUC),
		AnnotationCLI: annotationinadapter.NewCLIHandler(annotationUC),
		StatsCLI:      statsinadapter.NewCLIHandler(statsUC),
		ExtensionCLI:  extensioninadapter.NewCLIHandler(extensionUC),
	}, nil
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.LibraryCLI, app.SessionCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
