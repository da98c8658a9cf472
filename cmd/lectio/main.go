package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lectio/internal/bootstrap"
	sessiondto "lectio/internal/modules/session/dto"
	"lectio/internal/platform/config"
	apperrors "lectio/internal/platform/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var homePath string

	root := &cobra.Command{
		Use:           "lectio",
		Short:         "Terminal reading session manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&homePath, "home", "", "lectio home (defaults to $LECTIO_HOME or ~/.lectio)")

	root.AddCommand(newTUICmd(&homePath))
	root.AddCommand(newStartCmd(&homePath))
	root.AddCommand(newStopCmd(&homePath))
	root.AddCommand(newStatusCmd(&homePath))
	root.AddCommand(newActivityCmd(&homePath))
	root.AddCommand(newPresenceCmd(&homePath))
	root.AddCommand(newDismissCmd(&homePath))
	root.AddCommand(newBreakCmd(&homePath))
	root.AddCommand(newMicroCmd(&homePath))
	root.AddCommand(newHighlightCmd(&homePath))
	root.AddCommand(newNoteCmd(&homePath))
	root.AddCommand(newAnnotationsCmd(&homePath))
	root.AddCommand(newWrapupCmd(&homePath))
	root.AddCommand(newHistoryCmd(&homePath))
	root.AddCommand(newBookCmd(&homePath))
	root.AddCommand(newStatsCmd(&homePath))
	root.AddCommand(newDaemonCmd(&homePath))
	root.AddCommand(newExtensionCmd(&homePath))
	return root
}

func loadApp(homePath string) (*bootstrap.App, error) {
	cfg, err := config.Resolve(homePath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

func newTUICmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the lectio terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			return bootstrap.RunTUI(app)
		},
	}
}

func newStartCmd(homePath *string) *cobra.Command {
	var bookRef string
	var pomodoro bool
	var workMinutes, breakMinutes, afkTimeout, microbreakInterval int

	start := &cobra.Command{
		Use:   "start --book <ref>",
		Short: "Start a reading session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(bookRef) == "" {
				return fmt.Errorf("--book is required")
			}
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			snap, err := app.SessionCLI.Start(context.Background(), bookRef,
				cmd.Flags().Changed("pomodoro"), pomodoro,
				workMinutes, breakMinutes, afkTimeout, microbreakInterval)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session started: %s book=%q at=%s\n",
				snap.SessionID, bookLabel(snap), snap.StartedAt.Format(time.RFC3339))
			if snap.PomodoroEnabled {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pomodoro on, %s work blocks\n",
					fmtTimer(snap.PomodoroRemainingSeconds))
			}
			return nil
		},
	}
	start.Flags().StringVar(&bookRef, "book", "", "book id or slug")
	start.Flags().BoolVar(&pomodoro, "pomodoro", false, "enable the pomodoro cycle for this session")
	start.Flags().IntVar(&workMinutes, "work", 0, "pomodoro work minutes (0 uses settings)")
	start.Flags().IntVar(&breakMinutes, "break", 0, "pomodoro break minutes (0 uses settings)")
	start.Flags().IntVar(&afkTimeout, "afk-timeout", 0, "afk timeout minutes (0 uses settings)")
	start.Flags().IntVar(&microbreakInterval, "microbreak-interval", -1, "microbreak interval minutes (0 disables, unset uses settings)")
	return start
}

func newStopCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active session and show its wrap-up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			wrap, err := app.SessionCLI.Stop(context.Background())
			if err != nil {
				return err
			}
			printWrapUp(cmd.OutOrStdout(), wrap)
			return nil
		},
	}
}

func newStatusCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			snap, err := app.SessionCLI.Snapshot(context.Background())
			if errors.Is(err, apperrors.ErrNoActiveSession) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
				return nil
			}
			if err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func newActivityCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Report reading activity (resets the afk countdown)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			if err := app.SessionCLI.ReportActivity(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "activity recorded")
			return nil
		},
	}
}

func newPresenceCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "presence",
		Short: "Confirm presence after an afk pause",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			snap, err := app.SessionCLI.ConfirmPresence(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "presence confirmed, phase=%s timer=%s\n",
				snap.State, fmtTimer(snap.TimerSeconds))
			return nil
		},
	}
}

func newDismissCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss",
		Short: "Dismiss the afk prompt and wrap the session up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			wrap, err := app.SessionCLI.DismissAFK(context.Background())
			if err != nil {
				return err
			}
			printWrapUp(cmd.OutOrStdout(), wrap)
			return nil
		},
	}
}

func newBreakCmd(homePath *string) *cobra.Command {
	breakCmd := &cobra.Command{Use: "break", Short: "Pomodoro break controls"}
	breakCmd.AddCommand(&cobra.Command{
		Use:   "skip",
		Short: "Skip the current break and return to reading",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			snap, err := app.SessionCLI.SkipBreak(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "break skipped, phase=%s\n", snap.State)
			return nil
		},
	})
	return breakCmd
}

func newMicroCmd(homePath *string) *cobra.Command {
	micro := &cobra.Command{Use: "micro", Short: "Microbreak controls"}

	micro.AddCommand(&cobra.Command{
		Use:   "take",
		Short: "Step away for a microbreak",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			snap, err := app.SessionCLI.MicrobreakTake(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "microbreak started, phase=%s\n", snap.State)
			return nil
		},
	})
	micro.AddCommand(&cobra.Command{
		Use:   "end",
		Short: "End the microbreak and resume reading",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			snap, err := app.SessionCLI.MicrobreakEnd(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "back to reading, timer=%s\n", fmtTimer(snap.TimerSeconds))
			return nil
		},
	})
	micro.AddCommand(&cobra.Command{
		Use:   "postpone",
		Short: "Postpone the pending microbreak",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			if _, err := app.SessionCLI.MicrobreakPostpone(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "microbreak postponed")
			return nil
		},
	})
	micro.AddCommand(&cobra.Command{
		Use:   "off",
		Short: "Disable microbreak prompts for the rest of the day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			if _, err := app.SessionCLI.MicrobreakDisableToday(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "microbreaks off for today")
			return nil
		},
	})
	return micro
}

func newHighlightCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "highlight [text]",
		Short: "Capture a highlight in the active session",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			body := strings.TrimSpace(strings.Join(args, " "))
			if body == "" {
				snap, err := app.SessionCLI.IncrementHighlights(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "highlights this session: %d\n", snap.HighlightsDuring)
				return nil
			}
			out, err := app.AnnotationCLI.AddHighlight(context.Background(), body)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "highlight saved: %s\n", out.ID)
			return nil
		},
	}
}

func newNoteCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "note [text]",
		Short: "Capture a note in the active session",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			body := strings.TrimSpace(strings.Join(args, " "))
			if body == "" {
				snap, err := app.SessionCLI.IncrementNotes(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "notes this session: %d\n", snap.NotesDuring)
				return nil
			}
			out, err := app.AnnotationCLI.AddNote(context.Background(), body)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "note saved: %s\n", out.ID)
			return nil
		},
	}
}

func newAnnotationsCmd(homePath *string) *cobra.Command {
	var sessionID string
	annotations := &cobra.Command{
		Use:   "annotations --session <id>",
		Short: "List highlights and notes captured in a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(sessionID) == "" {
				return fmt.Errorf("--session is required")
			}
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			rows, err := app.AnnotationCLI.ListForSession(context.Background(), sessionID)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no annotations")
				return nil
			}
			for _, row := range rows {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					row.CreatedAt.Format("15:04:05"), row.Kind, row.Body)
			}
			return nil
		},
	}
	annotations.Flags().StringVar(&sessionID, "session", "", "session id")
	return annotations
}

func newWrapupCmd(homePath *string) *cobra.Command {
	var sessionID string
	var export bool
	wrapup := &cobra.Command{
		Use:   "wrapup",
		Short: "Show the wrap-up of the latest (or a given) session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if export && strings.TrimSpace(sessionID) != "" {
				return fmt.Errorf("--export writes the latest wrap-up; drop --session")
			}
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			var wrap sessiondto.WrapUpOutput
			if strings.TrimSpace(sessionID) != "" {
				wrap, err = app.SessionCLI.WrapUpFor(context.Background(), sessionID)
			} else {
				wrap, err = app.SessionCLI.WrapUp(context.Background())
			}
			if err != nil {
				return err
			}
			printWrapUp(cmd.OutOrStdout(), wrap)
			if export {
				path, err := app.SessionCLI.WrapUpExport(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "note: %s\n", path)
			}
			return nil
		},
	}
	wrapup.Flags().StringVar(&sessionID, "session", "", "session id (defaults to the latest completed session)")
	wrapup.Flags().BoolVar(&export, "export", false, "write the wrap-up as a markdown note")
	return wrapup
}

func newHistoryCmd(homePath *string) *cobra.Command {
	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			records, err := app.SessionCLI.History(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions recorded")
				return nil
			}
			for _, rec := range records {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\tactive=%s\tpomodoros=%d\thighlights=%d\tnotes=%d\n",
					rec.StartedAt.Format("2006-01-02 15:04"), rec.SessionID, recordLabel(rec), rec.State,
					fmtActive(rec.ActiveMs), rec.CompletedPomodoros, rec.Highlights, rec.Notes)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "sessions to list")
	return history
}

func newBookCmd(homePath *string) *cobra.Command {
	book := &cobra.Command{Use: "book", Short: "Manage the book library"}

	var title string
	var authors, shelves []string
	add := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a book file to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			out, err := app.LibraryCLI.AddBook(context.Background(), args[0], title, authors, shelves)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s) card=%s\n", out.Title, out.ID, out.CardPath)
			return nil
		},
	}
	add.Flags().StringVar(&title, "title", "", "book title (defaults to file metadata)")
	add.Flags().StringSliceVar(&authors, "author", nil, "authors")
	add.Flags().StringSliceVar(&shelves, "shelf", nil, "shelves")
	book.AddCommand(add)

	book.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known books",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			books, err := app.LibraryCLI.ListBooks(context.Background())
			if err != nil {
				return err
			}
			if len(books) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no books")
				return nil
			}
			for _, b := range books {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%.0f%%\n", b.ID, b.Format, b.Title, b.Percent)
			}
			return nil
		},
	})

	var showRef string
	show := &cobra.Command{
		Use:   "show --ref <id|slug>",
		Short: "Show book details",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(showRef) == "" {
				return fmt.Errorf("--ref is required")
			}
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			b, err := app.LibraryCLI.GetBook(context.Background(), showRef)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id: %s\ntitle: %s\nslug: %s\nformat: %s\nstatus: %s\n",
				b.ID, b.Title, b.Slug, b.Format, b.Status)
			if len(b.Authors) > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "authors: %s\n", strings.Join(b.Authors, ", "))
			}
			if b.PageCount > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pages: %d/%d (%.1f%%)\n", b.CurrentPage, b.PageCount, b.Percent)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "file: %s\ncard: %s\n", b.FilePath, b.CardPath)
			if len(b.Shelves) > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "shelves: %s\n", strings.Join(b.Shelves, ", "))
			}
			return nil
		},
	}
	show.Flags().StringVar(&showRef, "ref", "", "book id or slug")
	book.AddCommand(show)

	var progressRef string
	var page int
	progress := &cobra.Command{
		Use:   "progress --ref <id|slug> --page <n>",
		Short: "Record the page you are on",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(progressRef) == "" {
				return fmt.Errorf("--ref is required")
			}
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			out, err := app.LibraryCLI.SetProgress(context.Background(), progressRef, page)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "progress updated: %s %.1f%%\n", out.Title, out.Percent)
			return nil
		},
	}
	progress.Flags().StringVar(&progressRef, "ref", "", "book id or slug")
	progress.Flags().IntVar(&page, "page", 0, "current page")
	book.AddCommand(progress)

	book.AddCommand(&cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the SQLite index from book cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			if err := app.LibraryCLI.Reindex(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "reindex completed")
			return nil
		},
	})

	return book
}

func newStatsCmd(homePath *string) *cobra.Command {
	var days int
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show reading statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			overview, err := app.StatsCLI.Overview(context.Background(), days)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "sessions=%d active=%s pomodoros=%d\n",
				overview.TotalSessions, fmtActive(overview.TotalActiveMs), overview.TotalPomodoros)
			_, _ = fmt.Fprintf(out, "streak=%dd longest=%dd\n",
				overview.CurrentStreakDays, overview.LongestStreakDays)
			if len(overview.Days) > 0 {
				_, _ = fmt.Fprintf(out, "\nlast %d days:\n", days)
				for _, day := range overview.Days {
					_, _ = fmt.Fprintf(out, "%s\tsessions=%d\tactive=%s\tpomodoros=%d\n",
						day.Day, day.Sessions, fmtActive(day.ActiveMs), day.Pomodoros)
				}
			}
			books, err := app.StatsCLI.Books(context.Background())
			if err != nil {
				return err
			}
			if len(books) > 0 {
				_, _ = fmt.Fprintln(out, "\nbooks:")
				for _, b := range books {
					_, _ = fmt.Fprintf(out, "%s\tsessions=%d\tactive=%s\thighlights=%d\tnotes=%d\tlast=%s\n",
						b.Title, b.Sessions, fmtActive(b.ActiveMs), b.Highlights, b.Notes,
						b.LastReadAt.Format("2006-01-02"))
				}
			}
			return nil
		},
	}
	stats.Flags().IntVar(&days, "days", 14, "days to include in the rollup")
	return stats
}

func newDaemonCmd(homePath *string) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the session daemon"}

	run := &cobra.Command{
		Use:    "__run",
		Short:  "Run the daemon in the foreground",
		Hidden: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			return app.SessionCLI.RunDaemon(context.Background())
		},
	}
	daemon.AddCommand(run)

	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			if err := app.SessionCLI.StartDaemon(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon started")
			return nil
		},
	})

	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			if err := app.SessionCLI.StopDaemon(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
			return nil
		},
	})

	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			status, err := app.SessionCLI.DaemonStatus(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "running=%t pid=%d socket=%s metrics=%s\n",
				status.Running, status.PID, status.SocketPath, status.MetricsAddress)
			if status.HasSession {
				printSnapshot(cmd.OutOrStdout(), status.Session)
			}
			return nil
		},
	})

	var logTail int
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			payload, err := app.SessionCLI.DaemonLogs(context.Background(), logTail)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}
	logs.Flags().IntVar(&logTail, "tail", 200, "log lines to show from the end")
	daemon.AddCommand(logs)

	var eventsSince time.Duration
	var eventsLimit int
	events := &cobra.Command{
		Use:   "events",
		Short: "Tail the daemon event journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			var since time.Time
			if eventsSince > 0 {
				since = time.Now().Add(-eventsSince)
			}
			rows, err := app.SessionCLI.ActivityTail(context.Background(), since, eventsLimit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no events")
				return nil
			}
			for _, row := range rows {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					row.OccurredAt.Format(time.RFC3339), row.Type, row.Message)
			}
			return nil
		},
	}
	events.Flags().DurationVar(&eventsSince, "since", 0, "only events newer than this (for example 1h)")
	events.Flags().IntVar(&eventsLimit, "limit", 50, "events to show")
	daemon.AddCommand(events)

	daemon.AddCommand(&cobra.Command{
		Use:   "metrics",
		Short: "Show daemon runtime counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			m, err := app.SessionCLI.Metrics(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pid=%d up_since=%s ticks=%d broadcasts=%d\n",
				m.PID, m.StartedAt.Format(time.RFC3339), m.Ticks, m.Broadcasts)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sessions started=%d completed=%d active=%t\n",
				m.SessionsStarted, m.SessionsCompleted, m.ActiveSession)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "persist errors=%d drops=%d endpoint=%s\n",
				m.PersistErrors, m.PersistDrops, m.MetricsAddress)
			return nil
		},
	})

	return daemon
}

func newExtensionCmd(homePath *string) *cobra.Command {
	extension := &cobra.Command{Use: "extension", Short: "Notifier extension operations"}

	extension.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List extension manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			extensions, err := app.ExtensionCLI.List(context.Background())
			if err != nil {
				return err
			}
			if len(extensions) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no extensions configured")
				return nil
			}
			for _, ext := range extensions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t binary=%s capabilities=%s\n",
					ext.Name, ext.Version, ext.Enabled, ext.Binary, strings.Join(ext.Capabilities, ","))
			}
			return nil
		},
	})

	extension.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate extension checksums and lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			results, err := app.ExtensionCLI.Check(context.Background())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no extensions configured")
				return nil
			}
			failed := false
			for _, r := range results {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s checksum=%t binary=%t lifecycle=%t",
					r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
				if r.Error != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", r.Error)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				if !r.ChecksumValid || !r.BinaryReachable || !r.LifecycleOK {
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("extension check found failing extensions")
			}
			return nil
		},
	})

	var pingName string
	pingCmd := &cobra.Command{
		Use:   "ping --name <name>",
		Short: "Send a test notification through one extension",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(pingName) == "" {
				return fmt.Errorf("--name is required")
			}
			app, err := loadApp(*homePath)
			if err != nil {
				return err
			}
			result, err := app.ExtensionCLI.Ping(context.Background(), pingName)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pong from %s@%s capabilities=%s\n",
				result.Name, result.Version, strings.Join(result.Capabilities, ","))
			return nil
		},
	}
	pingCmd.Flags().StringVar(&pingName, "name", "", "extension name")
	extension.AddCommand(pingCmd)

	return extension
}

func printSnapshot(w io.Writer, snap sessiondto.SnapshotOutput) {
	_, _ = fmt.Fprintf(w, "phase=%s book=%q timer=%s active=%s\n",
		snap.State, bookLabel(snap), fmtTimer(snap.TimerSeconds), fmtActive(snap.ActiveMs))
	if snap.PomodoroEnabled {
		_, _ = fmt.Fprintf(w, "pomodoro remaining=%s completed=%d\n",
			fmtTimer(snap.PomodoroRemainingSeconds), snap.CompletedPomodoros)
	}
	_, _ = fmt.Fprintf(w, "highlights=%d notes=%d", snap.HighlightsDuring, snap.NotesDuring)
	if snap.MicrobreakPending {
		_, _ = fmt.Fprint(w, " microbreak_pending=true")
	}
	_, _ = fmt.Fprintln(w)
}

func printWrapUp(w io.Writer, wrap sessiondto.WrapUpOutput) {
	label := wrap.BookTitle
	if label == "" {
		label = wrap.BookID
	}
	_, _ = fmt.Fprintf(w, "session %s (%s) completed\n", wrap.SessionID, label)
	_, _ = fmt.Fprintf(w, "started=%s ended=%s active=%s\n",
		wrap.StartedAt.Format("2006-01-02 15:04"), wrap.EndedAt.Format("15:04"), fmtActive(wrap.ActiveMs))
	_, _ = fmt.Fprintf(w, "pomodoros=%d highlights=%d notes=%d afk_pauses=%d microbreaks=%d\n",
		wrap.CompletedPomodoros, wrap.Highlights, wrap.Notes, wrap.AFKPauses, wrap.MicrobreaksTaken)
	if len(wrap.TopHighlights) > 0 {
		_, _ = fmt.Fprintln(w, "top highlights:")
		for _, excerpt := range wrap.TopHighlights {
			_, _ = fmt.Fprintf(w, "  - %s\n", excerpt.Body)
		}
	}
}

func bookLabel(snap sessiondto.SnapshotOutput) string {
	if snap.BookTitle != "" {
		return snap.BookTitle
	}
	return snap.BookID
}

func recordLabel(rec sessiondto.RecordOutput) string {
	if rec.BookTitle != "" {
		return rec.BookTitle
	}
	return rec.BookID
}

func fmtActive(activeMs int64) string {
	return (time.Duration(activeMs) * time.Millisecond).Round(time.Second).String()
}

func fmtTimer(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := totalSeconds % 3600 / 60
	s := totalSeconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
