package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jzmstrjp/kikitori/internal/app"
	"github.com/jzmstrjp/kikitori/internal/audio"
	"github.com/jzmstrjp/kikitori/internal/config"
	"github.com/jzmstrjp/kikitori/internal/logger"
	"github.com/jzmstrjp/kikitori/internal/media"
	"github.com/jzmstrjp/kikitori/internal/queue"
	"github.com/jzmstrjp/kikitori/internal/screen"
	sess "github.com/jzmstrjp/kikitori/internal/session"
	sessionscreen "github.com/jzmstrjp/kikitori/internal/screens/session"
	"github.com/jzmstrjp/kikitori/internal/settings"
	"github.com/jzmstrjp/kikitori/internal/source"
	"github.com/jzmstrjp/kikitori/internal/store"
)

// runApp loads config, opens the store, wires the services, and launches
// the TUI.
func runApp(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	broker := settings.NewBroker()
	settingsStore := settings.New(st.KV(), broker, log)

	client := source.NewClient(source.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.FetchTimeout,
		Retry:   source.DefaultRetryConfig(),
	}, log)

	cacheDir, err := media.DefaultCacheDir()
	if err != nil {
		return fmt.Errorf("resolve cache dir: %w", err)
	}
	cache, err := media.NewCache(cacheDir, log)
	if err != nil {
		return fmt.Errorf("init media cache: %w", err)
	}

	var player audio.Player
	player, err = audio.NewBeepPlayer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Audio device unavailable, running muted:", err)
		log.Warn("audio device unavailable, running muted", zap.Error(err))
		player = audio.SilentPlayer{}
	}

	buildSession := func(course config.Course, mode sess.Mode) screen.Screen {
		filter := source.Filter{Difficulty: course.Difficulty, Length: course.Length}
		manager := queue.NewManager(client, cache, filter, log)
		machine := sess.NewMachine(manager, settingsStore, filter.CourseID(), log)

		return sessionscreen.New(sessionscreen.Options{
			Machine:     machine,
			Manager:     manager,
			Sequencer:   audio.NewSequencer(player, log),
			Cache:       cache,
			Store:       settingsStore,
			Mode:        mode,
			AutoAdvance: cfg.AutoAdvance,
			Log:         log,
		})
	}

	modeFlag, _ := cmd.Flags().GetString("mode")

	return app.Run(app.Options{
		Courses:      cfg.Courses,
		Store:        settingsStore,
		DefaultMode:  sess.ParseMode(modeFlag),
		BuildSession: buildSession,
	})
}
