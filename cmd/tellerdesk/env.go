package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"tellerdesk/internal/api"
	"tellerdesk/internal/chat"
	"tellerdesk/internal/config"
	"tellerdesk/internal/decisions"
	"tellerdesk/internal/history"
	"tellerdesk/internal/managerchat"
	"tellerdesk/internal/session"
	"tellerdesk/internal/transcript"
)

type runtimeEnv struct {
	Config     *config.Config
	Client     *api.Client
	Sessions   session.Store
	Controller *chat.Controller
	Decisions  *decisions.Store
	Gate       *managerchat.Gate
	History    *history.DB
	Search     *history.SearchIndex

	watcher *decisions.FileWatcher
}

func (r *runtimeEnv) Close() {
	if r.watcher != nil {
		r.watcher.Stop()
	}
	if r.Search != nil {
		if err := r.Search.Close(); err != nil {
			log.Printf("failed to close history index: %v", err)
		}
	}
	if r.History != nil {
		if err := r.History.Close(); err != nil {
			log.Printf("failed to close history db: %v", err)
		}
	}
}

func prepareRuntimeEnv(ctx context.Context, baseURLFlag, decisionsFlag string, watch bool) (*runtimeEnv, error) {
	cfg := loadConfig()

	// Precedence: flag > environment > config file.
	if v := os.Getenv("TELLERDESK_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("TELLERDESK_DECISIONS_FILE"); v != "" {
		cfg.DecisionsFile = v
	}
	if v := os.Getenv("TELLERDESK_MANAGER_PASSCODE"); v != "" {
		cfg.ManagerPasscode = v
	}
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	if decisionsFlag != "" {
		cfg.DecisionsFile = decisionsFlag
	}

	stateDir, err := stateDir()
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.BaseURL)
	sessions := session.NewFileStore(stateDir)
	store := decisions.NewStore(decisions.DefaultSources(client, cfg.DecisionsFile), client)
	controller := chat.New(client, sessions)

	env := &runtimeEnv{
		Config:     cfg,
		Client:     client,
		Sessions:   sessions,
		Controller: controller,
		Decisions:  store,
		Gate:       managerchat.NewGate(cfg.ManagerPasscode),
	}

	dbPath := cfg.HistoryDB
	if dbPath == "" {
		dbPath = filepath.Join(stateDir, "history.db")
	}
	if db, err := history.NewDB(ctx, dbPath); err != nil {
		log.Printf("failed to open history db: %v (archiving disabled)", err)
	} else {
		env.History = db
		if idx, err := history.NewSearchIndex(dbPath); err != nil {
			log.Printf("failed to open history index: %v (search disabled)", err)
		} else {
			env.Search = idx
		}
	}

	controller.OnSessionEnded(func(sessionID string, msgs []transcript.Message) {
		archiveSession(env, sessionID, msgs)
	})

	if watch && cfg.DecisionsFile != "" {
		if fw, err := decisions.NewFileWatcher(cfg.DecisionsFile, func() {
			if err := store.Fetch(context.Background()); err != nil {
				log.Printf("decision refetch after file change failed: %v", err)
			} else {
				log.Printf("decision snapshot reloaded (%d records)", store.Len())
			}
		}); err != nil {
			log.Printf("failed to watch %s: %v", cfg.DecisionsFile, err)
		} else if err := fw.Start(); err != nil {
			log.Printf("failed to start decisions watcher: %v", err)
		} else {
			env.watcher = fw
		}
	}

	if err := client.Health(ctx); err != nil {
		log.Printf("backend not reachable yet: %v", err)
	}

	return env, nil
}

func loadConfig() *config.Config {
	cfgManager, err := config.NewManager()
	if err != nil {
		log.Printf("failed to initialize config manager: %v", err)
		return &config.Config{BaseURL: config.DefaultBaseURL}
	}
	cfg, err := cfgManager.Load()
	if err != nil {
		log.Printf("failed to load user config: %v", err)
		return &config.Config{BaseURL: config.DefaultBaseURL}
	}
	return cfg
}

func stateDir() (string, error) {
	cfgManager, err := config.NewManager()
	if err != nil {
		// Fall back to a temp dir; the session slot degrades to best-effort.
		return os.TempDir(), nil
	}
	dir := cfgManager.StateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return os.TempDir(), nil
	}
	return dir, nil
}

func archiveSession(env *runtimeEnv, sessionID string, msgs []transcript.Message) {
	if env.History == nil {
		return
	}
	stored, err := env.History.Archive(context.Background(), sessionID, msgs)
	if err != nil {
		log.Printf("failed to archive session: %v", err)
		return
	}
	if env.Search != nil {
		if err := env.Search.IndexTranscript(stored, msgs); err != nil {
			log.Printf("failed to index archived session: %v", err)
		}
	}
}
