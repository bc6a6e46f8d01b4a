package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"localvibe/internal/chat"
	"localvibe/internal/domain"
	"localvibe/internal/favorites"
	"localvibe/internal/identity"
	"localvibe/internal/integrations/groq"
	"localvibe/internal/integrations/secrets"
	"localvibe/internal/integrations/supabase"
	"localvibe/internal/kvstore"
	"localvibe/internal/locations"
	"localvibe/internal/repository"
	"localvibe/internal/reservations"
	"localvibe/internal/usecase"
	"localvibe/internal/whatsapp"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	// ---- Configuration (read only here) ----
	paramPrefix := mustEnv("PARAM_PREFIX")
	model := envOr("CHAT_MODEL", "llama-3.3-70b-versatile")
	stateTable := os.Getenv("STATE_TABLE")
	dataDir := envOr("DATA_DIR", defaultDataDir())

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// ---- Persistence backend ----
	var backend kvstore.Backend
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}
	if stateTable != "" {
		backend, err = repository.NewDynamo(awsdynamodb.NewFromConfig(cfg), stateTable)
	} else {
		backend, err = kvstore.NewFile(dataDir)
	}
	if err != nil {
		logger.Error("failed to create persistence backend", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	secretSource, err := secrets.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		logger.Error("failed to create secret source", "err", err)
		os.Exit(1)
	}
	groqClient, err := groq.NewClient(secretSource, paramPrefix)
	if err != nil {
		logger.Error("failed to create groq client", "err", err)
		os.Exit(1)
	}

	// ---- Stores ----
	favStore, err := favorites.New(backend, logger)
	if err != nil {
		logger.Error("failed to create favorites store", "err", err)
		os.Exit(1)
	}
	resLog, err := reservations.New(backend, logger)
	if err != nil {
		logger.Error("failed to create reservation log", "err", err)
		os.Exit(1)
	}
	transcript, err := chat.NewTranscriptStore(backend, logger)
	if err != nil {
		logger.Error("failed to create transcript store", "err", err)
		os.Exit(1)
	}
	orchestrator, err := chat.NewOrchestrator(transcript, groqClient, locations.Catalog(), model, logger)
	if err != nil {
		logger.Error("failed to create orchestrator", "err", err)
		os.Exit(1)
	}
	handoff, err := whatsapp.NewHandoff(systemOpener{}, resLog, logger)
	if err != nil {
		logger.Error("failed to create reservation hand-off", "err", err)
		os.Exit(1)
	}
	vibes, err := usecase.NewVibeService(groqClient, model)
	if err != nil {
		logger.Error("failed to create vibe service", "err", err)
		os.Exit(1)
	}

	var auth *supabase.AuthClient
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		auth, err = supabase.NewAuthClient(url, mustEnv("SUPABASE_ANON_KEY"))
		if err != nil {
			logger.Error("failed to create auth client", "err", err)
			os.Exit(1)
		}
	}

	app := &app{
		id:           identity.Guest,
		auth:         auth,
		favStore:     favStore,
		resLog:       resLog,
		transcript:   transcript,
		orchestrator: orchestrator,
		handoff:      handoff,
		vibes:        vibes,
	}
	if userID := os.Getenv("USER_ID"); userID != "" {
		app.id = identity.Authenticated(userID)
	}
	if auth != nil {
		auth.OnSessionChange(func(s *domain.Session) {
			if s == nil {
				app.switchIdentity(ctx, identity.Guest)
				return
			}
			app.session = s
			app.switchIdentity(ctx, identity.Authenticated(s.User.ID))
		})
	}
	app.switchIdentity(ctx, app.id)

	app.run(ctx)
}

type app struct {
	id           identity.Identity
	session      *domain.Session
	auth         *supabase.AuthClient
	favStore     *favorites.Store
	resLog       *reservations.Log
	transcript   *chat.TranscriptStore
	orchestrator *chat.Orchestrator
	handoff      *whatsapp.Handoff
	vibes        *usecase.VibeService
}

// switchIdentity reloads every per-identity store so the previous user's
// data never bleeds into the new session.
func (a *app) switchIdentity(ctx context.Context, id identity.Identity) {
	a.id = id
	a.favStore.Load(ctx, id)
	a.transcript.Load(ctx, id)
}

func (a *app) run(ctx context.Context) {
	fmt.Println("localvibe: chat, or :fav <id>, :res <id>, :vibe <id>, :list, :login <email> <pass>, :logout, :clear, :quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == ":quit":
			return
		case line == ":clear":
			a.transcript.Clear(ctx)
			fmt.Println("transcript cleared")
		case line == ":logout":
			a.logout(ctx)
		case line == ":list":
			for _, loc := range locations.Catalog() {
				marker := " "
				if a.favStore.IsFavorite(loc.ID) {
					marker = "*"
				}
				fmt.Printf("%s %s  %s (%s)\n", marker, loc.ID, loc.Name, loc.Address)
			}
			for _, r := range a.resLog.List(ctx, a.id) {
				fmt.Printf("  reserved: %s at %d\n", r.LocationName, r.Timestamp)
			}
		case strings.HasPrefix(line, ":login "):
			a.login(ctx, strings.Fields(strings.TrimPrefix(line, ":login ")))
		case strings.HasPrefix(line, ":fav "):
			locID := strings.TrimSpace(strings.TrimPrefix(line, ":fav "))
			if a.favStore.Toggle(ctx, locID) {
				fmt.Println("added to favorites")
			} else {
				fmt.Println("removed from favorites")
			}
		case strings.HasPrefix(line, ":vibe "):
			locID := strings.TrimSpace(strings.TrimPrefix(line, ":vibe "))
			loc, ok := locations.ByID(locID)
			if !ok {
				fmt.Println("unknown location id")
				continue
			}
			text, err := a.vibes.Describe(ctx, loc)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println(text)
		case strings.HasPrefix(line, ":res "):
			locID := strings.TrimSpace(strings.TrimPrefix(line, ":res "))
			loc, ok := locations.ByID(locID)
			if !ok {
				fmt.Println("unknown location id")
				continue
			}
			err := a.handoff.OpenChat(ctx, a.id, whatsapp.MessageOptions{
				LocationID:   loc.ID,
				LocationName: loc.Name,
				Address:      loc.Address,
			})
			if err != nil {
				fmt.Println(err)
			}
		default:
			err := a.orchestrator.Send(ctx, line, func(_, delta string) {
				fmt.Print(delta)
			})
			fmt.Println()
			if err != nil {
				fmt.Println(err)
			}
		}
	}
}

func (a *app) login(ctx context.Context, args []string) {
	if a.auth == nil {
		fmt.Println("auth is not configured, set SUPABASE_URL")
		return
	}
	if len(args) != 2 {
		fmt.Println("usage: :login <email> <password>")
		return
	}
	session, err := a.auth.SignIn(ctx, args[0], args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("signed in as %s\n", session.User.Email)
}

func (a *app) logout(ctx context.Context) {
	if a.auth == nil || a.session == nil {
		fmt.Println("not signed in")
		return
	}
	token := a.session.AccessToken
	a.session = nil
	if err := a.auth.SignOut(ctx, token); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("signed out")
}

// systemOpener dispatches deep links through the OS URL handler.
type systemOpener struct{}

func (systemOpener) CanOpen(uri string) bool {
	return !strings.HasPrefix(uri, "whatsapp://")
}

func (systemOpener) Open(uri string) error {
	return exec.Command("xdg-open", uri).Start()
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".localvibe"
	}
	return filepath.Join(home, ".localvibe")
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
