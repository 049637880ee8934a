package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eudesrpj/salva-plantao-app-sub001/config"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/entity"
	chat_repo "github.com/eudesrpj/salva-plantao-app-sub001/internal/repo/chat"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/routers"
	chat_service "github.com/eudesrpj/salva-plantao-app-sub001/internal/use-case/chat-case"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/websocket"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/worker"
	"github.com/eudesrpj/salva-plantao-app-sub001/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// initialize the application
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	if err := appState.DB.AutoMigrate(
		&entity.ChatRoom{},
		&entity.ChatRoomMember{},
		&entity.ChatMessage{},
		&entity.ChatContact{},
		&entity.BlockedMessageLog{},
		&entity.DeadLetterJob{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate chat schema")
	}

	chatRepo := chat_repo.NewChatRepo(appState)
	chatService := chat_service.NewChatService(appState)

	wsHub := websocket.NewHub()
	log.Info().Msg("Websocket hub initialized")

	authFunc := websocket.JWTWebSocketAuth(appState.JwtSecret.Public, appState.Redis)

	wsHandler := websocket.NewWebSocketHandler(wsHub, authFunc, chatService.IsMember)
	wsHandler.MaxConnections = config.Conf.CHAT.MaxWsConnections
	log.Info().Msg("Websocket handler initialized")

	r := routers.NewRouter(appState, wsHub, wsHandler, chatService)

	workerPool := worker.NewWorkerPool(appState.Redis, config.Conf.CHAT.WorkerNum, wsHub, chatService, chatRepo)
	go workerPool.Start(ctx)
	go workerPool.StartDLQWorker(ctx)
	go workerPool.StartSweepScheduler(ctx, time.Duration(config.Conf.CHAT.SweepIntervalMin)*time.Minute)

	server := &http.Server{
		Addr:         config.Conf.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// serve the application
	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
	// gracefully shutdown the application
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Graceful shutdown failed: %v\n", err)
	} else {
		fmt.Println("Server exited gracefully.")
	}
	workerPool.Stop()
	wsHub.Close()
}
