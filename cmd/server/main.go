package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/cbodonnell/tabletop/pkg/api"
	"github.com/cbodonnell/tabletop/pkg/game"
	gameconstants "github.com/cbodonnell/tabletop/pkg/game/constants"
	"github.com/cbodonnell/tabletop/pkg/log"
	"github.com/cbodonnell/tabletop/pkg/network"
	"github.com/cbodonnell/tabletop/pkg/queue"
	"github.com/cbodonnell/tabletop/pkg/rules/gems"
	"github.com/cbodonnell/tabletop/pkg/state"
	"github.com/cbodonnell/tabletop/pkg/version"
	"github.com/cbodonnell/tabletop/pkg/workers"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	roomTTL := flag.Duration("room-ttl", gameconstants.DefaultRoomTTL, "how long rooms live, from creation, before being swept")
	sweepInterval := flag.Duration("sweep-interval", gameconstants.DefaultSweepInterval, "how often expired rooms are swept")
	loopInterval := flag.Duration("loop-interval", gameconstants.DefaultLoopInterval, "game loop tick interval")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())

	if envPort := os.Getenv("PORT"); envPort != "" {
		parsedPort, err := strconv.Atoi(envPort)
		if err != nil {
			panic(fmt.Sprintf("Failed to parse PORT: %v", err))
		}
		*port = parsedPort
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientManager := network.NewClientManager()
	clientMessageQueue := queue.NewInMemoryQueue(10000)
	serverEventQueue := queue.NewInMemoryQueue(1000)

	connectionEventWorker := workers.NewConnectionEventWorker(workers.NewConnectionEventWorkerOptions{
		ClientEventChan:  clientManager.GetClientEventChan(),
		ServerEventQueue: serverEventQueue,
	})
	go connectionEventWorker.Start(ctx)

	roomSweeperWorker := workers.NewRoomSweeperWorker(workers.NewRoomSweeperWorkerOptions{
		ServerEventQueue: serverEventQueue,
		Interval:         *sweepInterval,
	})
	go roomSweeperWorker.Start(ctx)

	wsServer := network.NewWSServer(network.NewWSServerOptions{
		ClientManager: clientManager,
		MessageQueue:  clientMessageQueue,
	})

	stateManager := state.NewInMemoryStateManager()

	apiServerOpts := api.NewAPIServerOptions{
		Port:         *port,
		WSHandler:    wsServer,
		StateManager: stateManager,
	}
	tlsCertFile := os.Getenv("TABLETOP_TLS_CERT_FILE")
	tlsKeyFile := os.Getenv("TABLETOP_TLS_KEY_FILE")
	if tlsCertFile != "" && tlsKeyFile != "" {
		apiServerOpts.TLS = &api.TLSConfig{
			CertFile: tlsCertFile,
			KeyFile:  tlsKeyFile,
		}
	}
	apiServer := api.NewAPIServer(apiServerOpts)
	go apiServer.Start()

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		ClientManager:      clientManager,
		ClientMessageQueue: clientMessageQueue,
		ServerEventQueue:   serverEventQueue,
		Engine:             gems.NewEngine(gems.NewEngineOptions{}),
		RoomIndex:          stateManager,
		RoomTTL:            *roomTTL,
		LoopInterval:       *loopInterval,
	})

	log.Info("Starting game manager")
	go func() {
		if err := gameManager.Start(ctx); err != nil {
			log.Error("Game manager stopped: %v", err)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	log.Info("Shutting down")
	cancel()
	if err := apiServer.Stop(context.Background()); err != nil {
		log.Error("Failed to stop server: %v", err)
	}
}
