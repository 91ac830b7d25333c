package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"paperio/internal/config"
	"paperio/internal/game"
	"paperio/internal/transport"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  PAPERIO - GO ENGINE")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	log.Printf("🎮 Config: %d TPS, %.0fx%.0f arena, radius %.0f",
		appConfig.World.TickRate, appConfig.World.Width, appConfig.World.Height, appConfig.World.ArenaRadius)
	log.Printf("🛡️ Resource limits: %d humans/room, target %d players, bots spawn below %d humans",
		appConfig.Limits.MaxHumansPerRoom, appConfig.Limits.TargetTotalPlayers, appConfig.Limits.MinHumansForBots)

	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	room := game.NewRoom(appConfig, eventLogPath)
	if room.EventLog != nil {
		log.Printf("📝 Event log: %s", eventLogPath)
	}

	debugCfg := transport.DefaultObservabilityConfig()
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := transport.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	server := transport.NewServer(room)

	room.Start()
	log.Println("✅ Room started")

	port := strconv.Itoa(appConfig.Server.Port)
	go func() {
		addr := ":" + port
		log.Printf("🌐 Server on http://localhost%s", addr)
		log.Printf("   - websocket: ws://localhost%s/ws", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop(context.Background())
	room.Stop()
	log.Println("👋 Goodbye!")
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
