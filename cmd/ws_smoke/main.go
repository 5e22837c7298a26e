package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"crypto_invest/internal/service"
	"crypto_invest/internal/ws"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// Connects to /ws as the given user, checks the ready/ping/pong handshake and
// prints notifications until the listen window closes.
func main() {
	_ = godotenv.Load()

	userFlag := flag.String("user", "", "user id (uuid) to connect as")
	listen := flag.Duration("listen", 30*time.Second, "how long to print notifications")
	flag.Parse()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		log.Fatalf("-user must be a uuid: %v", err)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	token, err := service.NewJWTManager(jwtSecret, time.Hour).Generate(userID, false)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	expect := func(want string) {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var m ws.Message
		if err := conn.ReadJSON(&m); err != nil {
			log.Fatalf("waiting for %q: %v", want, err)
		}
		if m.Type != want {
			log.Fatalf("expected %q, got %q", want, m.Type)
		}
		log.Printf("got %s", m.Type)
	}

	expect(ws.MsgReady)
	if err := conn.WriteJSON(map[string]string{"type": ws.MsgPing}); err != nil {
		log.Fatalf("write ping: %v", err)
	}
	expect(ws.MsgPong)

	deadline := time.Now().Add(*listen)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var m ws.Message
		_ = json.Unmarshal(raw, &m)
		log.Printf("notification %s: %s", m.Type, string(raw))
	}

	log.Println("smoke test finished")
}
