// P1 bridge reads the P1 port, forwards every telegram to InfluxDB and
// broadcasts live readings over HTTP/websocket.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/p1bridge/dsmr_bridge/pkg/config"
	"github.com/p1bridge/dsmr_bridge/pkg/datastore"
	"github.com/p1bridge/dsmr_bridge/pkg/forwarder"
	"github.com/p1bridge/dsmr_bridge/pkg/port_reader"
	"github.com/p1bridge/dsmr_bridge/pkg/solarinverter"
	"github.com/p1bridge/dsmr_bridge/pkg/telegram"
)

var p1Reader *port_reader.P1Reader

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// wsClient serializes writes to one websocket connection;
// gorilla/websocket forbids concurrent writers.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ws clients for broadcasting live readings
var (
	wsClients                   = make(map[*wsClient]bool)
	wsClientsMutex sync.RWMutex = sync.RWMutex{}
)

func main() {
	// Load config
	if err := config.LoadBridgeConfig(); err != nil {
		log.Fatalf("Failed to load bridge config: %v", err)
	}
	cfg := config.ActiveBridgeConfig

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Datastore client and forwarder
	influx := datastore.NewInfluxClient(
		cfg.InfluxUrl,
		cfg.InfluxToken,
		cfg.InfluxOrg,
		cfg.InfluxBucket,
		map[string]string{"source": "p1_bridge"},
	)
	defer influx.Close()
	fwd := forwarder.New(influx, cfg.Measurement, time.Duration(cfg.WriteTimeoutSeconds)*time.Second)

	// Start the acquisition loop
	p1Reader = port_reader.NewP1Reader(
		cfg.SerialDevice,
		cfg.Baudrate,
		time.Duration(cfg.BackoffBaseSeconds)*time.Second,
		time.Duration(cfg.BackoffMaxSeconds)*time.Second,
		cfg.LogRawTelegrams,
	)

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		p1Reader.Run(ctx, fwd, BroadcastToWebSockets)
	}()

	// Setup HTTP handlers
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"message": "DSMR P1 Bridge",
			"status":  "running",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	http.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		reading := p1Reader.GetLatestReading()
		w.Header().Set("Content-Type", "application/json")
		if reading == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "No readings available yet",
			})
			return
		}

		json.NewEncoder(w).Encode(reading)
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := AddWebSocketClient(conn)

		// Send current reading immediately if available
		if reading := p1Reader.GetLatestReading(); reading != nil {
			if data := reading.ToJsonBytes(); data != nil {
				client.send(data)
			}
		}

		// Keep connection alive
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				RemoveWebSocketClient(client)
				break
			}
		}
	})

	// May be fast or slow depending on cached response from inverter.
	http.HandleFunc("/solar", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		power, err := solarinverter.ReadProduction()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]int32{
			"currentProduction": power,
		})
	})

	listener := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)
	server := &http.Server{Addr: listener}

	go func() {
		log.Printf("Starting DSMR P1 Bridge on %s", listener)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Block until shutdown is requested, then stop the server and wait for
	// the acquisition loop to finish its current telegram.
	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	<-readerDone
}

func BroadcastToWebSockets(reading *telegram.MeasurementSet) {
	wsClientsMutex.RLock()
	clients := make([]*wsClient, 0, len(wsClients))
	for client := range wsClients {
		clients = append(clients, client)
	}
	wsClientsMutex.RUnlock()

	data := reading.ToJsonBytes()
	if data == nil {
		return
	}

	for _, client := range clients {
		if err := client.send(data); err != nil {
			RemoveWebSocketClient(client)
		}
	}
}

func AddWebSocketClient(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	wsClientsMutex.Lock()
	wsClients[client] = true
	wsClientsMutex.Unlock()
	return client
}

func RemoveWebSocketClient(client *wsClient) {
	wsClientsMutex.Lock()
	delete(wsClients, client)
	wsClientsMutex.Unlock()
	client.conn.Close()
}
