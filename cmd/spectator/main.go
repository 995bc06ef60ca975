// Package main - spectator
// Load generator for the diorama server: opens many WebSocket viewers and
// has a few of them drive operator commands, measuring fan-out throughput.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the spectator swarm
type Config struct {
	ServerURL       string
	NumClients      int
	Operators       int // clients that also send commands
	CommandInterval time.Duration
	TestDuration    time.Duration
}

// Stats tracks fan-out performance
type Stats struct {
	CommandsSent     int64
	MessagesReceived int64
	Errors           int64
}

var speedPresets = []float64{1, 10, 60, 360, 1000}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent viewers")
	operators := flag.Int("operators", 3, "Viewers that also send commands")
	interval := flag.Duration("interval", 2*time.Second, "Command interval per operator")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	flag.Parse()

	config := Config{
		ServerURL:       *serverURL,
		NumClients:      *numClients,
		Operators:       *operators,
		CommandInterval: *interval,
		TestDuration:    *duration,
	}

	fmt.Println("=========================================")
	fmt.Println("CIELO ROTO - Spectator Swarm")
	fmt.Println("=========================================")
	fmt.Printf("Server:    %s\n", config.ServerURL)
	fmt.Printf("Viewers:   %d\n", config.NumClients)
	fmt.Printf("Operators: %d\n", config.Operators)
	fmt.Printf("Duration:  %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runSwarm(ctx, config)
	printResults(stats, config)
}

func runSwarm(ctx context.Context, config Config) *Stats {
	stats := &Stats{}
	var wg sync.WaitGroup

	fmt.Println("\nStarting viewers...")

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		isOperator := i < config.Operators
		go func(clientID int, operator bool) {
			defer wg.Done()
			runClient(ctx, clientID, operator, config, stats)
		}(i, isOperator)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("All %d viewers started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.CommandsSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("Progress: Commands=%d Received=%d Errors=%d\n", sent, recv, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, operator bool, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Receiver goroutine: every viewer counts the notifications it gets.
	go func() {
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
		}
	}()

	if !operator {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(config.CommandInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(randomCommand()); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.CommandsSent, 1)
		}
	}
}

func randomCommand() map[string]interface{} {
	switch rand.Intn(6) {
	case 0:
		return map[string]interface{}{"type": "PAUSE"}
	case 1:
		return map[string]interface{}{"type": "RESUME"}
	case 2, 3:
		return map[string]interface{}{
			"type":  "SET_SPEED",
			"speed": speedPresets[rand.Intn(len(speedPresets))],
		}
	case 4:
		return map[string]interface{}{"type": "SAVE", "slot": "swarm_test"}
	default:
		return map[string]interface{}{"type": "LOAD", "slot": "swarm_test"}
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("SWARM RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.CommandsSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Commands Sent:      %d\n", sent)
	fmt.Printf("Messages Received:  %d\n", recv)
	fmt.Printf("Errors:             %d\n", errs)

	throughput := float64(recv) / config.TestDuration.Seconds()
	fmt.Printf("Fan-out Throughput: %.2f msg/sec\n", throughput)

	fmt.Println("\n-----------------------------------------")
	if errs == 0 {
		fmt.Println("TEST PASSED: no connection errors")
	} else if float64(errs)/float64(int64(config.NumClients)+sent) < 0.05 {
		fmt.Println("TEST WARNING: some errors detected")
	} else {
		fmt.Println("TEST FAILED: high error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"commands_sent":      sent,
		"messages_received":  recv,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":   config.NumClients,
			"operators": config.Operators,
			"interval":  config.CommandInterval.String(),
			"duration":  config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	os.WriteFile("swarm_results.json", jsonData, 0644)
	fmt.Println("\nResults saved to swarm_results.json")
}
