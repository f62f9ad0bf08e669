package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gboigwe/nuru-sub002/config"
	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/pkg/utils"
)

func TestMain(m *testing.M) {
	log.Println("Running integration tests...")

	// Run all tests
	code := m.Run()

	log.Println("Integration tests completed.")

	if code != 0 {
		log.Println("Tests failed.")
	}
	os.Exit(code)
}

// TestHealthEndpoint tests the /health endpoint against a running service
func TestHealthEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/health")
	if err != nil {
		t.Skipf("Service not running: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var healthResponse map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&healthResponse); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status, ok := healthResponse["status"]; !ok || status != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", status)
	}
}

// TestStatsEndpoint tests the /stats endpoint against a running service
func TestStatsEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/stats")
	if err != nil {
		t.Skipf("Service not running: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats response: %v", err)
	}

	if len(stats) == 0 {
		t.Errorf("Expected non-empty stats, got empty response")
	}
}

// TestGenerateEvents verifies the demo event generator output
func TestGenerateEvents(t *testing.T) {
	generator := utils.NewEventGenerator()
	events := generator.GenerateBatch(100)

	if len(events) != 100 {
		t.Errorf("Expected 100 events, got %d", len(events))
	}

	seenOrders := make(map[string]string) // orderID -> last seen kind
	for i, ev := range events {
		if ev.ID == "" {
			t.Errorf("Event at index %d has empty ID", i)
		}
		if ev.BlockTimestamp == 0 {
			t.Errorf("Event at index %d has zero BlockTimestamp", i)
		}

		switch ev.Type {
		case model.KindInitiated:
			if ev.Sender == "" || ev.Recipient == "" || ev.Amount == "" {
				t.Errorf("Initiation at index %d missing fields: %+v", i, ev)
			}
			seenOrders[ev.OrderID] = ev.Type
		case model.KindCompleted, model.KindCancelled:
			// Terminal events always follow the matching initiation
			if _, ok := seenOrders[ev.OrderID]; !ok {
				t.Errorf("Terminal event at index %d references unopened order %s", i, ev.OrderID)
			}
		default:
			t.Errorf("Event at index %d has invalid type: %s", i, ev.Type)
		}
	}
}

// TestConfigLoads ensures the configuration loads with defaults
func TestConfigLoads(t *testing.T) {
	cfg := config.LoadConfig()

	if cfg == nil {
		t.Fatal("Failed to load configuration")
	}

	if cfg.HTTPPort == "" {
		t.Error("HTTPPort not set in configuration")
	}

	if cfg.RedisAddr == "" {
		t.Error("RedisAddr not set in configuration")
	}

	if cfg.DefaultCurrency == "" {
		t.Error("DefaultCurrency not set in configuration")
	}
}
