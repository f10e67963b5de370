package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/skeld-engine/pkg/game"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	created, err := createGame(client, cfg.APIBaseURL, defaultRoster())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create game: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client, created),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// defaultRoster is the standard five-player, one-impostor configuration.
func defaultRoster() []game.Player {
	return []game.Player{
		{ID: "player-1", Name: "Player 1: red", Color: "red", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-2", Name: "Player 2: blue", Color: "blue", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-3", Name: "Player 3: green", Color: "green", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-4", Name: "Player 4: yellow", Color: "yellow", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-5", Name: "Player 5: purple", Color: "purple", Role: game.RoleImpostor, Alive: true, Location: "cafeteria"},
	}
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
