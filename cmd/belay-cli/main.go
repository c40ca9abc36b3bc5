package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jiashuyu/belay/internal/auth"
	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/models"
	"github.com/joho/godotenv"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: belay-cli migrate [down]")
			fmt.Println()
			fmt.Println("Apply the embedded database migrations, or roll back the latest one with 'down'.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		if len(os.Args) > 2 && os.Args[2] == "down" {
			os.Exit(runRollback())
		}
		os.Exit(runMigrate())
	case "seed":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: belay-cli seed")
			fmt.Println()
			fmt.Println("Seed the database with demo data: 2 users, 2 channels, messages and a thread.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		os.Exit(runSeed())
	case "health":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: belay-cli health")
			fmt.Println()
			fmt.Println("Check if the belay server is running.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  SERVER_URL  Server base URL (default: http://localhost:8080)")
			return
		}
		os.Exit(runHealth())
	case "version":
		fmt.Printf("belay-cli %s\n", version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: belay-cli <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate  Run database migrations")
	fmt.Println("  seed     Seed demo data (users, channels, messages)")
	fmt.Println("  health   Check if the server is running")
	fmt.Println("  version  Print version info")
	fmt.Println()
	fmt.Println("Run 'belay-cli <command> --help' for details on a command.")
}

func hasFlag(flag string, args []string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		color.Red("error: %s environment variable is required\n", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --- migrate ---

func runMigrate() int {
	dbURL := requireEnv("DATABASE_URL")
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	cyan.Println("running migrations...")
	changed, err := database.Migrate(dbURL)
	if err != nil {
		color.Red("error: %v\n", err)
		return 1
	}

	v, dirty, err := database.Version(dbURL)
	if err != nil {
		color.Red("error: %v\n", err)
		return 1
	}
	if !changed {
		color.Yellow("no new migrations (current version: %d)\n", v)
	} else {
		green.Printf("migrations applied (version: %d, dirty: %v)\n", v, dirty)
	}
	return 0
}

func runRollback() int {
	dbURL := requireEnv("DATABASE_URL")

	color.New(color.FgCyan).Println("rolling back latest migration...")
	if err := database.Rollback(dbURL); err != nil {
		color.Red("error: %v\n", err)
		return 1
	}
	color.Green("rollback complete\n")
	return 0
}

// --- seed ---

type seedUser struct {
	name     string
	password string
	user     models.User
}

func runSeed() int {
	dbURL := requireEnv("DATABASE_URL")
	ctx := context.Background()
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	cyan.Println("connecting to database...")
	pool, err := database.NewPostgresPool(ctx, dbURL)
	if err != nil {
		color.Red("error: database connection failed: %v\n", err)
		return 1
	}
	defer pool.Close()
	store := database.NewStore(pool)

	users := []*seedUser{
		{name: "alice", password: "password123"},
		{name: "bob", password: "password456"},
	}

	cyan.Println("hashing passwords...")
	for _, u := range users {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			color.Red("error: hashing password: %v\n", err)
			return 1
		}
		key, err := auth.GenerateAPIKey()
		if err != nil {
			color.Red("error: generating api key: %v\n", err)
			return 1
		}
		u.user = models.User{Name: u.name, PasswordHash: hash, APIKey: key}
	}

	cyan.Println("creating users, channels and messages...")
	err = store.WithTx(ctx, func(r database.Repositories) error {
		for _, u := range users {
			if err := r.Users().Create(ctx, &u.user); err != nil {
				return fmt.Errorf("creating user %s: %w", u.name, err)
			}
		}
		alice, bob := users[0].user, users[1].user

		general := &models.Channel{Name: "general"}
		random := &models.Channel{Name: "random"}
		for _, ch := range []*models.Channel{general, random} {
			if err := r.Channels().Create(ctx, ch); err != nil {
				return fmt.Errorf("creating channel %s: %w", ch.Name, err)
			}
		}

		welcome := &models.Message{ChannelID: general.ID, AuthorID: alice.ID, Body: "Welcome to belay!"}
		if err := r.Messages().Create(ctx, welcome); err != nil {
			return fmt.Errorf("creating message: %w", err)
		}
		rest := []*models.Message{
			{ChannelID: general.ID, AuthorID: bob.ID, Body: "Hey Alice, glad to be here!", ReplyTo: &welcome.ID},
			{ChannelID: general.ID, AuthorID: bob.ID, Body: "Anyone up for lunch?"},
			{ChannelID: random.ID, AuthorID: alice.ID, Body: "This is the random channel."},
		}
		for _, msg := range rest {
			if err := r.Messages().Create(ctx, msg); err != nil {
				return fmt.Errorf("creating message: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		color.Red("error: %v\n", err)
		return 1
	}

	fmt.Println()
	green.Println("seed complete:")
	for _, u := range users {
		fmt.Printf("  user:     %s (password: %s, api key: %s)\n", u.name, u.password, u.user.APIKey)
	}
	fmt.Printf("  channels: #general, #random\n")
	fmt.Printf("  messages: 3 top-level messages and 1 reply\n")
	return 0
}

// --- health ---

func runHealth() int {
	serverURL := envOr("SERVER_URL", "http://localhost:8080")
	url := serverURL + "/health"

	color.New(color.FgCyan).Printf("checking %s ...\n", url)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		color.Red("UNREACHABLE (%v)\n", err)
		return 1
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status: %d\n", resp.StatusCode)
	if len(body) > 0 {
		fmt.Printf("body:   %s\n", string(body))
	}

	if resp.StatusCode == http.StatusOK {
		color.Green("server is healthy\n")
		return 0
	}
	color.Red("server returned non-200 status\n")
	return 1
}
