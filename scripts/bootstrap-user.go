// Command bootstrap-user provisions a user with a fresh API key.
// The plaintext key is printed once and never stored.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/briefly/briefly/internal/auth"
	"github.com/briefly/briefly/internal/model"
	"github.com/briefly/briefly/internal/repository"
)

type output struct {
	UserID    string `json:"user_id"`
	Plan      string `json:"plan"`
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		planInput   = flag.String("plan", "free", "Subscription plan (free or pro)")
		env         = flag.String("env", auth.EnvLive, "Key environment (live or test)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	plan, err := model.ParsePlan(*planInput)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	generated, err := auth.GenerateAPIKey(*env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate api key:", err)
		os.Exit(1)
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		KeyHash:   generated.Hash,
		KeyPrefix: generated.Prefix,
		Plan:      plan,
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		fmt.Fprintln(os.Stderr, "create user:", err)
		os.Exit(1)
	}

	out := output{
		UserID:    user.ID,
		Plan:      string(plan),
		Key:       generated.Plaintext,
		KeyPrefix: generated.Prefix,
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("user created")
	fmt.Println("  user_id:    ", out.UserID)
	fmt.Println("  plan:       ", out.Plan)
	fmt.Println("  key_prefix: ", out.KeyPrefix)
	fmt.Println("  api_key:    ", out.Key)
	fmt.Println()
	fmt.Println("Store the api_key now. It cannot be recovered later.")
}
