package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"portal-genie/handler"
	"portal-genie/internal/integrations/intelligence"
	"portal-genie/internal/integrations/paramstore"
	"portal-genie/internal/repository"
	"portal-genie/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	serviceURL := mustEnv("AI_SERVICE_URL")
	tokenParam := os.Getenv("AI_TOKEN_PARAM")    // empty: unauthenticated upstream
	feedbackTable := os.Getenv("FEEDBACK_TABLE") // empty: audit log disabled
	upstreamTimeout := envInt("UPSTREAM_TIMEOUT_SECONDS", 10)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	clientOpts := []intelligence.Option{
		intelligence.WithHTTPClient(&http.Client{Timeout: time.Duration(upstreamTimeout) * time.Second}),
	}
	if tokenParam != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		clientOpts = append(clientOpts, intelligence.WithToken(ssmClient, tokenParam))
	}
	aiClient, err := intelligence.NewClient(serviceURL, clientOpts...)
	if err != nil {
		slog.Error("failed to create intelligence client", "err", err)
		os.Exit(1)
	}

	var recorder usecase.FeedbackRecorder
	if feedbackTable != "" {
		repo, err := repository.New(awsdynamodb.NewFromConfig(cfg), feedbackTable)
		if err != nil {
			slog.Error("failed to create feedback log client", "err", err)
			os.Exit(1)
		}
		recorder = repo
	}

	// ---- Handler ----
	svc, err := usecase.NewAssistantService(aiClient, recorder, slog.Default())
	if err != nil {
		slog.Error("failed to create assistant service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(svc)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
