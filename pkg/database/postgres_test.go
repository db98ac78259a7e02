package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/wonny/screener/pkg/config"
)

func TestNew(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := New(context.Background(), config.DatabaseConfig{URL: url, MaxConns: 2})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if !status.Healthy {
		t.Error("Expected database to be healthy")
	}
	if status.Stats.MaxConns != 2 {
		t.Errorf("Expected MaxConns 2, got %d", status.Stats.MaxConns)
	}
}

func TestNewWithoutURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{})
	if !errors.Is(err, ErrNoDatabaseURL) {
		t.Errorf("Expected ErrNoDatabaseURL, got %v", err)
	}
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := config.DatabaseConfig{
		URL:             "invalid://url",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected error with invalid database URL, got nil")
	}
}

func TestCloseNil(t *testing.T) {
	var db *DB
	// Must not panic
	db.Close()
}
