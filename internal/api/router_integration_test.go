//go:build integration
// +build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	goose "github.com/pressly/goose/v3"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/fxpulse/config"
	"github.com/guttosm/fxpulse/internal/app"
	"github.com/guttosm/fxpulse/internal/dataset"
	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/storage"
)

func startPG(t *testing.T) (dsn string, host string, port nat.Port, terminate func()) {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "fxpulse",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=fxpulse sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", h, mp.Port(), "fxpulse")
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, h, mp, terminate
}

func openAndMigrate(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("dialect: %v", err)
	}
	path := filepath.Join("..", "..", "db", "migrations")
	if err := goose.Up(db, path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedDataset(t *testing.T, db *sql.DB, cfg config.Config) {
	t.Helper()
	rec := func(pair string, hour int, long string) models.SentimentRecord {
		return models.SentimentRecord{
			Timestamp:      time.Date(2025, 9, 17, hour, 0, 0, 0, time.Local),
			Instrument:     models.InstrumentID(pair),
			LongPercent:    long,
			ShortPercent:   "39 %",
			LotsLong:       "1250",
			LotsShort:      "980",
			PositionsLong:  "3210",
			PositionsShort: "2001",
		}
	}
	ds := dataset.Merge(dataset.Empty(), []models.SentimentRecord{
		rec("EURUSD", 10, "60 %"),
		rec("GBPUSD", 10, "45 %"),
		rec("EURUSD", 11, "61 %"),
	})
	store := storage.NewDatasetStore(storage.NewPostgresStore(db), cfg.Dataset.Name, cfg.Dataset.Parent)
	if _, err := store.Replace(context.Background(), ds); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestAPI_E2E_Sentiment_PostgresBackend(t *testing.T) {
	dsn, host, port, term := startPG(t)
	defer term()
	db := openAndMigrate(t, dsn)
	defer db.Close()

	p, _ := nat.ParsePort(port.Port())
	cfg := config.Config{
		Dataset: config.DatasetConfig{Name: "myfxbook_data.csv", Parent: "e2e"},
		Store:   config.StoreConfig{Backend: config.BackendPostgres},
		Postgres: config.PostgresConfig{
			Enabled:  true,
			Host:     host,
			Port:     p,
			User:     "postgres",
			Password: "postgres",
			DBName:   "fxpulse",
			SSLMode:  "disable",
		},
	}
	seedDataset(t, db, cfg)

	router, cleanup, err := app.InitializeApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sentiment?pair=EURUSD&limit=5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var body struct {
		Pair    string `json:"pair"`
		Count   int    `json:"count"`
		Entries []struct {
			Timestamp   string `json:"timestamp"`
			LongPercent string `json:"long_percent"`
			LongShare   string `json:"long_share"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Pair != "EURUSD" || body.Count != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Entries[0].Timestamp != "2025-09-17 11:00:00" || body.Entries[0].LongShare != "0.61" {
		t.Fatalf("newest entry must come first: %+v", body.Entries)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz: %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var st struct {
		DatasetRows int      `json:"dataset_rows"`
		Instruments []string `json:"instruments"`
		RunLog      bool     `json:"run_log"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.DatasetRows != 3 || len(st.Instruments) != 2 || !st.RunLog {
		t.Fatalf("unexpected status: %+v", st)
	}
}
