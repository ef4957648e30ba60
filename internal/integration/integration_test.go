package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"spy-game-service/internal/app"
	"spy-game-service/internal/domain"
	pgcatalog "spy-game-service/internal/infra/postgres"
	pgmigrations "spy-game-service/internal/infra/postgres/migrations"
	infraredis "spy-game-service/internal/infra/redis"
)

func TestGameRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCatalog(t, ctx, pgURL, sampleCatalog())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgcatalog.NewCatalogLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	catalogRepo := infraredis.NewCatalogRepository(redisClient, loader, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	states := infraredis.NewStateStore(redisClient)
	service := app.NewGameService(sessions, catalogRepo, states)

	if _, err := service.Join(ctx, "g1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	topicID := "countries"
	players := 4
	spies := 1
	if _, err := service.UpdateSettings(ctx, "g1", domain.SettingsPatch{
		SelectedTopicID: &topicID,
		PlayerCount:     &players,
		SpyCount:        &spies,
	}); err != nil {
		t.Fatalf("settings: %v", err)
	}

	snap, err := service.StartGame(ctx, "g1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhaseRevealing || len(snap.Players) != 4 {
		t.Fatalf("expected revealing with 4 players, got %+v", snap)
	}
	spyCount := 0
	for _, player := range snap.Players {
		if player.Role == domain.RoleSpy {
			spyCount++
		}
	}
	if spyCount != 1 {
		t.Fatalf("expected 1 spy, got %d", spyCount)
	}

	// The saved record lands in redis and rehydrates a fresh session.
	service.Leave(ctx, "g1")
	rejoined, err := service.Join(ctx, "g1")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if rejoined.Phase != domain.PhaseSetup {
		t.Fatalf("in-progress state must not survive teardown, got %q", rejoined.Phase)
	}
	if rejoined.Settings.PlayerCount != 4 || len(rejoined.History) != 1 {
		t.Fatalf("expected rehydrated settings and history, got %+v", rejoined)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "spy", "POSTGRES_PASSWORD": "spypass", "POSTGRES_DB": "spydb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://spy:spypass@%s:%s/spydb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedCatalog(t *testing.T, ctx context.Context, dsn string, catalog domain.Catalog) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO catalogs (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, pgcatalog.DefaultCatalogID, string(data)); err != nil {
		t.Fatalf("insert catalog: %v", err)
	}
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{Subjects: []domain.Topic{
		{
			ID:    "countries",
			Name:  "Countries",
			Items: []string{"Turkey", "Japan", "Brazil", "Norway", "Egypt", "Mexico"},
		},
	}}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
