package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"halloween-trivia/internal/app"
	"halloween-trivia/internal/domain"
	"halloween-trivia/internal/game"
	"halloween-trivia/internal/infra/postgres"
	infraredis "halloween-trivia/internal/infra/redis"
)

const (
	pgUser     = "trivia"
	pgPassword = "triviapass"
	pgDB       = "trivia"
)

func TestFullGameOnPostgresAndRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	// The password travels as the store key, never inside the URL.
	db, err := postgres.OpenDB(ctx, pgURL, pgPassword)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()
	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := postgres.NewStore(db)
	if _, err := store.SaveQuestions(ctx, hauntedBank()); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	pool, err := postgres.ConnectPool(ctx, pgURL, pgPassword)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	loader := postgres.NewQuestionLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	newService := func() *app.Service {
		return app.NewService(
			store,
			infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute),
			infraredis.NewGameRegistry(redisClient, 5*time.Minute),
			infraredis.NewNotifier(redisClient),
			app.Options{
				AdminPassword: "daw2024",
				Ticks:         func() (<-chan time.Time, func()) { return nil, func() {} },
			},
		)
	}
	// Two replicas share the database and Redis.
	primary, replica := newService(), newService()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = replica.Feed().Run(runCtx, infraredis.NewNotifier(redisClient)) }()
	go func() { _ = replica.Gate().Watch(runCtx, infraredis.NewNotifier(redisClient)) }()

	updates, unsubscribe, err := replica.Feed().Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()
	if initial := <-updates; len(initial.Entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", initial.Entries)
	}
	// Let the feed's subscription register before publishing.
	time.Sleep(200 * time.Millisecond)

	g := primary.Game("client-1")
	defer g.Close()
	if err := g.Start(ctx, app.StartRequest{Nickname: "Morticia", Avatar: "🕷️", Category: string(domain.CategoryTerror)}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if n, err := redisClient.Exists(ctx, "trivia:questions:Terror", "trivia:client:client-1").Result(); err != nil || n != 2 {
		t.Fatalf("expected cached pool and liveness key, got %d %v", n, err)
	}
	if outcome, _ := g.Answer(ctx, "no lo sé"); outcome != app.AnswerIncorrect {
		t.Fatalf("expected incorrect, got %s", outcome)
	}
	if _, err := g.Hint(ctx); err != nil {
		t.Fatalf("hint: %v", err)
	}
	for room := 1; room <= game.RoomsPerGame; room++ {
		q, _ := g.State().CurrentQuestion()
		if _, err := g.Answer(ctx, "  "+strings.ToUpper(q.CorrectAnswer)+" "); err != nil {
			t.Fatalf("answer room %d: %v", room, err)
		}
	}

	session, err := store.Session(ctx, g.State().SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if !session.IsCompleted || session.Score != 700 || session.CurrentRoom != game.CompletedRoom || session.HintsUsed != 1 {
		t.Fatalf("unexpected session %+v", session)
	}

	snap := waitForSnapshot(t, updates, func(s app.LeaderboardSnapshot) bool { return len(s.Entries) == 1 })
	top := snap.Entries[0]
	if top.Nickname != "Morticia" || top.TotalScore != 700 || top.GamesCompleted != 1 || top.AverageScore != 700 {
		t.Fatalf("unexpected leaderboard %+v", snap.Entries)
	}

	if settings, err := replica.Gate().Current(ctx); err != nil || !settings.GameEnabled {
		t.Fatalf("expected replica to start enabled: %+v %v", settings, err)
	}

	admin := primary.Game("client-2")
	defer admin.Close()
	if err := admin.OpenAdmin(ctx); err != nil {
		t.Fatalf("open admin: %v", err)
	}
	if err := admin.Login(ctx, "daw2024"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := admin.SaveSettings(ctx, app.SettingsForm{GameEnabled: false, DifficultyLevel: "hard", MaxHints: 1, Announcement: "Volvemos pronto"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		settings, err := replica.Gate().Current(ctx)
		if err == nil && !settings.GameEnabled && settings.Announcement == "Volvemos pronto" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("replica never saw the new settings: %+v %v", settings, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err := replica.Game("client-3").Start(ctx, app.StartRequest{Nickname: "Gomez"}); err == nil {
		t.Fatalf("expected start to be refused while disabled")
	}
}

func waitForSnapshot(t *testing.T, updates <-chan app.LeaderboardSnapshot, match func(app.LeaderboardSnapshot) bool) app.LeaderboardSnapshot {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case snap := <-updates:
			if match(snap) {
				return snap
			}
		case <-timeout:
			t.Fatalf("timed out waiting for leaderboard update")
		}
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": pgUser, "POSTGRES_PASSWORD": pgPassword, "POSTGRES_DB": pgDB},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=disable", pgUser, host, port.Port(), pgDB)
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

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

// hauntedBank holds exactly one full game for Terror.
func hauntedBank() []domain.Question {
	return []domain.Question{
		{ID: "t-e1", Category: domain.CategoryTerror, Difficulty: domain.DifficultyEasy, Prompt: "¿Vampiro de Stoker?", CorrectAnswer: "Dracula", AlternativeAnswers: []string{"Count Dracula"}, Hints: [3]string{"Transilvania", "Ataúd", "D"}, Points: 100},
		{ID: "t-e2", Category: domain.CategoryTerror, Difficulty: domain.DifficultyEasy, Prompt: "¿Qué se talla en Halloween?", CorrectAnswer: "Calabaza", Hints: [3]string{"Naranja", "Vela", "Jack"}, Points: 100},
		{ID: "t-m1", Category: domain.CategoryTerror, Difficulty: domain.DifficultyMedium, Prompt: "¿Autora de Frankenstein?", CorrectAnswer: "Mary Shelley", Hints: [3]string{"1818", "Escritora", "Shelley"}, Points: 150},
		{ID: "t-m2", Category: domain.CategoryTerror, Difficulty: domain.DifficultyMedium, Prompt: "¿Pueblo de Michael Myers?", CorrectAnswer: "Haddonfield", Hints: [3]string{"Illinois", "1978", "H"}, Points: 150},
		{ID: "t-h1", Category: domain.CategoryTerror, Difficulty: domain.DifficultyHard, Prompt: "¿Director de El resplandor?", CorrectAnswer: "Stanley Kubrick", Hints: [3]string{"2001", "EEUU", "Stephen King"}, Points: 200},
		{ID: "m-e1", Category: domain.CategoryMusic, Difficulty: domain.DifficultyEasy, Prompt: "¿Quién canta Thriller?", CorrectAnswer: "Michael Jackson", Hints: [3]string{"Pop", "Moonwalk", "MJ"}, Points: 100},
	}
}
