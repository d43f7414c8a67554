package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Config Tests ---

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ResetHourUTC)
	assert.Equal(t, 4, cfg.HistoryWindowWeeks)
	assert.Equal(t, 8, cfg.DefaultRosterSize)
	assert.Equal(t, StoreBackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 20, cfg.CommandRateLimit)
	assert.Equal(t, time.Minute, cfg.CommandRateWindow)
	assert.Equal(t, 30*time.Second, cfg.BreakerReset)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("RESET_HOUR_UTC", "7")
	t.Setenv("HISTORY_WINDOW_WEEKS", "2")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("IDEMPOTENCY_TTL", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ResetHourUTC)
	assert.Equal(t, 2, cfg.HistoryWindowWeeks)
	assert.Equal(t, StoreBackendMemory, cfg.StoreBackend)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, 90*time.Second, cfg.IdempotencyTTL)
}

func TestLoadConfig_BadValue(t *testing.T) {
	t.Setenv("RESET_HOUR_UTC", "noon")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreBackend:       StoreBackendMemory,
			ResetHourUTC:       5,
			HistoryWindowWeeks: 4,
			DefaultRosterSize:  8,
			MaxRosterSize:      50,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "dynamo" }},
		{"reset hour too large", func(c *Config) { c.ResetHourUTC = 24 }},
		{"negative reset hour", func(c *Config) { c.ResetHourUTC = -1 }},
		{"zero window", func(c *Config) { c.HistoryWindowWeeks = 0 }},
		{"zero max roster", func(c *Config) { c.MaxRosterSize = 0 }},
		{"default above max", func(c *Config) { c.DefaultRosterSize = 51 }},
		{"negative rate limit", func(c *Config) { c.CommandRateLimit = -1 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{PGUser: "u", PGPassword: "p", PGHost: "db", PGPort: 5432, PGDatabase: "playtest"}
	assert.Equal(t, "postgres://u:p@db:5432/playtest?sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.DSN())
}

// --- Logger Tests ---

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")
	logger.Debug("hidden")
	logger.Info("roster generated", "size", 3)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "roster generated", line["msg"])
	assert.Equal(t, float64(3), line["size"])
}

// --- Health Tests ---

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthCheck(t *testing.T) {
	assert.NoError(t, HealthCheck(context.Background(), nil))
	assert.NoError(t, HealthCheck(context.Background(), fakePinger{}))
	assert.Error(t, HealthCheck(context.Background(), fakePinger{err: errors.New("down")}))
}

// --- Migration Tests ---

func TestFindMigrationDir_WalksUp(t *testing.T) {
	root := t.TempDir()
	migrations := filepath.Join(root, "db", "migrations")
	nested := filepath.Join(root, "internal", "infra")
	require.NoError(t, os.MkdirAll(migrations, 0o755))
	require.NoError(t, os.MkdirAll(nested, 0o755))

	t.Chdir(nested)
	got, err := filepath.EvalSymlinks(FindMigrationDir())
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(migrations)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// --- Kafka Tests ---

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaProducer_DisabledIsNoop(t *testing.T) {
	p := NewKafkaProducer("", "", true, discardLogger())
	evt := domain.NewRosterGeneratedEvent(domain.HistoryRecord{ID: "h1"}, 1, 0)
	assert.NoError(t, p.Publish(context.Background(), evt))
	assert.NoError(t, p.Close())
}

func TestKafkaProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaProducer{writer: w, logger: discardLogger(), topicPrefix: "test", enabled: true}

	evt := domain.NewRosterGeneratedEvent(domain.HistoryRecord{ID: "h1", GeneratedAt: 100, Participants: []string{"U1"}}, 1, 0)
	require.NoError(t, p.Publish(context.Background(), evt))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "test.playtest.roster.generated", msg.Topic)
	assert.Equal(t, []byte("h1"), msg.Key)

	var decoded domain.EventDraft
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, domain.EventRosterGenerated, decoded.EventType)
	assert.Equal(t, "h1", decoded.AggregateID)
}

func TestKafkaProducer_PublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := &KafkaProducer{writer: w, logger: discardLogger(), enabled: true}

	err := p.Publish(context.Background(), domain.NewRosterGeneratedEvent(domain.HistoryRecord{ID: "h1"}, 1, 0))
	assert.ErrorContains(t, err, "broker down")
}

type scriptedReader struct {
	msgs []kafka.Message
	err  error
}

// ReadMessage replays msgs, then returns err (or blocks until ctx ends).
func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		return msg, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) Close() error { return nil }

func TestKafkaConsumer_Consume(t *testing.T) {
	evt := domain.NewRosterGeneratedEvent(domain.HistoryRecord{ID: "h1", GeneratedAt: 100, Participants: []string{"U1"}}, 1, 0)
	value, err := json.Marshal(evt)
	require.NoError(t, err)

	reader := &scriptedReader{msgs: []kafka.Message{
		{Key: []byte("h1"), Value: []byte("not json")},
		{Key: []byte("h1"), Value: value},
	}}
	c := &KafkaConsumer{reader: reader, logger: discardLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	var got []domain.EventDraft
	err = c.Consume(ctx, func(_ context.Context, e domain.EventDraft) error {
		got = append(got, e)
		cancel()
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, evt.EventID, got[0].EventID)
	assert.Equal(t, "h1", got[0].PartitionKey)
	assert.NoError(t, c.Close())
}

func TestKafkaConsumer_ReadError(t *testing.T) {
	c := &KafkaConsumer{reader: &scriptedReader{err: errors.New("broker down")}, logger: discardLogger()}
	err := c.Consume(context.Background(), func(context.Context, domain.EventDraft) error { return nil })
	assert.ErrorContains(t, err, "broker down")
}
