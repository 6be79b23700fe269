package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/itemstore/internal/dbexec"
	"github.com/nerrad567/itemstore/internal/infrastructure/config"
	"github.com/nerrad567/itemstore/internal/infrastructure/database"
	"github.com/nerrad567/itemstore/internal/infrastructure/logging"
	"github.com/nerrad567/itemstore/internal/infrastructure/mqtt"
	"github.com/nerrad567/itemstore/internal/item"
)

// testEnv isolates a test from the caller's environment and returns the
// path of a config file pointing at a fresh SQLite database.
func testEnv(t *testing.T) (configPath, dbPath string) {
	t.Helper()

	t.Setenv("DATABASE_URL", "")
	t.Setenv("ITEMSTORE_DATABASE_URL", "")
	t.Setenv("ITEMSTORE_CONFIG", "")
	t.Setenv("ITEMSTORE_LOG_LEVEL", "")

	dir := t.TempDir()
	dbPath = filepath.Join(dir, "items.db")
	configPath = filepath.Join(dir, "config.yaml")

	content := `
database:
  url: "sqlite:` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

logging:
  level: debug
  format: text
  output: discard

mqtt:
  enabled: false

influxdb:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath, dbPath
}

// runCLI runs one command line against configPath and returns stdout.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, append([]string{"--config", configPath}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func mustRunCLI(t *testing.T, configPath string, args ...string) string {
	t.Helper()

	out, err := runCLI(t, configPath, args...)
	if err != nil {
		t.Fatalf("itemstore %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func listItems(t *testing.T, configPath string) []item.Item {
	t.Helper()

	out := mustRunCLI(t, configPath, "list", "--json")
	var items []item.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decoding list output %q: %v", out, err)
	}
	return items
}

// ============================================================================
// add / list
// ============================================================================

func TestAddAndList(t *testing.T) {
	configPath, _ := testEnv(t)

	picturePath := filepath.Join(t.TempDir(), "bolt.png")
	picture := []byte{0x89, 'P', 'N', 'G', 0x00}
	if err := os.WriteFile(picturePath, picture, 0600); err != nil {
		t.Fatalf("writing picture: %v", err)
	}

	out := mustRunCLI(t, configPath, "add", "--descr", "Bolt", "--amount", "2.5", "--active", "--picture", picturePath)
	if strings.TrimSpace(out) != "1" {
		t.Errorf("add printed %q, want 1", out)
	}
	out = mustRunCLI(t, configPath, "add", "--descr", "Nut")
	if strings.TrimSpace(out) != "2" {
		t.Errorf("second add printed %q, want 2", out)
	}

	items := listItems(t, configPath)
	if len(items) != 2 {
		t.Fatalf("list returned %d items, want 2", len(items))
	}

	bolt := items[0]
	if bolt.ID != 1 || bolt.Description != "Bolt" || bolt.Amount != 2.5 || !bolt.Active {
		t.Errorf("items[0] = %+v", bolt)
	}
	if !bytes.Equal(bolt.Picture, picture) {
		t.Errorf("items[0].Picture = %v, want %v", bolt.Picture, picture)
	}

	nut := items[1]
	if nut.ID != 2 || nut.Description != "Nut" || nut.Amount != 0 || nut.Active || len(nut.Picture) != 0 {
		t.Errorf("items[1] = %+v", nut)
	}

	table := mustRunCLI(t, configPath, "list")
	for _, want := range []string{"ID", "DESCR", "Bolt", "Nut", "5 bytes"} {
		if !strings.Contains(table, want) {
			t.Errorf("list table missing %q:\n%s", want, table)
		}
	}
}

func TestListEmpty(t *testing.T) {
	configPath, _ := testEnv(t)

	if items := listItems(t, configPath); len(items) != 0 {
		t.Errorf("list on a fresh database returned %d items", len(items))
	}
}

func TestAddMissingPicture(t *testing.T) {
	configPath, _ := testEnv(t)

	_, err := runCLI(t, configPath, "add", "--descr", "Bolt", "--picture", filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatal("add with a missing picture file should fail")
	}
	if !strings.Contains(err.Error(), "reading picture") {
		t.Errorf("error = %v, want reading picture", err)
	}
}

// TestAddFailurePrintsSentinel verifies a failed insert is logged and -1 printed.
func TestAddFailurePrintsSentinel(t *testing.T) {
	configPath, dbPath := testEnv(t)

	mustRunCLI(t, configPath, "migrate")

	// Drop the table behind the migration record so the insert fails
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{URL: "sqlite:" + dbPath})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE item"); err != nil {
		t.Fatalf("dropping item table: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out, err := runCLI(t, configPath, "add", "--descr", "Bolt")
	if err != nil {
		t.Fatalf("add should not return an error, got %v", err)
	}
	if strings.TrimSpace(out) != "-1" {
		t.Errorf("add printed %q, want -1", out)
	}
}

// ============================================================================
// update / delete
// ============================================================================

func TestUpdateChangesOnlyGivenFields(t *testing.T) {
	configPath, _ := testEnv(t)

	mustRunCLI(t, configPath, "add", "--descr", "Bolt", "--amount", "2.5", "--active")

	out := mustRunCLI(t, configPath, "update", "--id", "1", "--amount", "7")
	if strings.TrimSpace(out) != "1" {
		t.Errorf("update printed %q, want 1", out)
	}

	items := listItems(t, configPath)
	if len(items) != 1 {
		t.Fatalf("list returned %d items, want 1", len(items))
	}
	got := items[0]
	if got.Description != "Bolt" || got.Amount != 7 || !got.Active {
		t.Errorf("after update = %+v, want Bolt/7/true", got)
	}

	mustRunCLI(t, configPath, "update", "--id", "1", "--active=false", "--descr", "Washer")
	got = listItems(t, configPath)[0]
	if got.Description != "Washer" || got.Amount != 7 || got.Active {
		t.Errorf("after second update = %+v, want Washer/7/false", got)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	configPath, _ := testEnv(t)

	_, err := runCLI(t, configPath, "update", "--id", "99", "--descr", "x")
	if err == nil {
		t.Fatal("update of an unknown id should fail")
	}
	if !strings.Contains(err.Error(), "item 99 not found") {
		t.Errorf("error = %v, want item 99 not found", err)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	configPath, _ := testEnv(t)

	if _, err := runCLI(t, configPath, "update", "--descr", "x"); err == nil {
		t.Fatal("update without --id should fail")
	}
}

func TestDelete(t *testing.T) {
	configPath, _ := testEnv(t)

	mustRunCLI(t, configPath, "add", "--descr", "Bolt")
	mustRunCLI(t, configPath, "add", "--descr", "Nut")

	out := mustRunCLI(t, configPath, "delete", "--id", "1")
	if strings.TrimSpace(out) != "1" {
		t.Errorf("delete printed %q, want 1", out)
	}

	out = mustRunCLI(t, configPath, "delete", "--id", "1")
	if strings.TrimSpace(out) != "0" {
		t.Errorf("second delete printed %q, want 0", out)
	}

	items := listItems(t, configPath)
	if len(items) != 1 || items[0].Description != "Nut" {
		t.Errorf("remaining items = %+v, want only Nut", items)
	}
}

// ============================================================================
// migrate / check
// ============================================================================

func TestMigrateCommand(t *testing.T) {
	configPath, _ := testEnv(t)

	status := mustRunCLI(t, configPath, "migrate", "--status")
	if !strings.Contains(status, "create_item") || !strings.Contains(status, "pending") {
		t.Errorf("status on a fresh database:\n%s", status)
	}

	mustRunCLI(t, configPath, "migrate")
	status = mustRunCLI(t, configPath, "migrate", "--status")
	if !strings.Contains(status, "applied") || strings.Contains(status, "pending") {
		t.Errorf("status after migrate:\n%s", status)
	}

	mustRunCLI(t, configPath, "migrate", "--down")
	status = mustRunCLI(t, configPath, "migrate", "--status")
	if !strings.Contains(status, "pending") {
		t.Errorf("status after migrate --down:\n%s", status)
	}
}

func TestMigrateFlagsExclusive(t *testing.T) {
	configPath, _ := testEnv(t)

	if _, err := runCLI(t, configPath, "migrate", "--down", "--status"); err == nil {
		t.Fatal("migrate --down --status should fail")
	}
}

func TestCheck(t *testing.T) {
	configPath, dbPath := testEnv(t)

	out := mustRunCLI(t, configPath, "check")
	for _, want := range []string{"COMPONENT", "database", "ok", "sqlite3", dbPath, "connections", "mqtt", "influxdb", "disabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}
}

// TestCheckLeavesSchemaAlone verifies check does not apply migrations.
func TestCheckLeavesSchemaAlone(t *testing.T) {
	configPath, _ := testEnv(t)

	mustRunCLI(t, configPath, "check")

	status := mustRunCLI(t, configPath, "migrate", "--status")
	if !strings.Contains(status, "pending") || strings.Contains(status, "applied") {
		t.Errorf("status after check:\n%s", status)
	}
}

func TestHealthReportsUnconnectedService(t *testing.T) {
	configPath, _ := testEnv(t)

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.MQTT.Enabled = true

	exec := dbexec.NewSQLExecutor(database.Config{URL: cfg.Database.URL})
	if err := exec.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	a := &app{cfg: cfg, log: logging.Discard(), exec: exec}
	defer a.close()

	report := a.health(context.Background())
	if !errors.Is(report.err, errServiceUnavailable) {
		t.Errorf("report.err = %v, want errServiceUnavailable", report.err)
	}
	if len(report.rows) != 3 {
		t.Fatalf("report has %d rows, want 3", len(report.rows))
	}
	if got := report.rows[0][1]; got != "ok" {
		t.Errorf("database status = %q, want ok", got)
	}
	if got := report.rows[1]; got[0] != "mqtt" || got[1] != "error" {
		t.Errorf("mqtt row = %v, want error", got)
	}
	if got := report.rows[2][1]; got != "disabled" {
		t.Errorf("influxdb status = %q, want disabled", got)
	}
}

// ============================================================================
// item events
// ============================================================================

type recordedChange struct {
	action string
	itemID int64
	at     time.Time
}

type recordingPublisher struct {
	changes []recordedChange
	err     error
}

func (p *recordingPublisher) PublishItemChange(_ context.Context, action string, itemID int64, at time.Time) error {
	p.changes = append(p.changes, recordedChange{action: action, itemID: itemID, at: at})
	return p.err
}

func TestItemEventsForwardsChange(t *testing.T) {
	pub := &recordingPublisher{}
	events := itemEvents{target: pub}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := item.Event{Action: item.ActionUpdated, ItemID: 42, Timestamp: at}
	if err := events.PublishItemEvent(context.Background(), event); err != nil {
		t.Fatalf("PublishItemEvent() error = %v", err)
	}

	if len(pub.changes) != 1 {
		t.Fatalf("recorded %d changes, want 1", len(pub.changes))
	}
	got := pub.changes[0]
	if got.action != mqtt.ActionUpdated || got.itemID != 42 || !got.at.Equal(at) {
		t.Errorf("forwarded %+v, want updated/42/%v", got, at)
	}

	pub.err = errors.New("broker gone")
	if err := events.PublishItemEvent(context.Background(), event); !errors.Is(err, pub.err) {
		t.Errorf("PublishItemEvent() error = %v, want %v", err, pub.err)
	}
}

// ============================================================================
// configuration
// ============================================================================

func TestExplicitConfigMustExist(t *testing.T) {
	testEnv(t)

	_, err := runCLI(t, filepath.Join(t.TempDir(), "nope.yaml"), "list")
	if err == nil {
		t.Fatal("a missing explicit config file should fail")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config", err)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	configPath, _ := testEnv(t)
	t.Setenv("ITEMSTORE_CONFIG", configPath)

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"add", "--descr", "Bolt"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "1" {
		t.Errorf("add printed %q, want 1", stdout.String())
	}
}

// TestDefaultConfigMissing verifies the default path may be absent when the
// database comes from the environment.
func TestDefaultConfigMissing(t *testing.T) {
	testEnv(t)
	chdir(t, t.TempDir())

	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("ITEMSTORE_DATABASE_URL", "sqlite:"+dbPath)
	t.Setenv("ITEMSTORE_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"list"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database from ITEMSTORE_DATABASE_URL not created: %v", err)
	}
}

func TestInvalidDatabaseURL(t *testing.T) {
	configPath, _ := testEnv(t)
	t.Setenv("ITEMSTORE_DATABASE_URL", "redis://localhost")

	if _, err := runCLI(t, configPath, "list"); err == nil {
		t.Fatal("an unsupported database scheme should fail")
	}
}

func TestVersionFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"--version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run(--version) error = %v", err)
	}
	if !strings.Contains(stdout.String(), version) {
		t.Errorf("version output %q does not contain %q", stdout.String(), version)
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}
