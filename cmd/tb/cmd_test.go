package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/daviddao/tickboard/pkg/model"
	"github.com/daviddao/tickboard/pkg/scenario"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TICKBOARD_CONFIG", "")
	t.Setenv("TICKBOARD_JOURNAL", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

// --- envOr tests ---

func TestEnvOr_EnvSet(t *testing.T) {
	t.Setenv("TEST_TB_ENV", "hello")
	if got := envOr("TEST_TB_ENV", "default"); got != "hello" {
		t.Fatalf("envOr with set env: got %q, want %q", got, "hello")
	}
}

func TestEnvOr_EnvUnset(t *testing.T) {
	if got := envOr("TEST_TB_UNSET_KEY_XYZ", "fallback"); got != "fallback" {
		t.Fatalf("envOr with unset env: got %q, want %q", got, "fallback")
	}
}

func TestEnvOr_EmptyEnv(t *testing.T) {
	t.Setenv("TEST_TB_EMPTY", "")
	if got := envOr("TEST_TB_EMPTY", "default"); got != "default" {
		t.Fatalf("envOr with empty env: got %q, want %q", got, "default")
	}
}

// --- formatting tests ---

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Fatalf("truncate(long) = %q", got)
	}
}

func TestFormatEvent(t *testing.T) {
	names := map[int64]string{0: "dispatcher", 1: "worker-0"}
	tests := []struct {
		e    model.Event
		want string
	}{
		{model.Event{Tick: 0, Kind: model.EventSpawn, ActorID: 1}, "[tick=0] spawn worker-0"},
		{model.Event{Tick: 9, Kind: model.EventStop, ActorID: 1}, "[tick=9] stop worker-0"},
		{
			model.Event{Tick: 2, Kind: model.EventSend, ActorID: 0, DeliverAt: 3, MessageKind: "init-communication", Body: `{"communication_id":1}`},
			`[tick=2] send init-communication -> dispatcher due=3 {"communication_id":1}`,
		},
		{model.Event{Tick: 3, Kind: model.EventDeliver, ActorID: 7, MessageKind: "stop"}, "[tick=3] deliver stop -> actor-7"},
	}
	for _, tt := range tests {
		if got := formatEvent(tt.e, names); got != tt.want {
			t.Errorf("formatEvent: got %q, want %q", got, tt.want)
		}
	}
}

func TestFormatEntry(t *testing.T) {
	ok := formatEntry(scenario.Entry{Step: 2, Op: "publish", Tick: 5, Reply: "operation-ack", Detail: "item 1", OK: true})
	if ok != "[tick=5] ok   step 2 publish -> operation-ack (item 1)" {
		t.Fatalf("formatEntry(ok) = %q", ok)
	}
	failed := formatEntry(scenario.Entry{Step: 3, Op: "like", Tick: 7, Reply: "operation-failed"})
	if !strings.HasPrefix(failed, "[tick=7] FAIL step 3") {
		t.Fatalf("formatEntry(failed) = %q", failed)
	}
}

func TestFormatPointstamps(t *testing.T) {
	if got := formatPointstamps(nil); got != "none" {
		t.Fatalf("formatPointstamps(nil) = %q", got)
	}
	got := formatPointstamps([]model.Pointstamp{{Tick: 2, ActorID: 1}, {Tick: 2, ActorID: 3}})
	if got != "actor-1@2 actor-3@2" {
		t.Fatalf("formatPointstamps = %q", got)
	}
}

// --- command tests ---

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "tb "+version+"\n" {
		t.Fatalf("version output %q", out)
	}
}

func TestRunDefault(t *testing.T) {
	out, err := execute(t, "run")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "0 failed") {
		t.Fatalf("expected a clean run, got:\n%s", out)
	}
	if !strings.Contains(out, "banned: ann") {
		t.Fatalf("expected ann to be banned, got:\n%s", out)
	}
	if strings.Contains(out, "journal run") {
		t.Fatal("no journal was configured")
	}
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, "run", "--json", "--workers", "3")
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Result scenario.Result `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(doc.Result.Entries) == 0 {
		t.Fatal("no entries")
	}
	for _, e := range doc.Result.Entries {
		if !e.OK {
			t.Fatalf("step %d failed: %+v", e.Step, e)
		}
	}
	if !doc.Result.Quiescent {
		t.Fatal("run should end quiescent")
	}
}

func TestRunMetrics(t *testing.T) {
	out, err := execute(t, "run", "--metrics")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"metrics:", "tickboard_actor_ticks_total", "tickboard_board_bans_total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunFailingScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	doc := "[[step]]\nop = \"init\"\nexpect = \"init-ack\"\n\n[[step]]\nop = \"publish\"\nauthor = \"ann\"\ntext = \"much too long\"\nexpect = \"operation-ack\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "run", "--scenario", path)
	if err == nil {
		t.Fatal("expected a mismatch error")
	}
	if !strings.Contains(out, "FAIL step 2") {
		t.Fatalf("expected step 2 to fail, got:\n%s", out)
	}
}

func TestLogRequiresJournal(t *testing.T) {
	_, err := execute(t, "log")
	if err == nil || !strings.Contains(err.Error(), "no journal") {
		t.Fatalf("expected missing journal error, got %v", err)
	}
}

func TestJournalCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "run.db")

	out, err := execute(t, "log", "--journal", db)
	if err != nil {
		t.Fatal(err)
	}
	if out != "no runs\n" {
		t.Fatalf("empty journal log: %q", out)
	}

	out, err = execute(t, "run", "--journal", db)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "journal run ") {
		t.Fatalf("run id not reported:\n%s", out)
	}

	out, err = execute(t, "log", "--journal", db, "--limit", "10000")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"spawn dispatcher", "spawn worker-0", "send publish -> worker-0", "deliver stop-ack -> dispatcher"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "log", "--journal", db, "--limit", "10000", "--kind", "stop")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) == "" || strings.Contains(out, "spawn") {
		t.Fatalf("kind filter not applied:\n%s", out)
	}

	out, err = execute(t, "status", "--journal", db)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"runs:", "[+] 0", "dispatcher", "[-] 1", "worker-0", "client"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "status", "--journal", db, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var status struct {
		Runs   []runInfo           `json:"runs"`
		Actors []model.ActorRecord `json:"actors"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(status.Runs) != 1 || status.Runs[0].Events == 0 {
		t.Fatalf("unexpected runs %+v", status.Runs)
	}
	if len(status.Actors) != 3 {
		t.Fatalf("got %d actors, want 3", len(status.Actors))
	}
}

func TestInitThenRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tickboard.toml")
	scPath := filepath.Join(dir, "session.toml")

	out, err := execute(t, "init", "--output", cfgPath, "--scenario", scPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "wrote config") || !strings.Contains(out, "wrote scenario") {
		t.Fatalf("init output:\n%s", out)
	}

	if _, err := execute(t, "init", "--output", cfgPath); err == nil {
		t.Fatal("init should refuse to overwrite without --force")
	}
	if _, err := execute(t, "init", "--output", cfgPath, "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	out, err = execute(t, "run", "--config", cfgPath, "--scenario", scPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "0 failed") {
		t.Fatalf("expected a clean run, got:\n%s", out)
	}
}
