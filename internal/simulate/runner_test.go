package simulate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	ammerrors "ammCore/internal/errors"
	"ammCore/internal/executor"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
	"ammCore/internal/registry"
	"ammCore/internal/storage"
)

const script = `
# market with a 0.3% fee
{"op":"create_market","admin":"admin","id":"main","fee_bps":30}
{"op":"create_pool","market":"main","asset_a":"sol","asset_b":"usdc"}
{"op":"fund","owner":"alice","asset":"sol","amount":10000}
{"op":"fund","owner":"alice","asset":"usdc","amount":20000}
{"op":"fund","owner":"bob","asset":"sol","amount":1000}

{"op":"deposit","market":"main","asset_a":"sol","asset_b":"usdc","owner":"alice","amount_a":1000,"amount_b":2000}
{"op":"swap","market":"main","asset_a":"sol","asset_b":"usdc","owner":"bob","direction":"a_to_b","amount":100}
{"op":"swap","market":"main","asset_a":"sol","asset_b":"usdc","owner":"bob","direction":"a_to_b","amount":100,"min_output":1000}
{"op":"withdraw","market":"main","asset_a":"sol","asset_b":"usdc","owner":"alice","amount":1314}
`

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "script.jsonl")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newExecutor() *executor.Executor {
	return executor.New(registry.New(), ledger.NewMemory(zap.NewNop()), zap.NewNop())
}

func readJournal(t *testing.T, path string) []model.OperationRecord {
	t.Helper()
	var out []model.OperationRecord
	if err := storage.ReadOperations(path, func(r model.OperationRecord) error {
		out = append(out, r)
		return nil
	}); err != nil {
		t.Fatalf("read journal: %v", err)
	}
	return out
}

func checkJournal(t *testing.T, records []model.OperationRecord, runID string) {
	t.Helper()
	if len(records) != 9 {
		t.Fatalf("expected 9 records, got %d", len(records))
	}
	for i, r := range records {
		if r.Seq != uint64(i+1) || r.RunID != runID {
			t.Fatalf("record %d stamped %s/%d", i, r.RunID, r.Seq)
		}
	}
	if got := records[5].Deposit; got == nil || got.Minted != 1314 || got.Locked != 100 {
		t.Fatalf("unexpected deposit: %+v", got)
	}
	if got := records[6].Swap; got == nil || got.Quote.Output != 181 || got.Quote.Fee != 0 {
		t.Fatalf("unexpected swap: %+v", got)
	}
	if records[7].Status != model.StatusFailed || records[7].ErrorKind != string(ammerrors.KindOutputTooSmall) {
		t.Fatalf("expected slippage failure, got %+v", records[7])
	}
	if got := records[8].Withdraw; got == nil || *got != (model.WithdrawPlan{PayoutA: 1022, PayoutB: 1690}) {
		t.Fatalf("unexpected withdraw: %+v", got)
	}
	if got := records[8].After; got == nil || *got != (model.Reserves{A: 78, B: 129, Supply: 100}) {
		t.Fatalf("unexpected reserves: %+v", got)
	}
}

func TestRunnerJournalsScript(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, "journal.jsonl")

	runner := NewRunner(RunConfig{
		ScriptPath: writeScript(t, dir, script),
		RunID:      "run-1",
		BatchSize:  4,
	}, newExecutor(), storage.NewJsonlStorage(journal), zap.NewNop())

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary != (Summary{RunID: "run-1", Total: 9, Applied: 8, Failed: 1}) {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	checkJournal(t, readJournal(t, journal), "run-1")
}

type flakySink struct {
	inner storage.Storage
	okFor int
	calls int
}

func (f *flakySink) PutOperationBatch(ctx context.Context, records []model.OperationRecord) error {
	f.calls++
	if f.calls > f.okFor {
		return errors.New("sink unavailable")
	}
	return f.inner.PutOperationBatch(ctx, records)
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, "journal.jsonl")
	cfg := RunConfig{
		ScriptPath:        writeScript(t, dir, script),
		BatchSize:         4,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
		MaxRetries:        1,
		RetryBackoff:      1,
	}

	sink := &flakySink{inner: storage.NewJsonlStorage(journal), okFor: 1}
	first, err := NewRunner(cfg, newExecutor(), sink, zap.NewNop()).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sink unavailable") {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if sink.calls != 3 {
		t.Fatalf("expected one attempt plus one retry after the first batch, got %d calls", sink.calls)
	}
	if first.RunID == "" {
		t.Fatalf("run id not assigned")
	}

	cp, ok, err := NewCheckpointStore(cfg.CheckpointPath, true).Load()
	if err != nil || !ok || cp.LastProcessedLine != 4 || cp.RunID != first.RunID {
		t.Fatalf("unexpected checkpoint %+v (%v, %v)", cp, ok, err)
	}

	second, err := NewRunner(cfg, newExecutor(), storage.NewJsonlStorage(journal), zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if second.RunID != first.RunID || second.Replayed != 4 || second.Applied != 4 || second.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", second)
	}
	checkJournal(t, readJournal(t, journal), first.RunID)

	third, err := NewRunner(cfg, newExecutor(), storage.NewJsonlStorage(journal), zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if third.Replayed != 9 || third.Applied != 0 {
		t.Fatalf("completed run should only replay: %+v", third)
	}
	if n := len(readJournal(t, journal)); n != 9 {
		t.Fatalf("journal grew to %d records", n)
	}
}

func TestRunnerRejectsEditedPrefix(t *testing.T) {
	dir := t.TempDir()
	cfg := RunConfig{
		ScriptPath:        writeScript(t, dir, script),
		BatchSize:         4,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
	}
	journal := storage.NewJsonlStorage(filepath.Join(dir, "journal.jsonl"))
	if _, err := NewRunner(cfg, newExecutor(), journal, zap.NewNop()).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Appending requests resumes; editing journaled ones does not.
	extra := `{"op":"fund","owner":"carol","asset":"sol","amount":5}` + "\n"
	writeScript(t, dir, script+extra)
	summary, err := NewRunner(cfg, newExecutor(), journal, zap.NewNop()).Run(context.Background())
	if err != nil || summary.Replayed != 9 || summary.Applied != 1 {
		t.Fatalf("append: %+v %v", summary, err)
	}

	writeScript(t, dir, strings.Replace(script, `"amount":10000`, `"amount":9000`, 1)+extra)
	if _, err := NewRunner(cfg, newExecutor(), journal, zap.NewNop()).Run(context.Background()); err == nil || !strings.Contains(err.Error(), "changed") {
		t.Fatalf("expected edited script error, got %v", err)
	}
}

func TestRunnerStopsOnBadScript(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown op":    `{"op":"mint","owner":"alice"}`,
		"missing owner": `{"op":"fund","asset":"sol","amount":1}`,
		"bad json":      `{"op":`,
	}
	for name, body := range cases {
		runner := NewRunner(RunConfig{
			ScriptPath: writeScript(t, dir, body),
			BatchSize:  10,
		}, newExecutor(), storage.NewJsonlStorage(filepath.Join(dir, name+".jsonl")), zap.NewNop())
		if _, err := runner.Run(context.Background()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRunnerHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(RunConfig{
		ScriptPath: writeScript(t, dir, script),
		BatchSize:  4,
	}, newExecutor(), storage.NewJsonlStorage(filepath.Join(dir, "journal.jsonl")), zap.NewNop())
	if _, err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
