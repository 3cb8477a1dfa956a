// Package simulate replays request scripts through the executor and journals every outcome.
package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ammCore/internal/executor"
	"ammCore/internal/model"
	"ammCore/internal/storage"
)

// RunConfig holds runtime settings for a simulation.
type RunConfig struct {
	ScriptPath        string
	RunID             string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Summary counts the outcomes of one Run.
type Summary struct {
	RunID    string `json:"run_id"`
	Total    uint64 `json:"total"`
	Replayed uint64 `json:"replayed"`
	Applied  uint64 `json:"applied"`
	Failed   uint64 `json:"failed"`
}

// Runner applies script requests in order and writes their journal records to storage.
type Runner struct {
	cfg        RunConfig
	exec       *executor.Executor
	storage    storage.Storage
	logger     *zap.Logger
	keys       *keyResolver
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies. exec must be fresh: a resumed run rebuilds its
// state by replaying the already journaled requests.
func NewRunner(cfg RunConfig, exec *executor.Executor, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		exec:       exec,
		storage:    storageSink,
		logger:     logger,
		keys:       newKeyResolver(),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the script. Operation failures are journaled and do not stop the run; script,
// storage and checkpoint errors do.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.exec == nil {
		return Summary{}, fmt.Errorf("executor is nil")
	}
	if r.storage == nil {
		return Summary{}, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return Summary{}, fmt.Errorf("batch size must be greater than zero")
	}

	lines, err := ReadScript(r.cfg.ScriptPath)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{RunID: r.cfg.RunID, Total: uint64(len(lines))}

	var from uint64 = 1
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return summary, err
	}
	if ok && cp.Script == r.cfg.ScriptPath && cp.LastProcessedLine > 0 {
		if cp.LastProcessedLine > summary.Total {
			return summary, fmt.Errorf("checkpoint at line %d but script has %d requests", cp.LastProcessedLine, summary.Total)
		}
		if cp.Digest != prefixDigest(lines, cp.LastProcessedLine) {
			return summary, fmt.Errorf("script %s changed within the first %d requests since the checkpoint", r.cfg.ScriptPath, cp.LastProcessedLine)
		}
		summary.RunID = cp.RunID
		from = cp.LastProcessedLine + 1
		r.logger.Info("resume from checkpoint", zap.String("run_id", cp.RunID), zap.Uint64("last_processed", cp.LastProcessedLine))
	}
	if summary.RunID == "" {
		summary.RunID = uuid.NewString()
	}

	// Journaled requests are re-applied to rebuild registry and ledger state but not re-journaled.
	for seq := uint64(1); seq < from; seq++ {
		if _, err := r.apply(ctx, lines[seq-1]); err != nil {
			return summary, err
		}
		summary.Replayed++
	}

	if from > summary.Total {
		r.logger.Info("nothing to simulate", zap.String("run_id", summary.RunID), zap.Uint64("requests", summary.Total))
		return summary, nil
	}

	ranges, err := SplitRange(from, summary.Total, r.cfg.BatchSize)
	if err != nil {
		return summary, err
	}

	for _, lineRange := range ranges {
		records := make([]model.OperationRecord, 0, lineRange.To-lineRange.From+1)
		for seq := lineRange.From; seq <= lineRange.To; seq++ {
			record, err := r.apply(ctx, lines[seq-1])
			if err != nil {
				return summary, err
			}
			if record.Status == model.StatusApplied {
				summary.Applied++
			} else {
				summary.Failed++
			}
			records = append(records, stampRecord(record, summary.RunID, seq))
		}

		if err := r.storeWithRetry(ctx, records); err != nil {
			return summary, fmt.Errorf("store records: %w", err)
		}
		if err := r.checkpoint.Save(Checkpoint{
			RunID:             summary.RunID,
			Script:            r.cfg.ScriptPath,
			LastProcessedLine: lineRange.To,
			Digest:            prefixDigest(lines, lineRange.To),
		}); err != nil {
			return summary, err
		}

		r.logger.Info("batch complete",
			zap.String("run_id", summary.RunID),
			zap.Int("records", len(records)),
			zap.Uint64("from", lineRange.From),
			zap.Uint64("to", lineRange.To),
		)
	}

	r.logger.Info("simulation complete",
		zap.String("run_id", summary.RunID),
		zap.Uint64("applied", summary.Applied),
		zap.Uint64("failed", summary.Failed),
		zap.Uint64("replayed", summary.Replayed),
	)
	return summary, nil
}

func (r *Runner) storeWithRetry(ctx context.Context, records []model.OperationRecord) error {
	return withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		err := r.storage.PutOperationBatch(ctx, records)
		if err != nil {
			r.logger.Warn("store records failed", zap.Error(err), zap.Int("records", len(records)))
		}
		return err
	})
}

// apply runs one request. The returned error is reserved for conditions that stop the run; an
// operation rejected by the executor comes back as a failed record.
func (r *Runner) apply(ctx context.Context, line ScriptLine) (model.OperationRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.OperationRecord{}, err
	}
	record, err := r.dispatch(ctx, line.Request)
	if err != nil && record.Op == "" {
		return model.OperationRecord{}, fmt.Errorf("script line %d: %w", line.FileLine, err)
	}
	if err := ctx.Err(); err != nil {
		return model.OperationRecord{}, err
	}
	return record, nil
}

// dispatch resolves a request's references and calls the matching executor operation. Resolution
// errors return an empty record.
func (r *Runner) dispatch(ctx context.Context, req model.Request) (model.OperationRecord, error) {
	switch req.Op {
	case model.OpCreateMarket:
		admin, err := r.keys.key("admin", req.Admin)
		if err != nil {
			return model.OperationRecord{}, err
		}
		id, err := r.keys.key("id", req.ID)
		if err != nil {
			return model.OperationRecord{}, err
		}
		return r.exec.CreateMarket(ctx, admin, id, req.FeeBps)

	case model.OpCreatePool:
		key, err := r.poolKey(req)
		if err != nil {
			return model.OperationRecord{}, err
		}
		return r.exec.CreatePool(ctx, key.Market, key.AssetA, key.AssetB)

	case model.OpFund:
		owner, err := r.keys.key("owner", req.Owner)
		if err != nil {
			return model.OperationRecord{}, err
		}
		asset, err := r.keys.key("asset", req.Asset)
		if err != nil {
			return model.OperationRecord{}, err
		}
		return r.exec.Fund(ctx, owner, asset, req.Amount)

	case model.OpDeposit:
		key, err := r.poolKey(req)
		if err != nil {
			return model.OperationRecord{}, err
		}
		owner, err := r.keys.key("owner", req.Owner)
		if err != nil {
			return model.OperationRecord{}, err
		}
		return r.exec.Deposit(ctx, executor.DepositRequest{Pool: key, Owner: owner, AmountA: req.AmountA, AmountB: req.AmountB})

	case model.OpWithdraw:
		key, err := r.poolKey(req)
		if err != nil {
			return model.OperationRecord{}, err
		}
		owner, err := r.keys.key("owner", req.Owner)
		if err != nil {
			return model.OperationRecord{}, err
		}
		return r.exec.Withdraw(ctx, executor.WithdrawRequest{Pool: key, Owner: owner, Burn: req.Amount})

	case model.OpSwap:
		key, err := r.poolKey(req)
		if err != nil {
			return model.OperationRecord{}, err
		}
		owner, err := r.keys.key("owner", req.Owner)
		if err != nil {
			return model.OperationRecord{}, err
		}
		return r.exec.Swap(ctx, executor.SwapRequest{
			Pool:      key,
			Owner:     owner,
			Direction: req.Direction,
			Amount:    req.Amount,
			MinOutput: req.MinOutput,
		})

	default:
		return model.OperationRecord{}, fmt.Errorf("unknown op %q", req.Op)
	}
}

func (r *Runner) poolKey(req model.Request) (model.PoolKey, error) {
	market, err := r.keys.key("market", req.Market)
	if err != nil {
		return model.PoolKey{}, err
	}
	assetA, err := r.keys.key("asset_a", req.AssetA)
	if err != nil {
		return model.PoolKey{}, err
	}
	assetB, err := r.keys.key("asset_b", req.AssetB)
	if err != nil {
		return model.PoolKey{}, err
	}
	return model.PoolKey{Market: market, AssetA: assetA, AssetB: assetB}, nil
}
