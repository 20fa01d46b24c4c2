// internal/core/usecases/replenisher.go
package usecases

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fancycaptcha/internal/core/domain"
	"fancycaptcha/internal/core/ports"
	"fancycaptcha/internal/platform/errors"
	"fancycaptcha/internal/platform/logx"
)

// tempDirPrefix names the per-run scratch directory under Config.TempRoot.
const tempDirPrefix = "fancycaptcha-"

// Config carries the settings the replenisher needs besides its
// collaborators.
type Config struct {
	// SecretKey is handed to the generator to sign answers
	SecretKey string

	// DirectoryLevels is the shard depth of the pool (fanout)
	DirectoryLevels int

	// RenderDir is the storage directory holding the pool
	RenderDir string

	// TempRoot is where the scratch directory is created (default os.TempDir())
	TempRoot string

	// Rand returns a value in [0, n). nil uses math/rand.
	Rand func(n int) int

	// Now is used to name the scratch directory. nil uses time.Now.
	Now func() time.Time
}

// Options are the per-run inputs.
type Options struct {
	// Request describes the images; Request.Count is the target pool size
	Request domain.GenerationRequest

	// DeleteOld replaces the whole pool instead of topping it up
	DeleteOld bool
}

// FileFailure is a generated file that could not be stored.
type FileFailure struct {
	Path string
	Err  error
}

// Report summarizes a run.
type Report struct {
	Estimated      int
	Requested      int
	Skipped        bool
	TempDir        string
	Stored         []string
	Failed         []FileFailure
	OldKeys        []string
	Deleted        int
	DeleteFailures int
}

// Replenisher tops up (or replaces) the captcha pool in a storage backend
// with images from an external generator.
type Replenisher struct {
	backend   ports.Backend
	generator ports.Generator
	notifier  ports.Notifier
	logger    logx.Logger
	cfg       Config
}

// NewReplenisher wires a replenisher. notifier may be nil.
func NewReplenisher(
	backend ports.Backend,
	generator ports.Generator,
	notifier ports.Notifier,
	logger logx.Logger,
	cfg Config,
) *Replenisher {
	if notifier == nil {
		notifier = ports.NotifierFunc(func(ports.Event) {})
	}
	if cfg.RenderDir == "" {
		cfg.RenderDir = domain.DefaultRenderDir
	}
	if cfg.TempRoot == "" {
		cfg.TempRoot = os.TempDir()
	}
	if cfg.DirectoryLevels < 0 {
		cfg.DirectoryLevels = 0
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Intn
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Replenisher{
		backend:   backend,
		generator: generator,
		notifier:  notifier,
		logger:    logger.With("component", "replenisher"),
		cfg:       cfg,
	}
}

// Run executes one replenish pass. The scratch directory is removed on
// every path once created. A non-positive deficit returns early with
// Report.Skipped set and no error.
func (r *Replenisher) Run(ctx context.Context, opts Options) (rep *Report, err error) {
	rep = &Report{}

	deficit, estimated, err := r.computeDeficit(ctx, opts.Request.Count, opts.DeleteOld)
	if err != nil {
		return rep, err
	}
	rep.Estimated = estimated

	if deficit <= 0 {
		rep.Skipped = true
		r.logger.Info("pool already full", "fill", opts.Request.Count, "estimated", estimated)
		r.notify(ports.Event{Type: ports.EventNothingToDo, Count: deficit})
		return rep, nil
	}
	rep.Requested = deficit
	req := opts.Request.WithCount(deficit)

	tmpDir, err := r.createTempDir()
	if err != nil {
		return rep, err
	}
	rep.TempDir = tmpDir
	defer r.Cleanup(tmpDir)

	if err := r.Invoke(ctx, req, tmpDir); err != nil {
		return rep, err
	}

	// Enumerate before the first store so fresh images never count as old.
	if opts.DeleteOld {
		rep.OldKeys, err = r.ListOld(ctx)
		if err != nil {
			return rep, err
		}
	}

	rep.Stored, rep.Failed, err = r.Ingest(ctx, tmpDir)
	if err != nil {
		return rep, err
	}
	if len(rep.Stored) == 0 && len(rep.Failed) > 0 {
		return rep, errors.Classify(errors.ErrStore, rep.Failed[0].Err,
			"none of the %d generated files could be stored", len(rep.Failed))
	}

	if opts.DeleteOld {
		deleted, delErr := r.PurgeOld(ctx, rep.OldKeys, rep.Stored)
		rep.Deleted = deleted
		if delErr != nil {
			rep.DeleteFailures = countJoined(delErr)
			r.logger.Warn("some old captchas were not deleted", "failed", rep.DeleteFailures, "error", delErr.Error())
		}
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
	}

	r.logger.Info("replenish finished",
		"requested", rep.Requested,
		"stored", len(rep.Stored),
		"failed", len(rep.Failed),
		"deleted", rep.Deleted,
	)
	return rep, nil
}

// ComputeDeficit returns how many images must be generated to reach
// targetFill. When deleteOld is set the whole pool is regenerated. A result
// <= 0 means there is nothing to do.
func (r *Replenisher) ComputeDeficit(ctx context.Context, targetFill int, deleteOld bool) (int, error) {
	deficit, _, err := r.computeDeficit(ctx, targetFill, deleteOld)
	return deficit, err
}

func (r *Replenisher) computeDeficit(ctx context.Context, targetFill int, deleteOld bool) (deficit, estimated int, err error) {
	if deleteOld {
		return targetFill, 0, nil
	}

	r.notify(ports.Event{Type: ports.EventStageStarted, Stage: ports.StageEstimate})
	estimated, err = r.EstimateCount(ctx)
	if err != nil {
		return 0, 0, err
	}
	r.notify(ports.Event{Type: ports.EventEstimate, Stage: ports.StageEstimate, Count: estimated})
	r.logger.Debug("estimated pool size", "estimated", estimated, "fill", targetFill)

	return targetFill - estimated, estimated, nil
}

// EstimateCount samples the pool size. With one or more directory levels a
// single random first-level shard is listed and scaled by 16; with three or
// more a random second-level shard is listed and scaled by 256.
func (r *Replenisher) EstimateCount(ctx context.Context) (int, error) {
	dir := r.cfg.RenderDir
	factor := 1
	if r.cfg.DirectoryLevels >= 1 {
		dir = path.Join(dir, r.randomShard())
		factor = 16
	}
	if r.cfg.DirectoryLevels >= 3 {
		dir = path.Join(dir, r.randomShard())
		factor = 256
	}

	keys, err := r.backend.ListFiles(ctx, dir)
	if err != nil {
		return 0, errors.Wrapf(err, "list sample dir %s", dir)
	}
	return len(keys) * factor, nil
}

func (r *Replenisher) randomShard() string {
	return strconv.FormatInt(int64(r.cfg.Rand(16)), 16)
}

// Invoke runs the generator for req with output in tmpDir.
func (r *Replenisher) Invoke(ctx context.Context, req domain.GenerationRequest, tmpDir string) error {
	inv := domain.Invocation{
		Request:         req,
		OutputDir:       tmpDir,
		SecretKey:       r.cfg.SecretKey,
		DirectoryLevels: r.cfg.DirectoryLevels,
	}

	r.notify(ports.Event{Type: ports.EventStageStarted, Stage: ports.StageGenerate, Count: req.Count})
	start := time.Now()
	if err := r.generator.Generate(ctx, inv); err != nil {
		if !errors.IsGeneration(err) {
			err = errors.Classify(errors.ErrGeneration, err, "could not run generator %s", r.generator.Name())
		}
		r.logger.Err(err, "generator", r.generator.Name(), "duration", time.Since(start).String())
		return err
	}
	r.logger.Debug("generator finished", "generator", r.generator.Name(), "duration", time.Since(start).String())
	r.notify(ports.Event{Type: ports.EventStageCompleted, Stage: ports.StageGenerate, Count: req.Count})
	return nil
}

// ListOld returns every key currently in the pool.
func (r *Replenisher) ListOld(ctx context.Context) ([]string, error) {
	r.notify(ports.Event{Type: ports.EventStageStarted, Stage: ports.StageListOld})
	keys, err := r.backend.ListFiles(ctx, r.cfg.RenderDir)
	if err != nil {
		return nil, errors.Wrapf(err, "list old captchas in %s", r.cfg.RenderDir)
	}
	r.notify(ports.Event{Type: ports.EventStageCompleted, Stage: ports.StageListOld, Count: len(keys)})
	return keys, nil
}

// Ingest copies every generated image below tmpDir into the backend.
// Files that cannot be parsed or stored are returned as failures and do not
// stop the walk. Only an unreadable tmpDir or a cancelled context aborts.
func (r *Replenisher) Ingest(ctx context.Context, tmpDir string) (stored []string, failed []FileFailure, err error) {
	r.notify(ports.Event{Type: ports.EventStageStarted, Stage: ports.StageCopy})

	fail := func(p string, cause error) {
		ferr := errors.Classify(errors.ErrStore, cause, "could not save file %q", p)
		failed = append(failed, FileFailure{Path: p, Err: ferr})
		r.logger.Warn("store failed", "file", p, "error", ferr.Error())
		r.notify(ports.Event{Type: ports.EventFileFailed, Stage: ports.StageCopy, Path: p, Err: ferr})
	}

	walkErr := filepath.WalkDir(tmpDir, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			if p == tmpDir {
				return werr
			}
			fail(p, werr)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		file, err := domain.NewArtifactFile(p)
		if err != nil {
			fail(p, err)
			return nil
		}
		dest := file.Destination(r.cfg.RenderDir, r.cfg.DirectoryLevels)
		if err := r.backend.PrepareDirectory(ctx, path.Dir(dest)); err != nil {
			fail(p, err)
			return nil
		}
		if err := r.backend.StoreFile(ctx, p, dest); err != nil {
			fail(p, err)
			return nil
		}
		stored = append(stored, dest)
		return nil
	})
	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(walkErr, ctxErr) {
			return stored, failed, walkErr
		}
		return stored, failed, errors.Classify(errors.ErrFilesystem, walkErr, "walk %s", tmpDir)
	}

	r.notify(ports.Event{Type: ports.EventStageCompleted, Stage: ports.StageCopy, Count: len(stored)})
	return stored, failed, nil
}

// PurgeOld deletes oldKeys, skipping any key written during this run. It
// does nothing when no new file was stored, so the pool is never emptied.
// Delete failures are joined into the returned error; the purge goes on.
func (r *Replenisher) PurgeOld(ctx context.Context, oldKeys, stored []string) (int, error) {
	if len(stored) == 0 {
		r.logger.Warn("no new captchas stored, keeping old ones", "old", len(oldKeys))
		return 0, nil
	}

	fresh := make(map[string]struct{}, len(stored))
	for _, k := range stored {
		fresh[k] = struct{}{}
	}
	pending := 0
	for _, k := range oldKeys {
		if _, ok := fresh[k]; !ok {
			pending++
		}
	}

	r.notify(ports.Event{Type: ports.EventStageStarted, Stage: ports.StageDelete, Count: pending})
	deleted := 0
	var errs []error
	for _, key := range oldKeys {
		if _, ok := fresh[key]; ok {
			r.logger.Debug("old key overwritten in this run, keeping it", "key", key)
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.backend.DeleteFile(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		deleted++
	}
	r.notify(ports.Event{Type: ports.EventStageCompleted, Stage: ports.StageDelete, Count: deleted})
	return deleted, errors.Join(errs...)
}

// Cleanup removes the scratch directory. Failures are logged only.
func (r *Replenisher) Cleanup(tmpDir string) {
	r.notify(ports.Event{Type: ports.EventStageStarted, Stage: ports.StageCleanup, Path: tmpDir})
	if err := os.RemoveAll(tmpDir); err != nil {
		r.logger.Err(errors.Classify(errors.ErrFilesystem, err, "remove %s", tmpDir))
		return
	}
	r.notify(ports.Event{Type: ports.EventStageCompleted, Stage: ports.StageCleanup, Path: tmpDir})
}

func (r *Replenisher) createTempDir() (string, error) {
	if err := os.MkdirAll(r.cfg.TempRoot, 0o755); err != nil {
		return "", errors.Classify(errors.ErrFilesystem, err, "could not create temp root %s", r.cfg.TempRoot)
	}
	name := fmt.Sprintf("%s%d-%s", tempDirPrefix, r.cfg.Now().Unix(), uuid.NewString()[:6])
	dir := filepath.Join(r.cfg.TempRoot, name)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", errors.Classify(errors.ErrFilesystem, err, "could not create temp directory %s", dir)
	}
	r.logger.Debug("created temp directory", "dir", dir)
	return dir, nil
}

// countJoined counts the errors combined by errors.Join.
func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	if err != nil {
		return 1
	}
	return 0
}

func (r *Replenisher) notify(e ports.Event) {
	r.notifier.Notify(e)
}
