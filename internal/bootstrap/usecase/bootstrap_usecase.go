package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"setdb-init/internal/bootstrap/domain/model"
	"setdb-init/internal/bootstrap/domain/repository"
	"setdb-init/internal/shared/contextkeys"
	apperrors "setdb-init/internal/shared/errors"
	"setdb-init/internal/shared/logger"

	"github.com/google/uuid"
)

const lockReleaseTimeout = 5 * time.Second

// BootstrapUsecaseInterface defines the operations exposed to the CLI and HTTP adapters
type BootstrapUsecaseInterface interface {
	Run(ctx context.Context, plan *model.Plan) (*model.Report, error)
	Verify(ctx context.Context, plan *model.Plan) (*model.Verification, error)
	Check(ctx context.Context) (*model.Connectivity, error)
	LastReport() *model.Report
	IsRunning() bool
}

// Options configures a BootstrapUsecase
type Options struct {
	// URI is the admin connection string, shown redacted by Check
	URI string
	// LockKey is the prefix of the run lock key; the database name is appended
	LockKey string
	// LockTTL bounds how long a crashed run can hold the lock
	LockTTL time.Duration
}

// BootstrapUsecase provisions the target database step by step
type BootstrapUsecase struct {
	repo repository.AdminRepository
	lock repository.RunLock
	opts Options
	log  logger.Logger

	now      func() time.Time
	newRunID func() string

	running atomic.Bool
	mu      sync.RWMutex
	last    *model.Report
}

// NewBootstrapUsecase creates a new bootstrap usecase. A nil lock disables
// cross-process locking.
func NewBootstrapUsecase(repo repository.AdminRepository, lock repository.RunLock, opts Options, log logger.Logger) *BootstrapUsecase {
	if lock == nil {
		lock = repository.NoopRunLock{}
	}
	if opts.LockKey == "" {
		opts.LockKey = "setdb-init:lock"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if log == nil {
		log = logger.Default()
	}

	return &BootstrapUsecase{
		repo:     repo,
		lock:     lock,
		opts:     opts,
		log:      log.WithComponent("bootstrap"),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run executes the plan: connect, select the database, create the principal,
// then create each collection in order. The first failing step aborts the run
// and every later step is reported as skipped. The returned report is non-nil
// whenever the plan itself was valid. A run rejected by the run lock is not
// recorded as the last report.
func (uc *BootstrapUsecase) Run(ctx context.Context, plan *model.Plan) (*model.Report, error) {
	if plan == nil {
		return nil, apperrors.NewValidationError("bootstrap plan is required")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	if !uc.running.CompareAndSwap(false, true) {
		return nil, apperrors.NewConflictError("a bootstrap run is already in progress in this process").
			WithCause(apperrors.ErrBootstrapInProgress)
	}
	defer uc.running.Store(false)

	runID := uc.newRunID()
	ctx = context.WithValue(ctx, contextkeys.RunIDKey, runID)
	ctx = context.WithValue(ctx, contextkeys.DatabaseKey, plan.Database)
	log := uc.log.WithContext(ctx)

	report := model.NewReport(runID, plan, uc.now())
	log.WithFields(map[string]interface{}{
		"mode":        string(plan.Mode),
		"user":        plan.Principal.Username,
		"collections": strings.Join(plan.Collections, ","),
	}).Info("Bootstrap started")

	release, err := uc.acquireLock(ctx, plan.Database, runID)
	if err != nil {
		// a rejected run does not replace the last report
		report.Finish(uc.now(), err)
		log.Warnf("Bootstrap rejected: %v", err)
		return report, err
	}
	defer release()

	err = uc.execute(ctx, plan, report)
	return uc.finish(ctx, report, err), err
}

// acquireLock takes the cross-process run lock and returns its release function
func (uc *BootstrapUsecase) acquireLock(ctx context.Context, database, runID string) (func(), error) {
	key := uc.opts.LockKey + ":" + database

	acquired, err := uc.lock.Acquire(ctx, key, runID, uc.opts.LockTTL)
	if err != nil {
		return nil, apperrors.NewInfrastructureError("failed to acquire bootstrap lock").
			WithCause(err).WithDetail("key", key)
	}
	if !acquired {
		return nil, apperrors.NewConflictError("another bootstrap run holds the lock").
			WithCause(apperrors.ErrBootstrapInProgress).WithDetail("key", key)
	}

	return func() {
		// the run context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()
		if err := uc.lock.Release(releaseCtx, key, runID); err != nil {
			uc.log.WithContext(ctx).Warnf("Failed to release bootstrap lock %s: %v", key, err)
		}
	}, nil
}

func (uc *BootstrapUsecase) execute(ctx context.Context, plan *model.Plan, report *model.Report) error {
	for i := range report.Steps {
		step := report.Steps[i]
		stepCtx := context.WithValue(ctx, contextkeys.StepKey, step.Name)
		log := uc.log.WithContext(stepCtx)

		if err := ctx.Err(); err != nil {
			failure := apperrors.NewConnectionUnavailableError("bootstrap deadline exceeded").WithCause(err)
			report.Record(i, model.StepError, failure)
			return failure
		}

		status, err := uc.runStep(stepCtx, plan, step)
		if err != nil {
			report.Record(i, model.StepError, err)
			log.WithFields(map[string]interface{}{
				"error_kind": string(apperrors.TypeOf(err)),
			}).Errorf("Step failed: %v", err)
			return err
		}

		report.Record(i, status, nil)
		log.WithFields(map[string]interface{}{"status": string(status)}).Info("Step completed")
	}
	return nil
}

func (uc *BootstrapUsecase) runStep(ctx context.Context, plan *model.Plan, step model.StepResult) (model.StepStatus, error) {
	switch step.Kind {
	case model.StepConnect:
		if err := uc.repo.Ping(ctx); err != nil {
			return model.StepError, asConnectionError(err)
		}
		return model.StepOK, nil
	case model.StepSelectDatabase:
		// databases are created implicitly on first write
		return model.StepOK, nil
	case model.StepCreateUser:
		return uc.ensurePrincipal(ctx, plan)
	case model.StepCreateCollection:
		return uc.ensureCollection(ctx, plan, step.Target)
	default:
		return model.StepError, apperrors.NewInternalError("unknown bootstrap step " + step.Name)
	}
}

func (uc *BootstrapUsecase) ensurePrincipal(ctx context.Context, plan *model.Plan) (model.StepStatus, error) {
	principal := plan.Principal

	if plan.Mode == model.ModeStrict {
		if err := uc.repo.CreateUser(ctx, plan.Database, &principal); err != nil {
			return model.StepError, err
		}
		return model.StepCreated, nil
	}

	existing, err := uc.repo.GetUser(ctx, plan.Database, principal.Username)
	if err != nil {
		return model.StepError, err
	}
	if existing == nil {
		err = uc.repo.CreateUser(ctx, plan.Database, &principal)
		if err == nil {
			return model.StepCreated, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicatePrincipal) {
			return model.StepError, err
		}
		// created concurrently between lookup and create
	}

	missing := missingRoles(existing, principal.Roles)
	if len(missing) > 0 {
		if err := uc.repo.GrantRoles(ctx, plan.Database, principal.Username, missing); err != nil {
			return model.StepError, err
		}
	}
	return model.StepExisting, nil
}

func (uc *BootstrapUsecase) ensureCollection(ctx context.Context, plan *model.Plan, name string) (model.StepStatus, error) {
	err := uc.repo.CreateCollection(ctx, plan.Database, name)
	switch {
	case err == nil:
		return model.StepCreated, nil
	case errors.Is(err, apperrors.ErrDuplicateCollection) && plan.Mode == model.ModeEnsure:
		return model.StepExisting, nil
	default:
		return model.StepError, err
	}
}

func (uc *BootstrapUsecase) finish(ctx context.Context, report *model.Report, err error) *model.Report {
	report.Finish(uc.now(), err)

	uc.mu.Lock()
	uc.last = report
	uc.mu.Unlock()

	log := uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"status":      report.Status,
		"created":     report.Count(model.StepCreated),
		"existing":    report.Count(model.StepExisting),
		"skipped":     report.Count(model.StepSkipped),
		"duration_ms": report.Duration().Milliseconds(),
	})
	if err != nil {
		log.Error("Bootstrap aborted")
	} else {
		log.Info("Bootstrap completed")
	}
	return report
}

// Verify inspects the live database against plan without writing anything
func (uc *BootstrapUsecase) Verify(ctx context.Context, plan *model.Plan) (*model.Verification, error) {
	if plan == nil {
		return nil, apperrors.NewValidationError("bootstrap plan is required")
	}

	v := &model.Verification{
		Database:  plan.Database,
		Username:  plan.Principal.Username,
		CheckedAt: uc.now(),
	}

	databases, err := uc.repo.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range databases {
		if name == plan.Database {
			v.DatabaseFound = true
			break
		}
	}

	principal, err := uc.repo.GetUser(ctx, plan.Database, plan.Principal.Username)
	if err != nil {
		return nil, err
	}
	v.UserExists = principal != nil
	v.RoleGranted = v.UserExists && len(missingRoles(principal, plan.Principal.Roles)) == 0

	names, err := uc.repo.ListCollections(ctx, plan.Database)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
		if !plan.IncludesCollection(name) && !strings.HasPrefix(name, "system.") {
			v.Unexpected = append(v.Unexpected, name)
		}
	}

	for _, name := range plan.Collections {
		state := model.CollectionState{Name: name, Exists: present[name]}
		if state.Exists {
			count, err := uc.repo.CountDocuments(ctx, plan.Database, name)
			if err != nil {
				return nil, err
			}
			state.Documents = count
		}
		v.Collections = append(v.Collections, state)
	}

	return v, nil
}

// Check pings the server and lists its databases
func (uc *BootstrapUsecase) Check(ctx context.Context) (*model.Connectivity, error) {
	start := uc.now()
	if err := uc.repo.Ping(ctx); err != nil {
		return nil, asConnectionError(err)
	}
	latency := uc.now().Sub(start)

	databases, err := uc.repo.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Connectivity{
		URI:       RedactURI(uc.opts.URI),
		Databases: databases,
		Latency:   latency,
	}, nil
}

// LastReport returns the report of the most recent run, or nil
func (uc *BootstrapUsecase) LastReport() *model.Report {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.last
}

// IsRunning returns true while a run is active in this process
func (uc *BootstrapUsecase) IsRunning() bool {
	return uc.running.Load()
}

// missingRoles returns the bindings of want that p does not hold
func missingRoles(p *model.Principal, want []model.RoleBinding) []model.RoleBinding {
	var missing []model.RoleBinding
	for _, binding := range want {
		if !p.HasRole(binding) {
			missing = append(missing, binding)
		}
	}
	return missing
}

// asConnectionError classifies unclassified ping failures as CONNECTION_UNAVAILABLE
func asConnectionError(err error) error {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeInternal, apperrors.ErrorTypeInfrastructure:
		return apperrors.NewConnectionUnavailableError("administrative endpoint unreachable").WithCause(err)
	}
	return err
}

// RedactURI hides the password of a connection string
func RedactURI(uri string) string {
	scheme := strings.Index(uri, "://")
	if scheme < 0 {
		return uri
	}
	rest := uri[scheme+3:]
	authority := rest
	if slash := strings.Index(rest, "/"); slash >= 0 {
		authority = rest[:slash]
	}
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return uri
	}

	user := authority[:at]
	if colon := strings.Index(user, ":"); colon >= 0 {
		user = user[:colon]
	}
	return uri[:scheme+3] + user + ":***" + rest[at:]
}
