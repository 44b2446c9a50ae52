package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/utilitywarehouse/lohr/giturl"
	"github.com/utilitywarehouse/lohr/internal/lock"
	"github.com/utilitywarehouse/lohr/internal/utils"
	"github.com/utilitywarehouse/lohr/settings"
)

const defaultDirMode os.FileMode = os.FileMode(0755) // 'rwxr-xr-x'

// State is the stage of a mirror job
type State string

const (
	StateStart          State = "start"
	StateMirroring      State = "mirroring"
	StateUpdating       State = "updating"
	StatePushingRemotes State = "pushing-remotes"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

var ErrAlreadyRun = errors.New("job has already been run")

// Config holds dependencies shared by all jobs
type Config struct {
	// Home is the absolute directory under which all mirrors are stored
	Home string
	// Settings provides remote stems and blacklist, nil is treated as
	// zero Settings
	Settings *settings.Settings
	// Credentials is optional, without it git is expected to be
	// pre-authenticated
	Credentials *Credentials
	Log         *slog.Logger
}

// Job mirrors a single repository into its local bare mirror and then
// pushes the mirror to all resolved remotes.
// Run must only be called once, other methods are safe for concurrent use.
type Job struct {
	lock   lock.RWMutex
	repo   Repository
	conf   Config
	log    *slog.Logger
	state  State
	states []State // states taken during run, in order
	ran    bool
	pushed []string
}

// NewJob returns a Job for given repository in Start state
func NewJob(repo Repository, conf Config) *Job {
	log := conf.Log
	if log == nil {
		log = slog.Default()
	}
	if conf.Settings == nil {
		conf.Settings = &settings.Settings{}
	}

	return &Job{
		repo:  repo,
		conf:  conf,
		log:   log.With("repo", repo.FullName),
		state: StateStart,
	}
}

// Name returns full name of the repository
func (j *Job) Name() string {
	return j.repo.FullName
}

// Repository returns the repository record the job was created for
func (j *Job) Repository() Repository {
	return j.repo
}

// State returns current state of the job
func (j *Job) State() State {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.state
}

// Pushed returns remotes which were successfully pushed to, in order
func (j *Job) Pushed() []string {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return append([]string(nil), j.pushed...)
}

// LocalPath returns location of the mirror on disk
func (j *Job) LocalPath() (string, error) {
	return LocalPath(j.conf.Home, j.repo.FullName)
}

func (j *Job) setState(s State) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.log.Log(context.Background(), -8, "job state changed", "from", j.state, "to", s)
	j.state = s
	j.states = append(j.states, s)
}

// Run executes the job till it reaches either Done or Failed state.
//  1. clone bare mirror if local path doesn't exist otherwise update it
//  2. resolve remotes
//  3. push mirror to each remote in order, stop at first failure
func (j *Job) Run(ctx context.Context) (err error) {
	j.lock.Lock()
	if j.ran {
		j.lock.Unlock()
		return ErrAlreadyRun
	}
	j.ran = true
	j.lock.Unlock()

	if j.conf.Settings.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.conf.Settings.JobTimeout)
		defer cancel()
	}

	defer updateJobLatency(j.repo.FullName, time.Now())
	start := time.Now()

	defer func() {
		if err != nil {
			j.setState(StateFailed)
		} else {
			j.setState(StateDone)
		}
		recordJob(j.repo.FullName, err == nil)
	}()

	if err := j.repo.Validate(); err != nil {
		return err
	}

	localPath, err := j.LocalPath()
	if err != nil {
		return err
	}

	if utils.IsDir(localPath) {
		j.setState(StateUpdating)
		if err := j.update(ctx, localPath); err != nil {
			return err
		}
	} else {
		j.setState(StateMirroring)
		if err := j.clone(ctx, localPath); err != nil {
			return err
		}
	}

	if usesLFS(ctx, j.log, j.repo.FullName, localPath) {
		j.log.Warn("repository uses git-lfs, lfs objects are not mirrored")
	}

	j.setState(StatePushingRemotes)

	remotes, err := ResolveRemotes(ctx, j.log, j.repo.FullName, localPath, j.conf.Settings)
	if err != nil {
		return err
	}

	if len(remotes) == 0 {
		j.log.Info("no remotes configured for repository, nothing to push")
	}

	for _, remote := range remotes {
		if err := j.push(ctx, localPath, remote); err != nil {
			return err
		}
	}

	j.log.Info("mirror job complete", "time", time.Since(start), "remotes", len(remotes))
	return nil
}

// clone creates bare mirror of the source repository at localPath
func (j *Job) clone(ctx context.Context, localPath string) error {
	j.log.Info("cloning repository", "source", giturl.Redact(j.repo.SourceURL), "path", localPath)

	if err := os.MkdirAll(filepath.Dir(localPath), defaultDirMode); err != nil {
		return &ProcessError{Op: OpCloneMirror, Repo: j.repo.FullName, Err: fmt.Errorf("unable to create parent dir err:%w", err)}
	}

	envs := j.conf.Credentials.Env(ctx, j.repo.SourceURL)

	// git clone --mirror -- <source> <path>
	if _, err := runGitCommand(ctx, j.log, envs, "", "clone", "--mirror", "--", j.repo.SourceURL, localPath); err != nil {
		// partial clone must not be mistaken for a mirror on next run
		if rErr := os.RemoveAll(localPath); rErr != nil {
			j.log.Error("unable to remove failed clone", "path", localPath, "err", rErr)
		}
		return &ProcessError{Op: OpCloneMirror, Repo: j.repo.FullName, Err: err}
	}
	return nil
}

// update fetches latest refs of the existing mirror from origin and prunes
// refs deleted upstream
func (j *Job) update(ctx context.Context, localPath string) error {
	j.log.Info("updating repository", "path", localPath)

	envs := j.conf.Credentials.Env(ctx, j.repo.SourceURL)

	// git remote update origin --prune
	if _, err := runGitCommand(ctx, j.log, envs, localPath, "remote", "update", "origin", "--prune"); err != nil {
		return &ProcessError{Op: OpRemoteUpdate, Repo: j.repo.FullName, Err: err}
	}
	return nil
}

// push mirrors all refs of the local mirror to given remote
func (j *Job) push(ctx context.Context, localPath, remote string) error {
	redacted := giturl.Redact(remote)
	j.log.Info("pushing to remote", "remote", redacted)

	envs := j.conf.Credentials.Env(ctx, remote)

	// git push --mirror <remote>
	_, err := runGitCommand(ctx, j.log, envs, localPath, "push", "--mirror", remote)
	recordPush(j.repo.FullName, err == nil)
	if err != nil {
		return &ProcessError{Op: OpPushMirror, Repo: j.repo.FullName, Remote: redacted, Err: err}
	}

	j.lock.Lock()
	j.pushed = append(j.pushed, remote)
	j.lock.Unlock()
	return nil
}
