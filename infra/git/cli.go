// Package git adapts the publish.Remote contract onto the git command line,
// mirroring how the shared board repository is driven in deployment.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forestryvehicleadmin/motorpool/core/logger"
	"github.com/forestryvehicleadmin/motorpool/core/publish"
)

// CLI drives the git binary in a fixed working directory. It satisfies
// publish.Remote.
type CLI struct {
	dir     string
	cfg     Config
	keyPath string
	log     logger.Logger
}

// New returns a CLI for the repository at dir. Call Prepare once before any
// other method.
func New(dir string, cfg Config, log logger.Logger) *CLI {
	return &CLI{dir: dir, cfg: cfg, keyPath: cfg.DeployKeyPath, log: log}
}

// Prepare readies the working clone: writes the deploy key when material is
// configured, clones or initializes the directory, and pins the committer
// identity and remote URL.
func (g *CLI) Prepare(ctx context.Context) error {
	if err := g.writeDeployKey(); err != nil {
		return err
	}
	if err := g.ensure(ctx); err != nil {
		return err
	}
	return g.setup(ctx)
}

// writeDeployKey materializes configured key material next to the data
// directory, never inside it, so a stage-all cannot commit the key.
func (g *CLI) writeDeployKey() error {
	if g.cfg.DeployKey == "" {
		return nil
	}
	path := filepath.Clean(g.dir) + ".deploy_key"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("git: deploy key dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(g.cfg.DeployKey), 0o600); err != nil {
		return fmt.Errorf("git: write deploy key: %w", err)
	}
	g.keyPath = path
	return nil
}

// ensure makes dir a usable repository: an existing one is left alone, an
// empty or missing dir is cloned, or initialized when no URL is configured.
func (g *CLI) ensure(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(g.dir, ".git")); err == nil {
		return nil
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("git: %s exists and is not a repository", g.dir)
	}
	if g.cfg.URL == "" {
		g.logInfof("no remote configured, initializing local repository at %s", g.dir)
		_, err := g.run(ctx, "init", "-b", g.cfg.Branch)
		return err
	}
	g.logInfof("cloning %s into %s", g.cfg.URL, g.dir)
	if _, err := g.run(ctx, "clone", "--branch", g.cfg.Branch, g.authURL(), "."); err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return err
		}
		// Fresh remote without the branch yet: clone what is there and
		// create the branch locally.
		if _, err := g.run(ctx, "clone", g.authURL(), "."); err != nil {
			return err
		}
		_, err := g.run(ctx, "checkout", "-B", g.cfg.Branch)
		return err
	}
	return nil
}

// setup pins the committer identity on the clone and keeps the remote URL in
// sync with the configuration. Safe to run at every boot.
func (g *CLI) setup(ctx context.Context) error {
	if _, err := g.run(ctx, "config", "user.name", g.cfg.CommitterName); err != nil {
		return err
	}
	if _, err := g.run(ctx, "config", "user.email", g.cfg.CommitterEmail); err != nil {
		return err
	}
	if g.cfg.URL == "" {
		return nil
	}
	if _, err := g.run(ctx, "remote", "set-url", g.cfg.RemoteName, g.authURL()); err == nil {
		return nil
	}
	_, err := g.run(ctx, "remote", "add", g.cfg.RemoteName, g.authURL())
	return err
}

// authURL injects the write-access token into https remotes.
func (g *CLI) authURL() string {
	if g.cfg.Token == "" || !strings.HasPrefix(g.cfg.URL, "https://") {
		return g.cfg.URL
	}
	return "https://x-access-token:" + g.cfg.Token + "@" + strings.TrimPrefix(g.cfg.URL, "https://")
}

// Head returns the local tip, or "" for a repository without commits.
func (g *CLI) Head(ctx context.Context) (string, error) {
	out, errText, err := g.exec(ctx, "rev-parse", "HEAD")
	if err != nil {
		if isUnbornRef(errText) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Fetch refreshes the tracked remote branch. A remote that simply does not
// have the branch yet is not an error.
func (g *CLI) Fetch(ctx context.Context) error {
	_, errText, err := g.exec(ctx, "fetch", g.cfg.RemoteName, g.cfg.Branch)
	if err != nil && strings.Contains(strings.ToLower(errText), "couldn't find remote ref") {
		return nil
	}
	return err
}

// RemoteHead returns the fetched remote tip, or "" when the branch does not
// exist there yet.
func (g *CLI) RemoteHead(ctx context.Context) (string, error) {
	ref := "refs/remotes/" + g.cfg.RemoteName + "/" + g.cfg.Branch
	out, errText, err := g.exec(ctx, "rev-parse", "--verify", ref)
	if err != nil {
		if isUnbornRef(errText) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ChangedSince lists paths differing between two revisions. An empty base
// means everything present in tip.
func (g *CLI) ChangedSince(ctx context.Context, base, tip string) ([]string, error) {
	var out string
	var err error
	if base == "" {
		out, err = g.run(ctx, "ls-tree", "-r", "--name-only", tip)
	} else {
		out, err = g.run(ctx, "diff", "--name-only", base, tip)
	}
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Content returns a file's bytes at a revision, nil when the path does not
// exist there.
func (g *CLI) Content(ctx context.Context, rev, path string) ([]byte, error) {
	if rev == "" {
		return nil, nil
	}
	out, errText, err := g.exec(ctx, "show", rev+":"+path)
	if err != nil {
		lower := strings.ToLower(errText)
		if strings.Contains(lower, "does not exist") || strings.Contains(lower, "but not in") {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// ResetToRemote makes the working tree match the fetched remote tip.
func (g *CLI) ResetToRemote(ctx context.Context) error {
	_, err := g.run(ctx, "reset", "--hard", g.cfg.RemoteName+"/"+g.cfg.Branch)
	return err
}

// StageAll stages every change in the working tree.
func (g *CLI) StageAll(ctx context.Context) error {
	_, err := g.run(ctx, "add", "-A")
	return err
}

// IsClean reports whether the working tree and index carry no changes.
func (g *CLI) IsClean(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// Commit records the staged changes under the configured identity.
func (g *CLI) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

// Push publishes the local tip to the configured branch.
func (g *CLI) Push(ctx context.Context) error {
	_, err := g.run(ctx, "push", g.cfg.RemoteName, "HEAD:"+g.cfg.Branch)
	return err
}

func (g *CLI) run(ctx context.Context, args ...string) (string, error) {
	out, _, err := g.exec(ctx, args...)
	return strings.TrimSpace(string(out)), err
}

func (g *CLI) exec(ctx context.Context, args ...string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	cmd.Env = g.environ()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	errText := strings.TrimSpace(stderr.String())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return stdout.Bytes(), errText, fmt.Errorf("git %s: %w", args[0], publish.ErrTimeout)
		}
		if g.log != nil {
			g.log.Debugf("git %s failed: %s", args[0], firstLine(errText))
		}
		return stdout.Bytes(), errText, classify(args[0], errText, err)
	}
	return stdout.Bytes(), errText, nil
}

func (g *CLI) environ() []string {
	env := append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if g.keyPath != "" {
		env = append(env, "GIT_SSH_COMMAND=ssh -i "+g.keyPath+" -o IdentitiesOnly=yes -o StrictHostKeyChecking=no")
	}
	return env
}

func (g *CLI) logInfof(format string, args ...any) {
	if g.log != nil {
		g.log.Infof(format, args...)
	}
}

// classify folds git's stderr into the publish sentinels where the cause is
// recognizable.
func classify(op, errText string, err error) error {
	lower := strings.ToLower(errText)
	switch {
	case containsAny(lower,
		"could not resolve host",
		"could not read from remote",
		"unable to access",
		"connection timed out",
		"connection refused",
		"network is unreachable",
		"no route to host"):
		return fmt.Errorf("git %s: %w: %s", op, publish.ErrUnreachable, firstLine(errText))
	case containsAny(lower, "[rejected]", "non-fast-forward", "fetch first", "failed to push some refs"):
		return fmt.Errorf("git %s: %w: %s", op, publish.ErrRejected, firstLine(errText))
	case strings.Contains(lower, "permission denied"):
		if op == "push" {
			return fmt.Errorf("git %s: %w: %s", op, publish.ErrRejected, firstLine(errText))
		}
		return fmt.Errorf("git %s: %w: %s", op, publish.ErrUnreachable, firstLine(errText))
	}
	return fmt.Errorf("git %s: %v: %s", op, err, firstLine(errText))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isUnbornRef(errText string) bool {
	lower := strings.ToLower(errText)
	return strings.Contains(lower, "unknown revision") ||
		strings.Contains(lower, "needed a single revision") ||
		strings.Contains(lower, "bad revision")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
