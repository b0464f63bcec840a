package git

import (
	"fmt"
	"time"
)

// Config holds the shared-repository settings. An empty URL makes Prepare
// initialize a plain local repository with no remote configured.
type Config struct {
	URL        string `json:"url"`
	Branch     string `json:"branch"`
	RemoteName string `json:"remote_name"`

	CommitterName  string `json:"committer_name"`
	CommitterEmail string `json:"committer_email"`

	// Token is injected into https remotes for push access. SSH remotes use
	// the deploy key instead.
	Token string `json:"token"`
	// DeployKey is private key material; when set it is written next to the
	// data directory and wired through GIT_SSH_COMMAND. DeployKeyPath points
	// at an existing key file instead.
	DeployKey     string `json:"deploy_key"`
	DeployKeyPath string `json:"deploy_key_path"`

	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults fills the conventional values.
func (c *Config) SetDefaults() {
	if c.Branch == "" {
		c.Branch = "main"
	}
	if c.RemoteName == "" {
		c.RemoteName = "origin"
	}
	if c.CommitterName == "" {
		c.CommitterName = "forestryvehicleadmin"
	}
	if c.CommitterEmail == "" {
		c.CommitterEmail = "forestryvehicleadmin@nau.edu"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate rejects contradictory settings.
func (c *Config) Validate() error {
	if c.DeployKey != "" && c.DeployKeyPath != "" {
		return fmt.Errorf("git: deploy_key and deploy_key_path are mutually exclusive")
	}
	return nil
}

// Timeout returns the publish deadline as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
