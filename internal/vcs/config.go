package vcs

import "time"

// RemoteName is the single remote every repository synchronizes with.
const RemoteName = "origin"

type Signature struct {
	Name  string
	Email string
}

type Config struct {
	DefaultBranch string
	Author        Signature
	Timeout       time.Duration
}
