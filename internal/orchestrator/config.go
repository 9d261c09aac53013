package orchestrator

import "github.com/modelsync/modelsync/internal/vcs"

type Config struct {
	Path             string
	CommitMessage    string
	SaveDirty        bool
	ConflictStrategy Strategy
	Credentials      vcs.Credentials
	EventHistory     int
}
