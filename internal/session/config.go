package session

type Config struct {
	// ModelName names the empty model created when nothing is stored yet.
	ModelName string
	// Snapshots is the number of saved snapshots kept.
	Snapshots int
}
