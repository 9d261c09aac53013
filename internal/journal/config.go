package journal

type Config struct {
	// Retain is the number of runs kept; older runs are pruned on record.
	Retain int
}
