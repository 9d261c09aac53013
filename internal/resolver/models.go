package resolver

// RestoredObject is an element whose file was recovered from history.
type RestoredObject struct {
	ID         string
	Path       string
	Commit     string
	Descriptor string
}
