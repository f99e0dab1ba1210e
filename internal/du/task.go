package du

// task is one unit of traversal work: a directory (or file) path waiting to
// be visited. A sentinel carries no path; dequeuing one tells the receiving
// worker to exit its loop. Exactly one worker consumes each task.
type task struct {
	path     string
	sentinel bool
}
