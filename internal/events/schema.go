package events

// SchemaReload is emitted when serve mode rebuilds the entity graph from
// manifests. Err is set when the rebuild failed and the previous graph
// stayed in effect.
type SchemaReload struct {
	Entities int
	Actions  int
	Err      error
}
