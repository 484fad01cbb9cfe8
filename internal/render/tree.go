package render

// ChildView is one entry yielded by a NodeView's Children(): either a real
// child node or the one-time separator between dependencies and
// dev_dependencies.
type ChildView struct {
	Separator bool
	Label     string // set only when Separator is true
	View      NodeView
}

// NodeView adapts a resolved or diff node to the pull-model children() API
// consumed by the external printer (cmd/). Children are always returned in
// key-sorted order; rendering order is deterministic regardless of
// resolution order.
type NodeView interface {
	Label() string
	Children() []ChildView
}

// DevSeparatorLabel is the literal line emitted once between a node's
// dependencies and its dev_dependencies, when the latter is non-empty.
const DevSeparatorLabel = "[DEV DEPENDENCIES]"

func devSeparator() ChildView {
	return ChildView{Separator: true, Label: DevSeparatorLabel}
}
