// Package trace models replayed namespace operations: the closed set of
// operation kinds, the parsed record, and a streaming reader for the
// whitespace-delimited trace format produced by the trace generators.
package trace

import "strings"

// Op is the kind of a namespace operation.
type Op uint8

const (
	// OpOther covers every operation not listed below; it is treated as a
	// generic non-mutating lookup.
	OpOther Op = iota
	OpRead
	OpCreate
	OpRename
	OpDelete
	OpSetPermission
)

var opNames = [...]string{
	OpOther:         "other",
	OpRead:          "read",
	OpCreate:        "create",
	OpRename:        "rename",
	OpDelete:        "delete",
	OpSetPermission: "setPermission",
}

// String returns the canonical trace spelling of op.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return opNames[OpOther]
}

// Mutating reports whether op invalidates the leaf component instead of
// looking it up.
func (op Op) Mutating() bool {
	switch op {
	case OpRename, OpDelete, OpSetPermission:
		return true
	default:
		return false
	}
}

// ParseOp maps a trace command name to an Op. The mutating names rename,
// delete and setPermission must match exactly; read- and create-class names
// are matched case-insensitively. Unknown names yield OpOther.
func ParseOp(name string) Op {
	switch name {
	case "rename":
		return OpRename
	case "delete":
		return OpDelete
	case "setPermission":
		return OpSetPermission
	}
	switch strings.ToLower(name) {
	case "read", "open", "stat", "getfileinfo":
		return OpRead
	case "create", "mkdir", "mknod", "mkdirs":
		return OpCreate
	default:
		return OpOther
	}
}
