package geo38

import (
	"fmt"
	"strconv"
	"strings"
)

// Verb is a server command keyword.
type Verb string

// Command verbs understood by the server.
const (
	VerbSet        Verb = "SET"
	VerbGet        Verb = "GET"
	VerbDel        Verb = "DEL"
	VerbPDel       Verb = "PDEL"
	VerbDrop       Verb = "DROP"
	VerbExpire     Verb = "EXPIRE"
	VerbPersist    Verb = "PERSIST"
	VerbTTL        Verb = "TTL"
	VerbFSet       Verb = "FSET"
	VerbKeys       Verb = "KEYS"
	VerbBounds     Verb = "BOUNDS"
	VerbScan       Verb = "SCAN"
	VerbWithin     Verb = "WITHIN"
	VerbIntersects Verb = "INTERSECTS"
	VerbNearby     Verb = "NEARBY"
	VerbPing       Verb = "PING"
	VerbOutput     Verb = "OUTPUT"
	VerbFlushDB    Verb = "FLUSHDB"
)

// Clause and area tokens.
const (
	tokEX         = "EX"
	tokNX         = "NX"
	tokXX         = "XX"
	tokField      = "FIELD"
	tokMatch      = "MATCH"
	tokWhere      = "WHERE"
	tokNoFields   = "NOFIELDS"
	tokWithFields = "WITHFIELDS"
	tokClip       = "CLIP"
	tokCursor     = "CURSOR"
	tokLimit      = "LIMIT"
	tokFence      = "FENCE"
	tokDetect     = "DETECT"
	tokCommands   = "COMMANDS"
	tokPoint      = "POINT"
	tokObject     = "OBJECT"
	tokBounds     = "BOUNDS"
	tokHash       = "HASH"
	tokString     = "STRING"
	tokQuadkey    = "QUADKEY"
	tokTile       = "TILE"
	tokCircle     = "CIRCLE"
	tokGet        = "GET"
	tokDistance   = "DISTANCE"
)

// Command is a compiled command: a verb and its positional arguments.
// Args hold string, int or float64 values in wire order.
type Command struct {
	Verb Verb
	Args []any
}

// Strings renders the arguments as wire strings.
func (c Command) Strings() []string {
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		out[i] = formatArg(a)
	}
	return out
}

// String returns a debug representation resembling the command line.
func (c Command) String() string {
	parts := append([]string{string(c.Verb)}, c.Strings()...)
	return strings.Join(parts, " ")
}

func formatArg(a any) string {
	switch v := a.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Compiler is implemented by every command builder.
type Compiler interface {
	Compile() (Command, error)
}
