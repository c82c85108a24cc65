package notation

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Expr composes its terms left to right: "a * b" applies b first.
type Expr struct {
	Terms []*Term `@@ ( "*" @@ )*`
}

type Term struct {
	Matrix *Matrix `  @@`
	Call   *Call   `| @@`
	Group  *Expr   `| "(" @@ ")"`
}

type Call struct {
	Pos  lexer.Position
	Name string `@Ident`
	Args []*Arg `( "(" ( @@ ( "," @@ )* )? ")" )?`
}

type Arg struct {
	Number *Number `  @@`
	Expr   *Expr   `| @@`
}

type Number struct {
	Value float64 `@Number`
	Unit  string  `@( "rad" | "deg" )?`
}

type Matrix struct {
	Pos  lexer.Position
	Rows []*Row `"[" @@+ "]"`
}

type Row struct {
	Values []float64 `"[" @Number+ "]"`
}
