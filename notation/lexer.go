package notation

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes both the printed matrix form, e.g. "[[1 0 5] [0 1 6] [0 0 1]]",
// and transform expressions such as "scale(1.5) * rotate(1rad) * translate(15, 10.3)".
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[\[\]()*,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})
