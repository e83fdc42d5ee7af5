package exprlang

// tokenType enumerates the lexical categories of the ${...} expression
// grammar (spec.md §4.1): a small Python-flavored arithmetic/boolean
// expression language, not the outer xacro text lexer.
type tokenType int

const (
	tEOF tokenType = iota
	tNumber
	tString
	tIdent
	tPlus
	tMinus
	tStar
	tSlash
	tSlashSlash
	tPercent
	tPow
	tLParen
	tRParen
	tLBracket
	tRBracket
	tLBrace
	tRBrace
	tComma
	tColon
	tDot
	tEq
	tNe
	tLt
	tLe
	tGt
	tGe
	tAnd
	tOr
	tNot
	tIf
	tElse
	tIn
)

type token struct {
	typ tokenType
	lit string
	pos int
}

var keywords = map[string]tokenType{
	"and":   tAnd,
	"or":    tOr,
	"not":   tNot,
	"if":    tIf,
	"else":  tElse,
	"in":    tIn,
	"True":  tIdent,
	"False": tIdent,
}
