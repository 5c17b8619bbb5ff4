package lexer

// Tag represents the lexical category of a token
type Tag int

const (
	// Special tokens
	TagEOF Tag = iota
	TagIllegal

	// Literals
	TagID   // main, foo, x
	TagNum  // 42
	TagChar // 'a'

	// Reserved words
	TagArray    // array
	TagBreak    // break
	TagContinue // continue
	TagCast     // cast
	TagDo       // do
	TagElse     // else
	TagFunction // function
	TagIf       // if
	TagInt      // int
	TagNull     // null
	TagOf       // of
	TagPointer  // pointer
	TagReturn   // return
	TagStruct   // struct
	TagSizeof   // sizeof
	TagTo       // to
	TagUnsigned // unsigned
	TagVoid     // void
	TagWhile    // while

	// Two-character operators
	TagAnd   // &&
	TagOr    // ||
	TagEq    // ==
	TagNe    // !=
	TagLe    // <=
	TagGe    // >=
	TagShl   // <<
	TagShr   // >>
	TagArrow // ->

	// Single-character operators
	TagPlus      // +
	TagMinus     // -
	TagStar      // *
	TagSlash     // /
	TagAmpersand // &
	TagPipe      // |
	TagCaret     // ^
	TagLt        // <
	TagGt        // >
	TagAssign    // =
	TagAt        // @

	// Delimiters
	TagLParen    // (
	TagRParen    // )
	TagLBrace    // {
	TagRBrace    // }
	TagLBracket  // [
	TagRBracket  // ]
	TagSemicolon // ;
	TagComma     // ,
	TagDot       // .
	TagColon     // :
)

var tagNames = map[Tag]string{
	TagEOF:       "EOF",
	TagIllegal:   "ILLEGAL",
	TagID:        "identifier",
	TagNum:       "constant",
	TagChar:      "character",
	TagArray:     "array",
	TagBreak:     "break",
	TagContinue:  "continue",
	TagCast:      "cast",
	TagDo:        "do",
	TagElse:      "else",
	TagFunction:  "function",
	TagIf:        "if",
	TagInt:       "int",
	TagNull:      "null",
	TagOf:        "of",
	TagPointer:   "pointer",
	TagReturn:    "return",
	TagStruct:    "struct",
	TagSizeof:    "sizeof",
	TagTo:        "to",
	TagUnsigned:  "unsigned",
	TagVoid:      "void",
	TagWhile:     "while",
	TagAnd:       "&&",
	TagOr:        "||",
	TagEq:        "==",
	TagNe:        "!=",
	TagLe:        "<=",
	TagGe:        ">=",
	TagShl:       "<<",
	TagShr:       ">>",
	TagArrow:     "->",
	TagPlus:      "+",
	TagMinus:     "-",
	TagStar:      "*",
	TagSlash:     "/",
	TagAmpersand: "&",
	TagPipe:      "|",
	TagCaret:     "^",
	TagLt:        "<",
	TagGt:        ">",
	TagAssign:    "=",
	TagAt:        "@",
	TagLParen:    "(",
	TagRParen:    ")",
	TagLBrace:    "{",
	TagRBrace:    "}",
	TagLBracket:  "[",
	TagRBracket:  "]",
	TagSemicolon: ";",
	TagComma:     ",",
	TagDot:       ".",
	TagColon:     ":",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token represents a lexical token. Words carry their spelling in Literal,
// numbers and character literals carry their value in Value.
type Token struct {
	Tag     Tag
	Literal string
	Value   int64
	Line    int
	Column  int
}

func (t Token) String() string {
	if t.Literal != "" {
		return t.Literal
	}
	return t.Tag.String()
}

// reserved maps reserved words to their tags
var reserved = map[string]Tag{
	"array":    TagArray,
	"break":    TagBreak,
	"continue": TagContinue,
	"cast":     TagCast,
	"do":       TagDo,
	"else":     TagElse,
	"function": TagFunction,
	"if":       TagIf,
	"int":      TagInt,
	"null":     TagNull,
	"of":       TagOf,
	"pointer":  TagPointer,
	"return":   TagReturn,
	"struct":   TagStruct,
	"sizeof":   TagSizeof,
	"to":       TagTo,
	"unsigned": TagUnsigned,
	"void":     TagVoid,
	"while":    TagWhile,
}

// LookupIdent returns the tag for a word (reserved word or identifier)
func LookupIdent(ident string) Tag {
	if tag, ok := reserved[ident]; ok {
		return tag
	}
	return TagID
}
