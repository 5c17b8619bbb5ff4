// Package lexer tokenizes source text for the front end.
package lexer

import (
	"strconv"
	"unicode"
)

// Lexer tokenizes source text
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Line returns the source line the lexer is currently positioned on.
func (l *Lexer) Line() int {
	return l.line
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// Scan returns the next token from the input
func (l *Lexer) Scan() Token {
	l.skipWhitespace()
	l.skipComments()
	l.skipWhitespace()

	tok := Token{Line: l.line, Column: l.column}

	switch l.ch {
	case 0:
		tok.Tag = TagEOF
		return tok
	case '&':
		tok = l.oneOrTwo(TagAmpersand, '&', TagAnd)
	case '|':
		tok = l.oneOrTwo(TagPipe, '|', TagOr)
	case '=':
		tok = l.oneOrTwo(TagAssign, '=', TagEq)
	case '!':
		tok = l.oneOrTwo(TagIllegal, '=', TagNe)
	case '<':
		if l.peekChar() == '<' {
			tok = l.twoChar(TagShl)
		} else {
			tok = l.oneOrTwo(TagLt, '=', TagLe)
		}
	case '>':
		if l.peekChar() == '>' {
			tok = l.twoChar(TagShr)
		} else {
			tok = l.oneOrTwo(TagGt, '=', TagGe)
		}
	case '-':
		tok = l.oneOrTwo(TagMinus, '>', TagArrow)
	case '+':
		tok = l.newToken(TagPlus, l.ch)
	case '*':
		tok = l.newToken(TagStar, l.ch)
	case '/':
		tok = l.newToken(TagSlash, l.ch)
	case '^':
		tok = l.newToken(TagCaret, l.ch)
	case '@':
		tok = l.newToken(TagAt, l.ch)
	case '(':
		tok = l.newToken(TagLParen, l.ch)
	case ')':
		tok = l.newToken(TagRParen, l.ch)
	case '{':
		tok = l.newToken(TagLBrace, l.ch)
	case '}':
		tok = l.newToken(TagRBrace, l.ch)
	case '[':
		tok = l.newToken(TagLBracket, l.ch)
	case ']':
		tok = l.newToken(TagRBracket, l.ch)
	case ';':
		tok = l.newToken(TagSemicolon, l.ch)
	case ',':
		tok = l.newToken(TagComma, l.ch)
	case '.':
		tok = l.newToken(TagDot, l.ch)
	case ':':
		tok = l.newToken(TagColon, l.ch)
	case '\'':
		return l.readCharLiteral(tok)
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Tag = LookupIdent(tok.Literal)
			return tok
		} else if isDigit(l.ch) {
			tok.Tag = TagNum
			tok.Literal = l.readNumber()
			value, err := strconv.ParseInt(tok.Literal, 10, 64)
			if err != nil {
				tok.Tag = TagIllegal
			}
			tok.Value = value
			return tok
		} else {
			tok = l.newToken(TagIllegal, l.ch)
		}
	}

	l.readChar()
	return tok
}

// NextToken is Scan under the name the parser's cur/peek helpers use.
func (l *Lexer) NextToken() Token {
	return l.Scan()
}

func (l *Lexer) newToken(tag Tag, ch byte) Token {
	return Token{Tag: tag, Literal: string(ch), Line: l.line, Column: l.column}
}

// oneOrTwo returns the two-character token when the next character is next,
// otherwise the single-character token. The returned token's last character
// is left as the current one.
func (l *Lexer) oneOrTwo(single Tag, next byte, double Tag) Token {
	if l.peekChar() == next {
		return l.twoChar(double)
	}
	return l.newToken(single, l.ch)
}

func (l *Lexer) twoChar(tag Tag) Token {
	tok := Token{Tag: tag, Line: l.line, Column: l.column}
	first := l.ch
	l.readChar()
	tok.Literal = string([]byte{first, l.ch})
	return tok
}

func (l *Lexer) readCharLiteral(tok Token) Token {
	l.readChar() // consume opening quote
	c := l.ch
	if c == '\\' {
		l.readChar()
		c = unescape(l.ch)
	}
	l.readChar()
	if l.ch != '\'' {
		tok.Tag = TagIllegal
		tok.Literal = "'"
		return tok
	}
	l.readChar() // consume closing quote
	tok.Tag = TagChar
	tok.Value = int64(c)
	tok.Literal = strconv.QuoteRune(rune(c))
	return tok
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case '0':
		return 0
	default:
		return ch
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipComments() {
	for l.ch == '/' {
		if l.peekChar() == '/' {
			// Single-line comment
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			l.skipWhitespace()
		} else if l.peekChar() == '*' {
			// Multi-line comment
			l.readChar() // consume /
			l.readChar() // consume *
			for {
				if l.ch == 0 {
					break
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume *
					l.readChar() // consume /
					break
				}
				l.readChar()
			}
			l.skipWhitespace()
		} else {
			break
		}
	}
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

func (l *Lexer) readNumber() string {
	pos := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
