package exprlang

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
)

// Parser parses joint expressions.
type Parser struct {
	parser *participle.Parser[JointExpr]
}

// NewParser builds a joint-expression parser.
func NewParser() (*Parser, error) {
	p, err := participle.Build[JointExpr](
		participle.Lexer(JointLexer),
		participle.Elide("Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("build joint expression parser: %w", err)
	}
	return &Parser{parser: p}, nil
}

// ParseString parses a single joint expression string.
func (p *Parser) ParseString(input string) (*JointExpr, error) {
	expr, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse joint expression: %w", err)
	}
	return expr, nil
}
