// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Restricted arithmetic-expression evaluation for literal classification.
//
// A token like "2*4" or "x^2=4" should score as math regardless of the exact
// digits, so the classifier evaluates it under a deliberately tiny grammar:
// numbers, + - * / ** ==, parentheses, unary minus, the function whitelist
// sqrt/sin/cos/tan, and pi. Single-letter variables are bound to 1 before
// parsing; any other identifier is an error. Nothing here ever reaches a
// general evaluator.

// knownFuncs maps the whitelisted function names to implementations.
var knownFuncs = map[string]func(float64) (float64, error){
	"sqrt": func(x float64) (float64, error) {
		if x < 0 {
			return 0, errors.New("sqrt of negative")
		}
		return math.Sqrt(x), nil
	},
	"sin": func(x float64) (float64, error) { return math.Sin(x), nil },
	"cos": func(x float64) (float64, error) { return math.Cos(x), nil },
	"tan": func(x float64) (float64, error) { return math.Tan(x), nil },
}

// funcPlaceholders protect whitelisted names and pi from the variable
// collapse below. Control characters never appear in tokenized input.
var funcPlaceholders = [...][2]string{
	{"sqrt", "\x01"},
	{"sin", "\x02"},
	{"cos", "\x03"},
	{"tan", "\x04"},
	{"pi", "\x05"},
}

// variablePattern collapses a letter with any adjacent digits into a single
// variable, so "2x" and "x2" both read as a variable reference.
var variablePattern = regexp.MustCompile(`\d*[a-zA-Z]\d*`)

// evaluatesAsMath reports whether tok is a well-formed arithmetic expression
// under the restricted grammar.
func evaluatesAsMath(tok string) bool {
	expr := strings.ReplaceAll(tok, "^", "**")
	expr = strings.ReplaceAll(expr, "=", "==")
	expr = strings.ReplaceAll(expr, "_", "")

	for _, p := range funcPlaceholders {
		expr = strings.ReplaceAll(expr, p[0], p[1])
	}
	expr = variablePattern.ReplaceAllString(expr, "x")
	for _, p := range funcPlaceholders {
		expr = strings.ReplaceAll(expr, p[1], p[0])
	}

	_, err := evalExpr(expr)
	return err == nil
}

// =============================================================================
// Lexer
// =============================================================================

type mathTokenKind int

const (
	tokNumber mathTokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type mathToken struct {
	kind mathTokenKind
	text string
	num  float64
}

func lexExpr(s string) ([]mathToken, error) {
	var toks []mathToken
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9' || c == '.':
			j := i
			dots := 0
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				if s[j] == '.' {
					dots++
				}
				j++
			}
			if dots > 1 || j == i+1 && s[i] == '.' {
				return nil, fmt.Errorf("bad number at %d", i)
			}
			n, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", s[i:j])
			}
			toks = append(toks, mathToken{kind: tokNumber, num: n})
			i = j
		case isAlpha(c):
			j := i
			for j < len(s) && isAlpha(s[j]) {
				j++
			}
			toks = append(toks, mathToken{kind: tokIdent, text: s[i:j]})
			i = j
		case c == '(':
			toks = append(toks, mathToken{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, mathToken{kind: tokRParen})
			i++
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				toks = append(toks, mathToken{kind: tokOp, text: "**"})
				i += 2
			} else {
				toks = append(toks, mathToken{kind: tokOp, text: "*"})
				i++
			}
		case c == '=':
			if i+1 < len(s) && s[i+1] == '=' {
				toks = append(toks, mathToken{kind: tokOp, text: "=="})
				i += 2
			} else {
				return nil, errors.New("single =")
			}
		case c == '+' || c == '-' || c == '/':
			toks = append(toks, mathToken{kind: tokOp, text: string(c)})
			i++
		default:
			return nil, fmt.Errorf("bad character %q", c)
		}
	}
	toks = append(toks, mathToken{kind: tokEOF})
	return toks, nil
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// =============================================================================
// Pratt Parser / Evaluator
// =============================================================================

type exprParser struct {
	toks []mathToken
	pos  int
}

// Binding powers: == binds loosest, then additive, multiplicative, unary
// minus, and ** tightest (right-associative).
const (
	precEquality = 1
	precAdditive = 2
	precMultiply = 3
	precUnary    = 4
	precPower    = 5
)

func evalExpr(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty expression")
	}
	toks, err := lexExpr(s)
	if err != nil {
		return 0, err
	}
	p := &exprParser{toks: toks}
	v, err := p.parseBinary(0)
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokEOF {
		return 0, errors.New("trailing input")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite result")
	}
	return v, nil
}

func (p *exprParser) peek() mathToken { return p.toks[p.pos] }

func (p *exprParser) next() mathToken {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) parseBinary(minPrec int) (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		prec, rightAssoc := opPrecedence(t.text)
		if prec < minPrec {
			return left, nil
		}
		p.next()

		nextMin := prec + 1
		if rightAssoc {
			nextMin = prec
		}
		right, err := p.parseBinary(nextMin)
		if err != nil {
			return 0, err
		}
		left, err = applyOp(t.text, left, right)
		if err != nil {
			return 0, err
		}
	}
}

func opPrecedence(op string) (prec int, rightAssoc bool) {
	switch op {
	case "==":
		return precEquality, false
	case "+", "-":
		return precAdditive, false
	case "*", "/":
		return precMultiply, false
	case "**":
		return precPower, true
	}
	return 0, false
}

func applyOp(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, errors.New("division by zero")
		}
		return a / b, nil
	case "**":
		return math.Pow(a, b), nil
	case "==":
		if a == b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unknown operator %q", op)
}

func (p *exprParser) parseUnary() (float64, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		v, err := p.parseBinary(precUnary)
		if err != nil {
			return 0, err
		}
		if t.text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokLParen:
		v, err := p.parseBinary(0)
		if err != nil {
			return 0, err
		}
		if p.next().kind != tokRParen {
			return 0, errors.New("missing closing paren")
		}
		return v, nil
	case tokIdent:
		return p.parseIdent(t.text)
	}
	return 0, errors.New("unexpected token")
}

// parseIdent resolves an identifier: whitelisted function call, pi, or a
// single-letter variable (bound to 1). Multi-letter names are errors, which
// is what makes ordinary words fail the math check.
func (p *exprParser) parseIdent(name string) (float64, error) {
	if fn, ok := knownFuncs[name]; ok {
		if p.next().kind != tokLParen {
			return 0, fmt.Errorf("%s requires an argument", name)
		}
		arg, err := p.parseBinary(0)
		if err != nil {
			return 0, err
		}
		if p.next().kind != tokRParen {
			return 0, errors.New("missing closing paren")
		}
		return fn(arg)
	}
	if name == "pi" {
		return 3.14, nil
	}
	if len(name) == 1 {
		return 1, nil
	}
	return 0, fmt.Errorf("unknown identifier %q", name)
}
