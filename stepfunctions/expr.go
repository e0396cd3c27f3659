// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package stepfunctions

import (
	"errors"
	"fmt"
)

// SyntaxError reports a malformed flow expression.
type SyntaxError struct {
	Expr   string
	Column int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at column %d in %q", e.Msg, e.Column, e.Expr)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

type tokenKind int

const (
	tokName tokenKind = iota
	tokArrow
	tokOpen
	tokClose
	tokComma
	tokEllipsis
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	col  int
}

func (k tokenKind) String() string {
	switch k {
	case tokName:
		return "task name"
	case tokArrow:
		return "'>>'"
	case tokOpen:
		return "'['"
	case tokClose:
		return "']'"
	case tokComma:
		return "','"
	case tokEllipsis:
		return "'...'"
	}
	return "end of expression"
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	for i := 0; i < len(expr); {
		c := expr[i]
		col := i + 1
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '>' && i+1 < len(expr) && expr[i+1] == '>':
			toks = append(toks, token{tokArrow, ">>", col})
			i += 2
		case c == '[':
			toks = append(toks, token{tokOpen, "[", col})
			i++
		case c == ']':
			toks = append(toks, token{tokClose, "]", col})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", col})
			i++
		case c == '.' && i+2 < len(expr) && expr[i+1] == '.' && expr[i+2] == '.':
			toks = append(toks, token{tokEllipsis, "...", col})
			i += 3
		case isNameByte(c):
			j := i
			for j < len(expr) && isNameByte(expr[j]) {
				j++
			}
			toks = append(toks, token{tokName, expr[i:j], col})
			i = j
		default:
			return nil, &SyntaxError{Expr: expr, Column: col, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{tokEOF, "", len(expr) + 1}), nil
}

type parser struct {
	expr   string
	toks   []token
	pos    int
	lookup func(string) (Task, bool)
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(col int, err error, format string, args ...any) error {
	return &SyntaxError{Expr: p.expr, Column: col, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ParseExpression parses "task1 >> [task2, task3] >> task4" into stages.
// A trailing "..." marks a single task flow ("task1 >> ..."). Names are
// resolved with lookup.
func ParseExpression(expr string, lookup func(name string) (Task, bool)) ([]Stage, error) {
	if lookup == nil {
		return nil, errors.New("lookup is required")
	}

	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	p := &parser{expr: expr, toks: toks, lookup: lookup}
	if p.peek().kind == tokEOF {
		return nil, p.errorf(1, ErrEmptyFlow, "empty expression")
	}

	var stages []Stage
	for {
		st, err := p.stage()
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)

		t := p.next()
		switch t.kind {
		case tokEOF:
			return stages, nil
		case tokArrow:
		default:
			return nil, p.errorf(t.col, nil, "expected '>>', got %s", t.kind)
		}

		if p.peek().kind == tokEllipsis {
			e := p.next()
			if len(stages) != 1 {
				return nil, p.errorf(e.col, nil, "'...' only follows a single stage")
			}
			if end := p.next(); end.kind != tokEOF {
				return nil, p.errorf(end.col, nil, "'...' must end the expression")
			}
			return stages, nil
		}
	}
}

func (p *parser) stage() (Stage, error) {
	t := p.next()
	switch t.kind {
	case tokName:
		task, err := p.task(t)
		if err != nil {
			return Stage{}, err
		}
		return Step(task), nil
	case tokOpen:
		return p.parallel(t)
	case tokEOF:
		return Stage{}, p.errorf(t.col, nil, "dangling '>>'")
	}
	return Stage{}, p.errorf(t.col, nil, "expected task name or '[', got %s", t.kind)
}

func (p *parser) parallel(open token) (Stage, error) {
	if p.peek().kind == tokClose {
		return Stage{}, p.errorf(open.col, ErrEmptyStage, "empty parallel stage")
	}

	var tasks []Task
	for {
		t := p.next()
		switch t.kind {
		case tokName:
		case tokOpen:
			return Stage{}, p.errorf(t.col, nil, "nested parallel stages are not supported")
		case tokEOF:
			return Stage{}, p.errorf(open.col, nil, "unclosed '['")
		default:
			return Stage{}, p.errorf(t.col, nil, "expected task name, got %s", t.kind)
		}

		task, err := p.task(t)
		if err != nil {
			return Stage{}, err
		}
		tasks = append(tasks, task)

		sep := p.next()
		switch sep.kind {
		case tokComma:
		case tokClose:
			return Parallel(tasks...), nil
		case tokEOF:
			return Stage{}, p.errorf(open.col, nil, "unclosed '['")
		default:
			return Stage{}, p.errorf(sep.col, nil, "expected ',' or ']', got %s", sep.kind)
		}
	}
}

func (p *parser) task(t token) (Task, error) {
	task, ok := p.lookup(t.text)
	if !ok || task == nil {
		return nil, p.errorf(t.col, ErrUnknownTask, "unknown task %q", t.text)
	}
	return task, nil
}
