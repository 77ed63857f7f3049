package parser

import (
	"fmt"

	"github.com/gsh-project/gsh/internal/ast"
)

// Error is a parse failure carrying the byte offset it occurred at, so the
// shell's top-level loop can print a caret diagnostic under the offending
// character (SPEC_FULL.md §4.2).
type Error struct {
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at byte %d: %s", e.Offset, e.Msg)
}

// Parser turns one line into an ast.JobExp per spec.md §4.2's grammar:
//
//	job      := pipeline ('&')?
//	pipeline := command ('|' command)*
//	command  := arg (arg)*
//	arg      := redirect | quoted | bare
type Parser struct {
	lex  *Lexer
	tok  Token
	peek bool
}

// Parse parses line as a single job.
func Parse(line string) (*ast.JobExp, error) {
	p := &Parser{lex: NewLexer(line)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseJob()
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) parseJob() (*ast.JobExp, error) {
	pipeline, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}

	background := false
	if p.tok.Kind == TokBackground {
		background = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.tok.Kind != TokEOF {
		return nil, &Error{Offset: p.tok.Pos, Msg: "unexpected trailing input"}
	}

	return &ast.JobExp{Pipeline: pipeline, Background: background}, nil
}

func (p *Parser) parsePipeline() (*ast.PipelineExp, error) {
	first, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	cmds := []*ast.CommandExp{first}

	for p.tok.Kind == TokPipe {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	return &ast.PipelineExp{Commands: cmds}, nil
}

func (p *Parser) parseCommand() (*ast.CommandExp, error) {
	var args []ast.Arg

	for p.tok.Kind == TokWord || p.tok.Kind == TokRedirect {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if len(args) == 0 {
		return nil, &Error{Offset: p.tok.Pos, Msg: "expected a command"}
	}

	return &ast.CommandExp{Args: args}, nil
}

func (p *Parser) parseArg() (ast.Arg, error) {
	switch p.tok.Kind {
	case TokWord:
		tok := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		if tok.Quoted {
			return ast.StringArgument{Value: tok.Word}, nil
		}
		return ast.ExpandStringArgument{Value: tok.Word}, nil

	case TokRedirect:
		tok := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		if tok.ViaFD {
			return ast.RedirectFD{Dest: tok.Dest, Src: tok.Src}, nil
		}
		if p.tok.Kind != TokWord {
			return nil, &Error{Offset: p.tok.Pos, Msg: "expected a filename after redirection"}
		}
		path := p.tok.Word
		if err := p.advance(); err != nil {
			return nil, err
		}
		mode := ast.RedirectRead
		if tok.Op == '>' {
			mode = ast.RedirectWrite
		}
		return ast.RedirectFile{Dest: tok.Dest, Path: path, Mode: mode}, nil

	default:
		return nil, &Error{Offset: p.tok.Pos, Msg: "expected an argument"}
	}
}
