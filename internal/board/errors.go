package board

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error returned by this package matches exactly
// one of them with errors.Is.
var (
	ErrInvalidFEN   = errors.New("invalid FEN")
	ErrMoveSyntax   = errors.New("malformed move")
	ErrIllegalMove  = errors.New("illegal move")
	ErrAmbiguousSAN = errors.New("ambiguous SAN")
)

// FENError reports a FEN string that is malformed or describes an
// impossible position.
type FENError struct {
	FEN    string
	Reason string
}

func (e *FENError) Error() string {
	return fmt.Sprintf("invalid FEN %q: %s", e.FEN, e.Reason)
}

func (e *FENError) Is(target error) bool { return target == ErrInvalidFEN }

// MoveSyntaxError reports move text that cannot be parsed, independent of
// any position.
type MoveSyntaxError struct {
	Text   string
	Reason string
}

func (e *MoveSyntaxError) Error() string {
	return fmt.Sprintf("malformed move %q: %s", e.Text, e.Reason)
}

func (e *MoveSyntaxError) Is(target error) bool { return target == ErrMoveSyntax }

// IllegalMoveError reports a well-formed move that is not legal in the
// position it was applied to.
type IllegalMoveError struct {
	Move string
	FEN  string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s in %s", e.Move, e.FEN)
}

func (e *IllegalMoveError) Is(target error) bool { return target == ErrIllegalMove }

// AmbiguousSANError reports a SAN string matching more than one legal move.
type AmbiguousSANError struct {
	SAN        string
	Candidates []Move
}

func (e *AmbiguousSANError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, m := range e.Candidates {
		names[i] = m.String()
	}
	return fmt.Sprintf("ambiguous SAN %q: matches %s", e.SAN, strings.Join(names, ", "))
}

func (e *AmbiguousSANError) Is(target error) bool { return target == ErrAmbiguousSAN }
