package tokenizer

import (
	"errors"
	"fmt"
)

// ErrNoProgress is returned when the grammar cannot end a value, so the
// lexer would emit empty values forever without consuming input.
var ErrNoProgress = errors.New("format makes no forward progress")

// State is a lexer state.
type State int

const (
	RecordStart State = iota
	ValueStart
	ValueEnd
	RecordEnd
)

func (s State) String() string {
	switch s {
	case RecordStart:
		return "RECORD_START"
	case ValueStart:
		return "VALUE_START"
	case ValueEnd:
		return "VALUE_END"
	case RecordEnd:
		return "RECORD_END"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Transition returns the state following s after it emitted a token of
// type typ, or no token when typ is nil.
func Transition(s State, typ *TokenType) State {
	switch s {
	case RecordStart:
		return ValueStart
	case ValueStart:
		return ValueEnd
	case ValueEnd:
		if typ == nil {
			return RecordEnd
		}
		switch *typ {
		case Suffix:
			return ValueEnd
		case RecordSeparator:
			return RecordStart
		default:
			return ValueStart
		}
	case RecordEnd:
		if typ == nil || *typ == RecordSeparator {
			return ValueStart
		}
		return ValueEnd
	}
	panic(fmt.Sprintf("tokenizer: unknown state %d", int(s)))
}

// recognizer performs the per-state matching. The Lexer implements it over
// a scanner; tests replace it with canned answers.
type recognizer interface {
	atEnd() (bool, error)
	prefix() (*Token, error)
	value() (*Token, error)
	// emptyValue returns a zero-length value at the current position.
	emptyValue() *Token
	delimiter(suffixConsumed bool) (*Token, error)
	suffix() (*Token, error)
}

// machine is the lexer state machine. It holds no I/O of its own.
type machine struct {
	state          State
	suffixConsumed bool
	done           bool
	lastValue      int64
}

func newMachine() machine {
	return machine{state: RecordStart, lastValue: -1}
}

// action runs the token-producing step of the current state.
func (m *machine) action(r recognizer) (*Token, error) {
	switch m.state {
	case RecordStart:
		return r.prefix()
	case ValueStart:
		return r.value()
	case ValueEnd:
		return r.delimiter(m.suffixConsumed)
	case RecordEnd:
		if m.suffixConsumed {
			return nil, nil
		}
		return r.suffix()
	}
	return nil, nil
}

// endAction runs when no characters remain. Only a pending value start
// produces a token.
func (m *machine) endAction(r recognizer) *Token {
	if m.state == ValueStart {
		return r.emptyValue()
	}
	return nil
}

// next advances until a token is produced or the input ends. It returns
// nil once the input is exhausted.
func (m *machine) next(r recognizer) (*Token, error) {
	for !m.done {
		end, err := r.atEnd()
		if err != nil {
			return nil, err
		}

		var tok *Token
		if end {
			tok = m.endAction(r)
		} else if tok, err = m.action(r); err != nil {
			return nil, err
		}

		var typ *TokenType
		if tok != nil {
			typ = &tok.Type
			switch tok.Type {
			case Suffix:
				m.suffixConsumed = true
			case RecordSeparator:
				m.suffixConsumed = false
			case Value, QuotedValue:
				if !end && tok.Offset == m.lastValue {
					return nil, fmt.Errorf("tokenizer: offset %d: %w", tok.Offset, ErrNoProgress)
				}
				m.lastValue = tok.Offset
			}
		}
		m.state = Transition(m.state, typ)

		if tok != nil {
			return tok, nil
		}
		if end {
			m.done = true
		}
	}
	return nil, nil
}
