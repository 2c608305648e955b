package grammar

// EOS marks the end of input in Input results.
const EOS rune = -1

// Input gives a pattern random access to normalized characters. A line
// ending ("\r\n", "\n" or "\r") is reported as a single '\n' whose width is
// the number of underlying positions it occupies.
type Input interface {
	// Next returns the character starting at pos, or EOS.
	Next(pos int) (r rune, width int, err error)
	// Prev returns the character ending at pos, or EOS at the start.
	Prev(pos int) (r rune, width int)
}

type opcode uint8

const (
	opRune opcode = iota
	opAny
	opSplit
	opJmp
	opNotAhead // zero width: none of lits starts at the current position
	opEOS      // zero width: at end of input
	opMatch
)

type inst struct {
	op   opcode
	r    rune
	x, y int
	lits [][]rune
}

// Pattern is a compiled automaton. It is immutable and safe to share.
type Pattern struct {
	prog     []inst
	backward bool
}

// Match runs the pattern forward from pos and returns the number of input
// positions covered by the longest match, or -1 if it never accepts.
func (p *Pattern) Match(in Input, pos int) (int, error) {
	if p.backward {
		panic("grammar: forward match on backward pattern")
	}
	return p.run(in, pos, 0)
}

// MatchBackward runs a reversed pattern over the characters ending at end,
// never reading before limit. It returns the length of the longest match
// or -1.
func (p *Pattern) MatchBackward(in Input, end, limit int) int {
	if !p.backward {
		panic("grammar: backward match on forward pattern")
	}
	n, _ := p.run(in, end, limit)
	return n
}

// threadList is a sparse set of program counters.
type threadList struct {
	dense  []int
	sparse []int
}

func newThreadList(n int) *threadList {
	return &threadList{dense: make([]int, 0, n), sparse: make([]int, n)}
}

func (l *threadList) contains(pc int) bool {
	i := l.sparse[pc]
	return i < len(l.dense) && l.dense[i] == pc
}

func (l *threadList) add(pc int) {
	l.sparse[pc] = len(l.dense)
	l.dense = append(l.dense, pc)
}

func (l *threadList) clear() {
	l.dense = l.dense[:0]
}

// run is a Pike VM without captures. It records the last position at which
// a thread reached opMatch.
func (p *Pattern) run(in Input, start, limit int) (int, error) {
	clist := newThreadList(len(p.prog))
	step := make([]int, 0, len(p.prog))
	accept := -1
	pos := start

	read := func(pos int) (rune, int, error) {
		if !p.backward {
			return in.Next(pos)
		}
		if pos <= limit {
			return EOS, 0, nil
		}
		r, w := in.Prev(pos)
		if pos-w < limit {
			return EOS, 0, nil
		}
		return r, w, nil
	}

	r, width, err := read(pos)
	if err != nil {
		return -1, err
	}
	matched, err := p.addThread(clist, 0, in, pos, r == EOS)
	if err != nil {
		return -1, err
	}
	if matched {
		accept = 0
	}

	for len(clist.dense) > 0 && r != EOS {
		step = step[:0]
		for _, pc := range clist.dense {
			ins := &p.prog[pc]
			switch ins.op {
			case opRune:
				if ins.r == r {
					step = append(step, pc+1)
				}
			case opAny:
				step = append(step, pc+1)
			}
		}
		if p.backward {
			pos -= width
		} else {
			pos += width
		}
		if r, width, err = read(pos); err != nil {
			return -1, err
		}

		clist.clear()
		for _, pc := range step {
			m, err := p.addThread(clist, pc, in, pos, r == EOS)
			if err != nil {
				return -1, err
			}
			if m {
				if p.backward {
					accept = start - pos
				} else {
					accept = pos - start
				}
			}
		}
	}
	return accept, nil
}

// addThread follows zero-width instructions from pc and adds the consuming
// ones to l. It reports whether opMatch is reachable.
func (p *Pattern) addThread(l *threadList, pc int, in Input, pos int, atEOS bool) (bool, error) {
	if l.contains(pc) {
		return false, nil
	}
	l.add(pc)
	ins := p.prog[pc]
	switch ins.op {
	case opMatch:
		return true, nil
	case opJmp:
		return p.addThread(l, ins.x, in, pos, atEOS)
	case opSplit:
		a, err := p.addThread(l, ins.x, in, pos, atEOS)
		if err != nil {
			return false, err
		}
		b, err := p.addThread(l, ins.y, in, pos, atEOS)
		return a || b, err
	case opEOS:
		if !atEOS {
			return false, nil
		}
		return p.addThread(l, pc+1, in, pos, atEOS)
	case opNotAhead:
		for _, lit := range ins.lits {
			ok, err := literalAt(in, pos, lit)
			if err != nil {
				return false, err
			}
			if ok {
				return false, nil
			}
		}
		return p.addThread(l, pc+1, in, pos, atEOS)
	}
	return false, nil
}

// literalAt reports whether lit occurs at pos. An EOS element in lit
// matches only the end of input.
func literalAt(in Input, pos int, lit []rune) (bool, error) {
	for _, want := range lit {
		r, w, err := in.Next(pos)
		if err != nil {
			return false, err
		}
		if r != want {
			return false, nil
		}
		pos += w
	}
	return true, nil
}
