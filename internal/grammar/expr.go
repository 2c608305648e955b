package grammar

// expr is the small regular expression language the grammar is written in.
type expr interface{}

type (
	litExpr      []rune
	anyExpr      struct{}
	notAheadExpr [][]rune
	eosExpr      struct{}
	catExpr      []expr
	altExpr      []expr
	starExpr     struct{ e expr }
)

type compiler struct {
	prog []inst
}

// compile turns e into a Thompson program. Backward patterns are walked
// from the end of the input towards its start, so their literals must
// already be reversed.
func compile(e expr, backward bool) *Pattern {
	c := &compiler{}
	c.emit(e)
	c.prog = append(c.prog, inst{op: opMatch})
	return &Pattern{prog: c.prog, backward: backward}
}

func (c *compiler) emit(e expr) {
	switch e := e.(type) {
	case litExpr:
		for _, r := range e {
			c.prog = append(c.prog, inst{op: opRune, r: r})
		}
	case anyExpr:
		c.prog = append(c.prog, inst{op: opAny})
	case notAheadExpr:
		c.prog = append(c.prog, inst{op: opNotAhead, lits: e})
	case eosExpr:
		c.prog = append(c.prog, inst{op: opEOS})
	case catExpr:
		for _, sub := range e {
			c.emit(sub)
		}
	case altExpr:
		var jumps []int
		for i, sub := range e {
			if i == len(e)-1 {
				c.emit(sub)
				break
			}
			split := len(c.prog)
			c.prog = append(c.prog, inst{op: opSplit, x: split + 1})
			c.emit(sub)
			jumps = append(jumps, len(c.prog))
			c.prog = append(c.prog, inst{op: opJmp})
			c.prog[split].y = len(c.prog)
		}
		for _, j := range jumps {
			c.prog[j].x = len(c.prog)
		}
	case starExpr:
		split := len(c.prog)
		c.prog = append(c.prog, inst{op: opSplit, x: split + 1})
		c.emit(e.e)
		c.prog = append(c.prog, inst{op: opJmp, x: split})
		c.prog[split].y = len(c.prog)
	default:
		panic("grammar: unknown expression")
	}
}
