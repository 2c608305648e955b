package dsv

import (
	"github.com/shapestone/shape-core/pkg/ast"
)

// ToAST converts the records of b into a Shape AST: an *ast.ArrayDataNode
// of records, each an *ast.ArrayDataNode of *ast.LiteralNode values. Null
// values become literals holding nil. Positions carry offset, line and
// column of the first character.
//
// Example:
//
//	batch, _ := dsv.ParseString("a,b\n1,2\n", format.DatasetFormat{Data: format.CSV()})
//	node := dsv.ToAST(batch)
//	arr := node.(*ast.ArrayDataNode) // [[a b] [1 2]]
func ToAST(b *Batch) ast.SchemaNode {
	if b == nil {
		return ast.NewArrayDataNode([]ast.SchemaNode{}, ast.ZeroPosition())
	}
	records := make([]ast.SchemaNode, 0, len(b.Records))
	for _, rec := range b.Records {
		records = append(records, recordNode(rec))
	}
	return ast.NewArrayDataNode(records, ast.ZeroPosition())
}

// HeaderAST converts the header of b, or returns nil if there is none.
func HeaderAST(b *Batch) ast.SchemaNode {
	if b == nil || b.Header == nil {
		return nil
	}
	return recordNode(b.Header)
}

func recordNode(rec *BatchRecord) *ast.ArrayDataNode {
	fields := make([]ast.SchemaNode, 0, len(rec.Values))
	for _, v := range rec.Values {
		pos := ast.NewPosition(int(v.Offset), int(v.Line), int(v.Column))
		var value interface{} = v.Text
		if v.Null {
			value = nil
		}
		fields = append(fields, ast.NewLiteralNode(value, pos))
	}
	return ast.NewArrayDataNode(fields, ast.NewPosition(int(rec.Offset), int(rec.Line), 1))
}
