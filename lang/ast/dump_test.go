package ast_test

import (
	"bytes"
	"flag"
	"testing"

	"github.com/mna/esvm/internal/filetest"
	"github.com/mna/esvm/lang/ast"
)

var updateDumpGolden = flag.Bool("test.update-dump-tests", false, "update lang/ast dump golden files")

// testPrograms supplies the *ast.Program for each testdata/*.src file by
// name -- the .src file's own content is a human-readable reminder of what
// the hand-built tree represents, not something Dump reads.
var testPrograms = map[string]*ast.Program{
	"point.src": {
		Body: []ast.Stmt{
			&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{{
				Name: &ast.Ident{Name: "x"},
				Init: &ast.Literal{Kind: ast.LiteralNumber, Number: 1},
			}}},
			&ast.ReturnStmt{Arg: &ast.Ident{Name: "x"}},
		},
	},
}

// TestDumpGolden checks ast.Dump's rendering of a handful of hand-built
// trees against golden files, the same testdata/*.src-plus-*.want
// directory convention the teacher's own file-driven tests use.
func TestDumpGolden(t *testing.T) {
	const dir = "testdata"
	for _, fi := range filetest.SourceFiles(t, dir, ".src") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			prog, ok := testPrograms[fi.Name()]
			if !ok {
				t.Fatalf("no test program registered for %s", fi.Name())
			}
			var buf bytes.Buffer
			ast.Dump(&buf, prog)
			filetest.DiffOutput(t, fi, buf.String(), dir, updateDumpGolden)
		})
	}
}
