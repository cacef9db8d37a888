package parser

import (
	"reflect"
	"testing"
)

func FuzzExtract(f *testing.F) {
	f.Add([]byte("import os\nfrom . import a, b as c\n"), true, 1)
	f.Add([]byte("from pkg import (\n    x,  # pants: ignore\n    y,\n)\n"), false, 0)
	f.Add([]byte("import a, \\\n    b\n__import__(\"dyn.mod\")\n"), true, 2)
	f.Add([]byte("x = f\"{'inner.mod'}\" b\"raw.bytes\" '''doc.\nstring'''\n"), true, 0)
	f.Add([]byte("import )(\n"), false, 1)

	x0, err := NewExtractor(Options{})
	if err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, data []byte, stringImports bool, minDots int) {
		if minDots < 0 || minDots > 8 {
			minDots = 1
		}
		x := x0
		if stringImports {
			var err error
			x, err = NewExtractor(Options{StringImports: true, MinDots: minDots})
			if err != nil {
				t.Fatal(err)
			}
		}

		first := x.Extract("pkg/sub/mod.py", data)
		second := x.Extract("pkg/sub/mod.py", data)
		if first.Imports == nil {
			t.Fatal("imports map must never be nil")
		}
		if !reflect.DeepEqual(first.Imports, second.Imports) {
			t.Fatalf("non-deterministic result: %v vs %v", first.Imports, second.Imports)
		}
		if first.ParseFailed && len(first.Imports) != 0 {
			t.Fatalf("failed parse produced imports: %v", first.Imports)
		}
		for name, line := range first.Imports {
			if line < 1 {
				t.Fatalf("import %q has invalid line %d", name, line)
			}
		}
	})
}

func FuzzTokenStream(f *testing.F) {
	f.Add("import a, \\\n    b\n")
	f.Add("x = '''unterminated\n")
	f.Add("s = 'esc\\\\'\nt = \"a\\\nb\"\n")

	f.Fuzz(func(t *testing.T, code string) {
		src := NewSourceUnit("m.py", []byte(code))
		ts := newTokenStream(src.Lines, 1)
		for i := 0; i < 10000; i++ {
			if _, ok := ts.next(); !ok {
				return
			}
		}
	})
}
