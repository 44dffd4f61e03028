package layout

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zurustar/blockscript/pkg/compiler"
	"github.com/zurustar/blockscript/pkg/store"
)

const arenaLayout = `
name: arena_dev
rows:
  - at: [0, 64, 0]
    markers:
      - {family: event, primary: join}
      - family: action
        primary: message
        target: self
        slots:
          0: {material: paper, name: Hello}
  - at: [0, 64, 1]
    markers:
      - {family: event, primary: chat}
      - family: condition
        primary: message
        slots:
          0: {material: paper, name: stop}
      - {family: open}
      - {family: action, primary: cancel-event}
      - {family: close}
  - at: [0, 65, 0]
    markers:
      - {family: event, primary: quit}
      - family: action
        primary: set-health
        slots:
          13: {placeholder: max_health}
`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_CompilesToProgram(t *testing.T) {
	path := writeFile(t, t.TempDir(), "arena.yaml", []byte(arenaLayout))

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g, err := f.Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}

	reg := g.Region()
	if reg.Origin != (compiler.Pos{X: 0, Y: 64, Z: 0}) || reg.Width != 5 || reg.Depth != 2 || reg.Height != 2 {
		t.Errorf("inferred region = %+v", reg)
	}

	st := store.NewMemoryStore()
	c := compiler.New(st, nil, compiler.WithLogger(quietLogger()))
	program, err := c.Compile(context.Background(), g)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := []string{
		"join&message%_self_%~(Hello)~",
		"chat&if(message=stop)&{&cancelEvent&}",
		"quit&setHealth(apple[max_health]~)",
	}
	if !reflect.DeepEqual(program, want) {
		t.Errorf("program = %v\nwant %v", program, want)
	}
	if stored, _ := st.Lines(context.Background(), "arena"); !reflect.DeepEqual(stored, want) {
		t.Errorf("stored = %v", stored)
	}
}

func TestParse_ExplicitRegion(t *testing.T) {
	f, err := Parse([]byte(`
name: w
region: {origin: [0, 0, 0], width: 1, depth: 1, height: 1}
rows:
  - at: [0, 0, 0]
    markers:
      - {family: event, primary: join}
      - {family: action, primary: cancel-event}
`))
	if err != nil {
		t.Fatal(err)
	}
	g, err := f.Grid()
	if err != nil {
		t.Fatal(err)
	}
	program := compiler.New(store.NewMemoryStore(), nil, compiler.WithLogger(quietLogger())).Scan(g)
	if !reflect.DeepEqual(program, []string{"join"}) {
		t.Errorf("width 1 should cut the row: %v", program)
	}
}

func TestParse_NegateToggle(t *testing.T) {
	f, err := Parse([]byte(`
name: w
rows:
  - at: [0, 0, 0]
    markers:
      - {family: event, primary: join}
      - {family: condition, primary: flying, negate: true}
      - {family: action, primary: cancel-event}
`))
	if err != nil {
		t.Fatal(err)
	}
	g, err := f.Grid()
	if err != nil {
		t.Fatal(err)
	}
	program := compiler.New(store.NewMemoryStore(), nil, compiler.WithLogger(quietLogger())).Scan(g)
	if !reflect.DeepEqual(program, []string{"join&if(!flying)&cancelEvent"}) {
		t.Errorf("program = %v", program)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "name: [unclosed"},
		{"no name", "rows: []"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}

	grids := []struct {
		name string
		doc  string
	}{
		{"bad family", "name: w\nrows: [{at: [0,0,0], markers: [{family: door}]}]"},
		{"bad position", "name: w\nrows: [{at: [0,0], markers: [{family: event, primary: join}]}]"},
		{"bad slot", "name: w\nrows: [{at: [0,0,0], markers: [{family: action, primary: message, slots: {27: {name: x}}}]}]"},
		{"bad origin", "name: w\nregion: {origin: [1], width: 1}\nrows: []"},
	}
	for _, tt := range grids {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if _, err := f.Grid(); err == nil {
				t.Error("expected Grid error")
			}
		})
	}
}

func TestLoad_ShiftJIS(t *testing.T) {
	doc := "name: lobby\nrows:\n  - at: [0, 0, 0]\n    markers:\n      - {family: event, primary: join}\n" +
		"      - {family: action, primary: message, slots: {0: {material: paper, name: こんにちは}}}\n"
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), doc)
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, t.TempDir(), "lobby.yaml", []byte(encoded))

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g, err := f.Grid()
	if err != nil {
		t.Fatal(err)
	}
	program := compiler.New(store.NewMemoryStore(), nil, compiler.WithLogger(quietLogger())).Scan(g)
	if !reflect.DeepEqual(program, []string{"join&message~(こんにちは)~"}) {
		t.Errorf("program = %v", program)
	}
}

func TestLoader_LoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.YAML", []byte("name: b"))
	writeFile(t, dir, "a.yml", []byte("name: a"))
	writeFile(t, dir, "notes.txt", []byte("ignored"))

	sources, err := NewLoader(dir).LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("found %d sources", len(sources))
	}
	if filepath.Base(sources[0].Path) != "a.yml" || sources[1].Size != int64(len("name: b")) {
		t.Errorf("sources = %+v", sources)
	}

	if _, err := NewLoader(t.TempDir()).LoadAll(); err == nil {
		t.Error("empty directory accepted")
	}
}
