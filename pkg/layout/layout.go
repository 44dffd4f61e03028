package layout

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/blockscript/pkg/compiler"
	"github.com/zurustar/blockscript/pkg/world"
)

// PlaceholderMaterial is the material given to items written as
// "placeholder: <name>".
var PlaceholderMaterial = compiler.DefaultTable().PlaceholderMaterial

// File is an authored grid layout.
//
//	name: arena_dev
//	region: {origin: [0, 64, 0], width: 16, depth: 4, height: 1}
//	rows:
//	  - at: [0, 64, 0]
//	    markers:
//	      - {family: event, primary: join}
//	      - family: action
//	        primary: message
//	        slots: {13: {material: paper, name: Hello}}
type File struct {
	Name   string      `yaml:"name"`
	Region *RegionSpec `yaml:"region"`
	Rows   []RowSpec   `yaml:"rows"`
}

// RegionSpec bounds the scan. When omitted it is the bounding box of the
// rows.
type RegionSpec struct {
	Origin   []int `yaml:"origin"`
	Width    int   `yaml:"width"`
	Depth    int   `yaml:"depth"`
	Height   int   `yaml:"height"`
	BandStep int   `yaml:"band_step"`
}

// RowSpec is a run of markers placed along +x from At.
type RowSpec struct {
	At      []int        `yaml:"at"`
	Markers []MarkerSpec `yaml:"markers"`
}

// MarkerSpec is one marker cell.
type MarkerSpec struct {
	Family    string           `yaml:"family"`
	Primary   string           `yaml:"primary"`
	Secondary string           `yaml:"secondary"`
	Target    string           `yaml:"target"`
	Negate    bool             `yaml:"negate"`
	Slots     map[int]ItemSpec `yaml:"slots"`
}

// ItemSpec is an item in a marker's container.
type ItemSpec struct {
	Material    string   `yaml:"material"`
	Name        string   `yaml:"name"`
	Amount      int      `yaml:"amount"`
	Lore        []string `yaml:"lore"`
	Placeholder string   `yaml:"placeholder"`
}

// Stack converts the spec to an item stack. A zero amount means one.
func (s ItemSpec) Stack() world.ItemStack {
	it := world.ItemStack{Material: s.Material, Name: s.Name, Amount: s.Amount, Lore: s.Lore}
	if s.Placeholder != "" {
		it.Material = PlaceholderMaterial
		it.Name = s.Placeholder
	}
	if it.Amount == 0 {
		it.Amount = 1
	}
	return it
}

// Parse decodes a layout document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("invalid layout: missing name")
	}
	return &f, nil
}

// Load reads and decodes a layout file.
func Load(path string) (*File, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(src.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func pos(v []int, what string) (compiler.Pos, error) {
	if len(v) != 3 {
		return compiler.Pos{}, fmt.Errorf("%s: want [x, y, z], got %v", what, v)
	}
	return compiler.Pos{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Grid builds the compiler grid.
func (f *File) Grid() (*compiler.MapGrid, error) {
	type cell struct {
		p compiler.Pos
		m compiler.Marker
	}
	var cells []cell
	for r, row := range f.Rows {
		start, err := pos(row.At, fmt.Sprintf("row %d", r))
		if err != nil {
			return nil, err
		}
		for i, spec := range row.Markers {
			m, err := spec.marker()
			if err != nil {
				return nil, fmt.Errorf("row %d marker %d: %w", r, i, err)
			}
			cells = append(cells, cell{p: compiler.Pos{X: start.X + i, Y: start.Y, Z: start.Z}, m: m})
		}
	}

	var region compiler.Region
	if f.Region != nil {
		origin, err := pos(f.Region.Origin, "region origin")
		if err != nil {
			return nil, err
		}
		region = compiler.Region{
			Origin:   origin,
			Width:    f.Region.Width,
			Depth:    f.Region.Depth,
			Height:   f.Region.Height,
			BandStep: f.Region.BandStep,
		}
	} else if len(cells) > 0 {
		lo, hi := cells[0].p, cells[0].p
		for _, c := range cells[1:] {
			lo = compiler.Pos{X: min(lo.X, c.p.X), Y: min(lo.Y, c.p.Y), Z: min(lo.Z, c.p.Z)}
			hi = compiler.Pos{X: max(hi.X, c.p.X), Y: max(hi.Y, c.p.Y), Z: max(hi.Z, c.p.Z)}
		}
		region = compiler.Region{
			Origin: lo,
			Width:  hi.X - lo.X + 1,
			Depth:  hi.Z - lo.Z + 1,
			Height: hi.Y - lo.Y + 1,
		}
	}

	g := compiler.NewMapGrid(f.Name, region)
	for _, c := range cells {
		g.Set(c.p, c.m)
	}
	return g, nil
}

func (s MarkerSpec) marker() (compiler.Marker, error) {
	fam, ok := compiler.ParseFamily(s.Family)
	if !ok {
		return compiler.Marker{}, fmt.Errorf("unknown marker family %q", s.Family)
	}
	m := compiler.Marker{
		Family: fam,
		Label:  compiler.Label{Primary: s.Primary, Secondary: s.Secondary, Target: s.Target},
		Negate: s.Negate,
	}
	if len(s.Slots) > 0 {
		m.Container = world.NewInventory(compiler.ContainerSize, "")
		for slot, it := range s.Slots {
			if slot < 0 || slot >= compiler.ContainerSize {
				return compiler.Marker{}, fmt.Errorf("slot %d out of range", slot)
			}
			m.Container.SetSlot(slot, it.Stack())
		}
	}
	return m, nil
}
