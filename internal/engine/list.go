package engine

import (
	"github.com/quillback/waystone/internal/query"
)

// ListLocations evaluates a typed filter over every location of the loaded
// world. Rows come back in location-name order.
func (e *Engine) ListLocations(f query.Filter) ([]query.Location, error) {
	if err := e.requireRules(); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	e.ensureCache()

	ctx := &evalContext{engine: e}
	w := e.compiled.World
	rows := make([]query.Location, 0, len(w.LocationNames()))
	for _, name := range w.LocationNames() {
		loc, _ := w.Location(name)
		row := query.Location{
			Name:       name,
			Region:     loc.Region,
			Accessible: e.searcher.Accessible(ctx, loc, ctx.RegionReachable),
		}
		_, row.Checked = e.checked[name]
		if loc.Item != nil {
			row.Item = loc.Item.Name
		}
		rows = append(rows, row)
	}
	return query.Apply(f, rows)
}
