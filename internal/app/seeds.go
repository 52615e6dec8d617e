package app

import (
	"fmt"
	"io"

	"github.com/tturner/ocppfuzz/internal/corpus"
	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/seeds"
)

// SeedsOptions are the seeds command inputs.
type SeedsOptions struct {
	SeedsFile string
	Group     string
	JSON      bool
	Out       io.Writer
}

// RunSeeds lists the seed catalog, or dumps it as a seed file that can be
// edited and passed back with --seeds.
func RunSeeds(opts SeedsOptions) error {
	out := stdoutOr(opts.Out)

	catalog := seeds.DefaultCatalog()
	if opts.SeedsFile != "" {
		var err error
		if catalog, err = seeds.LoadFile(opts.SeedsFile); err != nil {
			return err
		}
	}
	groups := seeds.Groups
	if opts.Group != "" {
		g := seeds.Group(opts.Group)
		if !knownGroup(g) {
			return fmt.Errorf("unknown seed group %q (want normal, violation or edge_case)", opts.Group)
		}
		groups = []seeds.Group{g}
	}

	if opts.JSON {
		doc := make(map[string]any, len(groups))
		for _, g := range groups {
			list := make([]any, 0, len(catalog.Group(g)))
			for _, f := range catalog.Group(g) {
				list = append(list, []any(f))
			}
			doc[string(g)] = list
		}
		data, err := ocpp.MarshalIndent(doc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	for _, g := range groups {
		frames := catalog.Group(g)
		fmt.Fprintf(out, "%s (%d)\n", g, len(frames))
		for _, f := range frames {
			payload, _ := f.Payload()
			data, err := ocpp.Marshal(payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %-30s %s\n", corpus.SeedAction(f), data)
		}
	}
	return nil
}

func knownGroup(g seeds.Group) bool {
	for _, known := range seeds.Groups {
		if g == known {
			return true
		}
	}
	return false
}
