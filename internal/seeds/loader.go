package seeds

import (
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/tturner/ocppfuzz/internal/ocpp"
)

// LoadFile reads a seed file. The file is JSON with comments and trailing
// commas allowed, holding either a plain array of frames (loaded into the
// normal group) or an object with "normal", "violation" and "edge_case"
// arrays.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes seed file contents. See LoadFile.
func Parse(data []byte) (Catalog, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	doc, err := ocpp.Unmarshal(standardized)
	if err != nil {
		return Catalog{}, fmt.Errorf("invalid JSON: %w", err)
	}

	var cat Catalog
	switch v := doc.(type) {
	case []any:
		cat.Normal, err = framesOf(v, "seeds")
		if err != nil {
			return Catalog{}, err
		}
	case map[string]any:
		for key := range v {
			switch Group(key) {
			case GroupNormal, GroupViolation, GroupEdgeCase:
			default:
				return Catalog{}, fmt.Errorf("unknown seed group %q", key)
			}
		}
		for _, g := range Groups {
			raw, ok := v[string(g)]
			if !ok {
				continue
			}
			list, ok := raw.([]any)
			if !ok {
				return Catalog{}, fmt.Errorf("seed group %q must be an array", g)
			}
			frames, err := framesOf(list, string(g))
			if err != nil {
				return Catalog{}, err
			}
			switch g {
			case GroupNormal:
				cat.Normal = frames
			case GroupViolation:
				cat.Violation = frames
			case GroupEdgeCase:
				cat.EdgeCase = frames
			}
		}
	default:
		return Catalog{}, fmt.Errorf("seed file must hold an array or an object of groups")
	}

	if cat.Len() == 0 {
		return Catalog{}, fmt.Errorf("seed file holds no seeds")
	}
	return cat, nil
}

func framesOf(list []any, section string) ([]ocpp.Frame, error) {
	frames := make([]ocpp.Frame, 0, len(list))
	for i, item := range list {
		frame, ok := ocpp.AsFrame(item)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: seed must be an array", section, i)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
