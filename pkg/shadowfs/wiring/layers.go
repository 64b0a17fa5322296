package wiring

import (
	"fmt"

	"github.com/andronics/shadowfs/pkg/shadowfs/config"
	"github.com/andronics/shadowfs/pkg/shadowfs/layers"
)

// buildLayer constructs a Layer from its declarative config record. The
// "basis" option selects one of the built-in classifier functions
// (extension, size, mimetype) or, for "pattern", an ordered category list.
func buildLayer(lc config.LayerConfig) (layers.Layer, error) {
	switch lc.Type {
	case "classifier":
		fn, err := classifierBasis(lc.Options)
		if err != nil {
			return nil, err
		}
		return layers.NewClassifier(lc.Name, fn), nil
	case "date":
		field, err := dateField(lc.Options)
		if err != nil {
			return nil, err
		}
		return layers.NewDateLayer(lc.Name, field), nil
	case "tag":
		extractors, err := tagExtractors(lc.Options)
		if err != nil {
			return nil, err
		}
		return layers.NewTagLayer(lc.Name, extractors...), nil
	case "hierarchical":
		names, _ := lc.Options["classifiers"].([]interface{})
		fns := make([]layers.ClassifierFunc, 0, len(names))
		for _, raw := range names {
			name, _ := raw.(string)
			fn, err := basisByName(name, lc.Options)
			if err != nil {
				return nil, err
			}
			fns = append(fns, fn)
		}
		if len(fns) == 0 {
			return nil, fmt.Errorf("hierarchical layer %q requires a non-empty classifiers list", lc.Name)
		}
		return layers.NewHierarchicalLayer(lc.Name, fns...), nil
	case "pattern":
		categories, err := patternCategories(lc.Options)
		if err != nil {
			return nil, err
		}
		fn, err := layers.PatternListClassifier(categories)
		if err != nil {
			return nil, err
		}
		return layers.NewClassifier(lc.Name, fn), nil
	case "computed":
		// A user-supplied callable classifier has no representation in a
		// declarative configuration file; this variant is reachable only
		// through code wiring a custom layers.Layer directly, not through
		// config.Load.
		return nil, fmt.Errorf("virtual layer %q: \"computed\" layers cannot be constructed from configuration alone", lc.Name)
	default:
		return nil, fmt.Errorf("virtual layer %q: unknown type %q", lc.Name, lc.Type)
	}
}

func classifierBasis(opts map[string]interface{}) (layers.ClassifierFunc, error) {
	basis, _ := opts["basis"].(string)
	return basisByName(basis, opts)
}

func basisByName(basis string, opts map[string]interface{}) (layers.ClassifierFunc, error) {
	switch basis {
	case "", "extension":
		return layers.ExtensionClassifierFunc, nil
	case "size":
		return layers.SizeBucketClassifierFunc, nil
	case "mimetype":
		return layers.MimeMajorClassifierFunc, nil
	case "pattern-list":
		categories, err := patternCategories(opts)
		if err != nil {
			return nil, err
		}
		return layers.PatternListClassifier(categories)
	default:
		return nil, fmt.Errorf("unknown classifier basis %q", basis)
	}
}

func dateField(opts map[string]interface{}) (layers.TimestampField, error) {
	field, _ := opts["field"].(string)
	switch field {
	case "", "mtime":
		return layers.MTime, nil
	case "ctime":
		return layers.CTime, nil
	case "atime":
		return layers.ATime, nil
	default:
		return 0, fmt.Errorf("unknown date field %q", field)
	}
}

func patternCategories(opts map[string]interface{}) ([]layers.PatternCategory, error) {
	raw, _ := opts["categories"].([]interface{})
	out := make([]layers.PatternCategory, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("pattern category entries must be objects with name/patterns")
		}
		name, _ := m["name"].(string)
		patternsRaw, _ := m["patterns"].([]interface{})
		patterns := make([]string, 0, len(patternsRaw))
		for _, p := range patternsRaw {
			if s, ok := p.(string); ok {
				patterns = append(patterns, s)
			}
		}
		out = append(out, layers.PatternCategory{Name: name, Patterns: patterns})
	}
	return out, nil
}

func tagExtractors(opts map[string]interface{}) ([]layers.TagExtractor, error) {
	var extractors []layers.TagExtractor

	if suffix, ok := opts["sidecar_suffix"].(string); ok && suffix != "" {
		extractors = append(extractors, layers.SidecarTagExtractor(suffix))
	}

	if groupsRaw, ok := opts["extension_groups"].(map[string]interface{}); ok {
		groups := make(map[string][]string, len(groupsRaw))
		for tag, listRaw := range groupsRaw {
			list, _ := listRaw.([]interface{})
			exts := make([]string, 0, len(list))
			for _, e := range list {
				if s, ok := e.(string); ok {
					exts = append(exts, s)
				}
			}
			groups[tag] = exts
		}
		extractors = append(extractors, layers.ExtensionGroupExtractor(groups))
	}

	if categoriesRaw, ok := opts["filename_patterns"]; ok {
		categories, err := patternCategories(map[string]interface{}{"categories": categoriesRaw})
		if err != nil {
			return nil, err
		}
		extractor, err := layers.FilenamePatternExtractor(categories)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, extractor)
	}

	if categoriesRaw, ok := opts["path_patterns"]; ok {
		categories, err := patternCategories(map[string]interface{}{"categories": categoriesRaw})
		if err != nil {
			return nil, err
		}
		extractor, err := layers.PathPatternExtractor(categories)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, extractor)
	}

	if attribute, ok := opts["xattr_attribute"].(string); ok && attribute != "" {
		extractors = append(extractors, layers.XattrTagExtractor(attribute))
	}

	if len(extractors) == 0 {
		return nil, fmt.Errorf("tag layer requires at least one of sidecar_suffix, extension_groups, filename_patterns, path_patterns, xattr_attribute")
	}
	return extractors, nil
}
