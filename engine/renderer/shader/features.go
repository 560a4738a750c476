package shader

import (
	"slices"
	"strings"
)

// Feature is a boolean program feature derived from the vertex attributes and
// material maps of a drawable.
type Feature string

const (
	FeatureTangent      Feature = "tangent"
	FeatureNormalMap    Feature = "normalMap"
	FeatureBaseMap      Feature = "baseMap"
	FeatureRoughnessMap Feature = "roughnessMap"
	FeatureMetalnessMap Feature = "metalnessMap"
	FeatureSpecularMap  Feature = "specularMap"
	FeaturePointLight   Feature = "pointLight"
	FeatureSkinned      Feature = "skinned"
	FeatureEnvMap       Feature = "envMap"
)

var knownFeatures = map[Feature]struct{}{
	FeatureTangent:      {},
	FeatureNormalMap:    {},
	FeatureBaseMap:      {},
	FeatureRoughnessMap: {},
	FeatureMetalnessMap: {},
	FeatureSpecularMap:  {},
	FeaturePointLight:   {},
	FeatureSkinned:      {},
	FeatureEnvMap:       {},
}

// FeatureSet is an immutable, sorted and de-duplicated set of features.
// The zero value is the empty set.
type FeatureSet struct {
	flags []Feature
}

// NewFeatureSet derives a feature set from attribute names. Names that are not
// features (such as "position" or "uv") are ignored.
//
// Parameters:
//   - names: vertex attribute, material map or scene attribute names
//
// Returns:
//   - FeatureSet: the derived set
func NewFeatureSet(names ...string) FeatureSet {
	flags := make([]Feature, 0, len(names))
	for _, n := range names {
		f := Feature(n)
		if _, ok := knownFeatures[f]; ok {
			flags = append(flags, f)
		}
	}
	slices.Sort(flags)
	return FeatureSet{flags: slices.Compact(flags)}
}

// With returns a new set holding the receiver's flags plus the given ones.
func (s FeatureSet) With(flags ...Feature) FeatureSet {
	names := make([]string, 0, len(s.flags)+len(flags))
	for _, f := range s.flags {
		names = append(names, string(f))
	}
	for _, f := range flags {
		names = append(names, string(f))
	}
	return NewFeatureSet(names...)
}

// Has reports whether the flag is set.
func (s FeatureSet) Has(f Feature) bool {
	_, found := slices.BinarySearch(s.flags, f)
	return found
}

// Flags returns a copy of the sorted flags.
func (s FeatureSet) Flags() []Feature {
	return slices.Clone(s.flags)
}

// Key returns the canonical text of the set, used as the program cache key.
func (s FeatureSet) Key() string {
	parts := make([]string, len(s.flags))
	for i, f := range s.flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// NormalMapped reports whether normal mapping is effective. A normal map
// without tangents cannot build a tangent frame and is ignored.
func (s FeatureSet) NormalMapped() bool {
	return s.Has(FeatureTangent) && s.Has(FeatureNormalMap)
}

// ShadingModel selects the surface shading of a color program.
type ShadingModel int

const (
	ShadingModelPBR ShadingModel = iota
	ShadingModelPhong
)

func (m ShadingModel) String() string {
	switch m {
	case ShadingModelPBR:
		return "pbr"
	case ShadingModelPhong:
		return "phong"
	default:
		return "unknown"
	}
}
