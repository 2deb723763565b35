package model

// supertypes maps an IFC entity tag to its direct supertype.
// Only the part of the schema that property tables bind to is listed;
// unknown tags are their own root.
var supertypes = map[string]string{
	"IfcWallStandardCase":   "IfcWall",
	"IfcWallElementedCase":  "IfcWall",
	"IfcSlabStandardCase":   "IfcSlab",
	"IfcBeamStandardCase":   "IfcBeam",
	"IfcColumnStandardCase": "IfcColumn",
	"IfcMemberStandardCase": "IfcMember",
	"IfcDoorStandardCase":   "IfcDoor",
	"IfcWindowStandardCase": "IfcWindow",

	"IfcWall":                 "IfcBuildingElement",
	"IfcCurtainWall":          "IfcBuildingElement",
	"IfcDoor":                 "IfcBuildingElement",
	"IfcWindow":               "IfcBuildingElement",
	"IfcCovering":             "IfcBuildingElement",
	"IfcBeam":                 "IfcBuildingElement",
	"IfcMember":               "IfcBuildingElement",
	"IfcColumn":               "IfcBuildingElement",
	"IfcPlate":                "IfcBuildingElement",
	"IfcRoof":                 "IfcBuildingElement",
	"IfcSlab":                 "IfcBuildingElement",
	"IfcRailing":              "IfcBuildingElement",
	"IfcRamp":                 "IfcBuildingElement",
	"IfcRampFlight":           "IfcBuildingElement",
	"IfcStair":                "IfcBuildingElement",
	"IfcStairFlight":          "IfcBuildingElement",
	"IfcBuildingElementProxy": "IfcBuildingElement",

	"IfcBuildingElement":         "IfcElement",
	"IfcFurnishingElement":       "IfcElement",
	"IfcFlowTerminal":            "IfcDistributionFlowElement",
	"IfcFlowSegment":             "IfcDistributionFlowElement",
	"IfcFlowFitting":             "IfcDistributionFlowElement",
	"IfcEnergyConversionDevice":  "IfcDistributionFlowElement",
	"IfcDistributionFlowElement": "IfcDistributionElement",
	"IfcDistributionElement":     "IfcElement",
	"IfcElement":                 "IfcProduct",

	"IfcSite":                    "IfcSpatialStructureElement",
	"IfcBuilding":                "IfcSpatialStructureElement",
	"IfcBuildingStorey":          "IfcSpatialStructureElement",
	"IfcSpace":                   "IfcSpatialStructureElement",
	"IfcSpatialStructureElement": "IfcProduct",
	"IfcProduct":                 "IfcObject",

	"IfcZone":  "IfcGroup",
	"IfcGroup": "IfcObject",

	"IfcLightFixtureType":            "IfcFlowTerminalType",
	"IfcFlowTerminalType":            "IfcDistributionFlowElementType",
	"IfcDistributionFlowElementType": "IfcDistributionElementType",
	"IfcDistributionElementType":     "IfcElementType",
	"IfcWallType":                    "IfcBuildingElementType",
	"IfcBeamType":                    "IfcBuildingElementType",
	"IfcBuildingElementType":         "IfcElementType",
	"IfcElementType":                 "IfcTypeProduct",
	"IfcTypeProduct":                 "IfcTypeObject",
}

// Ancestry returns tag followed by each of its supertypes, nearest first.
func Ancestry(tag string) []string {
	chain := []string{tag}
	seen := map[string]bool{tag: true}
	for {
		parent, ok := supertypes[tag]
		if !ok || seen[parent] {
			return chain
		}
		chain = append(chain, parent)
		seen[parent] = true
		tag = parent
	}
}

// IsA reports whether tag is ancestor or one of its subtypes.
func IsA(tag, ancestor string) bool {
	for _, t := range Ancestry(tag) {
		if t == ancestor {
			return true
		}
	}
	return false
}
