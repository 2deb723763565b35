package registry

// Profile names of the default catalog.
const (
	ProfileCommon         = "common"
	ProfileCOBie          = "cobie"
	ProfileBaseQuantities = "base-quantities"
	ProfileInternal       = "internal"
)

// DefaultCatalog returns the built-in profiles.
//
// The common profile registers the building, water storage, site, level,
// proxy and shading groups a second time after the element groups. Those
// repeats show up as lints and, under the keep policy, as repeated sets.
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	c.Register(ProfileCommon,
		TableSets("building", "common", "Pset_BuildingCommon"),
		TableSets("water-storage", "common", "Pset_BuildingWaterStorage"),
		TableSets("site", "common", "Pset_SiteCommon"),
		TableSets("level", "common", "Pset_BuildingStoreyCommon"),
		TableSets("walls", "common", "Pset_WallCommon", "Pset_CurtainWallCommon"),
		TableSets("coverings", "common", "Pset_CoveringCommon"),
		TableSets("openings", "common", "Pset_DoorCommon", "Pset_WindowCommon"),
		TableSets("framing", "common", "Pset_BeamCommon", "Pset_MemberCommon", "Pset_ColumnCommon"),
		TableSets("roofs", "common", "Pset_RoofCommon"),
		TableSets("slabs", "common", "Pset_SlabCommon"),
		TableSets("circulation", "common", "Pset_RailingCommon", "Pset_RampFlightCommon", "Pset_StairFlightCommon"),
		TableSets("proxy", "common", "Pset_BuildingElementProxyCommon"),
		TableSets("distribution", "common", "Pset_DistributionFlowElementCommon"),
		TableSets("lighting", "common", "Pset_LightFixtureTypeCommon"),
		TableSets("spaces", "common",
			"Pset_SpaceCommon", "Pset_SpaceThermalRequirements",
			"GSA Space Categories", "Space Occupant Properties", "Space Zones"),
		TableSets("shading", "common", "Pset_ElementShading"),
		TableSets("manufacturer", "common", "Pset_ManufacturerTypeInformation"),

		TableSets("building", "common", "Pset_BuildingCommon"),
		TableSets("water-storage", "common", "Pset_BuildingWaterStorage"),
		TableSets("site", "common", "Pset_SiteCommon"),
		TableSets("level", "common", "Pset_BuildingStoreyCommon"),
		TableSets("proxy", "common", "Pset_BuildingElementProxyCommon"),
		TableSets("shading", "common", "Pset_ElementShading"),
	)

	c.Register(ProfileCOBie, TableSets("cobie", "cobie"))
	c.Register(ProfileBaseQuantities, TableSets("base-quantities", "quantities"))
	c.Register(ProfileInternal, TableSets("internal", "internal"))
	return c
}
