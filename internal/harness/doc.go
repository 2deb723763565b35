// Package harness runs export scenarios end to end and checks what they emit.
//
// A scenario exports a host model through a real engine session into a
// fresh in-memory store, then reads the emitted sets back as a trace.
// Assertions run against that trace and against the store tables.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: door_common
//	description: "Door instances carry Pset_DoorCommon"
//	model: models/doors.yaml        # relative to the scenario file
//	config: configs/ifc4.yaml       # optional
//	version: IFC4                   # optional override
//	profiles: [common]              # optional override
//	cache: false                    # optional override
//	assertions:
//	  - type: set_emitted
//	    entity: d1
//	    set: Pset_DoorCommon
//	    values: { Reference: D-01, IsExternal: "true" }
//	  - type: final_state
//	    table: property_sets
//	    where: { global_id: "0000000000000000000001" }
//	    expect: { name: Pset_DoorCommon }
//
// # Assertion Types
//
//   - set_emitted: the entity carries the set, with matching values (subset)
//   - set_absent: the entity does not carry the set
//   - property_absent: the set is emitted without the named property
//   - set_order: the entity's sets appear in the listed order
//   - set_count: number of emitted sets, optionally filtered
//   - property_count: number of stored property rows
//   - final_state: queries a store table and verifies expected values
//
// Values are compared in their ir.Format rendering, so lengths appear in
// export units after scaling and quantization.
//
// # Deterministic Testing
//
// GlobalIds come from testutil.SequentialGUIDs and the owner session is
// "scenario:<name>", so traces are identical across runs and can be
// compared against golden snapshots (RunWithGolden).
package harness
