package catalog

// Default game data. A deployment can overlay or replace these via a YAML
// catalog file (see LoadFile).

var defaultSpecs = []Spec{
	// Structures
	{
		Key: "solar_array", Kind: KindStructure, Name: "Solar Array",
		BaseCost:    100,
		CostByLevel: map[int]int64{1: 100, 2: 180, 3: 320, 4: 580, 5: 1050},
		EnergyDelta: 20,
	},
	{
		Key: "fusion_plant", Kind: KindStructure, Name: "Fusion Plant",
		BaseCost:    900,
		CostByLevel: map[int]int64{1: 900, 2: 1600, 3: 2900, 4: 5200},
		EnergyDelta: 50, Area: 2, Population: 5,
		Prereqs: []string{"solar_array"},
	},
	{
		Key: "construction_yard", Kind: KindStructure, Name: "Construction Yard",
		BaseCost:    150,
		CostByLevel: map[int]int64{1: 150, 2: 280, 3: 520, 4: 950, 5: 1750},
		EnergyDelta: -10, Area: 3, Population: 10,
		Yield: 100, YieldType: YieldConstruction,
	},
	{
		Key: "ore_refinery", Kind: KindStructure, Name: "Ore Refinery",
		BaseCost:    200,
		CostByLevel: map[int]int64{1: 200, 2: 360, 3: 650, 4: 1150, 5: 2100},
		EnergyDelta: -15, Area: 4, Population: 20,
		Yield: 120, YieldType: YieldProduction,
	},
	{
		Key: "research_lab", Kind: KindStructure, Name: "Research Lab",
		BaseCost:    400,
		CostByLevel: map[int]int64{1: 400, 2: 720, 3: 1300, 4: 2350},
		EnergyDelta: -25, Area: 2, Population: 15,
		Yield: 80, YieldType: YieldResearch,
	},
	{
		Key: "habitat_dome", Kind: KindStructure, Name: "Habitat Dome",
		BaseCost:    120,
		CostByLevel: map[int]int64{1: 120, 2: 220, 3: 400, 4: 720, 5: 1300},
		EnergyDelta: -5, Area: 5,
	},

	// Defenses
	{
		Key: "defense_battery", Kind: KindDefense, Name: "Defense Battery",
		BaseCost:    500,
		CostByLevel: map[int]int64{1: 500, 2: 900, 3: 1600},
		EnergyDelta: -30, Area: 1, Population: 5,
	},
	{
		Key: "shield_generator", Kind: KindDefense, Name: "Shield Generator",
		BaseCost:    1200,
		CostByLevel: map[int]int64{1: 1200, 2: 2200},
		EnergyDelta: -60, Area: 2, Population: 10,
		Prereqs: []string{"fusion_plant"},
	},

	// Technologies
	{
		Key: "energy_grid", Kind: KindTechnology, Name: "Energy Grid Theory",
		BaseCost:    300,
		CostByLevel: map[int]int64{1: 300, 2: 540, 3: 970, 4: 1750},
	},
	{
		Key: "metallurgy", Kind: KindTechnology, Name: "Applied Metallurgy",
		BaseCost:    250,
		CostByLevel: map[int]int64{1: 250, 2: 450, 3: 810},
	},

	// Units. Validated like everything else; production wiring lands with the
	// shipyard milestone, until then scheduling one fails typed, not silent.
	{
		Key: "fighter", Kind: KindUnit, Name: "Fighter",
		BaseCost: 500, EnergyDelta: 0, Population: 1,
	},
	{
		Key: "hauler", Kind: KindUnit, Name: "Hauler",
		BaseCost: 2000, Population: 5,
	},
}

// Default builds the registry from the compiled-in game data.
func Default() *Registry {
	r, err := Build(defaultSpecs)
	if err != nil {
		panic(err) // compiled-in data, broken only by a bad edit
	}
	return r
}
