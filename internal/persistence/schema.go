package persistence

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	auth_token TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	account_id TEXT PRIMARY KEY REFERENCES accounts(id),
	username TEXT NOT NULL,
	avatar TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS servers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	hostname TEXT NOT NULL,
	port INTEGER NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(hostname, port)
);

CREATE TABLE IF NOT EXISTS worlds (
	id TEXT PRIMARY KEY,
	server_id TEXT NOT NULL REFERENCES servers(id),
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	width_regions INTEGER NOT NULL,
	height_regions INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	elevation_noise TEXT NOT NULL,
	precipitation_noise TEXT NOT NULL,
	temperature_noise TEXT NOT NULL,
	template_config TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS regions (
	id TEXT PRIMARY KEY,
	world_id TEXT NOT NULL REFERENCES worlds(id),
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	elevation_map TEXT NOT NULL,
	precipitation_map TEXT NOT NULL,
	temperature_map TEXT NOT NULL,
	UNIQUE(world_id, x, y)
);

CREATE TABLE IF NOT EXISTS tiles (
	id TEXT PRIMARY KEY,
	region_id TEXT NOT NULL REFERENCES regions(id),
	world_id TEXT NOT NULL REFERENCES worlds(id),
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	type TEXT NOT NULL,
	elevation REAL NOT NULL,
	temperature REAL NOT NULL,
	precipitation REAL NOT NULL,
	quality_food REAL NOT NULL,
	quality_water REAL NOT NULL,
	quality_wood REAL NOT NULL,
	quality_stone REAL NOT NULL,
	quality_ore REAL NOT NULL,
	special_resource TEXT NOT NULL DEFAULT '',
	plot_slots INTEGER NOT NULL,
	base_production_modifier REAL NOT NULL DEFAULT 1.0,
	settlement_id TEXT,
	biome_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(region_id, x, y)
);
CREATE INDEX IF NOT EXISTS idx_tiles_region ON tiles(region_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tiles_settlement ON tiles(settlement_id) WHERE settlement_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS settlements (
	id TEXT PRIMARY KEY,
	world_id TEXT NOT NULL REFERENCES worlds(id),
	profile_id TEXT NOT NULL,
	tile_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	tier INTEGER NOT NULL DEFAULT 1,
	resilience INTEGER NOT NULL DEFAULT 0,
	errored INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_settlements_world ON settlements(world_id);

CREATE TABLE IF NOT EXISTS settlement_storage (
	settlement_id TEXT PRIMARY KEY REFERENCES settlements(id),
	food INTEGER NOT NULL,
	water INTEGER NOT NULL,
	wood INTEGER NOT NULL,
	stone INTEGER NOT NULL,
	ore INTEGER NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settlement_population (
	settlement_id TEXT PRIMARY KEY REFERENCES settlements(id),
	current INTEGER NOT NULL,
	happiness INTEGER NOT NULL,
	last_growth_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS structure_defs (
	id TEXT PRIMARY KEY,
	subtype TEXT NOT NULL,
	category TEXT NOT NULL,
	tier INTEGER NOT NULL,
	max_level INTEGER NOT NULL,
	construction_time_seconds INTEGER NOT NULL,
	population_required INTEGER NOT NULL,
	area_cost INTEGER NOT NULL,
	unique_per_settlement INTEGER NOT NULL,
	min_town_hall_level INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS structure_requirements (
	structure_id TEXT NOT NULL REFERENCES structure_defs(id),
	resource TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	PRIMARY KEY (structure_id, resource)
);

CREATE TABLE IF NOT EXISTS structure_prerequisites (
	structure_id TEXT NOT NULL REFERENCES structure_defs(id),
	required_structure_id TEXT,
	required_research_id TEXT,
	required_level INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settlement_structures (
	id TEXT PRIMARY KEY,
	settlement_id TEXT NOT NULL REFERENCES settlements(id),
	structure_id TEXT NOT NULL REFERENCES structure_defs(id),
	level INTEGER NOT NULL DEFAULT 1,
	health REAL,
	population_assigned INTEGER NOT NULL DEFAULT 0,
	tile_id TEXT,
	slot_position INTEGER,
	damaged_at DATETIME,
	repaired_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_structures_settlement ON settlement_structures(settlement_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_structures_slot ON settlement_structures(tile_id, slot_position) WHERE tile_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS settlement_modifiers (
	settlement_id TEXT NOT NULL REFERENCES settlements(id),
	modifier_type TEXT NOT NULL,
	total_value REAL NOT NULL,
	source_count INTEGER NOT NULL,
	contributing_structures TEXT NOT NULL,
	last_calculated_at DATETIME NOT NULL,
	PRIMARY KEY (settlement_id, modifier_type)
);

CREATE TABLE IF NOT EXISTS construction_queue (
	id TEXT PRIMARY KEY,
	settlement_id TEXT NOT NULL REFERENCES settlements(id),
	structure_id TEXT NOT NULL REFERENCES structure_defs(id),
	resources_cost TEXT NOT NULL,
	status TEXT NOT NULL,
	position INTEGER NOT NULL,
	is_emergency INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME,
	completes_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queue_settlement ON construction_queue(settlement_id, status);

CREATE TABLE IF NOT EXISTS disaster_events (
	id TEXT PRIMARY KEY,
	world_id TEXT NOT NULL REFERENCES worlds(id),
	type TEXT NOT NULL,
	severity REAL NOT NULL,
	severity_level TEXT NOT NULL,
	affected_region_id TEXT,
	affected_biomes TEXT NOT NULL DEFAULT '[]',
	scheduled_at DATETIME NOT NULL,
	warning_time_seconds INTEGER NOT NULL,
	impact_duration_seconds INTEGER NOT NULL,
	status TEXT NOT NULL,
	warning_started_at DATETIME,
	impact_started_at DATETIME,
	impact_ended_at DATETIME,
	imminent_warning_issued INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_disasters_world_status ON disaster_events(world_id, status);

CREATE TABLE IF NOT EXISTS disaster_history (
	settlement_id TEXT NOT NULL REFERENCES settlements(id),
	disaster_id TEXT NOT NULL REFERENCES disaster_events(id),
	casualties INTEGER NOT NULL,
	structures_damaged INTEGER NOT NULL,
	structures_destroyed INTEGER NOT NULL,
	resources_lost TEXT NOT NULL,
	resilience_gained INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (settlement_id, disaster_id)
);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}
