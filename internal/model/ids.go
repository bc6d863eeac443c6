// Package model holds the entities described by the game's data model:
// accounts, servers, worlds, regions, tiles, settlements, structures,
// modifiers, construction queue entries and disaster records. Types here
// are plain data; behavior lives in the component packages that operate
// on them (modifier, production, population, construction, disaster,
// structureservice).
package model

import "github.com/google/uuid"

// NewID generates a fresh entity identifier.
func NewID() string {
	return uuid.New().String()
}
