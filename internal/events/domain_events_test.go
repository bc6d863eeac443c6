package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResourceStorageChangedEventCarriesItsPayload(t *testing.T) {
	payload := ResourceStorageChangedEvent{
		SettlementID: "s1", Resource: "food", OldAmount: 10, NewAmount: 15, Timestamp: time.Now(),
	}
	event := NewResourceStorageChangedEvent("world-1", payload)

	assert.Equal(t, EventTypeResourceStorageChanged, event.GetType())
	assert.Equal(t, "world-1", event.GetWorldID())
	assert.Equal(t, payload, event.GetPayload())
}

func TestPopulationChangedEventCarriesItsPayload(t *testing.T) {
	payload := PopulationChangedEvent{SettlementID: "s1", OldCount: 10, NewCount: 8, Cause: "starvation"}
	event := NewPopulationChangedEvent("world-1", payload)

	assert.Equal(t, EventTypePopulationChanged, event.GetType())
	if typed, ok := event.GetPayload().(PopulationChangedEvent); ok {
		assert.Equal(t, "starvation", typed.Cause)
	} else {
		t.Fatal("payload should type-assert back to PopulationChangedEvent")
	}
}

func TestModifierRecomputedEventCarriesItsPayload(t *testing.T) {
	payload := ModifierRecomputedEvent{SettlementID: "s1", ModifierType: "capacity", OldValue: 10, NewValue: 15}
	event := NewModifierRecomputedEvent("world-1", payload)
	assert.Equal(t, EventTypeModifierRecomputed, event.GetType())
}

func TestDisasterImpactEventCarriesItsPayload(t *testing.T) {
	payload := DisasterImpactEvent{SettlementID: "s1", DisasterID: "d1", StructuresDamaged: 2, Casualties: 1}
	event := NewDisasterImpactEvent("world-1", payload)
	assert.Equal(t, EventTypeDisasterImpact, event.GetType())
	assert.Equal(t, "world-1", event.GetWorldID())
}

func TestWorldReadyEventPayload(t *testing.T) {
	event := NewWorldReadyEvent("world-1", 4)
	assert.Equal(t, EventTypeWorldReady, event.GetType())
	payload, ok := event.GetPayload().(WorldReadyPayload)
	assert.True(t, ok)
	assert.Equal(t, 4, payload.RegionCount)
}

func TestSettlementCreatedEventPayload(t *testing.T) {
	event := NewSettlementCreatedEvent("world-1", "settlement-1", "account-1")
	payload, ok := event.GetPayload().(SettlementCreatedPayload)
	assert.True(t, ok)
	assert.Equal(t, "settlement-1", payload.SettlementID)
	assert.Equal(t, "account-1", payload.AccountID)
}
