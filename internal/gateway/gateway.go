// Package gateway dispatches inbound event-channel messages (everything a
// connected client sends besides the subscribe/unsubscribe room controls
// eventbus.Connection handles itself) onto the same transactional
// operations the admin REST surface calls, then replies on the
// connection that sent them.
package gateway

import (
	"context"
	"encoding/json"
	"time"

	"terraforming-mars-backend/internal/construction"
	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/eventbus"
	"terraforming-mars-backend/internal/logger"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/modifier"
	"terraforming-mars-backend/internal/persistence"
	"terraforming-mars-backend/internal/structureservice"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// startingPopulation and startingHappiness seed a newly founded settlement;
// mirrors the fixtures every package test already builds around.
const (
	startingPopulation = 10
	startingHappiness  = 60
)

// Gateway routes one event-channel message type to its handler.
type Gateway struct {
	Store      *persistence.Store
	Hub        *eventbus.Hub
	Structures *structureservice.Service
}

// New builds a Gateway. It satisfies eventbus.Dispatcher.
func New(store *persistence.Store, hub *eventbus.Hub, structures *structureservice.Service) *Gateway {
	return &Gateway{Store: store, Hub: hub, Structures: structures}
}

// Dispatch routes msgType to its handler, replying to c directly with
// either the operation's result or an error envelope. Handlers never
// return an error to the caller; they reply and log instead, since a
// connection's read loop cannot usefully retry a failed dispatch.
func (g *Gateway) Dispatch(ctx context.Context, c *eventbus.Connection, msgType string, payload json.RawMessage) {
	var err error
	switch msgType {
	case "authenticate":
		c.Enqueue(eventbus.Message{Type: "authenticated", Payload: fields("accountId", c.AccountID), Timestamp: time.Now()})
		return
	case "join-world":
		err = g.joinWorld(ctx, c, payload)
	case "leave-world":
		err = g.leaveWorld(ctx, c, payload)
	case "request-game-state":
		err = g.requestGameState(ctx, c, payload)
	case "build-structure":
		err = g.buildStructure(ctx, c, payload)
	case "upgrade-structure":
		err = g.upgradeStructure(ctx, c, payload)
	case "start-construction":
		err = g.startConstruction(ctx, c, payload)
	case "cancel-construction":
		err = g.cancelConstruction(ctx, c, payload)
	case "collect-resources":
		err = g.collectResources(ctx, c, payload)
	case "request-resources-data":
		err = g.requestResourcesData(ctx, c, payload)
	case "request-construction-state":
		err = g.requestConstructionState(ctx, c, payload)
	default:
		err = apperrors.New(apperrors.KindMissingFields, "unknown message type: "+msgType)
	}
	if err != nil {
		g.replyError(c, err)
	}
}

func (g *Gateway) replyError(c *eventbus.Connection, err error) {
	appErr, ok := err.(*apperrors.Error)
	if !ok {
		logger.Warn("gateway: unexpected error", zap.Error(err))
		c.Enqueue(eventbus.Message{Type: "error", Payload: fields("code", "INTERNAL", "message", err.Error()), Timestamp: time.Now()})
		return
	}
	body := map[string]any{"error": true, "code": string(appErr.Kind), "message": appErr.Message}
	for k, v := range appErr.Details {
		body[k] = v
	}
	c.Enqueue(eventbus.Message{Type: "error", Payload: body, Timestamp: time.Now()})
}

func fields(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return apperrors.Wrap(apperrors.KindMissingFields, "malformed payload", err)
	}
	return nil
}

// ownsSettlement confirms settlementID belongs to c's account, the
// authorization check every mutating settlement action needs since the
// event channel has no separate per-room ACL.
func ownsSettlement(settlement model.Settlement, c *eventbus.Connection) error {
	if settlement.ProfileID != c.AccountID {
		return apperrors.New(apperrors.KindNotSettlementOwner, "settlement does not belong to this account")
	}
	return nil
}

func (g *Gateway) joinWorld(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		WorldID string `json:"worldId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}

	world, err := persistence.WorldByID(ctx, g.Store.DB(), req.WorldID)
	if err != nil {
		return err
	}
	if world.Status != model.WorldReady {
		return apperrors.New(apperrors.KindWorldNotReady, "world is not ready")
	}

	settlement, err := persistence.SettlementByWorldAndProfile(ctx, g.Store.DB(), req.WorldID, c.AccountID)
	if err != nil {
		appErr, ok := err.(*apperrors.Error)
		if !ok || appErr.Kind != apperrors.KindSettlementNotFound {
			return err
		}
		settlement, err = g.foundSettlement(ctx, world, c.AccountID)
		if err != nil {
			return err
		}
	}

	g.Hub.Join(c, eventbus.WorldRoom(world.ID))
	g.Hub.Join(c, eventbus.SettlementRoom(settlement.ID))

	c.Enqueue(eventbus.Message{Type: "world-joined", Room: eventbus.WorldRoom(world.ID), Payload: settlement, Timestamp: time.Now()})
	return g.sendGameState(ctx, c, world, settlement)
}

// foundSettlement claims a random unclaimed land tile and creates a fresh
// outpost-tier settlement on it, for a profile's first join to a world.
func (g *Gateway) foundSettlement(ctx context.Context, world model.World, accountID string) (model.Settlement, error) {
	tiles, err := persistence.UnclaimedLandTilesByWorld(ctx, g.Store.DB(), world.ID, 1)
	if err != nil {
		return model.Settlement{}, err
	}
	if len(tiles) == 0 {
		return model.Settlement{}, apperrors.New(apperrors.KindTileNotFound, "no unclaimed land tiles remain in this world")
	}
	tile := tiles[0]

	now := time.Now()
	settlement := model.Settlement{
		ID: uuid.NewString(), WorldID: world.ID, ProfileID: accountID, TileID: tile.ID,
		Name: "New Settlement", Tier: model.TierOutpost, CreatedAt: now, UpdatedAt: now,
	}
	storage := model.SettlementStorage{SettlementID: settlement.ID, Amounts: model.DefaultStartingResources, UpdatedAt: now}
	pop := model.SettlementPopulation{
		SettlementID: settlement.ID, Current: startingPopulation, Happiness: startingHappiness,
		LastGrowthAt: now, UpdatedAt: now,
	}

	err = g.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()
		if err := persistence.AssignTileToSettlement(ctx, ext, tile.ID, settlement.ID); err != nil {
			return err
		}
		return persistence.CreateSettlement(ctx, ext, settlement, storage, pop)
	})
	if err != nil {
		return model.Settlement{}, err
	}
	return settlement, nil
}

func (g *Gateway) leaveWorld(_ context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		WorldID string `json:"worldId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	g.Hub.Leave(c, eventbus.WorldRoom(req.WorldID))
	c.Enqueue(eventbus.Message{Type: "left-world", Timestamp: time.Now()})
	return nil
}

// sendGameState assembles the reconnect snapshot spec'd for
// request-game-state and join-world: current resources, population,
// construction queue, and any disasters active against this settlement's
// world.
func (g *Gateway) sendGameState(ctx context.Context, c *eventbus.Connection, world model.World, settlement model.Settlement) error {
	storage, err := persistence.StorageBySettlement(ctx, g.Store.DB(), settlement.ID)
	if err != nil {
		return err
	}
	pop, err := persistence.PopulationBySettlement(ctx, g.Store.DB(), settlement.ID)
	if err != nil {
		return err
	}
	queue, err := persistence.AllConstructionsBySettlement(ctx, g.Store.DB(), settlement.ID)
	if err != nil {
		return err
	}
	disasters, err := persistence.ActiveDisastersByWorld(ctx, g.Store.DB(), world.ID)
	if err != nil {
		return err
	}
	structures, err := persistence.StructuresBySettlement(ctx, g.Store.DB(), settlement.ID)
	if err != nil {
		return err
	}
	capacity, err := modifier.StorageCapacity(ctx, g.Store.DB(), settlement.ID)
	if err != nil {
		return err
	}

	c.Enqueue(eventbus.Message{
		Type: "game-state",
		Room: eventbus.SettlementRoom(settlement.ID),
		Payload: map[string]any{
			"settlement":       settlement,
			"resources":        storage,
			"resourceCapacity": capacity,
			"population":       pop,
			"construction":     queue,
			"structures":       structures,
			"disasters":        disasters,
		},
		Timestamp: time.Now(),
	})
	return nil
}

func (g *Gateway) requestGameState(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		WorldID string `json:"worldId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	world, err := persistence.WorldByID(ctx, g.Store.DB(), req.WorldID)
	if err != nil {
		return err
	}
	settlement, err := persistence.SettlementByWorldAndProfile(ctx, g.Store.DB(), req.WorldID, c.AccountID)
	if err != nil {
		return err
	}
	return g.sendGameState(ctx, c, world, settlement)
}

func (g *Gateway) buildStructure(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		SettlementID string  `json:"settlementId"`
		StructureID  string  `json:"structureId"`
		TileID       *string `json:"tileId,omitempty"`
		Slot         *int    `json:"slot,omitempty"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	settlement, err := persistence.SettlementByID(ctx, g.Store.DB(), req.SettlementID)
	if err != nil {
		return err
	}
	if err := ownsSettlement(settlement, c); err != nil {
		return err
	}

	structure, err := g.Structures.Build(ctx, req.SettlementID, req.StructureID, req.TileID, req.Slot)
	if err != nil {
		return err
	}
	c.Enqueue(eventbus.Message{Type: "structure:built", Room: eventbus.SettlementRoom(req.SettlementID), Payload: structure, Timestamp: time.Now()})
	return nil
}

func (g *Gateway) upgradeStructure(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		StructureID string `json:"structureId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	structure, err := persistence.SettlementStructureByID(ctx, g.Store.DB(), req.StructureID)
	if err != nil {
		return err
	}
	settlement, err := persistence.SettlementByID(ctx, g.Store.DB(), structure.SettlementID)
	if err != nil {
		return err
	}
	if err := ownsSettlement(settlement, c); err != nil {
		return err
	}

	updated, err := g.Structures.Upgrade(ctx, req.StructureID)
	if err != nil {
		return err
	}
	c.Enqueue(eventbus.Message{Type: "structure:upgraded", Room: eventbus.SettlementRoom(settlement.ID), Payload: updated, Timestamp: time.Now()})
	return nil
}

func (g *Gateway) startConstruction(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		SettlementID string `json:"settlementId"`
		StructureID  string `json:"structureId"`
		Emergency    bool   `json:"emergency"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	settlement, err := persistence.SettlementByID(ctx, g.Store.DB(), req.SettlementID)
	if err != nil {
		return err
	}
	if err := ownsSettlement(settlement, c); err != nil {
		return err
	}

	var entry model.ConstructionQueueEntry
	err = g.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		var err error
		entry, err = construction.Enqueue(ctx, tx, req.SettlementID, req.StructureID, req.Emergency, settlement.WorldID)
		return err
	})
	if err != nil {
		return err
	}
	c.Enqueue(eventbus.Message{Type: "construction-queued", Room: eventbus.SettlementRoom(req.SettlementID), Payload: entry, Timestamp: time.Now()})
	return nil
}

func (g *Gateway) cancelConstruction(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		EntryID string `json:"entryId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	entry, err := persistence.QueueEntryByID(ctx, g.Store.DB(), req.EntryID)
	if err != nil {
		return err
	}
	settlement, err := persistence.SettlementByID(ctx, g.Store.DB(), entry.SettlementID)
	if err != nil {
		return err
	}
	if err := ownsSettlement(settlement, c); err != nil {
		return err
	}

	if err := g.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		return construction.Cancel(ctx, tx, entry)
	}); err != nil {
		return err
	}
	c.Enqueue(eventbus.Message{Type: "construction-cancelled", Room: eventbus.SettlementRoom(entry.SettlementID), Payload: fields("entryId", entry.ID), Timestamp: time.Now()})
	return nil
}

// collectResources is a client-triggered re-send of the current resource
// bank: resources already accrue automatically every tick, so there is
// nothing to debit or credit here, only a snapshot to hand back.
func (g *Gateway) collectResources(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	return g.requestResourcesData(ctx, c, payload)
}

func (g *Gateway) requestResourcesData(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		SettlementID string `json:"settlementId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	settlement, err := persistence.SettlementByID(ctx, g.Store.DB(), req.SettlementID)
	if err != nil {
		return err
	}
	if err := ownsSettlement(settlement, c); err != nil {
		return err
	}
	storage, err := persistence.StorageBySettlement(ctx, g.Store.DB(), req.SettlementID)
	if err != nil {
		return err
	}
	c.Enqueue(eventbus.Message{Type: "resources-data", Room: eventbus.SettlementRoom(req.SettlementID), Payload: storage, Timestamp: time.Now()})
	return nil
}

func (g *Gateway) requestConstructionState(ctx context.Context, c *eventbus.Connection, payload json.RawMessage) error {
	var req struct {
		SettlementID string `json:"settlementId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	settlement, err := persistence.SettlementByID(ctx, g.Store.DB(), req.SettlementID)
	if err != nil {
		return err
	}
	if err := ownsSettlement(settlement, c); err != nil {
		return err
	}
	queue, err := persistence.AllConstructionsBySettlement(ctx, g.Store.DB(), req.SettlementID)
	if err != nil {
		return err
	}
	c.Enqueue(eventbus.Message{Type: "construction-state", Room: eventbus.SettlementRoom(req.SettlementID), Payload: queue, Timestamp: time.Now()})
	return nil
}
