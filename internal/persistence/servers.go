package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

func CreateServer(ctx context.Context, ext Ext, s model.Server) error {
	_, err := ext.ExecContext(ctx, `
		INSERT INTO servers (id, name, hostname, port, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Hostname, s.Port, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert server", err)
	}
	return nil
}

func ServerByID(ctx context.Context, ext Ext, id string) (model.Server, error) {
	var s model.Server
	if err := ext.GetContext(ctx, &s, `SELECT * FROM servers WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Server{}, NotFound(apperrors.KindServerNotFound, "server", id)
		}
		return model.Server{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup server", err)
	}
	return s, nil
}

func ListServers(ctx context.Context, ext Ext) ([]model.Server, error) {
	var servers []model.Server
	if err := ext.SelectContext(ctx, &servers, `SELECT * FROM servers ORDER BY created_at`); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list servers", err)
	}
	return servers, nil
}

func UpdateServerStatus(ctx context.Context, ext Ext, id string, status model.ServerStatus, updatedAt time.Time) error {
	_, err := ext.ExecContext(ctx, `UPDATE servers SET status = ?, updated_at = ? WHERE id = ?`, status, updatedAt, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update server status", err)
	}
	return nil
}

// UpdateServer overwrites a server's editable fields (admin PATCH /servers/{id}).
func UpdateServer(ctx context.Context, ext Ext, s model.Server) error {
	_, err := ext.ExecContext(ctx, `
		UPDATE servers SET name = ?, hostname = ?, port = ?, status = ?, updated_at = ? WHERE id = ?`,
		s.Name, s.Hostname, s.Port, s.Status, s.UpdatedAt, s.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update server", err)
	}
	return nil
}

// DeleteServer removes a server row. Callers are responsible for deleting
// the server's worlds first so the delete cascades cleanly.
func DeleteServer(ctx context.Context, ext Ext, id string) error {
	_, err := ext.ExecContext(ctx, `DELETE FROM servers WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete server", err)
	}
	return nil
}

// CountServers is a dashboard aggregate.
func CountServers(ctx context.Context, ext Ext) (int, error) {
	var n int
	if err := ext.GetContext(ctx, &n, `SELECT COUNT(*) FROM servers`); err != nil {
		return 0, apperrors.Wrap(apperrors.KindStoreUnavailable, "count servers", err)
	}
	return n, nil
}
