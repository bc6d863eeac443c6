package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

// CreateAccount inserts an account and its profile in one go; callers run
// this inside a Store.WithTx since both rows must land together.
func CreateAccount(ctx context.Context, ext Ext, acc model.Account, prof model.Profile) error {
	_, err := ext.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, auth_token, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.Email, acc.PasswordHash, acc.AuthToken, acc.Role, acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert account", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO profiles (account_id, username, avatar) VALUES (?, ?, ?)`,
		prof.AccountID, prof.Username, prof.Avatar)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert profile", err)
	}
	return nil
}

// AccountByAuthToken resolves the identity behind a session token, the
// entry point for every admin request's auth check.
func AccountByAuthToken(ctx context.Context, ext Ext, token string) (model.Identity, error) {
	var acc model.Account
	if err := ext.GetContext(ctx, &acc, `SELECT * FROM accounts WHERE auth_token = ?`, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Identity{}, NotFound(apperrors.KindUnauthenticated, "account", token)
		}
		return model.Identity{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup account", err)
	}
	var prof model.Profile
	if err := ext.GetContext(ctx, &prof, `SELECT * FROM profiles WHERE account_id = ?`, acc.ID); err != nil {
		return model.Identity{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup profile", err)
	}
	return model.Identity{Account: acc, Profile: prof}, nil
}

// AccountByID fetches an account by id.
func AccountByID(ctx context.Context, ext Ext, id string) (model.Account, error) {
	var acc model.Account
	if err := ext.GetContext(ctx, &acc, `SELECT * FROM accounts WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, NotFound(apperrors.KindAccountNotFound, "account", id)
		}
		return model.Account{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup account", err)
	}
	return acc, nil
}

// AccountByEmail fetches an account by email, the lookup key for the
// test-only elevate-admin surface.
func AccountByEmail(ctx context.Context, ext Ext, email string) (model.Account, error) {
	var acc model.Account
	if err := ext.GetContext(ctx, &acc, `SELECT * FROM accounts WHERE email = ?`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, NotFound(apperrors.KindAccountNotFound, "account", email)
		}
		return model.Account{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup account", err)
	}
	return acc, nil
}

// UpdateAccountRole sets an account's role (test-only elevate-admin surface).
func UpdateAccountRole(ctx context.Context, ext Ext, id string, role model.Role, updatedAt time.Time) error {
	_, err := ext.ExecContext(ctx, `UPDATE accounts SET role = ?, updated_at = ? WHERE id = ?`, role, updatedAt, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update account role", err)
	}
	return nil
}

// CountAccounts is a dashboard aggregate.
func CountAccounts(ctx context.Context, ext Ext) (int, error) {
	var n int
	if err := ext.GetContext(ctx, &n, `SELECT COUNT(*) FROM accounts`); err != nil {
		return 0, apperrors.Wrap(apperrors.KindStoreUnavailable, "count accounts", err)
	}
	return n, nil
}
