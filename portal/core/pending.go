package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"zentrix.com/portal/portal/model"
)

// SlotStore is a string keyed slot. ok is false when the key is empty.
type SlotStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// PendingSlots keeps the open session of each employee in a primary
// slot with a backup copy
type PendingSlots struct {
	Primary SlotStore
	Backup  SlotStore
}

func PrimaryKey(employee string) string {
	return "pendingOut_" + employee
}

func BackupKey(employee string) string {
	return "serverPending_" + employee
}

// Load returns the pending record or nil. A primary miss is restored
// from the backup; unreadable records are cleared.
func (p *PendingSlots) Load(ctx context.Context, employee string) (*model.PendingOut, error) {
	raw, ok, err := p.Primary.Get(ctx, PrimaryKey(employee))
	if err != nil {
		return nil, fmt.Errorf("read pending slot: %w", err)
	}

	if !ok {
		raw, ok, err = p.Backup.Get(ctx, BackupKey(employee))
		if err != nil {
			return nil, fmt.Errorf("read backup slot: %w", err)
		}
		if !ok {
			return nil, nil
		}
		if err := p.Primary.Set(ctx, PrimaryKey(employee), raw); err != nil {
			slog.WarnContext(ctx, "restore pending slot failed", "employee", employee, "error", err)
		} else {
			slog.InfoContext(ctx, "pending slot restored from backup", "employee", employee)
		}
	}

	var pending model.PendingOut
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		slog.WarnContext(ctx, "clearing corrupted pending slot", "employee", employee, "error", err)
		if err := p.Clear(ctx, employee); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &pending, nil
}

func (p *PendingSlots) Save(ctx context.Context, employee string, pending model.PendingOut) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encode pending record: %w", err)
	}
	if err := p.Primary.Set(ctx, PrimaryKey(employee), string(data)); err != nil {
		return fmt.Errorf("write pending slot: %w", err)
	}
	if err := p.Backup.Set(ctx, BackupKey(employee), string(data)); err != nil {
		return fmt.Errorf("write backup slot: %w", err)
	}
	return nil
}

func (p *PendingSlots) Clear(ctx context.Context, employee string) error {
	return errors.Join(
		p.Primary.Delete(ctx, PrimaryKey(employee)),
		p.Backup.Delete(ctx, BackupKey(employee)),
	)
}
