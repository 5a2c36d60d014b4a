package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zentrix.com/portal/infrastructure/communication"
	"zentrix.com/portal/portal/model"
	v1 "zentrix.com/portal/sheets/v1"
)

type AccessWriter interface {
	UpdateUserAccess(ctx context.Context, username, access string) (*v1.Receipt, error)
}

// Directory reads employees from the Master sheet
type Directory struct {
	Feed     FeedReader
	Writer   AccessWriter
	Notifier communication.Notifier
}

func (d *Directory) Employees(ctx context.Context) ([]model.Employee, error) {
	rows, err := d.Feed.Rows(ctx, v1.MasterColumns.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return ParseEmployees(rows), nil
}

// Lookup finds an employee by name or username
func (d *Directory) Lookup(ctx context.Context, name string) (*model.Employee, error) {
	employees, err := d.Employees(ctx)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		if strings.EqualFold(employees[i].Name, name) || strings.EqualFold(employees[i].Username, name) {
			return &employees[i], nil
		}
	}
	return nil, fmt.Errorf("employee %s: %w", name, ErrNotFound)
}

func (d *Directory) Login(ctx context.Context, username, password string) (*model.Employee, error) {
	employees, err := d.Employees(ctx)
	if err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	for i := range employees {
		if employees[i].Username == username && employees[i].Password == password {
			slog.InfoContext(ctx, "login", "username", username, "role", employees[i].Role)
			return &employees[i], nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (d *Directory) ListUsers(ctx context.Context, admin model.Viewer) ([]model.Employee, error) {
	if !admin.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return d.Employees(ctx)
}

func (d *Directory) UpdateAccess(ctx context.Context, admin model.Viewer, username string, tabs []string) error {
	if !admin.IsAdmin() {
		return ErrNotAdmin
	}
	if _, err := d.Writer.UpdateUserAccess(ctx, username, strings.Join(tabs, ",")); err != nil {
		communication.Send(ctx, d.Notifier, "Failed to save changes", communication.KindError)
		return fmt.Errorf("failed to update access for %s: %w", username, err)
	}
	communication.Send(ctx, d.Notifier, "Updated access for "+username, communication.KindSuccess)
	return nil
}
