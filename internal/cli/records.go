package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/models"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

const (
	timeFormat = time.DateTime
	clearValue = "-"
)

// recordID takes the id from args or asks for it.
func (a *App) recordID(args []string, prompt string) (int64, error) {
	var s string
	if len(args) > 0 {
		s = args[0]
	} else {
		var err error
		if s, err = getSimpleText(a.reader, prompt, a.out); err != nil {
			return 0, err
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad record id %q", common.ErrInvalidArgument, s)
	}
	return id, nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	app, err := getOptionalText(a.reader, "Enter application", a.out)
	if err != nil {
		return err
	}
	user, err := getSimpleText(a.reader, "Enter user", a.out)
	if err != nil {
		return err
	}
	pass, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)
	obs, err := getOptionalText(a.reader, "Enter notes", a.out)
	if err != nil {
		return err
	}

	id, err := a.vault.Insert(ctx, a.key, vault.Credential{
		Application: app,
		User:        user,
		Password:    string(pass),
		Obs:         obs,
	})
	if err != nil {
		return err
	}
	a.printf("Added record %d\n", id)
	return nil
}

func optional(s *string) string {
	if s == nil {
		return "(none)"
	}
	return *s
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.recordID(args, "Enter record id to show")
	if err != nil {
		return err
	}
	c, err := a.vault.Read(ctx, a.key, id)
	if err != nil {
		return err
	}

	a.printf("ID:          %d\n", c.ID)
	a.printf("Application: %s\n", optional(c.Application))
	a.printf("User:        %s\n", c.User)
	a.printf("Password:    %s\n", c.Password)
	a.printf("Notes:       %s\n", optional(c.Obs))
	return nil
}

// Edit asks for every field in turn. An empty answer keeps the stored
// value and "-" clears an optional field.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.recordID(args, "Enter record id to edit")
	if err != nil {
		return err
	}

	changes := vault.Changes{}
	for _, f := range []models.Field{models.FieldApplication, models.FieldUser} {
		if err := a.editText(changes, f); err != nil {
			return err
		}
	}

	pass, err := getPassword(a.out, "New password (Enter keeps)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)
	if len(pass) > 0 {
		p := string(pass)
		changes[models.FieldPassword] = &p
	}

	if err := a.editText(changes, models.FieldObs); err != nil {
		return err
	}

	if len(changes) == 0 {
		a.printf("Nothing to change\n")
		return nil
	}
	if err := a.vault.Update(ctx, a.key, id, changes); err != nil {
		return err
	}
	a.printf("Updated record %d\n", id)
	return nil
}

func (a *App) editText(changes vault.Changes, f models.Field) error {
	prompt := fmt.Sprintf("New %s (Enter keeps)", f)
	if f.Optional() {
		prompt = fmt.Sprintf("New %s (Enter keeps, %q clears)", f, clearValue)
	}
	s, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	switch {
	case s == "":
	case s == clearValue && f.Optional():
		changes[f] = nil
	default:
		changes[f] = &s
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.recordID(args, "Enter record id to delete")
	if err != nil {
		return err
	}
	if err := a.vault.Delete(ctx, a.key, id); err != nil {
		return err
	}
	a.printf("Deleted record %d\n", id)
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	ids, err := a.vault.ListIDs(ctx, a.key)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		a.printf("No records\n")
		return nil
	}
	for _, id := range ids {
		a.printf("%d\n", id)
	}
	return nil
}
