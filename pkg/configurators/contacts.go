package configurators

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Contacts configures the contacts provider.
type Contacts struct{}

func (c *Contacts) Domain() spec.Domain { return spec.DomainContacts }

func (c *Contacts) EnsureReady(ctx context.Context, dev device.Controller) error {
	return ensureApp(ctx, dev, pkgContacts)
}

func (c *Contacts) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.ContactsSpec)
	o := engine.NewOutcome(spec.DomainContacts)

	if s.ClearContacts {
		if err := dev.DeleteContent(ctx, contactsRawContent, ""); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, contact := range s.AddContacts {
		o.ItemsTotal++
		if err := c.addContact(ctx, dev, contact); err != nil {
			o.RecordError("add_contact", i, err)
			continue
		}
		o.ItemsWritten++
	}

	o.Finalize()
	return o
}

// addContact inserts a raw contact and attaches name and phone data rows.
func (c *Contacts) addContact(ctx context.Context, dev device.Controller, contact spec.ContactRecord) error {
	number := cleanPhoneNumber(contact.Number)
	if number == "" {
		return fmt.Errorf("contact %q has no usable phone number", contact.Name)
	}

	err := dev.InsertContent(ctx, contactsRawContent, map[string]device.BindValue{
		"account_name": device.String("local"),
		"account_type": device.String("com.local"),
	})
	if err != nil {
		return fmt.Errorf("insert raw contact: %w", err)
	}

	rawID, err := c.latestRawContactID(ctx, dev)
	if err != nil {
		return fmt.Errorf("resolve raw contact id: %w", err)
	}

	err = dev.InsertContent(ctx, contactsDataContent, map[string]device.BindValue{
		"raw_contact_id": device.Int(rawID),
		"mimetype":       device.String(mimeStructuredName),
		"data1":          device.String(contact.Name),
	})
	if err != nil {
		return fmt.Errorf("insert name: %w", err)
	}

	err = dev.InsertContent(ctx, contactsDataContent, map[string]device.BindValue{
		"raw_contact_id": device.Int(rawID),
		"mimetype":       device.String(mimePhone),
		"data1":          device.String(number),
		"data2":          device.Int(phoneTypeMobile),
	})
	if err != nil {
		return fmt.Errorf("insert phone: %w", err)
	}
	return nil
}

// latestRawContactID returns the highest raw contact row id, which is the
// one just inserted.
func (c *Contacts) latestRawContactID(ctx context.Context, dev device.Controller) (int64, error) {
	rows, err := dev.QueryContent(ctx, contactsRawContent, []string{"_id"}, "")
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, errors.New("no raw contacts found after insert")
	}
	var max int64
	for _, row := range rows {
		id, err := strconv.ParseInt(row["_id"], 10, 64)
		if err != nil {
			continue
		}
		if id > max {
			max = id
		}
	}
	if max == 0 {
		// Provider builds that hide _id from the projection still keep
		// insertion order, so the row count stands in for the id.
		max = int64(len(rows))
	}
	return max, nil
}
