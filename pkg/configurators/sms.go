package configurators

import (
	"context"
	"fmt"
	"time"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

// SMS message type column values in the telephony provider.
const (
	smsTypeReceived = 1
	smsTypeSent     = 2
)

// SMS configures the telephony SMS store.
type SMS struct {
	rng *sample.Provider
}

func (c *SMS) Domain() spec.Domain { return spec.DomainSms }

func (c *SMS) EnsureReady(ctx context.Context, dev device.Controller) error {
	return ensureApp(ctx, dev, pkgMessaging)
}

func (c *SMS) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.SmsSpec)
	o := engine.NewOutcome(spec.DomainSms)

	if s.NotificationsMuted() {
		// Failures here are tolerable: seeding still works, just noisier.
		_, _ = dev.RunShell(ctx, "cmd notification set_dnd priority")
	}

	if s.ClearMessages {
		if err := c.clearMessages(ctx, dev); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, msg := range s.AddMessages {
		o.ItemsTotal++
		if err := c.insertMessage(ctx, dev, msg.Number, msg.Text, msg.Received()); err != nil {
			o.RecordError("add_message", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomConversations {
		written, total, errs := c.addRandomConversations(ctx, dev, s.ConversationCount())
		o.ItemsTotal += total
		o.ItemsWritten += written
		for _, e := range errs {
			o.RecordError("add_random_conversation", -1, e)
		}
	}

	if o.ItemsWritten > 0 || o.Cleared {
		_, _ = dev.RunShell(ctx, "am broadcast -a "+smsReceivedBroadcast)
	}

	o.Finalize()
	return o
}

// clearMessages empties the SMS store both at the database and the provider
// level so no thread metadata survives.
func (c *SMS) clearMessages(ctx context.Context, dev device.Controller) error {
	for _, table := range []string{"sms", "threads", "mms", "canonical_addresses"} {
		if err := clearTable(ctx, dev, smsDBPath, table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	uris := []string{
		smsContent,
		smsContent + "/inbox",
		smsContent + "/sent",
		smsContent + "/draft",
		smsContent + "/conversations",
		mmsContent,
		smsConversationContent,
	}
	for _, uri := range uris {
		// Some provider paths reject bulk deletes on certain builds.
		_ = dev.DeleteContent(ctx, uri, "")
	}
	return nil
}

// insertMessage writes one message row directly into the telephony store.
func (c *SMS) insertMessage(ctx context.Context, dev device.Controller, number, text string, received bool) error {
	number = cleanPhoneNumber(number)
	if number == "" {
		return fmt.Errorf("message has no usable phone number")
	}
	msgType := smsTypeSent
	if received {
		msgType = smsTypeReceived
	}
	return insertRow(ctx, dev, smsDBPath, smsTable,
		[]string{"address", "date", "body", "read", "type"},
		[]string{
			sqlString(number),
			sqlInt(time.Now().UnixMilli()),
			sqlString(text),
			"1",
			sqlInt(int64(msgType)),
		})
}

// addRandomConversations seeds count conversations with 1-5 alternating
// messages each, drawn from the sample corpus.
func (c *SMS) addRandomConversations(ctx context.Context, dev device.Controller, count int) (written, total int, errs []error) {
	for i := 0; i < count; i++ {
		contact := c.rng.Contact()
		messages := c.rng.IntBetween(1, 5)
		for m := 0; m < messages; m++ {
			total++
			text := c.rng.MessageText()
			received := m%2 == 0
			if !received {
				text = c.rng.ResponseText()
			}
			if err := c.insertMessage(ctx, dev, contact.Number, text, received); err != nil {
				errs = append(errs, fmt.Errorf("conversation with %s: %w", contact.Name, err))
				continue
			}
			written++
		}
	}
	return written, total, errs
}
