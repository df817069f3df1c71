package recognize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/tabscan/internal/profile"
	"github.com/jackzampolin/tabscan/internal/providers"
)

const derivedProfile = `Here is the structure:
{"headers":["Date","Item","Qty"],"column_count":3,"column_notes":["ISO date","free text","integer"],"row_rules":["skip totals"],"output_rules":[]}`

func newDeriver(replies ...providers.MockReply) (*Deriver, *providers.MockTransport) {
	mock := &providers.MockTransport{Replies: replies}
	return NewDeriver(testBuilder(), mock, WithLogger(quietLogger())), mock
}

func TestDerive(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		d, mock := newDeriver(text(derivedProfile))
		p, err := d.Derive(context.Background(), testImage)
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}
		if p.ColumnCount != len(p.Headers) || p.Headers[2] != "Qty" {
			t.Errorf("profile = %+v", p)
		}
		if mock.RequestCount() != 1 {
			t.Errorf("calls = %d", mock.RequestCount())
		}
		if !strings.Contains(string(mock.Requests()[0].Payload), "column_count") {
			t.Error("request should carry the analysis prompt")
		}
	})

	t.Run("schema mismatch is terminal", func(t *testing.T) {
		d, mock := newDeriver(text(`{"headers":["x"],"column_count":2,"column_notes":[],"row_rules":[],"output_rules":[]}`))
		p, err := d.Derive(context.Background(), testImage)
		if p != nil {
			t.Errorf("Derive() = %+v, want nil", p)
		}
		var schemaErr *profile.SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("error = %v, want *profile.SchemaError", err)
		}
		if mock.RequestCount() != 1 {
			t.Errorf("calls = %d, want 1", mock.RequestCount())
		}
	})

	t.Run("unparseable replies are retried", func(t *testing.T) {
		d, mock := newDeriver(text("I cannot see a table."))
		_, err := d.Derive(context.Background(), testImage)
		var parseErr *profile.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("error = %v, want *profile.ParseError", err)
		}
		var exhausted *ExhaustedError
		if !errors.As(err, &exhausted) || exhausted.Attempts != DefaultProfileRetries {
			t.Errorf("error = %v", err)
		}
		if mock.RequestCount() != DefaultProfileRetries {
			t.Errorf("calls = %d, want %d", mock.RequestCount(), DefaultProfileRetries)
		}
	})

	t.Run("transport failure then success", func(t *testing.T) {
		d, mock := newDeriver(transportFailure(), text(derivedProfile))
		if _, err := d.Derive(context.Background(), testImage); err != nil {
			t.Fatalf("Derive() error = %v", err)
		}
		if mock.RequestCount() != 2 {
			t.Errorf("calls = %d", mock.RequestCount())
		}
	})

	t.Run("custom budget", func(t *testing.T) {
		mock := &providers.MockTransport{Replies: []providers.MockReply{transportFailure()}}
		d := NewDeriver(testBuilder(), mock, WithLogger(quietLogger()), WithRetries(4))
		if _, err := d.Derive(context.Background(), testImage); err == nil {
			t.Fatal("expected error")
		}
		if mock.RequestCount() != 4 {
			t.Errorf("calls = %d, want 4", mock.RequestCount())
		}
	})
}

func TestRefine(t *testing.T) {
	base := &profile.Profile{Headers: []string{"Date", "Item"}, ColumnCount: 2}

	t.Run("blank feedback makes no call", func(t *testing.T) {
		d, mock := newDeriver(text(derivedProfile))
		for _, feedback := range []string{"", "   \n\t"} {
			p, err := d.Refine(context.Background(), testImage, base, feedback)
			if err != nil {
				t.Fatalf("Refine() error = %v", err)
			}
			if p != base {
				t.Error("blank feedback should return the base profile")
			}
		}
		if mock.RequestCount() != 0 {
			t.Errorf("calls = %d", mock.RequestCount())
		}
	})

	t.Run("feedback and current profile sent", func(t *testing.T) {
		d, mock := newDeriver(text(derivedProfile))
		p, err := d.Refine(context.Background(), testImage, base, "there is a Qty column on the right")
		if err != nil {
			t.Fatalf("Refine() error = %v", err)
		}
		if p.ColumnCount != 3 {
			t.Errorf("refined profile = %+v", p)
		}
		if len(base.Headers) != 2 {
			t.Error("base profile was modified")
		}
		payload := string(mock.Requests()[0].Payload)
		if !strings.Contains(payload, "there is a Qty column on the right") || !strings.Contains(payload, `\"Date\"`) {
			t.Errorf("payload missing feedback or profile: %s", payload)
		}
	})

	t.Run("invalid base", func(t *testing.T) {
		d, mock := newDeriver(text(derivedProfile))
		if _, err := d.Refine(context.Background(), testImage, nil, "x"); err == nil {
			t.Error("nil base should fail")
		}
		if mock.RequestCount() != 0 {
			t.Errorf("calls = %d", mock.RequestCount())
		}
	})
}
