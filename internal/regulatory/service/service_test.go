package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	compliancemodels "rbi-platform/internal/compliance/models"
	complianceservice "rbi-platform/internal/compliance/service"
	compliancestore "rbi-platform/internal/compliance/store"
	"rbi-platform/internal/regulatory/models"
	"rbi-platform/internal/regulatory/service"
	"rbi-platform/internal/regulatory/store"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
)

type captureAuditor struct {
	events []audit.Event
}

func (c *captureAuditor) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureAuditor) actions() []string {
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Action)
	}
	return out
}

type ackAlert struct {
	circular models.Circular
	itemID   string
}

type captureNotifier struct {
	acks []ackAlert
}

func (n *captureNotifier) CircularAcknowledged(_ context.Context, c models.Circular, itemID string) {
	n.acks = append(n.acks, ackAlert{circular: c, itemID: itemID})
}

type fixture struct {
	svc      *service.Service
	items    *complianceservice.Service
	auditor  *captureAuditor
	notifier *captureNotifier
}

func newFixture() *fixture {
	auditor := &captureAuditor{}
	notifier := &captureNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	items := complianceservice.New(
		compliancestore.NewItemStore(), compliancestore.NewWorkflowStore(), auditor, logger)
	return &fixture{
		svc:      service.New(store.New(), items, auditor, notifier, logger),
		items:    items,
		auditor:  auditor,
		notifier: notifier,
	}
}

func createCircular(t *testing.T, svc *service.Service, reference string) *models.Circular {
	t.Helper()
	c, err := svc.Create(context.Background(), &models.CreateRequest{
		Reference:   reference,
		Title:       "Master Direction on KYC",
		Regulator:   "RBI",
		PublishedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Tags:        []string{"KYC", " aml "},
	})
	require.NoError(t, err)
	return c
}

func TestCreateCircular(t *testing.T) {
	t.Run("starts in status new with normalized tags", func(t *testing.T) {
		f := newFixture()
		c := createCircular(t, f.svc, "RBI/2026-27/12")
		assert.Equal(t, models.StatusNew, c.Status)
		assert.Equal(t, []string{"kyc", "aml"}, c.Tags)
		assert.Contains(t, f.auditor.actions(), audit.ActionCircularCreated)
	})

	t.Run("duplicate reference conflicts", func(t *testing.T) {
		f := newFixture()
		createCircular(t, f.svc, "RBI/2026-27/12")
		_, err := f.svc.Create(context.Background(), &models.CreateRequest{
			Reference:   "RBI/2026-27/12",
			Title:       "Same reference again",
			Regulator:   "RBI",
			PublishedAt: time.Now(),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	})
}

func TestListCirculars(t *testing.T) {
	f := newFixture()
	createCircular(t, f.svc, "RBI/2026-27/12")
	_, err := f.svc.Create(context.Background(), &models.CreateRequest{
		Reference:   "SEBI/2026/5",
		Title:       "Disclosure norms",
		Regulator:   "SEBI",
		PublishedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Tags:        []string{"disclosure"},
	})
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		all, err := f.svc.List(context.Background(), models.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "SEBI/2026/5", all[0].Reference)
	})

	t.Run("by regulator", func(t *testing.T) {
		rbi, err := f.svc.List(context.Background(), models.Filter{Regulator: "RBI"})
		require.NoError(t, err)
		require.Len(t, rbi, 1)
		assert.Equal(t, "RBI/2026-27/12", rbi[0].Reference)
	})

	t.Run("by tag", func(t *testing.T) {
		kyc, err := f.svc.List(context.Background(), models.Filter{Tag: "kyc"})
		require.NoError(t, err)
		require.Len(t, kyc, 1)
	})
}

func TestAcknowledge(t *testing.T) {
	t.Run("moves to under_review and opens an item", func(t *testing.T) {
		f := newFixture()
		c := createCircular(t, f.svc, "RBI/2026-27/12")

		result, err := f.svc.Acknowledge(context.Background(), c.ID, &models.AcknowledgeRequest{
			Owner: "officer@bank.example",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnderReview, result.Circular.Status)
		require.NotNil(t, result.Item)
		assert.Equal(t, c.ID, result.Item.CircularID)
		assert.Equal(t, compliancemodels.SeverityHigh, result.Item.Severity)
		assert.Contains(t, result.Item.Title, "RBI/2026-27/12")

		// The item is really in the compliance store.
		stored, err := f.items.GetItem(context.Background(), result.Item.ID)
		require.NoError(t, err)
		assert.Equal(t, compliancemodels.ItemStatusOpen, stored.Status)

		assert.Contains(t, f.auditor.actions(), audit.ActionCircularAcknowledged)
		require.Len(t, f.notifier.acks, 1)
		assert.Equal(t, result.Item.ID, f.notifier.acks[0].itemID)
	})

	t.Run("second acknowledgement conflicts", func(t *testing.T) {
		f := newFixture()
		c := createCircular(t, f.svc, "RBI/2026-27/12")

		_, err := f.svc.Acknowledge(context.Background(), c.ID, nil)
		require.NoError(t, err)
		_, err = f.svc.Acknowledge(context.Background(), c.ID, nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	})

	t.Run("unknown circular is not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Acknowledge(context.Background(), "missing", nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	})
}
