package service

import (
	"context"
	"strings"

	"chronicle/internal/audit/models"
	"chronicle/internal/audit/registry"
	"chronicle/pkg/requestcontext"
)

// =============================================================================
// Relation Change Tests
// =============================================================================

func (s *RecorderSuite) TestOnRelationChanged() {
	ev := RelationChanged{
		RelationKind: "AssetPermission.assets",
		Action:       RelationAdd,
		OwnerKind:    "AssetPermission",
		Owner:        entity("perm-1"),
		RelatedKind:  "Asset",
		RelatedPKs:   []string{"pk1", "pk2"},
	}

	s.Run("add batch lands one record per related object", func() {
		s.recorder.OnRelationChanged(s.actorCtx(), ev)

		records := s.operate.All()
		s.Require().Len(records, 2)
		s.Equal("perm-1 ADD db-01", records[0].Resource)
		s.Equal("perm-1 ADD db-02", records[1].Resource)
		for _, rec := range records {
			s.Equal(models.ActionAdd, rec.Action)
			s.Equal("Asset permission", rec.ResourceType)
			s.Equal("alice", rec.Actor)
			s.Equal("10.0.0.5", rec.RemoteAddr)
			s.Equal(s.now, rec.CreatedAt)
		}
	})

	s.Run("the whole batch goes through one bulk insert", func() {
		counting := &countingOperateStore{inner: s.operate}
		r, err := New(registry.Default(), counting, s.logins, s.passwords, s.resolver)
		s.Require().NoError(err)

		r.OnRelationChanged(s.actorCtx(), ev)
		s.Equal(1, counting.bulkCalls)
	})

	s.Run("remove uses the remove template", func() {
		removed := ev
		removed.Action = RelationRemove
		s.recorder.OnRelationChanged(s.actorCtx(), removed)

		records := s.operate.All()
		s.Require().Len(records, 2)
		s.Equal("perm-1 REMOVE db-01", records[0].Resource)
		s.Equal(models.ActionRemove, records[0].Action)
	})

	s.Run("clear is normalized to remove", func() {
		cleared := ev
		cleared.Action = RelationClear
		s.recorder.OnRelationChanged(s.actorCtx(), cleared)

		records := s.operate.All()
		s.Require().Len(records, 2)
		s.Equal("perm-1 REMOVE db-01", records[0].Resource)
		s.Equal(models.ActionRemove, records[0].Action)
	})

	s.Run("duplicate related keys collapse to one record each", func() {
		dup := ev
		dup.RelatedPKs = []string{"pk1", "pk1", " pk2 "}
		s.recorder.OnRelationChanged(s.actorCtx(), dup)

		records := s.operate.All()
		s.Require().Len(records, 2)
		s.Equal("perm-1 ADD db-01", records[0].Resource)
		s.Equal("perm-1 ADD db-02", records[1].Resource)
	})

	s.Run("unknown relation kind is dropped", func() {
		unknown := ev
		unknown.RelationKind = "AssetPermission.labels"
		s.recorder.OnRelationChanged(s.actorCtx(), unknown)
		s.Empty(s.operate.All())
	})

	s.Run("no ambient actor is dropped before resolution", func() {
		s.recorder.OnRelationChanged(context.Background(), ev)
		s.Empty(s.operate.All())
	})

	s.Run("stale primary keys yield zero records without error", func() {
		stale := ev
		stale.RelatedPKs = []string{"gone-1", "gone-2"}
		s.recorder.OnRelationChanged(s.actorCtx(), stale)
		s.Empty(s.operate.All())
		s.Empty(s.observer.records)
	})

	s.Run("resolver failure is swallowed", func() {
		r, err := New(registry.Default(), s.operate, s.logins, s.passwords, failingResolver{})
		s.Require().NoError(err)

		r.OnRelationChanged(s.actorCtx(), ev)
		s.Empty(s.operate.All())
	})

	s.Run("truncation happens after rendering", func() {
		long := ev
		long.Owner = entity(strings.Repeat("p", 200))
		s.recorder.OnRelationChanged(s.actorCtx(), long)

		records := s.operate.All()
		s.Require().Len(records, 2)
		// The rendered description starts with the owner display, so the
		// stored prefix must be owner text, not a pre-truncated fragment.
		s.Len([]rune(records[0].Resource), models.MaxResourceLen)
		s.Equal(strings.Repeat("p", models.MaxResourceLen), records[0].Resource)
	})

	s.Run("ambient organization tags every record in the batch", func() {
		ctx := requestcontext.WithOrgID(s.actorCtx(), "org-7")
		s.recorder.OnRelationChanged(ctx, ev)

		records := s.operate.All()
		s.Require().Len(records, 2)
		s.Equal("org-7", records[0].OrgID)
		s.Equal("org-7", records[1].OrgID)
	})

	s.Run("observer sees each record of the batch", func() {
		s.recorder.OnRelationChanged(s.actorCtx(), ev)
		s.Len(s.observer.records, 2)
	})

	s.Run("bulk insert failure is swallowed and observer stays silent", func() {
		r, err := New(registry.Default(), failingOperateStore{}, s.logins, s.passwords, s.resolver,
			WithObserver(s.observer))
		s.Require().NoError(err)

		r.OnRelationChanged(s.actorCtx(), ev)
		s.Empty(s.observer.records)
	})
}
