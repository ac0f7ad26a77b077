package service

import (
	"context"

	"github.com/google/uuid"

	"chronicle/internal/audit/fanout"
	"chronicle/internal/audit/models"
	platformstrings "chronicle/pkg/platform/strings"
	"chronicle/pkg/requestcontext"
)

// RelationAction is the direction of a many-to-many change.
type RelationAction string

const (
	RelationAdd    RelationAction = "add"
	RelationRemove RelationAction = "remove"
	// RelationClear has no distinguishable related-object set beyond "all
	// previously linked", so it is normalized to remove semantics.
	RelationClear RelationAction = "clear"
)

// RelationChanged notifies that a batch of related objects was added to or
// removed from a many-to-many relation.
type RelationChanged struct {
	RelationKind string
	Action       RelationAction
	OwnerKind    string
	Owner        Instance
	RelatedKind  string
	RelatedPKs   []string
}

// OnRelationChanged resolves the affected related objects in one bulk fetch,
// renders one description per object, and lands the whole batch in a single
// bulk insert sharing actor, address, organization, and timestamp.
func (r *Recorder) OnRelationChanged(ctx context.Context, ev RelationChanged) {
	actor, ok := requestcontext.AuthenticatedActor(ctx)
	if !ok {
		r.drop(ctx, "no_actor", ev.RelationKind)
		return
	}
	desc, ok := r.table.Relation(ev.RelationKind)
	if !ok {
		r.drop(ctx, "relation_not_audited", ev.RelationKind)
		return
	}

	action := models.ActionAdd
	tmpl := desc.AddTemplate
	if ev.Action != RelationAdd {
		action = models.ActionRemove
		tmpl = desc.RemoveTemplate
	}

	pks := platformstrings.DedupeAndTrim(ev.RelatedPKs)
	displays, err := r.resolver.ResolveDisplays(ctx, ev.RelatedKind, pks)
	if err != nil {
		r.writeFailed(ctx, "resolve related objects", err)
		return
	}
	if len(displays) == 0 {
		// Stale primary keys resolve to nothing; zero records is not an error.
		return
	}

	var (
		ownerDisplay = ev.Owner.DisplayName()
		remoteAddr   = requestcontext.ClientIP(ctx)
		orgID        = requestcontext.OrgID(ctx)
		now          = requestcontext.Now(ctx)
	)
	records := make([]models.OperateRecord, 0, len(displays))
	for _, related := range displays {
		resource := desc.Render(tmpl, ev.OwnerKind, ownerDisplay, ev.RelatedKind, related)
		records = append(records, models.OperateRecord{
			ID:           uuid.New(),
			Actor:        actor.Name,
			Action:       action,
			ResourceType: desc.ResourceType,
			Resource:     models.Truncate(resource, models.MaxResourceLen),
			RemoteAddr:   remoteAddr,
			OrgID:        orgID,
			CreatedAt:    now,
		})
	}

	if err := r.operate.BulkCreate(ctx, records); err != nil {
		r.writeFailed(ctx, "bulk create operate records", err)
		return
	}
	r.written(string(fanout.CategoryOperationLog), len(records))
	for _, record := range records {
		r.notify(ctx, record)
	}
}
