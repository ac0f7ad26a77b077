// Package registry holds the closed tables that drive audit eligibility: the
// entity allow-list and the relation descriptor table. Both are built once at
// startup and immutable afterwards; unknown kinds are rejected at construction
// time rather than discovered at dispatch time.
package registry

import (
	"fmt"
	"strings"
)

// Entity pairs an entity kind's canonical name with its human label. The
// canonical name is what the mutation source reports; the label is what ends
// up in a record's resource type.
type Entity struct {
	Kind  string
	Label string
}

// RelationDescriptor describes how a relation-change batch is rendered: the
// resource-type label shared by every record in the batch, and one template
// per direction. Templates carry {KindName} placeholders for the owning and
// related entity kinds.
type RelationDescriptor struct {
	ResourceType   string
	AddTemplate    string
	RemoveTemplate string
}

// Render substitutes the kind-name placeholders in tmpl with the given display
// strings. Rendering is pure: the same inputs always yield the same output.
// Truncation is the caller's job and must happen after rendering.
func (d RelationDescriptor) Render(tmpl, ownerKind, ownerDisplay, relatedKind, relatedDisplay string) string {
	r := strings.NewReplacer(
		"{"+ownerKind+"}", ownerDisplay,
		"{"+relatedKind+"}", relatedDisplay,
	)
	return r.Replace(tmpl)
}

// Table is the immutable registry consulted by the recorders.
type Table struct {
	entities  map[string]string
	relations map[string]RelationDescriptor
}

// New validates the fixed lists and builds the lookup table. Duplicate entity
// kinds, duplicate relation kinds, and blank names fail construction.
func New(entities []Entity, relations map[string]RelationDescriptor) (*Table, error) {
	byKind := make(map[string]string, len(entities))
	for _, e := range entities {
		if e.Kind == "" || e.Label == "" {
			return nil, fmt.Errorf("registry: entity kind and label are required, got %q/%q", e.Kind, e.Label)
		}
		if _, dup := byKind[e.Kind]; dup {
			return nil, fmt.Errorf("registry: duplicate entity kind %q", e.Kind)
		}
		byKind[e.Kind] = e.Label
	}

	rels := make(map[string]RelationDescriptor, len(relations))
	for kind, desc := range relations {
		if kind == "" {
			return nil, fmt.Errorf("registry: relation kind is required")
		}
		if desc.ResourceType == "" || desc.AddTemplate == "" || desc.RemoveTemplate == "" {
			return nil, fmt.Errorf("registry: relation %q needs a label and both templates", kind)
		}
		rels[kind] = desc
	}

	return &Table{entities: byKind, relations: rels}, nil
}

// MustNew is New for the fixed startup tables, where a construction error is
// a programming mistake.
func MustNew(entities []Entity, relations map[string]RelationDescriptor) *Table {
	t, err := New(entities, relations)
	if err != nil {
		panic(err)
	}
	return t
}

// EntityLabel reports whether kind is eligible for lifecycle auditing and
// returns its human label. Membership is an exact string match.
func (t *Table) EntityLabel(kind string) (string, bool) {
	label, ok := t.entities[kind]
	return label, ok
}

// Relation returns the descriptor for a relation kind. A missing entry means
// the relation is not audited; callers drop the event silently.
func (t *Table) Relation(kind string) (RelationDescriptor, bool) {
	desc, ok := t.relations[kind]
	return desc, ok
}

// Default returns the production table: the platform's audited entity kinds
// and relation descriptors.
func Default() *Table {
	return MustNew(defaultEntities, defaultRelations)
}

var defaultEntities = []Entity{
	// users
	{Kind: "User", Label: "User"},
	{Kind: "UserGroup", Label: "User group"},
	// acls
	{Kind: "LoginACL", Label: "Login ACL"},
	{Kind: "LoginAssetACL", Label: "Login asset ACL"},
	// assets
	{Kind: "Asset", Label: "Asset"},
	{Kind: "Node", Label: "Node"},
	{Kind: "SystemUser", Label: "System user"},
	{Kind: "Domain", Label: "Domain"},
	{Kind: "Gateway", Label: "Gateway"},
	{Kind: "Platform", Label: "Platform"},
	{Kind: "CommandFilter", Label: "Command filter"},
	{Kind: "CommandFilterRule", Label: "Command filter rule"},
	// applications
	{Kind: "Application", Label: "Application"},
	// orgs
	{Kind: "Organization", Label: "Organization"},
	// settings
	{Kind: "Setting", Label: "Setting"},
	// perms
	{Kind: "AssetPermission", Label: "Asset permission"},
	{Kind: "ApplicationPermission", Label: "Application permission"},
	// accounts
	{Kind: "Account", Label: "Account"},
}

var defaultRelations = map[string]RelationDescriptor{
	"Organization.members": {
		ResourceType:   "User and Organization",
		AddTemplate:    "{User} JOINED {Organization}",
		RemoveTemplate: "{User} LEFT {Organization}",
	},
	"User.groups": {
		ResourceType:   "User and Group",
		AddTemplate:    "{User} JOINED {UserGroup}",
		RemoveTemplate: "{User} LEFT {UserGroup}",
	},
	"SystemUser.assets": {
		ResourceType:   "Asset and SystemUser",
		AddTemplate:    "{Asset} ADD {SystemUser}",
		RemoveTemplate: "{Asset} REMOVE {SystemUser}",
	},
	"Asset.nodes": {
		ResourceType:   "Node and Asset",
		AddTemplate:    "{Node} ADD {Asset}",
		RemoveTemplate: "{Node} REMOVE {Asset}",
	},
	"AssetPermission.users": {
		ResourceType:   "User asset permissions",
		AddTemplate:    "{AssetPermission} ADD {User}",
		RemoveTemplate: "{AssetPermission} REMOVE {User}",
	},
	"AssetPermission.user_groups": {
		ResourceType:   "User group asset permissions",
		AddTemplate:    "{AssetPermission} ADD {UserGroup}",
		RemoveTemplate: "{AssetPermission} REMOVE {UserGroup}",
	},
	"AssetPermission.assets": {
		ResourceType:   "Asset permission",
		AddTemplate:    "{AssetPermission} ADD {Asset}",
		RemoveTemplate: "{AssetPermission} REMOVE {Asset}",
	},
	"AssetPermission.nodes": {
		ResourceType:   "Node permission",
		AddTemplate:    "{AssetPermission} ADD {Node}",
		RemoveTemplate: "{AssetPermission} REMOVE {Node}",
	},
	"AssetPermission.system_users": {
		ResourceType:   "Asset permission and SystemUser",
		AddTemplate:    "{AssetPermission} ADD {SystemUser}",
		RemoveTemplate: "{AssetPermission} REMOVE {SystemUser}",
	},
	"ApplicationPermission.users": {
		ResourceType:   "User application permissions",
		AddTemplate:    "{ApplicationPermission} ADD {User}",
		RemoveTemplate: "{ApplicationPermission} REMOVE {User}",
	},
	"ApplicationPermission.user_groups": {
		ResourceType:   "User group application permissions",
		AddTemplate:    "{ApplicationPermission} ADD {UserGroup}",
		RemoveTemplate: "{ApplicationPermission} REMOVE {UserGroup}",
	},
	"ApplicationPermission.applications": {
		ResourceType:   "Application permission",
		AddTemplate:    "{ApplicationPermission} ADD {Application}",
		RemoveTemplate: "{ApplicationPermission} REMOVE {Application}",
	},
	"ApplicationPermission.system_users": {
		ResourceType:   "Application permission and SystemUser",
		AddTemplate:    "{ApplicationPermission} ADD {SystemUser}",
		RemoveTemplate: "{ApplicationPermission} REMOVE {SystemUser}",
	},
}
