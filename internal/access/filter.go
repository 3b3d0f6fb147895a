// Package access decides document visibility for a principal. A document is
// visible to its owner, or to any principal whose scopes intersect the
// document's allowed scopes.
package access

import "scoperag/internal/domain"

// Visible reports whether the principal may see the document.
func Visible(p domain.Principal, doc domain.Document) bool {
	if doc.OwnerID == p.ID {
		return true
	}
	for _, held := range p.Scopes {
		for _, allowed := range doc.AllowedScopes {
			if held == allowed {
				return true
			}
		}
	}
	return false
}

// FilterDocs returns the subset of docs visible to the principal, in order.
func FilterDocs(p domain.Principal, docs []domain.Document) []domain.Document {
	visible := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if Visible(p, doc) {
			visible = append(visible, doc)
		}
	}
	return visible
}

// AllowedSet returns the IDs of visible documents as a set, ready to pass to
// the index as a search post-filter.
func AllowedSet(p domain.Principal, docs []domain.Document) map[string]struct{} {
	allowed := make(map[string]struct{})
	for _, doc := range docs {
		if Visible(p, doc) {
			allowed[doc.ID] = struct{}{}
		}
	}
	return allowed
}
