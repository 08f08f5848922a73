package core

// reconcile.go implements natural-key duplicate detection for incoming
// graduate records. Email is checked first and short-circuits; student_id
// is only consulted when non-empty and no email match exists, so at most
// one existing record is ever reported for a row.
//
// Detection is check-then-act: two concurrent runs importing the same
// email can both pass and race at the persistence layer. That race is
// resolved by the store's unique constraints, which surface through the
// importer's row-scoped downgrade path.

import "context"

// Natural-key kinds reported on conflicts.
const (
	MatchedByEmail     = "email"
	MatchedByStudentID = "student_id"
)

// DuplicateMatch describes the existing record an incoming row collides with.
type DuplicateMatch struct {
	Existing  *Graduate
	MatchedBy string
}

// Reconciler classifies incoming records as create vs. conflict.
type Reconciler struct {
	graduates GraduateStore
}

// NewReconciler creates a reconciler over the given graduate store.
func NewReconciler(graduates GraduateStore) *Reconciler {
	return &Reconciler{graduates: graduates}
}

// FindDuplicate returns the first existing record matching the incoming
// payload's natural keys, or nil when the record is safe to create.
func (r *Reconciler) FindDuplicate(ctx context.Context, g *Graduate) (*DuplicateMatch, error) {
	existing, err := r.graduates.FindByEmail(ctx, g.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &DuplicateMatch{Existing: existing, MatchedBy: MatchedByEmail}, nil
	}

	if g.StudentID == "" {
		return nil, nil
	}

	existing, err = r.graduates.FindByStudentID(ctx, g.StudentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &DuplicateMatch{Existing: existing, MatchedBy: MatchedByStudentID}, nil
	}

	return nil, nil
}
