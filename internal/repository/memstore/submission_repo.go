package memstore

import (
	"context"
	"errors"
	"time"

	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

type submissionRepo struct {
	db *DB
}

func (r *submissionRepo) Create(_ context.Context, sub *model.Submission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.insert(sub)
}

func (r *submissionRepo) insert(sub *model.Submission) error {
	if !validID(sub.AssignmentID) || !validID(sub.UserID) {
		return pkgerrors.ErrInvalidID
	}
	key := submissionKey{assignmentID: sub.AssignmentID, userID: sub.UserID}
	if _, exists := r.db.submissions[key]; exists {
		return pkgerrors.ErrDuplicate
	}
	if sub.SubmissionID == "" {
		sub.SubmissionID = newID()
	}
	if sub.Date.IsZero() {
		sub.Date = time.Now()
	}
	cp := *sub
	r.db.submissions[key] = &cp
	return nil
}

func (r *submissionRepo) Upsert(_ context.Context, assignmentID, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	err := r.insert(&model.Submission{AssignmentID: assignmentID, UserID: userID})
	if errors.Is(err, pkgerrors.ErrDuplicate) {
		return nil
	}
	return err
}

func (r *submissionRepo) Delete(_ context.Context, assignmentID, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.submissions, submissionKey{assignmentID: assignmentID, userID: userID})
	return nil
}

func (r *submissionRepo) DeleteByAssignment(_ context.Context, assignmentID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for key := range r.db.submissions {
		if key.assignmentID == assignmentID {
			delete(r.db.submissions, key)
			n++
		}
	}
	return n, nil
}

func (r *submissionRepo) Exists(_ context.Context, assignmentID string, scope repository.CompletionScope) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if scope.AnyUser() {
		for key := range r.db.submissions {
			if key.assignmentID == assignmentID {
				return true, nil
			}
		}
		return false, nil
	}
	if !validID(scope.ViewerID) {
		return false, pkgerrors.ErrInvalidID
	}
	_, ok := r.db.submissions[submissionKey{assignmentID: assignmentID, userID: scope.ViewerID}]
	return ok, nil
}

func (r *submissionRepo) BatchCreate(_ context.Context, subs []model.Submission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i := range subs {
		if err := r.insert(&subs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *submissionRepo) DeleteAll(_ context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.submissions = make(map[submissionKey]*model.Submission)
	return nil
}
