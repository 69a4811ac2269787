package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
)

type submissionRepo struct {
	coll *mongo.Collection
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	doc, err := toSubmissionDoc(sub)
	if err != nil {
		return err
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return translateError(err)
	}
	sub.SubmissionID = res.InsertedID.(primitive.ObjectID).Hex()
	sub.Date = doc.Date
	return nil
}

// Upsert 以 (assignmentId, userId) 为过滤条件，只在插入时写入字段，重复调用不改变已有记录
func (r *submissionRepo) Upsert(ctx context.Context, assignmentID, userID string) error {
	aid, err := objectID(assignmentID)
	if err != nil {
		return err
	}
	uid, err := objectID(userID)
	if err != nil {
		return err
	}

	filter := bson.D{{Key: "assignmentId", Value: aid}, {Key: "userId", Value: uid}}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "assignmentId", Value: aid},
		{Key: "userId", Value: uid},
		{Key: "date", Value: time.Now()},
	}}}

	_, err = r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return translateError(err)
}

func (r *submissionRepo) Delete(ctx context.Context, assignmentID, userID string) error {
	aid, err := objectID(assignmentID)
	if err != nil {
		return err
	}
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	_, err = r.coll.DeleteOne(ctx, bson.D{{Key: "assignmentId", Value: aid}, {Key: "userId", Value: uid}})
	return err
}

func (r *submissionRepo) DeleteByAssignment(ctx context.Context, assignmentID string) (int64, error) {
	aid, err := objectID(assignmentID)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "assignmentId", Value: aid}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *submissionRepo) Exists(ctx context.Context, assignmentID string, scope repository.CompletionScope) (bool, error) {
	aid, err := objectID(assignmentID)
	if err != nil {
		return false, err
	}
	var viewer *primitive.ObjectID
	if !scope.AnyUser() {
		uid, err := objectID(scope.ViewerID)
		if err != nil {
			return false, err
		}
		viewer = &uid
	}

	n, err := r.coll.CountDocuments(ctx, submissionFilter(aid, viewer), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *submissionRepo) BatchCreate(ctx context.Context, subs []model.Submission) error {
	if len(subs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(subs))
	for i := range subs {
		doc, err := toSubmissionDoc(&subs[i])
		if err != nil {
			return err
		}
		doc.ID = primitive.NewObjectID()
		subs[i].SubmissionID = doc.ID.Hex()
		docs = append(docs, doc)
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return translateError(err)
}

func (r *submissionRepo) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{})
	return err
}

func toSubmissionDoc(sub *model.Submission) (*submissionDoc, error) {
	aid, err := objectID(sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	uid, err := objectID(sub.UserID)
	if err != nil {
		return nil, err
	}
	date := sub.Date
	if date.IsZero() {
		date = time.Now()
	}
	return &submissionDoc{AssignmentID: aid, UserID: uid, Date: date}, nil
}
