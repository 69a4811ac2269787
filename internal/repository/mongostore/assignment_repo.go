package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

type assignmentRepo struct {
	coll *mongo.Collection
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	doc, err := toAssignmentDoc(a)
	if err != nil {
		return err
	}
	now := time.Now()
	doc.CreatedAt, doc.UpdatedAt = now, now

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return translateError(err)
	}
	a.AssignmentID = res.InsertedID.(primitive.ObjectID).Hex()
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, pkgerrors.ErrNotFound
	}

	var doc assignmentDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, translateError(err)
	}
	return doc.toModel(), nil
}

func (r *assignmentRepo) Update(ctx context.Context, a *model.Assignment) error {
	oid, err := objectID(a.AssignmentID)
	if err != nil {
		return pkgerrors.ErrNotFound
	}

	now := time.Now()
	set := bson.D{
		{Key: "nom", Value: a.Title},
		{Key: "dateDeRendu", Value: a.DueDate},
		{Key: "description", Value: a.Description},
		{Key: "updatedAt", Value: now},
	}
	update := bson.D{}
	if a.OwnerID != nil {
		owner, err := objectID(*a.OwnerID)
		if err != nil {
			return err
		}
		set = append(set, bson.E{Key: "userId", Value: owner})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "userId", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return pkgerrors.ErrNotFound
	}
	a.UpdatedAt = now
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id string) (*model.Assignment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, pkgerrors.ErrNotFound
	}

	var doc assignmentDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, translateError(err)
	}
	return doc.toModel(), nil
}

// listResult $facet 输出
type listResult struct {
	Metadata []struct {
		Total int64 `bson:"total"`
	} `bson:"metadata"`
	Data []listedAssignmentDoc `bson:"data"`
}

func (r *assignmentRepo) List(ctx context.Context, q *repository.AssignmentQuery) (*repository.AssignmentPage, error) {
	var viewer *primitive.ObjectID
	if !q.Scope.AnyUser() {
		oid, err := objectID(q.Scope.ViewerID)
		if err != nil {
			return nil, err
		}
		viewer = &oid
	}

	cursor, err := r.coll.Aggregate(ctx, buildListPipeline(q, viewer))
	if err != nil {
		return nil, err
	}

	var results []listResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	page := &repository.AssignmentPage{Items: []model.AssignmentStatus{}}
	if len(results) == 0 {
		return page, nil
	}
	if len(results[0].Metadata) > 0 {
		page.Total = results[0].Metadata[0].Total
	}
	for i := range results[0].Data {
		d := &results[0].Data[i]
		page.Items = append(page.Items, model.AssignmentStatus{
			Assignment: *d.Doc.toModel(),
			Rendu:      d.Rendu,
		})
	}
	return page, nil
}

func (r *assignmentRepo) BatchCreate(ctx context.Context, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(assignments))
	for i := range assignments {
		doc, err := toAssignmentDoc(&assignments[i])
		if err != nil {
			return err
		}
		doc.ID = primitive.NewObjectID()
		doc.CreatedAt, doc.UpdatedAt = now, now
		assignments[i].AssignmentID = doc.ID.Hex()
		docs = append(docs, doc)
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return translateError(err)
}

func (r *assignmentRepo) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{})
	return err
}

func toAssignmentDoc(a *model.Assignment) (*assignmentDoc, error) {
	doc := &assignmentDoc{
		Nom:         a.Title,
		DateDeRendu: a.DueDate,
		Description: a.Description,
	}
	if a.OwnerID != nil {
		owner, err := objectID(*a.OwnerID)
		if err != nil {
			return nil, err
		}
		doc.UserID = &owner
	}
	return doc, nil
}
