package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"homework-tracker/internal/model"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"passwordHash"`
	Name         string             `bson:"name"`
	IsAdmin      bool               `bson:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt    time.Time          `bson:"updatedAt,omitempty"`
}

func (d *userDoc) toModel() *model.User {
	u := &model.User{
		UserID:       d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		IsAdmin:      d.IsAdmin,
	}
	u.CreatedAt, u.UpdatedAt = d.CreatedAt, d.UpdatedAt
	return u
}

type assignmentDoc struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Nom         string              `bson:"nom"`
	DateDeRendu time.Time           `bson:"dateDeRendu"`
	Description string              `bson:"description"`
	UserID      *primitive.ObjectID `bson:"userId,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt   time.Time           `bson:"updatedAt,omitempty"`
}

func (d *assignmentDoc) toModel() *model.Assignment {
	a := &model.Assignment{
		AssignmentID: d.ID.Hex(),
		Title:        d.Nom,
		DueDate:      d.DateDeRendu,
		Description:  d.Description,
	}
	if d.UserID != nil {
		owner := d.UserID.Hex()
		a.OwnerID = &owner
	}
	a.CreatedAt, a.UpdatedAt = d.CreatedAt, d.UpdatedAt
	return a
}

// listedAssignmentDoc 聚合管道输出：作业文档 + 计算出的 rendu
type listedAssignmentDoc struct {
	Doc   assignmentDoc `bson:",inline"`
	Rendu bool          `bson:"rendu"`
}

type submissionDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	AssignmentID primitive.ObjectID `bson:"assignmentId"`
	UserID       primitive.ObjectID `bson:"userId"`
	Date         time.Time          `bson:"date"`
}
