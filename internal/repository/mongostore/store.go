// Package mongostore MongoDB 存储后端（默认）
//
// 集合与字段名沿用既有数据库（assignments.nom / dateDeRendu / userId，
// submissions.assignmentId / userId / date），已有数据无需迁移即可读取。
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"homework-tracker/internal/repository"
	pkgerrors "homework-tracker/pkg/errors"
)

const (
	collUsers       = "users"
	collAssignments = "assignments"
	collSubmissions = "submissions"
)

// Options mongostore 构造参数
type Options struct {
	// Transactions 为 true 时 Transaction 使用多文档事务（要求副本集 / 分片集群）
	Transactions bool
}

// NewRepository 基于已连接的数据库创建 Repository 聚合
func NewRepository(client *mongo.Client, db *mongo.Database, opts Options, logger *zap.Logger) *repository.Repository {
	s := &store{client: client, db: db, opts: opts, logger: logger}
	return s.repository()
}

type store struct {
	client *mongo.Client
	db     *mongo.Database
	opts   Options
	logger *zap.Logger
}

func (s *store) repository() *repository.Repository {
	return &repository.Repository{
		User:       &userRepo{coll: s.db.Collection(collUsers)},
		Assignment: &assignmentRepo{coll: s.db.Collection(collAssignments)},
		Submission: &submissionRepo{coll: s.db.Collection(collSubmissions)},
		Store:      s,
	}
}

func (s *store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Transaction 开启事务时，回调中的 ctx 为 mongo.SessionContext，仓储方法透传即可加入事务
func (s *store) Transaction(ctx context.Context, fn func(ctx context.Context, txRepo *repository.Repository) error) error {
	repo := s.repository()
	if !s.opts.Transactions {
		return fn(ctx, repo)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("开启会话失败: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, repo)
	})
	return err
}

func (s *store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes 创建唯一索引：users.username、submissions.(assignmentId, userId)
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(collUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_users_username"),
	}); err != nil {
		return fmt.Errorf("创建 users 索引失败: %w", err)
	}

	if _, err := db.Collection(collSubmissions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "assignmentId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_submissions_assignment_user"),
	}); err != nil {
		return fmt.Errorf("创建 submissions 索引失败: %w", err)
	}

	if _, err := db.Collection(collAssignments).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "dateDeRendu", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("idx_assignments_due"),
	}); err != nil {
		return fmt.Errorf("创建 assignments 索引失败: %w", err)
	}

	return nil
}

// ── 辅助函数 ──

// objectID 解析十六进制 ObjectID
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, pkgerrors.ErrInvalidID
	}
	return oid, nil
}

// translateError 将驱动错误翻译为存储层通用错误
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case err == mongo.ErrNoDocuments:
		return pkgerrors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return pkgerrors.ErrDuplicate
	default:
		return err
	}
}
