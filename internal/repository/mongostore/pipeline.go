package mongostore

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"homework-tracker/internal/repository"
)

// buildListPipeline 将查询计划翻译为一次聚合：
//
//	$match(nom) → $lookup(submissions) → $addFields(rendu) → $project
//	→ $match(rendu=false) → $sort → $facet{metadata: $count, data: $skip/$limit}
//
// viewer 为 nil 表示 any-user 模式。
func buildListPipeline(q *repository.AssignmentQuery, viewer *primitive.ObjectID) mongo.Pipeline {
	pipeline := mongo.Pipeline{}

	// 1. 搜索：尽早过滤以减少 $lookup 的文档数
	if q.Search != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "nom", Value: bson.D{
				{Key: "$regex", Value: q.SearchPattern()},
				{Key: "$options", Value: "i"},
			}},
		}}})
	}

	// 2-3. 关联提交记录并计算 rendu
	pipeline = append(pipeline, completionStages(viewer)...)

	// 4. 隐藏已完成（基于计算字段）
	if q.HideCompleted {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "rendu", Value: false}}}})
	}

	// 5. 排序：_id 作为同日期下的稳定次序
	dir := 1
	if q.Sort == repository.SortDesc {
		dir = -1
	}
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
		{Key: "dateDeRendu", Value: dir},
		{Key: "_id", Value: dir},
	}}})

	// 6-7. 计数与分页在同一个 $facet 中完成
	pipeline = append(pipeline, bson.D{{Key: "$facet", Value: bson.D{
		{Key: "metadata", Value: bson.A{
			bson.D{{Key: "$count", Value: "total"}},
		}},
		{Key: "data", Value: bson.A{
			bson.D{{Key: "$skip", Value: int64(q.Skip())}},
			bson.D{{Key: "$limit", Value: int64(q.Limit)}},
		}},
	}}})

	return pipeline
}

// completionStages 生成完成状态关联阶段
func completionStages(viewer *primitive.ObjectID) []bson.D {
	var lookup bson.D
	if viewer == nil {
		lookup = bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collSubmissions},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "assignmentId"},
			{Key: "as", Value: "submission"},
		}}}
	} else {
		lookup = bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collSubmissions},
			{Key: "let", Value: bson.D{{Key: "aid", Value: "$_id"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "userId", Value: *viewer},
					{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$assignmentId", "$$aid"}}}},
				}}},
				bson.D{{Key: "$limit", Value: 1}},
			}},
			{Key: "as", Value: "submission"},
		}}}
	}

	return []bson.D{
		lookup,
		{{Key: "$addFields", Value: bson.D{
			{Key: "rendu", Value: bson.D{{Key: "$gt", Value: bson.A{bson.D{{Key: "$size", Value: "$submission"}}, 0}}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "submission", Value: 0}}}},
	}
}

// submissionFilter 单个作业的完成状态过滤条件
func submissionFilter(assignmentID primitive.ObjectID, viewer *primitive.ObjectID) bson.D {
	filter := bson.D{{Key: "assignmentId", Value: assignmentID}}
	if viewer != nil {
		filter = append(filter, bson.E{Key: "userId", Value: *viewer})
	}
	return filter
}
