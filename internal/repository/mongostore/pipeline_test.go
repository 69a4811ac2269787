package mongostore

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"homework-tracker/internal/repository"
)

func stageNames(p []bson.D) []string {
	names := make([]string, 0, len(p))
	for _, stage := range p {
		names = append(names, stage[0].Key)
	}
	return names
}

func lookupOf(t *testing.T, p []bson.D) bson.D {
	t.Helper()
	for _, stage := range p {
		if stage[0].Key == "$lookup" {
			return stage[0].Value.(bson.D)
		}
	}
	t.Fatal("管道中缺少 $lookup")
	return nil
}

func valueOf(d bson.D, key string) interface{} {
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func TestBuildListPipeline_StageOrder(t *testing.T) {
	viewer := primitive.NewObjectID()
	q := &repository.AssignmentQuery{
		Search: "math", HideCompleted: true, Sort: repository.SortDesc,
		Page: 2, Limit: 10, Scope: repository.ScopeForViewer(viewer.Hex()),
	}

	got := stageNames(buildListPipeline(q, &viewer))
	want := []string{"$match", "$lookup", "$addFields", "$project", "$match", "$sort", "$facet"}
	if len(got) != len(want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("第 %d 阶段期望 %s，实际 %s（完整: %v）", i, want[i], got[i], got)
		}
	}
}

func TestBuildListPipeline_MinimalQuery(t *testing.T) {
	q := &repository.AssignmentQuery{Page: 1, Limit: 10}

	got := stageNames(buildListPipeline(q, nil))
	want := []string{"$lookup", "$addFields", "$project", "$sort", "$facet"}
	if len(got) != len(want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
}

func TestBuildListPipeline_SearchIsEscapedAndCaseInsensitive(t *testing.T) {
	q := &repository.AssignmentQuery{Search: "C++", Page: 1, Limit: 10}
	p := buildListPipeline(q, nil)

	match := p[0][0].Value.(bson.D)
	cond := valueOf(match, "nom").(bson.D)
	if valueOf(cond, "$regex") != `C\+\+` {
		t.Errorf("期望正则已转义，实际 %v", valueOf(cond, "$regex"))
	}
	if valueOf(cond, "$options") != "i" {
		t.Errorf("期望大小写不敏感，实际 %v", valueOf(cond, "$options"))
	}
}

func TestBuildListPipeline_ScopedLookupFiltersByViewer(t *testing.T) {
	viewer := primitive.NewObjectID()
	q := &repository.AssignmentQuery{Page: 1, Limit: 10, Scope: repository.ScopeForViewer(viewer.Hex())}

	lookup := lookupOf(t, buildListPipeline(q, &viewer))
	if valueOf(lookup, "localField") != nil {
		t.Error("按用户关联时不应使用 localField 形式")
	}
	sub := valueOf(lookup, "pipeline").(bson.A)
	match := sub[0].(bson.D)[0].Value.(bson.D)
	if valueOf(match, "userId") != viewer {
		t.Errorf("期望按 viewer=%s 过滤，实际 %v", viewer.Hex(), valueOf(match, "userId"))
	}
}

func TestBuildListPipeline_AnyUserLookup(t *testing.T) {
	q := &repository.AssignmentQuery{Page: 1, Limit: 10}

	lookup := lookupOf(t, buildListPipeline(q, nil))
	if valueOf(lookup, "from") != collSubmissions {
		t.Errorf("期望关联 %s，实际 %v", collSubmissions, valueOf(lookup, "from"))
	}
	if valueOf(lookup, "localField") != "_id" || valueOf(lookup, "foreignField") != "assignmentId" {
		t.Errorf("any-user 模式应按 _id = assignmentId 关联，实际 %v", lookup)
	}
}

func TestBuildListPipeline_SortDirectionAndTiebreak(t *testing.T) {
	for _, tc := range []struct {
		order repository.SortOrder
		dir   int
	}{
		{repository.SortAsc, 1},
		{repository.SortDesc, -1},
	} {
		p := buildListPipeline(&repository.AssignmentQuery{Sort: tc.order, Page: 1, Limit: 10}, nil)
		sortStage := p[len(p)-2][0].Value.(bson.D)
		if len(sortStage) != 2 || sortStage[0].Key != "dateDeRendu" || sortStage[1].Key != "_id" {
			t.Fatalf("期望按 dateDeRendu, _id 排序，实际 %v", sortStage)
		}
		if sortStage[0].Value != tc.dir || sortStage[1].Value != tc.dir {
			t.Errorf("期望方向 %d，实际 %v", tc.dir, sortStage)
		}
	}
}

func TestBuildListPipeline_FacetPagination(t *testing.T) {
	p := buildListPipeline(&repository.AssignmentQuery{Page: 3, Limit: 25}, nil)
	facet := p[len(p)-1][0].Value.(bson.D)

	data := valueOf(facet, "data").(bson.A)
	skip := data[0].(bson.D)[0]
	limit := data[1].(bson.D)[0]
	if skip.Key != "$skip" || skip.Value != int64(50) {
		t.Errorf("期望 $skip=50，实际 %v", skip)
	}
	if limit.Key != "$limit" || limit.Value != int64(25) {
		t.Errorf("期望 $limit=25，实际 %v", limit)
	}

	meta := valueOf(facet, "metadata").(bson.A)
	count := meta[0].(bson.D)[0]
	if count.Key != "$count" || count.Value != "total" {
		t.Errorf("期望 $count=total，实际 %v", count)
	}
}

func TestSubmissionFilter(t *testing.T) {
	aid := primitive.NewObjectID()
	if f := submissionFilter(aid, nil); len(f) != 1 {
		t.Errorf("any-user 模式只按作业过滤，实际 %v", f)
	}
	viewer := primitive.NewObjectID()
	f := submissionFilter(aid, &viewer)
	if len(f) != 2 || f[1].Value != viewer {
		t.Errorf("期望附加 userId 条件，实际 %v", f)
	}
}

func TestObjectID_Invalid(t *testing.T) {
	if _, err := objectID("not-an-id"); err == nil {
		t.Error("期望无效 ID 返回错误")
	}
}
