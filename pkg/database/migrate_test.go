package database

import "testing"

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion 失败: %v", err)
	}
	if v != 1 {
		t.Errorf("期望最新版本=1，实际=%d", v)
	}
}

func TestMigrationStatus_UpToDate(t *testing.T) {
	cases := []struct {
		status MigrationStatus
		want   bool
	}{
		{MigrationStatus{Version: 1, Target: 1}, true},
		{MigrationStatus{Version: 0, Target: 1}, false},
		{MigrationStatus{Version: 1, Target: 1, Dirty: true}, false},
	}
	for _, c := range cases {
		if got := c.status.UpToDate(); got != c.want {
			t.Errorf("%+v: 期望 %v，实际 %v", c.status, c.want, got)
		}
	}
}
