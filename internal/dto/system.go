package dto

// StatusResponse GET /api/status
type StatusResponse struct {
	DBConnected bool `json:"dbConnected"`
}

// SeedCounts 初始化写入的记录数
type SeedCounts struct {
	Users       int `json:"users"`
	Assignments int `json:"assignments"`
	Submissions int `json:"submissions"`
}

// SeedResponse POST /api/db/init
type SeedResponse struct {
	Message string     `json:"message"`
	Counts  SeedCounts `json:"counts"`
}
