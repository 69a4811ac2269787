package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"homework-tracker/internal/dto"
	"homework-tracker/internal/model"
	"homework-tracker/internal/repository"
	"homework-tracker/pkg/metrics"
)

// 演示数据规模
const (
	seedUserCount       = 20
	seedAssignmentCount = 50
	seedPassword        = "password"
)

var (
	seedSubjects = []string{"Maths", "Français", "Histoire", "Anglais", "Physique", "SVT", "Philo", "Info", "Art", "Musique"}
	seedActions  = []string{"Devoir de", "Projet de", "Exposé sur", "Exercices de", "Révision de"}
)

// SeedService 演示数据初始化
type SeedService interface {
	// Seed 清空三张表后写入演示数据，返回各表写入条数
	Seed(ctx context.Context) (*dto.SeedCounts, error)
}

type seedService struct {
	repo       *repository.Repository
	bcryptCost int
	logger     *zap.Logger

	mu  sync.Mutex // 保护 rng
	rng *rand.Rand
	now func() time.Time
}

// NewSeedService 创建 SeedService 实例
func NewSeedService(repo *repository.Repository, bcryptCost int, logger *zap.Logger) SeedService {
	return newSeedService(repo, bcryptCost, logger, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

func newSeedService(repo *repository.Repository, bcryptCost int, logger *zap.Logger, rng *rand.Rand, now func() time.Time) *seedService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &seedService{repo: repo, bcryptCost: bcryptCost, logger: logger, rng: rng, now: now}
}

func (s *seedService) Seed(ctx context.Context) (*dto.SeedCounts, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var counts dto.SeedCounts
	err = s.repo.Transaction(ctx, func(ctx context.Context, tx *repository.Repository) error {
		// 1. 清空（先子表后父表）
		if err := tx.Submission.DeleteAll(ctx); err != nil {
			return fmt.Errorf("清空 submissions 失败: %w", err)
		}
		if err := tx.Assignment.DeleteAll(ctx); err != nil {
			return fmt.Errorf("清空 assignments 失败: %w", err)
		}
		if err := tx.User.DeleteAll(ctx); err != nil {
			return fmt.Errorf("清空 users 失败: %w", err)
		}

		// 2. 用户
		users := s.buildUsers(string(hash))
		if err := tx.User.BatchCreate(ctx, users); err != nil {
			return fmt.Errorf("写入用户失败: %w", err)
		}

		// 3. 作业（随机所有者，约一半由所有者完成）
		assignments, completed := s.buildAssignments(users)
		if err := tx.Assignment.BatchCreate(ctx, assignments); err != nil {
			return fmt.Errorf("写入作业失败: %w", err)
		}

		// 4. 提交记录
		subs := make([]model.Submission, 0, len(completed))
		for _, i := range completed {
			subs = append(subs, model.Submission{
				AssignmentID: assignments[i].AssignmentID,
				UserID:       *assignments[i].OwnerID,
				Date:         s.now(),
			})
		}
		if err := tx.Submission.BatchCreate(ctx, subs); err != nil {
			return fmt.Errorf("写入提交记录失败: %w", err)
		}

		counts = dto.SeedCounts{Users: len(users), Assignments: len(assignments), Submissions: len(subs)}
		return nil
	})
	metrics.ObserveOperation("seed", err)
	if err != nil {
		s.logger.Error("初始化演示数据失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("演示数据初始化完成",
		zap.Int("users", counts.Users),
		zap.Int("assignments", counts.Assignments),
		zap.Int("submissions", counts.Submissions),
	)
	return &counts, nil
}

func (s *seedService) buildUsers(passwordHash string) []model.User {
	users := []model.User{
		{Username: "admin", PasswordHash: passwordHash, Name: "Admin User", IsAdmin: true},
		{Username: "user", PasswordHash: passwordHash, Name: "Normal User"},
	}
	for i := 3; i <= seedUserCount; i++ {
		users = append(users, model.User{
			Username:     fmt.Sprintf("user%d", i),
			PasswordHash: passwordHash,
			Name:         fmt.Sprintf("User %d", i),
		})
	}
	return users
}

// buildAssignments 返回作业列表以及需要标记完成的下标
func (s *seedService) buildAssignments(users []model.User) ([]model.Assignment, []int) {
	today := s.now()
	assignments := make([]model.Assignment, 0, seedAssignmentCount)
	var completed []int

	for i := 1; i <= seedAssignmentCount; i++ {
		subject := seedSubjects[s.rng.Intn(len(seedSubjects))]
		action := seedActions[s.rng.Intn(len(seedActions))]
		owner := users[s.rng.Intn(len(users))].UserID
		// [-30, +60) 天
		due := today.AddDate(0, 0, s.rng.Intn(90)-30)

		assignments = append(assignments, model.Assignment{
			Title:       fmt.Sprintf("%s %s #%d", action, subject, i),
			DueDate:     due,
			Description: fmt.Sprintf("Description détaillée pour le devoir de %s numéro %d.", subject, i),
			OwnerID:     &owner,
		})
		if s.rng.Float64() < 0.5 {
			completed = append(completed, i-1)
		}
	}
	return assignments, completed
}
