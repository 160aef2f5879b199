package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cefet-timetable/backend/internal/model"
	"cefet-timetable/backend/internal/repository"
)

// ── Mock TimetableResultRepository ──

type mockResultRepo struct {
	mu      sync.Mutex
	results map[string]*model.TimetableResult
	clock   time.Time
}

func newMockResultRepo() *mockResultRepo {
	return &mockResultRepo{
		results: make(map[string]*model.TimetableResult),
		clock:   time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockResultRepo) Create(_ context.Context, r *model.TimetableResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ResultID == "" {
		r.ResultID = uuid.NewString()
	}
	// 每条记录间隔一分钟，便于校验排序
	m.clock = m.clock.Add(time.Minute)
	r.CreatedAt = m.clock
	r.UpdatedAt = m.clock
	m.results[r.ResultID] = r
	return nil
}

func (m *mockResultRepo) GetByID(_ context.Context, id string) (*model.TimetableResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.results[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResultRepo) List(_ context.Context, offset, limit int) ([]model.TimetableResult, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.TimetableResult, 0, len(m.results))
	for _, r := range m.results {
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.TimetableResult{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockResultRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.results, id)
	return nil
}

func newTestRepo() (*repository.Repository, *mockResultRepo) {
	results := newMockResultRepo()
	return &repository.Repository{TimetableResult: results}, results
}

// seedResult 直接写入一条结果快照
func seedResult(repo *mockResultRepo, timetableJSON, inputJSON string) *model.TimetableResult {
	r := &model.TimetableResult{
		Source:    model.SourceImported,
		Timetable: []byte(timetableJSON),
	}
	if inputJSON != "" {
		r.InputData = []byte(inputJSON)
	}
	_ = repo.Create(context.Background(), r)
	return r
}

// ── Mock SchedulerClient ──

type mockScheduler struct {
	response string
	err      error
	calls    int
	lastBody []byte
}

func (m *mockScheduler) Generate(_ context.Context, input []byte) (json.RawMessage, error) {
	m.calls++
	m.lastBody = input
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(m.response), nil
}

// ── 测试数据 ──

const sampleTimetable = `{
	"Monday": [
		{"time": "08h00-08h50", "course": "Calculus I", "teacher": "A. Smith", "room": "101", "semester": 1},
		{"time": "10h00-10h50", "disciplina": "Física I", "professor": "B. Souza", "sala": "202", "periodo": 1}
	],
	"Tuesday": [
		{"time": "08h00-08h50", "course": "Algebra", "teacher": "C. Lima", "semester": 2}
	],
	"Wednesday": []
}`

const sampleInput = `{
	"semesters": ["1", "2"],
	"class_days": ["Monday", "Tuesday"],
	"time_slots": ["08h00-08h50", "10h00-10h50"],
	"courses": [
		{"code": "MAT1", "workload": 60, "semester": "1", "professor": "A. Smith", "prerequisites": [], "failure_rate": 0.2, "type": "mandatory"},
		{"code": "FIS1", "workload": 60, "semester": "1", "professor": "B. Souza", "prerequisites": [], "failure_rate": 0.1, "type": "mandatory"},
		{"code": "ALG", "workload": 30, "semester": "2", "professor": "C. Lima", "prerequisites": ["MAT1"], "failure_rate": 0, "type": "elective"}
	],
	"professor_preferences": [
		{"professor": "A. Smith", "preferred_days": ["Monday", "Wednesday"]}
	]
}`
