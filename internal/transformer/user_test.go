package transformer

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/Stewz00/go-login-guard/internal/test"
)

func TestParseIncludes(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: nil},
		{raw: "roles", want: []string{"roles"}},
		{raw: "roles, College", want: []string{"roles", "college"}},
		{raw: "roles,permissions", want: []string{"roles"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseIncludes(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for _, name := range tt.want {
				if !got[name] {
					t.Errorf("missing include %q in %v", name, got)
				}
			}
		})
	}
}

func TestTransform(t *testing.T) {
	repo := test.NewMockUserRepository()
	collegeID := int64(7)
	repo.AddCollege(model.College{ID: collegeID, Name: "计算机学院"})
	repo.SetRoles(1, []model.Role{
		{ID: 2, Name: "teacher", DisplayName: "教师", Created: time.Date(2023, 9, 1, 8, 0, 0, 0, time.UTC)},
	})
	tr := NewUserTransformer(repo)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	withCollege := &model.User{
		ID: 1, Name: "alice", Phone: "13800000000", Email: "alice@example.com",
		Gender: true, Nickname: "Al", CollegeID: &collegeID,
		Created: created, Updated: created.Add(time.Hour),
	}
	noCollege := &model.User{ID: 2, Name: "bob", Created: created, Updated: created}

	tests := []struct {
		name     string
		user     *model.User
		includes string
		contains []string
		excludes []string
	}{
		{
			name:     "plain fields",
			user:     withCollege,
			contains: []string{`"id":1`, `"gender":true`, `"gender_str":"女"`, `"created_at":"2024-01-02 03:04:05"`, `"updated_at":"2024-01-02 04:04:05"`},
			excludes: []string{`"roles"`, `"college"`, `password`},
		},
		{
			name:     "male gender",
			user:     noCollege,
			contains: []string{`"gender_str":"男"`},
		},
		{
			name:     "roles include",
			user:     withCollege,
			includes: "roles",
			contains: []string{`"roles":{"data":[{"id":2,"name":"teacher","display_name":"教师","created_at":"2023-09-01 08:00:00"}]}`},
			excludes: []string{`"college"`},
		},
		{
			name:     "empty roles",
			user:     noCollege,
			includes: "roles",
			contains: []string{`"roles":{"data":[]}`},
		},
		{
			name:     "college include",
			user:     withCollege,
			includes: "college",
			contains: []string{`"college":{"data":{"id":7,"name":"计算机学院"}}`},
		},
		{
			name:     "missing college",
			user:     noCollege,
			includes: "college",
			contains: []string{`"college":{"data":null}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := tr.Transform(context.Background(), tt.user, ParseIncludes(tt.includes))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			raw, err := json.Marshal(payload)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			body := string(raw)

			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("payload %s does not contain %s", body, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(body, s) {
					t.Errorf("payload %s should not contain %s", body, s)
				}
			}
		})
	}
}
