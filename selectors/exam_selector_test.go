package selectors

import (
	"testing"
	"time"

	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
)

func examIDs(exams []models.Exam) map[uuid.UUID]bool {
	ids := make(map[uuid.UUID]bool, len(exams))
	for _, e := range exams {
		ids[e.ID] = true
	}
	return ids
}

func TestListExamsAdminSeesAllTenants(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	tenantB := createTenant(t, db)
	examA := createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))
	examB := createExam(t, db, tenantB.batch, false, time.Now().Add(time.Hour))

	exams, info, err := ListExams(db, adminActor(t, db), ExamFilters{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}

	ids := examIDs(exams)
	if !ids[examA.ID] || !ids[examB.ID] {
		t.Error("admin should see exams from every tenant")
	}
	if info.TotalItems != 2 {
		t.Errorf("total items = %d, want 2", info.TotalItems)
	}
}

func TestListExamsAcademySeesOnlyItsTenant(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	tenantB := createTenant(t, db)
	mine := createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))
	foreign := createExam(t, db, tenantB.batch, true, time.Now().Add(time.Hour))
	archived := createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))
	db.Model(archived).Update("is_active", false)

	exams, _, err := ListExams(db, tenantA.actor, ExamFilters{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}

	ids := examIDs(exams)
	if !ids[mine.ID] {
		t.Error("academy cannot see its own exam")
	}
	if ids[foreign.ID] {
		t.Error("academy sees another tenant's exam")
	}
	if ids[archived.ID] {
		t.Error("academy sees an archived exam")
	}
}

func TestListExamsStudentScope(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	tenantB := createTenant(t, db)
	student, actor := studentActor(t, db)
	enrollStudent(t, db, student, tenantA.batch)

	visible := createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))
	unpublished := createExam(t, db, tenantA.batch, false, time.Now().Add(time.Hour))
	otherBatch := createExam(t, db, tenantB.batch, true, time.Now().Add(time.Hour))

	exams, _, err := ListExams(db, actor, ExamFilters{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}

	ids := examIDs(exams)
	if !ids[visible.ID] {
		t.Error("student cannot see a published exam of their batch")
	}
	if ids[unpublished.ID] {
		t.Error("student sees an unpublished exam")
	}
	if ids[otherBatch.ID] {
		t.Error("student sees an exam of a batch they are not enrolled in")
	}
}

func TestListExamsStudentScopeFollowsEnrollment(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	student, actor := studentActor(t, db)
	enrollment := enrollStudent(t, db, student, tenantA.batch)
	createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))

	exams, _, err := ListExams(db, actor, ExamFilters{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(exams) != 1 {
		t.Fatalf("enrolled student sees %d exams, want 1", len(exams))
	}

	// Dropping the enrollment hides the batch again.
	db.Model(enrollment).Update("is_active", false)
	exams, _, err = ListExams(db, actor, ExamFilters{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams after drop: %v", err)
	}
	if len(exams) != 0 {
		t.Errorf("dropped student still sees %d exams", len(exams))
	}
}

func TestListExamsFailsClosed(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))

	// Academy role without an academy profile resolves to nothing.
	orphan := &models.Actor{User: createUser(t, db, models.RoleAcademy), Role: models.RoleAcademy}
	exams, info, err := ListExams(db, orphan, ExamFilters{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(exams) != 0 || info.TotalItems != 0 {
		t.Error("profileless academy must see an empty page")
	}

	other := &models.Actor{User: createUser(t, db, models.RoleAcademy), Role: models.RoleOther}
	exams, _, err = ListExams(db, other, ExamFilters{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(exams) != 0 {
		t.Error("unknown role must see an empty page")
	}
}

func TestListExamsPaginationCap(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	for i := 0; i < 25; i++ {
		createExam(t, db, tenantA.batch, true, time.Now().Add(time.Duration(i+1)*time.Hour))
	}
	admin := adminActor(t, db)

	exams, info, err := ListExams(db, admin, ExamFilters{Page: 1, PageSize: 50})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}

	if len(exams) != MaxPageSize {
		t.Errorf("page length = %d, want cap %d", len(exams), MaxPageSize)
	}
	if info.PageSize != MaxPageSize {
		t.Errorf("page size = %d, want clamped to %d", info.PageSize, MaxPageSize)
	}
	if info.TotalItems != 25 || info.TotalPages != 2 {
		t.Errorf("totals = %d items / %d pages, want 25/2", info.TotalItems, info.TotalPages)
	}
	if !info.HasNext || info.NextPage == nil || *info.NextPage != 2 {
		t.Error("first page should point at page 2")
	}

	rest, info, err := ListExams(db, admin, ExamFilters{Page: 2, PageSize: 50})
	if err != nil {
		t.Fatalf("ListExams page 2: %v", err)
	}
	if len(rest) != 5 {
		t.Errorf("second page length = %d, want 5", len(rest))
	}
	if !info.HasPrevious || info.HasNext {
		t.Error("second page should be the last")
	}

	// Pages past the end land on the last page instead of erroring.
	tail, info, err := ListExams(db, admin, ExamFilters{Page: 99, PageSize: 50})
	if err != nil {
		t.Fatalf("ListExams page 99: %v", err)
	}
	if info.Page != 2 || len(tail) != 5 {
		t.Errorf("overflow page landed on %d with %d rows, want 2 with 5", info.Page, len(tail))
	}
}

func TestListExamsOrdering(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	earliest := createExam(t, db, tenantA.batch, true, time.Now().Add(1*time.Hour))
	latest := createExam(t, db, tenantA.batch, true, time.Now().Add(72*time.Hour))
	createExam(t, db, tenantA.batch, true, time.Now().Add(24*time.Hour))
	admin := adminActor(t, db)

	// Unknown orderings collapse to the soonest-first default.
	exams, _, err := ListExams(db, admin, ExamFilters{Ordering: "password; DROP TABLE exams", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if exams[0].ID != earliest.ID {
		t.Error("default ordering should put the earliest exam first")
	}

	exams, _, err = ListExams(db, admin, ExamFilters{Ordering: "-exam_date", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams desc: %v", err)
	}
	if exams[0].ID != latest.ID {
		t.Error("-exam_date should put the latest exam first")
	}
}

func TestListExamsFilters(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	published := createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))
	draft := createExam(t, db, tenantA.batch, false, time.Now().Add(time.Hour))
	db.Model(published).Update("title", "Algebra Midterm")
	admin := adminActor(t, db)

	isPublished := true
	exams, _, err := ListExams(db, admin, ExamFilters{IsPublished: &isPublished, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	ids := examIDs(exams)
	if !ids[published.ID] || ids[draft.ID] {
		t.Error("is_published filter not applied")
	}

	exams, _, err = ListExams(db, admin, ExamFilters{Search: "algebra", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams search: %v", err)
	}
	if len(exams) != 1 || exams[0].ID != published.ID {
		t.Error("case-insensitive title search not applied")
	}

	exams, _, err = ListExams(db, admin, ExamFilters{BatchID: &tenantA.batch.ID, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListExams batch filter: %v", err)
	}
	if len(exams) != 2 {
		t.Errorf("batch filter returned %d exams, want 2", len(exams))
	}
}

func TestCanManageExam(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	tenantB := createTenant(t, db)
	exam := createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))
	_, student := studentActor(t, db)

	tests := []struct {
		name  string
		actor *models.Actor
		want  bool
	}{
		{"admin", adminActor(t, db), true},
		{"owning academy", tenantA.actor, true},
		{"other academy", tenantB.actor, false},
		{"profileless academy", &models.Actor{Role: models.RoleAcademy}, false},
		{"student", student, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanManageExam(db, tt.actor, exam)
			if err != nil {
				t.Fatalf("CanManageExam: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanManageExam = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetExamByPublicID(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	exam := createExam(t, db, tenantA.batch, true, time.Now().Add(time.Hour))

	found, err := GetExamByPublicID(db, exam.ExamID)
	if err != nil {
		t.Fatalf("GetExamByPublicID: %v", err)
	}
	if found == nil || found.ID != exam.ID {
		t.Error("exam not resolved by public id")
	}
	if found.Batch.ID != tenantA.batch.ID {
		t.Error("batch not preloaded")
	}

	missing, err := GetExamByPublicID(db, "EXM-NOPE")
	if err != nil {
		t.Fatalf("GetExamByPublicID missing: %v", err)
	}
	if missing != nil {
		t.Error("missing exam should resolve to nil")
	}
}

func TestUpcomingExams(t *testing.T) {
	db := newTestDB(t)
	tenantA := createTenant(t, db)
	soon := createExam(t, db, tenantA.batch, true, time.Now().Add(2*time.Hour))
	createExam(t, db, tenantA.batch, true, time.Now().Add(30*time.Hour))
	createExam(t, db, tenantA.batch, true, time.Now().Add(-time.Hour))

	exams, err := UpcomingExams(db, 24*time.Hour)
	if err != nil {
		t.Fatalf("UpcomingExams: %v", err)
	}
	if len(exams) != 1 || exams[0].ID != soon.ID {
		t.Errorf("window returned %d exams, want only the one inside 24h", len(exams))
	}
}
