package services

import (
	"errors"
	"testing"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
)

func TestProcessResultRequiresClosedSession(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	exam := createTestExam(t, db, batch, models.ExamTypeOnline, 60, 100, 40)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	session := startTestSession(t, db, exam, student)

	_, err := ProcessResult(db, session.SessionID)
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("processing an open session: err = %v, want invalid state", err)
	}
}

func TestProcessResultScoresMixedExam(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	exam := createTestExam(t, db, batch, models.ExamTypeOnline, 60, 100, 40)
	mcq, correct, _ := addTestMCQ(t, db, exam, 1, 25)
	essay := addTestEssay(t, db, exam, 2, 75)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	session := startTestSession(t, db, exam, student)
	grader := createTestUser(t, db, models.RoleAcademy)

	if _, err := SaveAnswer(db, session.SessionID, mcq.ID, AnswerPayload{SelectedOptionID: &correct.ID}); err != nil {
		t.Fatalf("SaveAnswer mcq: %v", err)
	}
	essayAnswer, err := SaveAnswer(db, session.SessionID, essay.ID, AnswerPayload{TextAnswer: "an attempt"})
	if err != nil {
		t.Fatalf("SaveAnswer essay: %v", err)
	}
	if _, err := SubmitSession(db, session.SessionID); err != nil {
		t.Fatalf("SubmitSession: %v", err)
	}

	result, err := ProcessResult(db, session.SessionID)
	if err != nil {
		t.Fatalf("ProcessResult: %v", err)
	}

	if result.AutoGradedMarks != 25 {
		t.Errorf("auto marks = %v, want 25", result.AutoGradedMarks)
	}
	if result.ObtainedMarks != 25 {
		t.Errorf("obtained = %v, want 25 before manual grading", result.ObtainedMarks)
	}
	if result.IsPassed {
		t.Error("25/100 against pass mark 40 must not pass")
	}
	if result.TotalQuestions != 2 || result.TotalQuestionsAttempted != 2 {
		t.Errorf("question counts = %d/%d, want 2/2", result.TotalQuestionsAttempted, result.TotalQuestions)
	}
	if result.CorrectAnswers != 1 || result.WrongAnswers != 0 {
		t.Errorf("correct/wrong = %d/%d, want 1/0", result.CorrectAnswers, result.WrongAnswers)
	}
	if !result.IsAutoProcessed {
		t.Error("auto-processed flag not set")
	}
	if result.IsManualGradingComplete {
		t.Error("manual grading cannot be complete with an ungraded essay")
	}

	// Grading the essay lifts the result over the pass mark.
	if _, err := GradeAnswer(db, essayAnswer.ID, 15, "", grader); err != nil {
		t.Fatalf("GradeAnswer: %v", err)
	}

	var final models.ExamResult
	if err := db.Preload("Grade").Where("id = ?", result.ID).First(&final).Error; err != nil {
		t.Fatalf("reload result: %v", err)
	}
	if final.ObtainedMarks != 40 {
		t.Errorf("obtained = %v, want 40", final.ObtainedMarks)
	}
	if !final.IsPassed {
		t.Error("40/100 against pass mark 40 should pass")
	}
	if final.Grade == nil || final.Grade.Grade != "D" {
		t.Errorf("grade = %v, want D", final.Grade)
	}
	if !final.IsManualGradingComplete {
		t.Error("manual grading should be complete")
	}
}

func TestProcessResultIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	exam := createTestExam(t, db, batch, models.ExamTypeOnline, 60, 100, 40)
	mcq, correct, _ := addTestMCQ(t, db, exam, 1, 100)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	session := startTestSession(t, db, exam, student)

	if _, err := SaveAnswer(db, session.SessionID, mcq.ID, AnswerPayload{SelectedOptionID: &correct.ID}); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if _, err := SubmitSession(db, session.SessionID); err != nil {
		t.Fatalf("SubmitSession: %v", err)
	}

	first, err := ProcessResult(db, session.SessionID)
	if err != nil {
		t.Fatalf("first ProcessResult: %v", err)
	}
	second, err := ProcessResult(db, session.SessionID)
	if err != nil {
		t.Fatalf("second ProcessResult: %v", err)
	}

	if first.ID != second.ID {
		t.Error("second processing created a new result")
	}

	var count int64
	db.Model(&models.ExamResult{}).Where("exam_id = ?", exam.ID).Count(&count)
	if count != 1 {
		t.Errorf("result rows = %d, want 1", count)
	}
}

func TestProcessResultAcceptsTimedOutSession(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	exam := createTestExam(t, db, batch, models.ExamTypeOnline, 60, 100, 40)
	mcq, correct, _ := addTestMCQ(t, db, exam, 1, 50)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	session := startTestSession(t, db, exam, student)

	if _, err := SaveAnswer(db, session.SessionID, mcq.ID, AnswerPayload{SelectedOptionID: &correct.ID}); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	spent := 60
	if _, err := RecordActivity(db, session.SessionID, &spent); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	result, err := ProcessResult(db, session.SessionID)
	if err != nil {
		t.Fatalf("ProcessResult after timeout: %v", err)
	}
	if result.AutoGradedMarks != 50 {
		t.Errorf("auto marks = %v, want 50", result.AutoGradedMarks)
	}
}

func TestRecalculateResult(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	exam := createTestExam(t, db, batch, models.ExamTypeOnline, 60, 100, 40)
	mcq, correct, _ := addTestMCQ(t, db, exam, 1, 25)
	essay := addTestEssay(t, db, exam, 2, 75)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	session := startTestSession(t, db, exam, student)
	grader := createTestUser(t, db, models.RoleAcademy)

	if _, err := SaveAnswer(db, session.SessionID, mcq.ID, AnswerPayload{SelectedOptionID: &correct.ID}); err != nil {
		t.Fatalf("SaveAnswer mcq: %v", err)
	}
	essayAnswer, err := SaveAnswer(db, session.SessionID, essay.ID, AnswerPayload{TextAnswer: "draft"})
	if err != nil {
		t.Fatalf("SaveAnswer essay: %v", err)
	}
	if _, err := SubmitSession(db, session.SessionID); err != nil {
		t.Fatalf("SubmitSession: %v", err)
	}
	result, err := ProcessResult(db, session.SessionID)
	if err != nil {
		t.Fatalf("ProcessResult: %v", err)
	}
	if _, err := GradeAnswer(db, essayAnswer.ID, 50, "", grader); err != nil {
		t.Fatalf("GradeAnswer: %v", err)
	}

	recalced, err := RecalculateResult(db, result.ResultID)
	if err != nil {
		t.Fatalf("RecalculateResult: %v", err)
	}
	if recalced.AutoGradedMarks != 25 || recalced.ManualGradedMarks != 50 {
		t.Errorf("sub-totals = %v/%v, want 25/50", recalced.AutoGradedMarks, recalced.ManualGradedMarks)
	}
	if recalced.ObtainedMarks != 75 {
		t.Errorf("obtained = %v, want 75", recalced.ObtainedMarks)
	}
	if !recalced.IsPassed {
		t.Error("75/100 should pass")
	}

	if _, err := RecalculateResult(db, "RES-MISSING"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unknown result: err = %v, want not found", err)
	}
}

func TestRecalculateResultRejectsPaperRow(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	exam := createTestExam(t, db, batch, models.ExamTypePaperBased, 0, 100, 40)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	staff := createTestUser(t, db, models.RoleAcademy)

	result, err := EnterPaperResult(db, exam.ExamID, student.ID, 55, true, "", staff)
	if err != nil {
		t.Fatalf("EnterPaperResult: %v", err)
	}

	if _, err := RecalculateResult(db, result.ResultID); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("recalculating a paper result: err = %v, want invalid state", err)
	}
	if _, err := CompleteManualGrading(db, result.ResultID, staff); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("completing grading on a paper result: err = %v, want invalid state", err)
	}
}

func TestCompleteManualGrading(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	exam := createTestExam(t, db, batch, models.ExamTypeOnline, 60, 100, 40)
	essay := addTestEssay(t, db, exam, 1, 100)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	session := startTestSession(t, db, exam, student)
	grader := createTestUser(t, db, models.RoleAcademy)

	essayAnswer, err := SaveAnswer(db, session.SessionID, essay.ID, AnswerPayload{TextAnswer: "thesis"})
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if _, err := SubmitSession(db, session.SessionID); err != nil {
		t.Fatalf("SubmitSession: %v", err)
	}
	result, err := ProcessResult(db, session.SessionID)
	if err != nil {
		t.Fatalf("ProcessResult: %v", err)
	}

	// Refuses while the essay is ungraded.
	if _, err := CompleteManualGrading(db, result.ResultID, grader); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("completing with ungraded answers: err = %v, want invalid state", err)
	}

	if _, err := GradeAnswer(db, essayAnswer.ID, 80, "", grader); err != nil {
		t.Fatalf("GradeAnswer: %v", err)
	}

	completed, err := CompleteManualGrading(db, result.ResultID, grader)
	if err != nil {
		t.Fatalf("CompleteManualGrading: %v", err)
	}
	if !completed.IsManualGradingComplete {
		t.Error("completion flag not set")
	}
	if completed.ManualGradedMarks != 80 {
		t.Errorf("manual marks = %v, want 80", completed.ManualGradedMarks)
	}
	if completed.LastModifiedByID == nil || *completed.LastModifiedByID != grader.ID {
		t.Error("modifier not stamped")
	}
}

func TestVerifyResultIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	exam := createTestExam(t, db, batch, models.ExamTypePaperBased, 0, 100, 40)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	staff := createTestUser(t, db, models.RoleAcademy)
	admin := createTestUser(t, db, models.RoleAdmin)

	result, err := EnterPaperResult(db, exam.ExamID, student.ID, 60, true, "", staff)
	if err != nil {
		t.Fatalf("EnterPaperResult: %v", err)
	}

	verified, err := VerifyResult(db, result.ResultID, staff)
	if err != nil {
		t.Fatalf("VerifyResult: %v", err)
	}
	if !verified.IsVerified || verified.VerifiedAt == nil {
		t.Fatal("verification not stamped")
	}

	again, err := VerifyResult(db, result.ResultID, admin)
	if err != nil {
		t.Fatalf("second VerifyResult: %v", err)
	}
	if again.VerifiedByID == nil || *again.VerifiedByID != staff.ID {
		t.Error("second verification overwrote the original verifier")
	}
	if again.VerifiedAt == nil {
		t.Error("second verification lost the original stamp")
	}
}

func TestEnterPaperResult(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	paper := createTestExam(t, db, batch, models.ExamTypePaperBased, 0, 100, 40)
	online := createTestExam(t, db, batch, models.ExamTypeOnline, 60, 100, 40)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	staff := createTestUser(t, db, models.RoleAcademy)

	// Online results only come from sessions.
	_, err := EnterPaperResult(db, online.ExamID, student.ID, 50, true, "", staff)
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("paper entry for online exam: err = %v, want invalid state", err)
	}

	// Marks must sit inside [0, total].
	_, err = EnterPaperResult(db, paper.ExamID, student.ID, 150, true, "", staff)
	if !errors.Is(err, apperrors.ErrInvalidAnswer) {
		t.Errorf("overshoot marks: err = %v, want invalid answer", err)
	}

	// Enrollment is required.
	outsider := createTestStudent(t, db)
	_, err = EnterPaperResult(db, paper.ExamID, outsider.ID, 50, true, "", staff)
	if !errors.Is(err, apperrors.ErrNotEligible) {
		t.Errorf("unenrolled student: err = %v, want not eligible", err)
	}

	result, err := EnterPaperResult(db, paper.ExamID, student.ID, 72, true, "noted", staff)
	if err != nil {
		t.Fatalf("EnterPaperResult: %v", err)
	}
	if result.ObtainedMarks != 72 {
		t.Errorf("obtained = %v, want 72", result.ObtainedMarks)
	}
	if !result.IsPassed {
		t.Error("72/100 should pass")
	}
	if result.Grade == nil || result.Grade.Grade != "A-" {
		t.Errorf("grade = %v, want A-", result.Grade)
	}
	if result.EnteredByID == nil || *result.EnteredByID != staff.ID {
		t.Error("entering staff not stamped")
	}
	if result.SessionID != nil {
		t.Error("paper result must not reference a session")
	}

	// One result per (exam, student).
	_, err = EnterPaperResult(db, paper.ExamID, student.ID, 80, true, "", staff)
	if !errors.Is(err, apperrors.ErrDuplicateConstraint) {
		t.Errorf("duplicate entry: err = %v, want duplicate", err)
	}
}

func TestEnterPaperResultAbsentStudent(t *testing.T) {
	db := newTestDB(t)
	batch := createTestBatch(t, db)
	paper := createTestExam(t, db, batch, models.ExamTypePaperBased, 0, 100, 40)
	student := createTestStudent(t, db)
	enrollTestStudent(t, db, student, batch)
	staff := createTestUser(t, db, models.RoleAcademy)

	result, err := EnterPaperResult(db, paper.ExamID, student.ID, 0, false, "absent", staff)
	if err != nil {
		t.Fatalf("EnterPaperResult: %v", err)
	}
	if result.WasPresent {
		t.Error("absence not recorded")
	}
	if result.IsPassed {
		t.Error("0 marks must not pass")
	}
	if result.Grade == nil || result.Grade.Grade != "F" {
		t.Errorf("grade = %v, want F", result.Grade)
	}
}
