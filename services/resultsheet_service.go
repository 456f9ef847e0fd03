package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"gorm.io/gorm"
)

type ResultSheetRow struct {
	Order        int
	QuestionText string
	MaxMarks     float64
	Awarded      string
	Status       string
}

type ResultSheet struct {
	StudentName   string
	SchoolName    string
	AcademyName   string
	CourseName    string
	BatchName     string
	ExamTitle     string
	Subject       string
	ExamDate      string
	ExamType      string
	ResultID      string
	ObtainedMarks float64
	TotalMarks    float64
	Percentage    string
	GradeLabel    string
	Passed        bool
	IsOnline      bool
	Rows          []ResultSheetRow
	IsVerified    bool
	GeneratedAt   string
}

// BuildResultSheet gathers everything the printed sheet shows: student,
// tenant chain, marks, grade and, for online results, the per-question
// breakdown.
func BuildResultSheet(db *gorm.DB, resultID string) (*ResultSheet, error) {
	var result models.ExamResult
	err := db.Preload("Exam").Preload("Exam.Batch").Preload("Grade").
		Preload("Student").Preload("Student.User").
		Where("result_id = ?", resultID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("result %s not found", resultID)
	}
	if err != nil {
		return nil, err
	}

	var course models.Course
	if err := db.Where("id = ?", result.Exam.Batch.CourseID).First(&course).Error; err != nil {
		return nil, err
	}
	var academy models.Academy
	if err := db.Where("id = ?", course.AcademyID).First(&academy).Error; err != nil {
		return nil, err
	}

	gradeLabel := "-"
	if result.Grade != nil {
		gradeLabel = result.Grade.Grade
	}

	data := &ResultSheet{
		StudentName:   result.Student.User.FullName,
		SchoolName:    result.Student.SchoolName,
		AcademyName:   academy.Name,
		CourseName:    course.Name,
		BatchName:     result.Exam.Batch.Name,
		ExamTitle:     result.Exam.Title,
		Subject:       result.Exam.Subject,
		ExamDate:      result.Exam.ExamDate.Format("January 2, 2006"),
		ExamType:      result.Exam.ExamType,
		ResultID:      result.ResultID,
		ObtainedMarks: result.ObtainedMarks,
		TotalMarks:    result.Exam.TotalMarks,
		Percentage:    fmt.Sprintf("%.1f%%", result.Percentage(result.Exam.TotalMarks)),
		GradeLabel:    gradeLabel,
		Passed:        result.IsPassed,
		IsOnline:      result.IsOnline(),
		IsVerified:    result.IsVerified,
		GeneratedAt:   time.Now().Format("January 2, 2006 15:04"),
	}

	if result.IsOnline() {
		var answers []models.StudentAnswer
		err := db.Preload("Question").
			Joins("JOIN questions ON questions.id = student_answers.question_id").
			Where("student_answers.session_id = ?", *result.SessionID).
			Order("questions.question_order").
			Find(&answers).Error
		if err != nil {
			return nil, err
		}

		for _, answer := range answers {
			row := ResultSheetRow{
				Order:        answer.Question.QuestionOrder,
				QuestionText: answer.Question.QuestionText,
				MaxMarks:     answer.Question.Marks,
			}
			if answer.AwardedMarks != nil {
				row.Awarded = fmt.Sprintf("%.2f", *answer.AwardedMarks)
			} else {
				row.Awarded = "-"
			}
			switch {
			case !answer.IsGraded:
				row.Status = "Pending"
			case answer.IsCorrect != nil && *answer.IsCorrect:
				row.Status = "Correct"
			case answer.IsCorrect != nil:
				row.Status = "Wrong"
			default:
				row.Status = "Graded"
			}
			data.Rows = append(data.Rows, row)
		}
	}

	return data, nil
}

func renderResultSheetHTML(data *ResultSheet) (string, error) {
	tmpl, err := template.ParseFiles("templates/result_sheet.html")
	if err != nil {
		return "", err
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func printHTMLToPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

// ResultSheetPDF renders the result sheet and prints it to PDF bytes
// through a headless browser.
func ResultSheetPDF(ctx context.Context, db *gorm.DB, resultID string) ([]byte, error) {
	data, err := BuildResultSheet(db, resultID)
	if err != nil {
		return nil, err
	}

	htmlContent, err := renderResultSheetHTML(data)
	if err != nil {
		return nil, err
	}

	return printHTMLToPDF(ctx, htmlContent)
}
