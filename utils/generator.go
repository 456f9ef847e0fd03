package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Public IDs are human-readable references exposed alongside the UUID
// primary keys, in the shape PREFIX + year + uppercase hex from a v4 UUID,
// e.g. EXM2026A1B2C3D4E5F6A7B8.

const (
	prefixExam         = "EXM"
	prefixResult       = "RES"
	prefixQuestion     = "QST"
	prefixAnswer       = "ANS"
	prefixSession      = "ESS"
	prefixQuestionBank = "QBK"
	prefixCategory     = "CAT"
)

func publicID(prefix string, hexLen int) string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("%s%d%s", prefix, time.Now().Year(), hex[:hexLen])
}

func GenerateExamID() string         { return publicID(prefixExam, 16) }
func GenerateResultID() string       { return publicID(prefixResult, 16) }
func GenerateQuestionID() string     { return publicID(prefixQuestion, 16) }
func GenerateAnswerID() string       { return publicID(prefixAnswer, 16) }
func GenerateSessionID() string      { return publicID(prefixSession, 16) }
func GenerateQuestionBankID() string { return publicID(prefixQuestionBank, 16) }
func GenerateCategoryID() string     { return publicID(prefixCategory, 6) }
