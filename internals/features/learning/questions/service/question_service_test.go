// file: internals/features/learning/questions/service/question_service_test.go
package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"akademiku_backend/internals/constants"
	database "akademiku_backend/internals/databases"
	"akademiku_backend/internals/features/learning/errs"
	"akademiku_backend/internals/features/learning/questions/dto"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type stubGuard struct{ referenced bool }

func (g stubGuard) QuestionReferenced(tx *gorm.DB, resourceID uuid.UUID) (bool, error) {
	return g.referenced, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func teacher() helperAuth.Caller {
	return helperAuth.Caller{UserID: uuid.New(), Role: constants.RoleTeacher}
}

func singleChoiceReq() *dto.CreateQuestionRequest {
	return &dto.CreateQuestionRequest{
		QuestionType:    "single",
		QuestionStem:    "What number should you call first?",
		QuestionOptions: datatypes.JSON(`[{"key":"a","text":"112"},{"key":"b","text":"a friend"}]`),
		QuestionAnswer:  datatypes.JSON(`"a"`),
	}
}

func TestQuestionLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db, stubGuard{})
	ctx := context.Background()
	tc := teacher()

	v1, err := svc.CreateDraft(ctx, tc, singleChoiceReq())
	require.NoError(t, err)
	assert.Equal(t, 1, v1.QuestionVersionNumber)

	_, err = svc.Publish(ctx, tc, v1.QuestionID)
	require.NoError(t, err)

	cur, err := svc.GetCurrent(ctx, v1.QuestionResourceID)
	require.NoError(t, err)
	assert.True(t, cur.QuestionIsCurrent)

	v2, err := svc.CreateRevision(ctx, tc, v1.QuestionResourceID)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.QuestionVersionNumber)

	// only one open draft
	_, err = svc.CreateRevision(ctx, tc, v1.QuestionResourceID)
	require.True(t, errs.Is(err, errs.CodeInvalidOperation))
}

func TestQuestionShapeValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db, stubGuard{})
	ctx := context.Background()
	tc := teacher()

	// answer key must reference an existing option
	bad := singleChoiceReq()
	bad.QuestionAnswer = datatypes.JSON(`"z"`)
	_, err := svc.CreateDraft(ctx, tc, bad)
	require.True(t, errs.Is(err, errs.CodeInvalidOperation))

	// truefalse answer must be the literal strings
	_, err = svc.CreateDraft(ctx, tc, &dto.CreateQuestionRequest{
		QuestionType:   "truefalse",
		QuestionStem:   "Ice goes directly on a burn.",
		QuestionAnswer: datatypes.JSON(`"maybe"`),
	})
	require.True(t, errs.Is(err, errs.CodeInvalidOperation))

	// short questions need no options or answer key
	short, err := svc.CreateDraft(ctx, tc, &dto.CreateQuestionRequest{
		QuestionType: "short",
		QuestionStem: "Describe the recovery position.",
	})
	require.NoError(t, err)
	assert.True(t, short.IsSubjective())
}

func TestQuestionDeleteGuard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tc := teacher()

	guarded := NewQuestionService(db, stubGuard{referenced: true})
	v1, err := guarded.CreateDraft(ctx, tc, singleChoiceReq())
	require.NoError(t, err)

	err = guarded.Delete(ctx, tc, v1.QuestionResourceID)
	require.True(t, errs.Is(err, errs.CodeResourceReferenced))

	free := NewQuestionService(db, stubGuard{})
	require.NoError(t, free.Delete(ctx, tc, v1.QuestionResourceID))
}
