// file: internals/features/learning/versioning/store_test.go
package versioning

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// noteModel is a minimal versioned table used to exercise the generic store
// without dragging in a real feature package.
type noteModel struct {
	NoteID              uuid.UUID      `gorm:"column:note_id;type:uuid;primaryKey"`
	NoteResourceID      uuid.UUID      `gorm:"column:note_resource_id;type:uuid;not null;index"`
	NoteVersionNumber   int            `gorm:"column:note_version_number;not null;default:1"`
	NoteStatus          ResourceStatus `gorm:"column:note_status;type:varchar(16);not null;default:'draft'"`
	NoteIsCurrent       bool           `gorm:"column:note_is_current;not null;default:false"`
	NotePublishedAt     *time.Time     `gorm:"column:note_published_at"`
	NoteBody            string         `gorm:"column:note_body;type:text"`
}

func (noteModel) TableName() string { return "notes" }

func (m *noteModel) BeforeCreate(tx *gorm.DB) error {
	if m.NoteID == uuid.Nil {
		m.NoteID = uuid.New()
	}
	if m.NoteResourceID == uuid.Nil {
		m.NoteResourceID = uuid.New()
	}
	return nil
}

var noteCols = Cols{
	Table:         "notes",
	ID:            "note_id",
	ResourceID:    "note_resource_id",
	VersionNumber: "note_version_number",
	Status:        "note_status",
	IsCurrent:     "note_is_current",
	PublishedAt:   "note_published_at",
}

func newNoteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&noteModel{}))
	for _, stmt := range []string{
		"CREATE UNIQUE INDEX uq_notes_current ON notes (note_resource_id) WHERE note_is_current",
		"CREATE UNIQUE INDEX uq_notes_open_draft ON notes (note_resource_id) WHERE note_status = 'draft'",
		"CREATE UNIQUE INDEX uq_notes_version ON notes (note_resource_id, note_version_number)",
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func createNote(t *testing.T, db *gorm.DB, body string) *noteModel {
	t.Helper()
	n := &noteModel{NoteVersionNumber: 1, NoteStatus: StatusDraft, NoteBody: body}
	require.NoError(t, db.Create(n).Error)
	return n
}

func TestStorePublishFlipsCurrent(t *testing.T) {
	db := newNoteDB(t)
	store := NewStore[noteModel](db, noteCols)
	ctx := context.Background()

	n := createNote(t, db, "v1")

	_, err := store.GetCurrent(ctx, n.NoteResourceID)
	require.Error(t, err, "no current version before first publish")

	now := time.Now().UTC()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return store.Publish(tx, n.NoteResourceID, n.NoteID, now)
	}))

	cur, err := store.GetCurrent(ctx, n.NoteResourceID)
	require.NoError(t, err)
	require.Equal(t, n.NoteID, cur.NoteID)
	require.Equal(t, StatusPublished, cur.NoteStatus)
	require.True(t, cur.NoteIsCurrent)
	require.NotNil(t, cur.NotePublishedAt)
}

func TestStorePublishSecondVersionLeavesOneCurrent(t *testing.T) {
	db := newNoteDB(t)
	store := NewStore[noteModel](db, noteCols)
	ctx := context.Background()

	v1 := createNote(t, db, "v1")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return store.Publish(tx, v1.NoteResourceID, v1.NoteID, time.Now().UTC())
	}))

	next, err := store.NextVersionNumber(db, v1.NoteResourceID)
	require.NoError(t, err)
	require.Equal(t, 2, next)

	v2 := &noteModel{
		NoteResourceID:    v1.NoteResourceID,
		NoteVersionNumber: next,
		NoteStatus:        StatusDraft,
		NoteBody:          "v2",
	}
	require.NoError(t, db.Create(v2).Error)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return store.Publish(tx, v2.NoteResourceID, v2.NoteID, time.Now().UTC())
	}))

	n, err := store.CurrentCount(ctx, v1.NoteResourceID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n, "exactly one current version after republish")

	cur, err := store.GetCurrent(ctx, v1.NoteResourceID)
	require.NoError(t, err)
	require.Equal(t, 2, cur.NoteVersionNumber)

	// v1 stays readable as history
	old, err := store.GetVersion(ctx, v1.NoteResourceID, 1)
	require.NoError(t, err)
	require.Equal(t, "v1", old.NoteBody)
	require.False(t, old.NoteIsCurrent)
}

func TestStoreOpenDraftIndexRejectsSecondDraft(t *testing.T) {
	db := newNoteDB(t)
	store := NewStore[noteModel](db, noteCols)

	n := createNote(t, db, "v1")

	open, err := store.HasOpenDraft(db, n.NoteResourceID)
	require.NoError(t, err)
	require.True(t, open)

	dup := &noteModel{
		NoteResourceID:    n.NoteResourceID,
		NoteVersionNumber: 2,
		NoteStatus:        StatusDraft,
	}
	err = db.Create(dup).Error
	require.Error(t, err, "partial unique index must reject a second open draft")
}

func TestStoreListVersionsNewestFirst(t *testing.T) {
	db := newNoteDB(t)
	store := NewStore[noteModel](db, noteCols)
	ctx := context.Background()

	n := createNote(t, db, "v1")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return store.Publish(tx, n.NoteResourceID, n.NoteID, time.Now().UTC())
	}))
	v2 := &noteModel{NoteResourceID: n.NoteResourceID, NoteVersionNumber: 2, NoteStatus: StatusDraft}
	require.NoError(t, db.Create(v2).Error)

	rows, err := store.ListVersions(ctx, n.NoteResourceID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 2, rows[0].NoteVersionNumber)
	require.Equal(t, 1, rows[1].NoteVersionNumber)
}
