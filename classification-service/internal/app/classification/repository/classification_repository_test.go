package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"demeter/classification-service/internal/app/classification/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ClassificationRepositoryTestSuite тестовый suite для PostgreSQL repository
type ClassificationRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  ClassificationRepository
	sqlDB *sql.DB
}

func TestClassificationRepositorySuite(t *testing.T) {
	suite.Run(t, new(ClassificationRepositoryTestSuite))
}

func (s *ClassificationRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewClassificationRepository(s.db)
}

func (s *ClassificationRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

// ===================== Create Tests =====================

func (s *ClassificationRepositoryTestSuite) TestCreate_Success() {
	ctx := context.Background()
	userID := uuid.New()
	generatedID := uuid.New()

	classification := &entity.Classification{
		UserID:          userID,
		ImagePath:       "/uploads/classifications/user_" + userID.String() + "/20240115_103000_a1b2c3d4.jpg",
		GrainType:       "Soja",
		ConfidenceScore: 0.9134,
		ExtraData:       entity.JSONMap{"mock": false},
	}

	// ID генерируется базой, поэтому INSERT выполняется с RETURNING
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "classifications"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(generatedID.String()))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Create(ctx, classification)

	// Assert
	s.NoError(err)
	s.Equal(generatedID, classification.ID)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestCreate_DBError() {
	ctx := context.Background()

	classification := &entity.Classification{
		UserID:    uuid.New(),
		ImagePath: "/uploads/classifications/user_x/img.jpg",
		GrainType: "Milho",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "classifications"`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	err := s.repo.Create(ctx, classification)

	// Assert
	s.Error(err)
	s.ErrorIs(err, sql.ErrConnDone)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== GetByID Tests =====================

func (s *ClassificationRepositoryTestSuite) TestGetByID_Success() {
	ctx := context.Background()
	classificationID := uuid.New()
	userID := uuid.New()
	createdAt := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "image_path", "grain_type", "confidence_score", "extra_data", "notes", "is_deleted", "created_at", "updated_at"}).
		AddRow(classificationID.String(), userID.String(), "/uploads/classifications/user_1/img.jpg", "Soja", 0.9134, []byte(`{"mock": true}`), "primeira amostra", false, createdAt, createdAt)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classifications" WHERE id = $1`)).
		WithArgs(classificationID, 1).
		WillReturnRows(rows)

	// Act
	classification, err := s.repo.GetByID(ctx, classificationID)

	// Assert
	s.NoError(err)
	s.NotNil(classification)
	s.Equal(classificationID, classification.ID)
	s.Equal(userID, classification.UserID)
	s.Equal("Soja", classification.GrainType)
	s.Equal(0.9134, classification.ConfidenceScore)
	s.Equal("primeira amostra", classification.Notes)
	s.Equal(true, classification.ExtraData["mock"])
	s.False(classification.IsDeleted)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestGetByID_NotFound() {
	ctx := context.Background()
	classificationID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classifications" WHERE id = $1`)).
		WithArgs(classificationID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	classification, err := s.repo.GetByID(ctx, classificationID)

	// Assert
	s.Error(err)
	s.Nil(classification)
	s.ErrorIs(err, ErrClassificationNotFound)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestGetByID_DBError() {
	ctx := context.Background()
	classificationID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classifications" WHERE id = $1`)).
		WithArgs(classificationID, 1).
		WillReturnError(sql.ErrConnDone)

	// Act
	classification, err := s.repo.GetByID(ctx, classificationID)

	// Assert
	s.Error(err)
	s.Nil(classification)
	s.ErrorIs(err, sql.ErrConnDone)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== ListByUser Tests =====================

func (s *ClassificationRepositoryTestSuite) TestListByUser_Success() {
	ctx := context.Background()
	userID := uuid.New()
	firstID := uuid.New()
	secondID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "grain_type", "confidence_score", "is_deleted", "created_at"}).
		AddRow(firstID.String(), userID.String(), "Soja", 0.91, false, now).
		AddRow(secondID.String(), userID.String(), "Milho", 0.87, false, now.Add(-time.Hour))

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classifications" WHERE user_id = $1 AND is_deleted = $2 ORDER BY created_at DESC LIMIT $3`)).
		WithArgs(userID, false, 100).
		WillReturnRows(rows)

	// Act
	classifications, err := s.repo.ListByUser(ctx, userID, "", 100, 0)

	// Assert
	s.NoError(err)
	s.Len(classifications, 2)
	s.Equal(firstID, classifications[0].ID)
	s.Equal(secondID, classifications[1].ID)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestListByUser_GrainTypeFilter() {
	ctx := context.Background()
	userID := uuid.New()
	classificationID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "user_id", "grain_type", "confidence_score", "is_deleted", "created_at"}).
		AddRow(classificationID.String(), userID.String(), "Soja", 0.93, false, time.Now())

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classifications" WHERE user_id = $1 AND is_deleted = $2 AND grain_type = $3 ORDER BY created_at DESC LIMIT $4 OFFSET $5`)).
		WithArgs(userID, false, "Soja", 50, 20).
		WillReturnRows(rows)

	// Act
	classifications, err := s.repo.ListByUser(ctx, userID, "Soja", 50, 20)

	// Assert
	s.NoError(err)
	s.Len(classifications, 1)
	s.Equal("Soja", classifications[0].GrainType)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestListByUser_DBError() {
	ctx := context.Background()
	userID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classifications" WHERE user_id = $1 AND is_deleted = $2`)).
		WithArgs(userID, false, 100).
		WillReturnError(sql.ErrConnDone)

	// Act
	classifications, err := s.repo.ListByUser(ctx, userID, "", 100, 0)

	// Assert
	s.Error(err)
	s.Nil(classifications)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== CountByUser Tests =====================

func (s *ClassificationRepositoryTestSuite) TestCountByUser_Success() {
	ctx := context.Background()
	userID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "classifications" WHERE user_id = $1 AND is_deleted = $2`)).
		WithArgs(userID, false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	// Act
	total, err := s.repo.CountByUser(ctx, userID, "")

	// Assert
	s.NoError(err)
	s.Equal(int64(7), total)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestCountByUser_GrainTypeFilter() {
	ctx := context.Background()
	userID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "classifications" WHERE user_id = $1 AND is_deleted = $2 AND grain_type = $3`)).
		WithArgs(userID, false, "Trigo").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	// Act
	total, err := s.repo.CountByUser(ctx, userID, "Trigo")

	// Assert
	s.NoError(err)
	s.Equal(int64(2), total)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== ListAll Tests =====================

func (s *ClassificationRepositoryTestSuite) TestListAll_DefaultFilters() {
	ctx := context.Background()
	classificationID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "user_id", "grain_type", "confidence_score", "is_deleted", "created_at"}).
		AddRow(classificationID.String(), uuid.New().String(), "Soja", 0.91, false, time.Now())

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classifications" WHERE is_deleted = $1 ORDER BY created_at DESC LIMIT $2`)).
		WithArgs(false, 100).
		WillReturnRows(rows)

	// Act
	classifications, err := s.repo.ListAll(ctx, nil, "", false, 100, 0)

	// Assert
	s.NoError(err)
	s.Len(classifications, 1)
	s.Equal(classificationID, classifications[0].ID)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestListAll_AllFilters() {
	ctx := context.Background()
	userID := uuid.New()
	classificationID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "user_id", "grain_type", "confidence_score", "is_deleted", "created_at"}).
		AddRow(classificationID.String(), userID.String(), "Soja", 0.88, true, time.Now())

	// include_deleted=true убирает фильтр is_deleted из запроса
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classifications" WHERE user_id = $1 AND grain_type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`)).
		WithArgs(userID, "Soja", 50, 10).
		WillReturnRows(rows)

	// Act
	classifications, err := s.repo.ListAll(ctx, &userID, "Soja", true, 50, 10)

	// Assert
	s.NoError(err)
	s.Len(classifications, 1)
	s.True(classifications[0].IsDeleted)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestCountAll_IncludeDeleted() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "classifications"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	// Act
	total, err := s.repo.CountAll(ctx, nil, "", true)

	// Assert
	s.NoError(err)
	s.Equal(int64(42), total)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Update Tests =====================

func (s *ClassificationRepositoryTestSuite) TestUpdate_Success() {
	ctx := context.Background()
	classificationID := uuid.New()

	classification := &entity.Classification{
		ID:    classificationID,
		Notes: "Lote 42 aprovado",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "classifications" SET`)).
		WithArgs("Lote 42 aprovado", sqlmock.AnyArg(), classificationID, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Update(ctx, classification)

	// Assert
	s.NoError(err)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestUpdate_NotFound() {
	ctx := context.Background()

	classification := &entity.Classification{
		ID:    uuid.New(),
		Notes: "sem registro",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "classifications" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Update(ctx, classification)

	// Assert
	s.Error(err)
	s.ErrorIs(err, ErrClassificationNotFound)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestUpdate_DBError() {
	ctx := context.Background()

	classification := &entity.Classification{
		ID:    uuid.New(),
		Notes: "erro de conexao",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "classifications" SET`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	err := s.repo.Update(ctx, classification)

	// Assert
	s.Error(err)
	s.ErrorIs(err, sql.ErrConnDone)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== SoftDelete Tests =====================

func (s *ClassificationRepositoryTestSuite) TestSoftDelete_Success() {
	ctx := context.Background()
	classificationID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "classifications" SET`)).
		WithArgs(sqlmock.AnyArg(), true, sqlmock.AnyArg(), classificationID, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.SoftDelete(ctx, classificationID)

	// Assert
	s.NoError(err)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestSoftDelete_AlreadyDeleted() {
	ctx := context.Background()
	classificationID := uuid.New()

	// Повторное удаление не находит строку: фильтр is_deleted = false
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "classifications" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.SoftDelete(ctx, classificationID)

	// Assert
	s.Error(err)
	s.ErrorIs(err, ErrClassificationNotFound)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Restore Tests =====================

func (s *ClassificationRepositoryTestSuite) TestRestore_Success() {
	ctx := context.Background()
	classificationID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "classifications" SET`)).
		WithArgs(nil, false, sqlmock.AnyArg(), classificationID, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Restore(ctx, classificationID)

	// Assert
	s.NoError(err)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestRestore_NotDeleted() {
	ctx := context.Background()
	classificationID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "classifications" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Restore(ctx, classificationID)

	// Assert
	s.Error(err)
	s.ErrorIs(err, ErrClassificationNotFound)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== HardDelete Tests =====================

func (s *ClassificationRepositoryTestSuite) TestHardDelete_Success() {
	ctx := context.Background()
	classificationID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "classifications" WHERE id = $1`)).
		WithArgs(classificationID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.HardDelete(ctx, classificationID)

	// Assert
	s.NoError(err)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestHardDelete_NotFound() {
	ctx := context.Background()
	classificationID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "classifications" WHERE id = $1`)).
		WithArgs(classificationID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.HardDelete(ctx, classificationID)

	// Assert
	s.Error(err)
	s.ErrorIs(err, ErrClassificationNotFound)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ClassificationRepositoryTestSuite) TestHardDelete_DBError() {
	ctx := context.Background()
	classificationID := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "classifications" WHERE id = $1`)).
		WithArgs(classificationID).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	err := s.repo.HardDelete(ctx, classificationID)

	// Assert
	s.Error(err)
	s.ErrorIs(err, sql.ErrConnDone)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Constructor Tests =====================

func TestNewClassificationRepository(t *testing.T) {
	// Arrange
	sqlDB, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer sqlDB.Close()

	dialector := postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)

	// Act
	repo := NewClassificationRepository(db)

	// Assert
	assert.NotNil(t, repo)
}
