package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/storage"
)

type fakeUploader struct {
	uploads     map[string][]byte
	contentType string
	err         error
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if u.uploads == nil {
		u.uploads = make(map[string][]byte)
	}
	u.uploads[key] = body
	u.contentType = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	delete(u.uploads, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.example.org/" + key
}

func openWorkbook(t *testing.T, body []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func sheetRows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestExportService_Export(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	uploader := &fakeUploader{}
	exports := NewExportService(env.regs, uploader, discardLogger())

	reg, err := env.regs.Create(ctx, rep1, CreateRegistrationInput{
		RegionID:             hostRegion,
		TournamentCategoryID: openCategory,
		Athletes:             []AthleteInput{{AthleteID: 1, CoachID: intPtr(2)}, {AthleteID: 2, CoachID: intPtr(2)}},
		Judges:               judges(3),
	})
	require.NoError(t, err)

	res, err := exports.Export(ctx, rep1, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "registrations/REG-000001.xlsx", res.Key)
	assert.Equal(t, "https://files.example.org/registrations/REG-000001.xlsx", res.URL)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", uploader.contentType)

	f := openWorkbook(t, uploader.uploads[res.Key])
	assert.Equal(t, []string{SheetInfo, SheetAthletes, SheetJudges}, f.GetSheetList())

	info := sheetRows(t, f, SheetInfo)
	assert.Equal(t, []string{"Номер заявки", "REG-000001"}, info[1])
	assert.Equal(t, []string{"Статус", "На проверке"}, info[2])
	assert.Equal(t, []string{"Турнир", "Spring Cup"}, info[4])
	assert.Equal(t, []string{"Категория", "adult M - recurve"}, info[5])
	assert.Equal(t, []string{"Дата турнира", "01.06.2025"}, info[6])
	assert.Equal(t, []string{"Дата подачи", "01.05.2025"}, info[7])

	athletes := sheetRows(t, f, SheetAthletes)
	require.Len(t, athletes, 3)
	assert.Equal(t, "ФИО", athletes[0][2])
	assert.Equal(t, []string{"1", "1", "Athlete A", "", "", "2", "Coach B"}, athletes[1])
	assert.Equal(t, []string{"2", "2", "Athlete B", "", "", "2", "Coach B"}, athletes[2])

	judgeRows := sheetRows(t, f, SheetJudges)
	require.Len(t, judgeRows, 2)
	assert.Equal(t, []string{"1", "3", "Judge C", "", "1"}, judgeRows[1])

	_, err = exports.Export(ctx, rep2, reg.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = exports.Export(ctx, admin, 404)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)

	uploader.err = errors.New("bucket unavailable")
	_, err = exports.Export(ctx, admin, reg.ID)
	assert.ErrorContains(t, err, "bucket unavailable")
}

func TestRenderRosterWorkbook_Rejected(t *testing.T) {
	body, err := RenderRosterWorkbook(&models.Registration{
		Number:          "REG-000007",
		Status:          models.RegistrationRejected,
		RegionID:        4,
		RejectionReason: strPtr("нет судьи"),
	})
	require.NoError(t, err)

	f := openWorkbook(t, body)
	info := sheetRows(t, f, SheetInfo)
	assert.Equal(t, []string{"Статус", "Отклонено"}, info[2])
	assert.Equal(t, []string{"Причина отклонения", "нет судьи"}, info[len(info)-1])
	assert.Len(t, sheetRows(t, f, SheetAthletes), 1)
	assert.Len(t, sheetRows(t, f, SheetJudges), 1)
}
