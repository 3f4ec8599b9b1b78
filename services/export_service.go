package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/storage"
	"github.com/Dosada05/federation-registry/tracing"
)

const exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Листы выгрузки.
const (
	SheetInfo     = "Информация"
	SheetAthletes = "Спортсмены"
	SheetJudges   = "Судьи"
)

const exportDateLayout = "02.01.2006"

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ExportService выгружает состав заявки в Excel во внешнее хранилище.
type ExportService struct {
	registrations *RegistrationService
	uploader      storage.FileUploader
	logger        *slog.Logger
}

func NewExportService(registrations *RegistrationService, uploader storage.FileUploader, logger *slog.Logger) *ExportService {
	return &ExportService{registrations: registrations, uploader: uploader, logger: logger}
}

func ExportKey(number string) string {
	return "registrations/" + number + ".xlsx"
}

// Export renders the roster and uploads it. Visibility follows Get.
func (s *ExportService) Export(ctx context.Context, actor models.Actor, id int) (res *ExportResult, err error) {
	ctx, span := startSpan(ctx, "registration.export", actor, attribute.Int(tracing.AttrRegistrationID, id))
	defer func() { endSpan(span, err) }()

	reg, err := s.registrations.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	body, err := RenderRosterWorkbook(reg)
	if err != nil {
		return nil, err
	}

	key := ExportKey(reg.Number)
	uploaded, err := s.uploader.Upload(ctx, key, exportContentType, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to upload roster export %s: %w", key, err)
	}

	s.logger.InfoContext(ctx, "registration roster exported",
		slog.Int("registration_id", reg.ID), slog.String("key", uploaded.Key))
	return &ExportResult{Key: uploaded.Key, URL: uploaded.Location}, nil
}

// RenderRosterWorkbook builds an xlsx with a summary sheet, one row per
// athlete (with coach) and one row per judge.
func RenderRosterWorkbook(reg *models.Registration) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetInfo); err != nil {
		return nil, fmt.Errorf("failed to rename info sheet: %w", err)
	}
	for _, name := range []string{SheetAthletes, SheetJudges} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	if err := writeRows(f, SheetInfo, infoRows(reg)); err != nil {
		return nil, err
	}

	athletes := [][]interface{}{{"#", "ID", "ФИО", "Пол", "Возрастная категория", "ID тренера", "Тренер"}}
	for i, a := range reg.Athletes {
		var name, gender, ageCategory, coach string
		if a.Athlete != nil {
			name = a.Athlete.Name
			gender = genderLabel(a.Athlete.Gender)
			ageCategory = a.Athlete.AgeCategory
		}
		if a.Coach != nil {
			coach = a.Coach.Name
		}
		athletes = append(athletes, []interface{}{i + 1, a.AthleteID, name, gender, ageCategory, a.CoachID, coach})
	}
	if err := writeRows(f, SheetAthletes, athletes); err != nil {
		return nil, err
	}

	judges := [][]interface{}{{"#", "ID", "ФИО", "Категория", "Регион"}}
	for i, j := range reg.Judges {
		var name, category string
		region := reg.RegionID
		if j.Judge != nil {
			name = j.Judge.Name
			category = j.Judge.Category
			if j.Judge.RegionID != nil {
				region = *j.Judge.RegionID
			}
		}
		judges = append(judges, []interface{}{i + 1, j.JudgeID, name, category, region})
	}
	if err := writeRows(f, SheetJudges, judges); err != nil {
		return nil, err
	}

	widths := map[string]float64{"A": 25, "B": 50}
	for col, width := range widths {
		if err := f.SetColWidth(SheetInfo, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetColWidth(SheetAthletes, "C", "C", 30); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(SheetJudges, "C", "C", 30); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render roster workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func infoRows(reg *models.Registration) [][]interface{} {
	var tournament, category, startDate string
	if tc := reg.TournamentCategory; tc != nil {
		category = tc.AgeCategory + " " + tc.Gender + " - " + tc.BowType
		if tc.Tournament != nil {
			tournament = tc.Tournament.Title
			startDate = tc.Tournament.StartDate.Format(exportDateLayout)
		}
	}

	rows := [][]interface{}{
		{"Заявка на турнир"},
		{"Номер заявки", reg.Number},
		{"Статус", statusLabel(reg.Status)},
		{"Регион", reg.RegionID},
		{"Турнир", tournament},
		{"Категория", category},
		{"Дата турнира", startDate},
		{"Дата подачи", reg.CreatedAt.Format(exportDateLayout)},
		{"Подал", reg.SubmittedBy},
	}
	if reg.ApprovedAt != nil {
		rows = append(rows, []interface{}{"Одобрено", reg.ApprovedAt.Format(exportDateLayout)})
	}
	if reg.ApprovedBy != nil {
		rows = append(rows, []interface{}{"Одобрил", *reg.ApprovedBy})
	}
	if reg.RejectionReason != nil {
		rows = append(rows, []interface{}{"Причина отклонения", *reg.RejectionReason})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func statusLabel(status models.RegistrationStatus) string {
	switch status {
	case models.RegistrationPending:
		return "На проверке"
	case models.RegistrationApproved:
		return "Одобрено"
	case models.RegistrationRejected:
		return "Отклонено"
	case models.RegistrationWithdrawn:
		return "Отозвано"
	}
	return string(status)
}

func genderLabel(gender string) string {
	switch gender {
	case "M":
		return "Мужской"
	case "F":
		return "Женский"
	}
	return gender
}

