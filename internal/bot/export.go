package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"setbook/internal/models"
	"setbook/internal/storage"
)

// handleExport builds an audit workbook (records + log) and sends it to the
// admin as a document.
func (b *Bot) handleExport(ctx context.Context, chatID int64, r Responder) {
	records, entries := b.service.Snapshot(ctx)

	buf, err := buildWorkbook(records, entries)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("build export workbook failed")
		_ = r.Respond("Could not build the export file.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("bookings-%s.xlsx", time.Now().Format("2006-01-02")),
		Bytes: buf.Bytes(),
	})
	if _, err := b.tg.Send(doc); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("send export failed")
		_ = r.Respond("Could not deliver the export file.")
	}
}

func buildWorkbook(records []storage.UserRecord, entries []models.LogEntry) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const recordsSheet = "Records"
	f.SetSheetName("Sheet1", recordsSheet)
	if err := writeSheet(f, recordsSheet,
		[]string{"User ID", "Username", "Full Name", "Sets", "Status", "Sets Before Cancel"},
		len(records),
		func(i int) []interface{} {
			rec := records[i].Record
			return []interface{}{records[i].UserID, rec.Username, rec.FullName, rec.Sets, string(rec.Status), rec.SetsBeforeCancel}
		},
	); err != nil {
		return nil, err
	}

	const logSheet = "Log"
	if _, err := f.NewSheet(logSheet); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", logSheet, err)
	}
	if err := writeSheet(f, logSheet,
		[]string{"Timestamp", "User ID", "Username", "Full Name", "Change", "Total", "Status"},
		len(entries),
		func(i int) []interface{} {
			e := entries[i]
			return []interface{}{e.Timestamp, e.UserID, e.Username, e.FullName, e.Change, e.Total, e.Status}
		},
	); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &buf, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows int, row func(int) []interface{}) error {
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for i := 0; i < rows; i++ {
		values := row(i)
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}
	return nil
}
