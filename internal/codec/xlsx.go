// Package codec converts between the in-memory Dataset and the spreadsheet
// document stored remotely. The workbook carries three fixed sheets with
// header rows; the canonical file is meant to stay readable for a human who
// opens it in a browser.
package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"goal-challenge-bot/internal/model"
)

// Sheet names of the three document sections.
const (
	SheetParticipants = "Participants"
	SheetReports      = "Reports"
	SheetSettings     = "Settings"
)

const (
	restDayYes = "yes"
	restDayNo  = "no"
)

func participantHeaders() []interface{} {
	headers := []interface{}{"User ID", "Username", "Full Name", "Game Name", "Registered Date", "Status"}
	for i := 1; i <= model.NumGoals; i++ {
		headers = append(headers, fmt.Sprintf("Goal %d", i))
	}
	return headers
}

func reportHeaders() []interface{} {
	headers := []interface{}{"User ID", "Day", "Date"}
	for i := 1; i <= model.NumGoals; i++ {
		headers = append(headers, fmt.Sprintf("Goal %d", i))
	}
	return append(headers, "Rest Day")
}

// Encode serializes the dataset into xlsx bytes with the three fixed
// sections. The dataset is normalized first, so row widths are stable.
func Encode(d *model.Dataset) ([]byte, error) {
	d.Normalize()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetParticipants); err != nil {
		return nil, fmt.Errorf("failed to create participants sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetParticipants, "A1", ptr(participantHeaders())); err != nil {
		return nil, fmt.Errorf("failed to write participants header: %w", err)
	}
	for i, p := range d.Participants {
		row := []interface{}{p.UserID, p.Username, p.FullName, p.GameName, p.RegisteredDate, p.Status}
		for _, g := range p.Goals {
			row = append(row, g)
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetParticipants, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write participant row: %w", err)
		}
	}

	if _, err := f.NewSheet(SheetReports); err != nil {
		return nil, fmt.Errorf("failed to create reports sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetReports, "A1", ptr(reportHeaders())); err != nil {
		return nil, fmt.Errorf("failed to write reports header: %w", err)
	}
	for i, r := range d.Reports {
		row := []interface{}{r.UserID, r.Day, r.Date}
		for _, p := range r.Progress {
			row = append(row, p)
		}
		if r.RestDay {
			row = append(row, restDayYes)
		} else {
			row = append(row, restDayNo)
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetReports, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write report row: %w", err)
		}
	}

	if _, err := f.NewSheet(SheetSettings); err != nil {
		return nil, fmt.Errorf("failed to create settings sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetSettings, "A1", &[]interface{}{"Key", "Value"}); err != nil {
		return nil, fmt.Errorf("failed to write settings header: %w", err)
	}
	rowNum := 2
	for key, value := range d.Settings {
		cell := fmt.Sprintf("A%d", rowNum)
		if err := f.SetSheetRow(SheetSettings, cell, &[]interface{}{key, value}); err != nil {
			return nil, fmt.Errorf("failed to write settings row: %w", err)
		}
		rowNum++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reconstructs a Dataset from xlsx bytes. Decoding is lenient by
// contract: a malformed document, or one missing the participants sheet,
// yields an empty Dataset so callers always have a usable zero value.
// Missing sections default to empty, short rows are padded.
func Decode(data []byte) *model.Dataset {
	d := model.NewDataset()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		log.Warn().Err(err).Msg("Malformed spreadsheet, falling back to empty dataset")
		return d
	}
	defer f.Close()

	rows, err := f.GetRows(SheetParticipants)
	if err != nil {
		log.Warn().Msg("Participants sheet missing, falling back to empty dataset")
		return d
	}
	for _, row := range rows[min(1, len(rows)):] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		userID, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			continue
		}
		goals := make([]string, 0, model.NumGoals)
		for i := 6; i < 6+model.NumGoals; i++ {
			goals = append(goals, cellAt(row, i))
		}
		d.Participants = append(d.Participants, model.Participant{
			UserID:         userID,
			Username:       cellAt(row, 1),
			FullName:       cellAt(row, 2),
			GameName:       cellAt(row, 3),
			RegisteredDate: cellAt(row, 4),
			Status:         cellAt(row, 5),
			Goals:          goals,
		})
	}

	if rows, err := f.GetRows(SheetReports); err == nil {
		for _, row := range rows[min(1, len(rows)):] {
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			userID, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
			if err != nil {
				continue
			}
			day, _ := strconv.Atoi(strings.TrimSpace(cellAt(row, 1)))
			progress := make([]string, 0, model.NumGoals)
			for i := 3; i < 3+model.NumGoals; i++ {
				progress = append(progress, cellAt(row, i))
			}
			d.Reports = append(d.Reports, model.Report{
				UserID:   userID,
				Day:      day,
				Date:     cellAt(row, 2),
				Progress: progress,
				RestDay:  strings.EqualFold(cellAt(row, 3+model.NumGoals), restDayYes),
			})
		}
	}

	if rows, err := f.GetRows(SheetSettings); err == nil {
		for _, row := range rows[min(1, len(rows)):] {
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			d.Settings[strings.TrimSpace(row[0])] = cellAt(row, 1)
		}
	}

	d.Normalize()
	return d
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func ptr(row []interface{}) *[]interface{} { return &row }
