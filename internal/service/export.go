package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	"loanwise/internal/clients"
	"loanwise/internal/domain"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ExportStatus is the Redis-persisted lifecycle of one export job.
type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Filters  any       `json:"filters"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Error    *string   `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

// ScheduleColumn maps a selectable field key to its header and cell value.
type ScheduleColumn struct {
	Header string
	Value  func(row domain.PeriodRow) any
}

var scheduleColumns = map[string]ScheduleColumn{
	"period":    {Header: "Period", Value: func(r domain.PeriodRow) any { return r.Period }},
	"date":      {Header: "Date", Value: func(r domain.PeriodRow) any { return r.DueDate.Format("2006-01-02") }},
	"payment":   {Header: "Payment", Value: func(r domain.PeriodRow) any { return r.Payment }},
	"interest":  {Header: "Interest", Value: func(r domain.PeriodRow) any { return r.InterestPortion }},
	"principal": {Header: "Principal", Value: func(r domain.PeriodRow) any { return r.PrincipalPortion }},
	"extra":     {Header: "Extra", Value: func(r domain.PeriodRow) any { return r.ExtraPayment }},
	"balance":   {Header: "Balance", Value: func(r domain.PeriodRow) any { return r.ClosingBalance }},
}

// defaultScheduleFields is the full tabular layout, in display order.
var defaultScheduleFields = []string{"period", "date", "payment", "interest", "principal", "extra", "balance"}

type ExportService struct {
	loans   *LoanService
	redis   *clients.RedisClient
	storage *clients.StorageClient
	s3      *clients.S3Client
	ws      *clients.WebSocketClient
}

func NewExportService(
	loans *LoanService,
	redis *clients.RedisClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	ws *clients.WebSocketClient,
) *ExportService {
	return &ExportService{
		loans:   loans,
		redis:   redis,
		storage: storage,
		s3:      s3,
		ws:      ws,
	}
}

func (s *ExportService) saveStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

// StartScheduleExport computes the schedule synchronously (input errors
// must surface on the request) and writes the file in the background,
// reporting progress over websocket and Redis.
func (s *ExportService) StartScheduleExport(ctx context.Context, req CalculationRequest, selected []string, format string, userID int64) (string, error) {
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if len(selected) == 0 {
		selected = defaultScheduleFields
	}

	result, err := s.loans.Calculate(ctx, req, userID)
	if err != nil {
		return "", err
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())
	now := time.Now()

	status := &ExportStatus{
		Key:      exportID,
		Type:     "schedule",
		UserID:   userID,
		Filters:  buildExportFilters(req, selected, format),
		Progress: 0,
		Created:  now,
	}
	_ = s.saveStatus(ctx, status)

	go s.runScheduleExport(context.Background(), exportID, result, req, selected, format, userID, now)

	return exportID, nil
}

func (s *ExportService) runScheduleExport(ctx context.Context, exportID string, result domain.CalculationResult, req CalculationRequest, selected []string, format string, userID int64, createdAt time.Time) {
	status := &ExportStatus{
		Key:     exportID,
		Type:    "schedule",
		UserID:  userID,
		Filters: buildExportFilters(req, selected, format),
		Created: createdAt,
	}

	var cols []ScheduleColumn
	for _, key := range selected {
		col, ok := scheduleColumns[key]
		if !ok {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		s.failExport(ctx, status, userID, exportID, "no exportable fields selected")
		return
	}

	progress := func(done, total int) {
		p := math.Round(float64(done) / float64(total) * 100.0)
		if p >= 100 {
			p = 95 // the last 5% is the file write/upload
		}
		status.Progress = p
		_ = s.saveStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyExportProgress(ctx, userID, exportID, p, "generating")
		}
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case "csv":
		data, err = renderCSV(result.Schedule, cols, progress)
	default:
		data, err = renderXLSX(result.Schedule, cols, progress)
	}
	if err != nil {
		s.failExport(ctx, status, userID, exportID, fmt.Sprintf("render failed: %v", err))
		return
	}

	fileName := fmt.Sprintf("amortization_schedule_%s.%s", time.Now().Format("20060102_150405"), format)

	status.Progress = 95
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, userID, exportID, 95, "uploading")
	}

	url, err := s.persist(ctx, fileName, format, data)
	if err != nil {
		s.failExport(ctx, status, userID, exportID, fmt.Sprintf("save export failed: %v", err))
		return
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, userID, exportID, 100, "ready")
		_ = s.ws.NotifyExportComplete(ctx, userID, exportID, url, fileName)
	}
}

// persist stores the rendered file on S3 when configured, otherwise on
// local disk, and returns the download URL.
func (s *ExportService) persist(ctx context.Context, fileName, format string, data []byte) (string, error) {
	contentType := xlsxContentType
	if format == "csv" {
		contentType = csvContentType
	}

	if s.s3 != nil {
		key, err := s.s3.Upload(ctx, fileName, contentType, data)
		if err != nil {
			return "", err
		}
		return s.s3.GetTemporaryURL(ctx, key, exportTTL)
	}
	if s.storage == nil {
		return "", errors.New("no export storage configured")
	}

	saved, err := s.storage.Save(ctx, fileName, data)
	if err != nil {
		return "", err
	}
	return s.storage.GetURL(saved), nil
}

func (s *ExportService) failExport(ctx context.Context, status *ExportStatus, userID int64, exportID, msg string) {
	log.Printf("[EXPORT] %s: %s", exportID, msg)
	status.Error = &msg
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportFailed(ctx, userID, exportID, msg)
	}
}

func renderXLSX(schedule domain.Schedule, cols []ScheduleColumn, progress func(done, total int)) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Schedule"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, err
		}
	}

	total := len(schedule)
	for i, row := range schedule {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			if err := f.SetCellValue(sheet, cell, col.Value(row)); err != nil {
				return nil, err
			}
		}
		if (i+1)%200 == 0 || i == total-1 {
			progress(i+1, total)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderCSV(schedule domain.Schedule, cols []ScheduleColumn, progress func(done, total int)) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Header
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	total := len(schedule)
	record := make([]string, len(cols))
	for i, row := range schedule {
		for colIdx, col := range cols {
			record[colIdx] = cellString(col.Value(row))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
		if (i+1)%200 == 0 || i == total-1 {
			progress(i+1, total)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func buildExportFilters(req CalculationRequest, fields []string, format string) map[string]interface{} {
	return map[string]interface{}{
		"price":               req.Price,
		"deposit":             req.Deposit,
		"annual_rate_percent": req.AnnualRatePercent,
		"tenure_periods":      req.TenurePeriods,
		"frequency":           req.Frequency,
		"fields":              fields,
		"format":              format,
	}
}

// GetExports lists the user's export jobs, newest first.
func (s *ExportService) GetExports(ctx context.Context, userID int64) ([]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue // expired entries stay in the set until their key is gone
		}

		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		if status.UserID == userID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	var exports []interface{}
	for _, status := range statuses {
		exports = append(exports, exportView(status))
	}
	return exports, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, userID int64) (interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, errors.New("export not found")
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}
	if status.UserID != userID {
		return nil, errors.New("export not found")
	}

	return exportView(status), nil
}

func exportView(status ExportStatus) map[string]interface{} {
	view := map[string]interface{}{
		"key":        status.Key,
		"type":       status.Type,
		"user_id":    status.UserID,
		"progress":   status.Progress,
		"file_url":   status.FileURL,
		"filters":    status.Filters,
		"created_at": status.Created.Format(time.RFC3339),
	}
	if status.Error != nil {
		view["error"] = *status.Error
	}
	return view
}
