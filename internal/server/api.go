package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/engine"
	"github.com/tartampluch/go-miti/internal/holidays"
	"github.com/tartampluch/go-miti/internal/notes"
	"github.com/tartampluch/go-miti/internal/settings"
	"github.com/tartampluch/go-miti/internal/store"
)

// CellView is one grid cell decorated with the user data of its day.
type CellView struct {
	engine.DateCell
	IsWeekend  bool              `json:"isWeekend"`
	IsSelected bool              `json:"isSelected"`
	Holiday    *holidays.Holiday `json:"holiday,omitempty"`
	NoteCount  int               `json:"noteCount"`
}

// MonthView is the response of the month endpoints.
type MonthView struct {
	Year           int    `json:"year"`
	Month          int    `json:"month"`
	MonthName      string `json:"monthName"`
	StartDayOfWeek int    `json:"startDayOfWeek"`
	DaysInMonth    int    `json:"daysInMonth"`

	// Today and Selected are Gregorian dates.
	Today    bs.Date    `json:"today"`
	Selected *bs.Date   `json:"selected,omitempty"`
	Cells    []CellView `json:"cells"`
}

// StorageView reports the data store usage.
type StorageView struct {
	store.Estimate
	UsedText  string `json:"usedText"`
	TotalText string `json:"totalText"`
	Warning   string `json:"warning,omitempty"`
}

type errorBody struct {
	Error     string    `json:"error"`
	Requested string    `json:"requested,omitempty"`
	Calendar  string    `json:"calendar,omitempty"`
	Range     *bs.Range `json:"range,omitempty"`
}

type noteBody struct {
	Text string `json:"text"`
}

type jumpBody struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// -----------------------------------------------------------------------------
// Month & navigation
// -----------------------------------------------------------------------------

// handleMonth returns the navigator's month, or the month holding ?date=
// (a Gregorian YYYY-MM-DD) without moving the navigator.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	anchor := s.nav.Anchor()
	selected, hasSel := s.nav.Selected()
	s.mu.Unlock()

	if q := r.URL.Query().Get("date"); q != "" {
		d, err := bs.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		anchor = d
	}

	var sel *bs.Date
	if hasSel {
		sel = &selected
	}
	view, err := s.monthView(anchor, sel)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleNavigate applies next, previous, today or jump. A rejected move
// leaves the navigator where it was and answers 422.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var err error
	switch action := r.PathValue("action"); action {
	case "next":
		err = s.nav.Next()
	case "previous":
		err = s.nav.Previous()
	case "today":
		s.nav.ResetToday()
	case "jump":
		var body jumpBody
		if err := decodeBody(r, &body); err != nil {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, err)
			return
		}
		err = s.nav.JumpTo(body.Year, body.Month, body.Day)
	default:
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown navigation %q", action))
		return
	}
	anchor := s.nav.Anchor()
	selected, hasSel := s.nav.Selected()
	s.mu.Unlock()

	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var sel *bs.Date
	if hasSel {
		sel = &selected
	}
	view, err := s.monthView(anchor, sel)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) monthView(anchor bs.Date, selected *bs.Date) (MonthView, error) {
	month, err := s.grid.BuildMonth(anchor)
	if err != nil {
		return MonthView{}, err
	}

	current, err := s.opts.Settings.Get()
	if err != nil {
		return MonthView{}, err
	}

	counts := make(map[string]int)
	days := make(map[string]holidays.Holiday)
	for _, key := range month.SpannedMonths() {
		byDay, err := s.opts.Notes.ForMonth(key.Year, key.Month)
		if err != nil {
			return MonthView{}, err
		}
		for date, list := range byDay {
			counts[date] = len(list)
		}
		hol, err := s.opts.Holidays.ForMonth(key.Year, key.Month)
		if err != nil {
			return MonthView{}, err
		}
		for date, h := range hol {
			days[date] = h
		}
	}

	view := MonthView{
		Year:           month.Year,
		Month:          month.Month,
		MonthName:      s.opts.Translator.MonthName(month.Month),
		StartDayOfWeek: month.StartDayOfWeek,
		DaysInMonth:    month.DaysInMonth,
		Today:          s.nav.Today(),
		Selected:       selected,
		Cells:          make([]CellView, 0, len(month.Cells)),
	}
	for _, c := range month.Cells {
		key := c.BS.String()
		cell := CellView{
			DateCell:   c,
			IsWeekend:  current.IsWeekendDay(c.AD.Weekday),
			IsSelected: selected != nil && selected.SameDay(c.AD),
			NoteCount:  counts[key],
		}
		if h, ok := days[key]; ok {
			cell.Holiday = &h
		}
		view.Cells = append(view.Cells, cell)
	}
	return view, nil
}

// -----------------------------------------------------------------------------
// Notes
// -----------------------------------------------------------------------------

// handleNotesOverview lists the noted days of ?year=&month=.
func (s *Server) handleNotesOverview(w http.ResponseWriter, r *http.Request) {
	year, errY := strconv.Atoi(r.URL.Query().Get("year"))
	month, errM := strconv.Atoi(r.URL.Query().Get("month"))
	if errY != nil || errM != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, errors.New("year and month query parameters are required"))
		return
	}
	days, err := s.opts.Notes.Overview(year, month)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleNotesForDate(w http.ResponseWriter, r *http.Request) {
	d, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	list, err := s.opts.Notes.ForDate(d)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if list == nil {
		list = []notes.Note{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	d, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	var body noteBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := s.opts.Notes.Add(d, body.Text)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.refreshFeedAsync()
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	d, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	var body noteBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	n, err := s.opts.Notes.Update(d, r.PathValue("id"), body.Text)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.refreshFeedAsync()
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	d, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	if err := s.opts.Notes.Delete(d, r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.refreshFeedAsync()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllNotes(w http.ResponseWriter, r *http.Request) {
	d, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	n, err := s.opts.Notes.DeleteAll(d)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.refreshFeedAsync()
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// pathDate parses {date} as a BS date and checks it exists in the almanac.
func (s *Server) pathDate(w http.ResponseWriter, r *http.Request) (bs.Date, bool) {
	d, err := bs.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return bs.Date{}, false
	}
	if _, err := s.opts.Converter.ToGregorian(d); err != nil {
		writeError(w, statusFor(err), err)
		return bs.Date{}, false
	}
	return d, true
}

// -----------------------------------------------------------------------------
// Settings, storage & holidays
// -----------------------------------------------------------------------------

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	cur, err := s.opts.Settings.Get()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

// handlePutSettings merges the body over the current settings, so clients
// may send only the fields they change.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	next, err := s.opts.Settings.Get()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := decodeBody(r, &next); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	saved, err := s.opts.Settings.Update(func(cur *settings.Settings) { *cur = next })
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, _ *http.Request) {
	if err := s.opts.Settings.Reset(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Defaults())
}

func (s *Server) handleStorage(w http.ResponseWriter, _ *http.Request) {
	est := s.opts.Store.Estimate()
	view := StorageView{
		Estimate:  est,
		UsedText:  store.FormatBytes(est.Used),
		TotalText: store.FormatBytes(est.Total),
	}
	if est.Percentage >= config.StorageWarnPercent {
		view.Warning = s.opts.Translator.MsgData(config.TKeyStorageWarn, map[string]any{
			"Percent": fmt.Sprintf("%.1f", est.Percentage),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// handleHolidays returns the holidays of ?year=, or the whole table.
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("year"); q != "" {
		year, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		list, err := s.opts.Holidays.ForYear(year)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if list == nil {
			list = []holidays.Holiday{}
		}
		writeJSON(w, http.StatusOK, list)
		return
	}
	all, err := s.opts.Holidays.All()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleRefreshHolidays(w http.ResponseWriter, r *http.Request) {
	if s.opts.RefreshHolidays == nil {
		writeError(w, http.StatusNotFound, errors.New(config.ErrHolidaySource))
		return
	}
	if err := s.opts.RefreshHolidays(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.refreshFeedAsync()
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, config.MaxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", config.HTTPMsgBadRequest, err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var rangeErr *bs.DateRangeError
	switch {
	case errors.As(err, &rangeErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, notes.ErrNoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, notes.ErrEmptyText),
		errors.Is(err, notes.ErrTooLong),
		errors.Is(err, settings.ErrInvalid),
		errors.Is(err, holidays.ErrInvalidData):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	var rangeErr *bs.DateRangeError
	if errors.As(err, &rangeErr) {
		rng := rangeErr.Supported
		body.Requested = rangeErr.Requested.String()
		body.Calendar = string(rangeErr.Calendar)
		body.Range = &rng
	}
	if status >= http.StatusInternalServerError {
		slog.Error(config.HTTPMsgInternalErr,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
		if status == http.StatusInternalServerError {
			body.Error = config.HTTPMsgInternalErr
		}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}
