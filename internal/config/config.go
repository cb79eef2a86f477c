package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Miti/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Miti"
	AppID          = "com.github.tartampluch.go-miti"
	KeyringService = "com.github.tartampluch.go-miti"
	LogFileName    = "app.log"
	ConfigFileName = "config.yaml"
	StoreFileName  = "store.json"
	StoreLockExt   = ".lock"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for logs, the config file and the data store.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagDebug        = "debug"
	FlagConfig       = "config"
	FlagDate         = "date"
	FlagOffset       = "offset"
	FlagLanguage     = "lang"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescConfig   = "Path to the YAML configuration file"
	FlagDescDate     = "Gregorian date (YYYY-MM-DD) inside the month to show"
	FlagDescOffset   = "Number of months to move forward (negative for backward)"
	FlagDescLanguage = "Override the display language (en, ne)"
	FlagDelete       = "delete"
	FlagDescDelete   = "Remove the stored password instead of setting it"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
	MsgCLIError      = "Error: %v\n"
)

// Commands and their help texts.
const (
	CmdRoot             = "miti"
	CmdDescRoot         = "Bikram Sambat calendar with day notes and holidays"
	CmdServe            = "serve"
	CmdDescServe        = "Run the local HTTP API and the calendar feed until interrupted"
	CmdMonth            = "month"
	CmdDescMonth        = "Print a month of the Bikram Sambat calendar"
	CmdNote             = "note"
	CmdDescNote         = "Manage day notes"
	CmdNoteAdd          = "add <date> <text...>"
	CmdDescNoteAdd      = "Add a note to a BS date (YYYY-MM-DD)"
	CmdNoteList         = "list [date]"
	CmdDescNoteList     = "List the notes of a BS date, or the noted days of the current month"
	CmdNoteRm           = "rm <date> [id]"
	CmdDescNoteRm       = "Delete one note, or every note of the date when no id is given"
	CmdHolidays         = "holidays"
	CmdDescHolidays     = "Manage holiday data"
	CmdHolidaysLoad     = "load <file|url>"
	CmdDescHolidaysLoad = "Import holidays from a JSON or iCalendar file or URL"
	CmdHolidaysList     = "list [year]"
	CmdDescHolidaysList = "List the holidays of a BS year (default: the current year)"
	CmdHolidaysRefresh  = "refresh"
	CmdDescHolidaysRef  = "Reload holidays from the configured sources"
	CmdHolidaysPassword = "password"
	CmdDescHolidaysPass = "Store the holiday source password (read from stdin) in the OS keyring"
	CmdVersion          = "version"
	CmdDescVersion      = "Print version information"
)

// Command output formats.
const (
	OutNoteAdded      = "%s\t%s\n" // id, date
	OutNoteLine       = "%s\t%s\n" // id, preview
	OutDayLine        = "%s\t%s\n" // date, localized count
	OutNotesDeleted   = "Deleted %d note(s)\n"
	OutHolidayLine    = "%s\t%s\n" // date, name
	OutHolidaysLoaded = "Holidays stored: %d across %d year(s)\n"
	OutPasswordSaved  = "Password stored for %s\n"
	OutPasswordGone   = "Password removed for %s\n"
	OutStorageWarning = "%s\n"
)

// -----------------------------------------------------------------------------
// Storage Keys
// -----------------------------------------------------------------------------

// Every persisted value lives under KeyPrefix so that the store can be shared
// with unrelated data and watched selectively.
const (
	KeyPrefix      = "miti:"
	KeyNotesPrefix = "miti:notes:"
	KeySettings    = "miti:settings"
	KeyHolidays    = "miti:holidays"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultListen         = "127.0.0.1:18081"
	DefaultLanguage       = "en"
	DefaultHolidayRefresh = "0 3 * * *" // Daily at 03:00
	DefaultDataDirName    = "data"

	MaxNoteLength      = 5000
	NotePreviewLength  = 80
	StorageQuotaBytes  = 5 * 1024 * 1024
	StorageWarnPercent = 80.0

	UIDSalt = "go-miti-v1-" // Salt for deterministic UID generation
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "ne"}

// Setting values accepted by the settings store.
const (
	WeekendSunday   = "sunday"
	WeekendSaturday = "saturday"
	WeekendBoth     = "both"

	SidebarLeft  = "left"
	SidebarRight = "right"

	ThemeColor = "color"
	ThemeImage = "image"
	ThemeNone  = "none"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyMonthPrefix   = "month_"   // month_1 .. month_12
	TKeyWeekdayPrefix = "weekday_" // weekday_0 (Sunday) .. weekday_6
	TKeyToday         = "lbl_today"
	TKeyHoliday       = "lbl_holiday"
	TKeyNotesMonth    = "lbl_notes_this_month"
	TKeyNoNotes       = "lbl_no_notes"
	TKeyNoteCount     = "lbl_note_count" // Requires Count
	TKeyStorageWarn   = "warn_storage"   // Requires Percent
	TKeyRangeError    = "err_date_range"
	TKeyDigits        = "digits" // Ten glyphs, 0 through 9
	TKeyWeekend       = "lbl_weekend"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go Miti//Feed//EN"
	ICalCalName = "Miti"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "gomiti"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropCategories  = "CATEGORIES"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"
	PropAction      = "ACTION"
	PropTrigger     = "TRIGGER"

	ICalAlarm  = "VALARM"
	ICalAction = "DISPLAY"

	CategoryNote    = "NOTE"
	CategoryHoliday = "HOLIDAY"

	DefaultICalRefresh = 1 * time.Hour

	// Deterministic UID generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s@%s"
)

// StubVCalendar is the minimal valid iCalendar object used when no events are found.
const StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 8 * 1024 * 1024 // 8MB, holiday files are small
	MaxRequestBodySize  = 64 * 1024
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
)

// -----------------------------------------------------------------------------
// HTTP Routes
// -----------------------------------------------------------------------------

const (
	RouteHealth   = "/health"
	RouteMonth    = "/api/month"
	RouteNavigate = "/api/navigate/"
	RouteNotes    = "/api/notes"
	RouteSettings = "/api/settings"
	RouteStorage  = "/api/storage"
	RouteHolidays = "/api/holidays"
	RouteFeed     = "/calendar.ics"

	NavNext     = "next"
	NavPrevious = "previous"
	NavToday    = "today"
	NavJump     = "jump"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrConfigPathEmpty  = "configuration error: config path is empty"
	ErrConfigNil        = "configuration error: config is nil"
	ErrConfigLoad       = "failed to load configuration"
	ErrAlmanacLoad      = "failed to load almanac"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrListenRequired   = "listen address is required"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrHolidaySource    = "configuration error: holiday source is empty"
	ErrHolidayLoad      = "holiday loading failed"
	ErrHolidayDecode    = "failed to decode holiday data"
	ErrHolidayICS       = "failed to parse holiday calendar"
	ErrStoreOpen        = "failed to open data store"
	ErrStoreWrite       = "failed to write data store"
	ErrStoreDecode      = "failed to decode stored value"
	ErrStoreLock        = "failed to lock data store"
	ErrWatchStart       = "failed to watch data store"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrConfigDir        = "could not determine user config dir"
	ErrCreateDir        = "could not create app directory"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrSchedule         = "invalid refresh schedule"
	ErrCallbackPanic    = "storage change callback panicked"
	ErrKeyringUnavail   = "credential store unavailable"
	ErrInvariantBroken  = "engine: invariant violated"
	ErrFeedBuild        = "failed to build calendar feed"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgBadRequest   = "Bad Request"
	HTTPMsgOK           = "OK"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgConfigCreated   = "Default configuration written"
	MsgConfigLoaded    = "Configuration loaded"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Calendar feed cache updated"
	MsgMonthBuilt      = "Month grid built"
	MsgNavigated       = "Navigation transition applied"
	MsgNavRejected     = "Navigation transition rejected"
	MsgStoreLoaded     = "Data store loaded"
	MsgStoreReloaded   = "Data store reloaded after external change"
	MsgStoreMerged     = "Data store merged external changes before writing"
	MsgStoreUsageHigh  = "Data store usage is high, consider deleting old notes or theme images"
	MsgWatchStarted    = "Watching data store for external changes"
	MsgWatchStopped    = "Stopped watching data store"
	MsgNoteAdded       = "Note added"
	MsgNoteUpdated     = "Note updated"
	MsgNoteDeleted     = "Note deleted"
	MsgSettingsSaved   = "Settings saved"
	MsgSettingsReset   = "Settings reset to defaults"
	MsgHolidaysLoaded  = "Holidays loaded successfully"
	MsgHolidaysCleared = "Holidays cleared"
	MsgHolidaySkipped  = "Skipping holiday outside supported range"
	MsgDateSkipped     = "Skipping entry with unconvertible date"
	MsgFetchStart      = "Initiating holiday download"
	MsgFetchStatus     = "Server returned error status"
	MsgSchedulerStart  = "Holiday refresh scheduler started"
	MsgSchedulerStop   = "Holiday refresh scheduler stopped"
	MsgFeedBuilt       = "Calendar feed generated"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgPassFail        = "Password retrieval failed (might be empty)"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyPath      = "path"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyListen    = "listen"
	LogKeySchedule  = "schedule"
	LogKeyUser      = "user"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyCount     = "count"
	LogKeyDate      = "date"
	LogKeyYear      = "year"
	LogKeyMonth     = "month"
	LogKeyAnchor    = "anchor"
	LogKeyAction    = "action"
	LogKeyNoteID    = "note_id"
	LogKeyPercent   = "percent"
	LogKeyCells     = "cells"
	LogKeyDuration  = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain      = "main"
	CompEngine    = "engine"
	CompStore     = "store"
	CompNotes     = "notes"
	CompSettings  = "settings"
	CompHolidays  = "holidays"
	CompFetcher   = "fetcher"
	CompScheduler = "scheduler"
	CompFeed      = "feed"
	CompServer    = "server"
	CompI18n      = "i18n"
)
