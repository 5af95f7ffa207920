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

// UserAgent identifies the HTTP client used by remote vCard imports.
var UserAgent = AppName + "/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Notabene"
	AppID             = "com.github.tartampluch.notabene"
	CommandName       = "notabene"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	DataFileName      = ".notabene.abo"
	SettingsDir       = "notabene"
	SettingsFileName  = "config.yaml"
	DotEnvFileName    = ".env"
	EnvPrefix         = "NOTABENE_"
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
	// Used for the address book and the log file.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1

	// MaxCardFailures stops a vCard import after this many consecutive unreadable cards.
	MaxCardFailures = 16

	// MaxSettingsFileSize caps the YAML settings file.
	MaxSettingsFileSize = 1024 * 1024
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagDebug  = "debug"
	FlagFile   = "file"
	FlagPort   = "port"
	FlagLang   = "lang"
	FlagFormat = "format"
	FlagOutput = "output"
	FlagConfig = "config"
	FlagDays   = "days"

	FlagDescDebug  = "Enable debug logging to stderr"
	FlagDescFile   = "Address book file (JSON)"
	FlagDescPort   = "Port of the local demo HTTP server"
	FlagDescLang   = "Language of the shell messages (en, uk)"
	FlagDescFormat = "Export format: json, vcf or ics"
	FlagDescOutput = "Output file (default: stdout)"
	FlagDescConfig = "Settings file (YAML)"
	FlagDescDays   = "Only list birthdays within this many days (0: all)"

	CmdUseServe   = "serve"
	CmdUseExport  = "export"
	CmdUseImport  = "import <file.vcf|url>"
	CmdUseVersion = "version"
	CmdUseBdays   = "birthdays"

	CmdShortRoot    = "Personal address book with fuzzy name matching"
	CmdShortServe   = "Run the local demo HTTP server"
	CmdShortExport  = "Export the address book"
	CmdShortImport  = "Merge vCard contacts (file or http(s) URL) into the address book"
	CmdShortVersion = "Show application version"
	CmdShortBdays   = "List upcoming birthdays with days left and age"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Settings Defaults
// -----------------------------------------------------------------------------

const (
	DefaultPort      = "8888"
	DefaultLanguage  = "en"
	DefaultPageLines = 0 // 0 means "ask the terminal"
	FallbackLines    = 24
	PageLinesReserve = 2

	ExportFormatJSON = "json"
	ExportFormatVCF  = "vcf"
	ExportFormatICS  = "ics"
)

// SupportedLanguages defines the list of available shell languages (ISO 639-1).
var SupportedLanguages = []string{"en", "uk"}

// -----------------------------------------------------------------------------
// Field Kinds (Titles & Display Order)
// -----------------------------------------------------------------------------

const (
	TitlePhone    = "Phone"
	TitleBirthday = "Birthday"
	TitleAddress  = "Address"
	TitleComment  = "Comment"
	TitleName     = "Name"

	OrderPhone    = 30
	OrderAddress  = 50
	OrderBirthday = 80
	OrderComment  = 95

	MinPhoneDigits  = 5
	MaxBirthdayLen  = 10
	BirthdayLayout  = "02.01.2006"
	BirthdayLong    = "2.1.2006"
	BirthdayShort   = "2.1.06"
	DefaultOccurNum = 1
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyHelp            = "help"
	TKeyHint            = "hint_help"
	TKeyUnknownCmd      = "unknown_command"
	TKeyArgRequired     = "argument_required"
	TKeyNextPage        = "next_page"
	TKeyModifiedWarn    = "modified_warning"
	TKeyServerURL       = "server_url" // Requires URL
	TKeyServerStopped   = "server_stopped"
	TKeyErrorFormat     = "error_format"        // Requires Scope, Reason
	TKeySaved           = "book_saved"          // Requires Count, File
	TKeyImported        = "cards_imported"      // Requires Count
	TKeyUpcoming        = "upcoming_birthday"   // Requires Date, Name, Age, Days
	TKeyBdaysToday      = "birthdays_today"     // Requires Count
	TKeyEvtSummaryAge   = "event_summary_age"   // Requires Name, Age
	TKeyEvtSummaryBirth = "event_summary_birth" // Requires Name (For age 0)
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion = "2.0"
	ICalProdid  = "-//Notabene//Birthdays//EN"
	ICalCalName = "Birthdays"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "notabene"

	// Alarm Component
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"

	PropUID        = "UID"
	PropSummary    = "SUMMARY"
	PropDTStart    = "DTSTART"
	PropDTStamp    = "DTSTAMP"
	PropRefresh    = "REFRESH-INTERVAL"
	PropVersion    = "VERSION"
	PropProdid     = "PRODID"
	PropXWRCalName = "X-WR-CALNAME"
	PropCalScale   = "CALSCALE"
	PropMethod     = "METHOD"
	PropAction     = "ACTION"
	PropTrigger    = "TRIGGER"
	PropDesc       = "DESCRIPTION"

	VCardVersion = "4.0"

	// Date layouts accepted in BDAY properties. Truncated vCard dates (--MMDD)
	// carry no year, cannot be stored and are skipped on import.
	DateFormatFullBasic = "20060102"
	DateFormatFullDash  = "2006-01-02"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"

	URNUUIDPrefix = "urn:uuid:"

	DefaultICalRefresh = 1 * time.Hour
	FormatUID          = "%s-%d@%s"
	FormatSummary      = "Birthday: %s"
	FormatSummaryAge   = "Birthday: %s (%d)"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// UIDNamespace seeds deterministic UUIDs for exported contacts and events.
const UIDNamespace = "6f1c2f0e-9d0b-4f7e-9a57-0c6a3f1d2b77"

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	MaxFormBodySize    = 64 * 1024
	AllowedMethods     = "GET, HEAD, POST"
	RouteRoot          = "/"
	RouteCalendar      = "/calendar.ics"
	AddrSeparator      = ":"
	URLFormat          = "http://%s:%s/"

	FormKeyFirstly = "firstly"
	FormKeyExit    = "exit"
	FormKeyCommand = "command"

	HTTPTimeout         = 30 * time.Second
	MaxHTTPResponseSize = 16 * 1024 * 1024
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderUserAgent       = "User-Agent"
	HeaderRetryAfter      = "Retry-After"
	HeaderAccept          = "Accept"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeTextHTML        = "text/html; charset=utf-8"
	MimeTextPlain       = "text/plain; charset=utf-8"
	MimeJSON            = "application/json"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"
	RetryAfterSeconds   = "5"

	// Media types accepted from a remote vCard source. An empty
	// Content-Type is accepted as well.
	MimeVCard     = "text/vcard"
	MimeXVCard    = "text/x-vcard"
	MimeDirectory = "text/directory"
	MimePlain     = "text/plain"
	MimeOctet     = "application/octet-stream"
	AcceptVCard   = "text/vcard, text/x-vcard;q=0.9, text/directory;q=0.8, */*;q=0.1"
	ParamCharset  = "charset"
	CharsetUTF8   = "utf-8"
	CharsetASCII  = "us-ascii"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrServerStartup  = "server startup failed"
	ErrServerShutdown = "server shutdown failed"
	ErrPortRequired   = "server port is required"
	ErrICalEncode     = "failed to encode iCalendar data"
	ErrVCardParse     = "failed to parse vCard stream"
	ErrVCardEncode    = "failed to encode vCard data"
	ErrLogFile        = "failed to open log file"
	ErrCacheDir       = "could not determine user cache dir"
	ErrCreateDir      = "could not create app cache dir"
	ErrAppFailed      = "application failed unexpectedly"
	ErrWriteResp      = "failed to write response body"
	ErrReadForm       = "failed to read form body"
	ErrLocalesAccess  = "failed to access embedded locales"
	ErrLocaleLoad     = "failed to load locale file"
	ErrBookLoad       = "failed to load address book"
	ErrBookSave       = "failed to save address book"
	ErrBookDecode     = "malformed address book file"
	ErrSettingsLoad   = "failed to load settings"
	ErrSettingsSize   = "settings file is too large"
	ErrHomeDir        = "could not determine home directory"
	ErrUnknownFormat  = "unsupported export format"
	ErrReadInput      = "failed to read input"
	ErrInvalidURL     = "invalid URL structure"
	ErrProtocol       = "unsupported protocol scheme (http/https only)"
	ErrRequest        = "failed to create request"
	ErrNetwork        = "network error during fetch"
	ErrFetchStatus    = "server returned unexpected status"
	ErrContentType    = "response is not a vCard stream"
	ErrCharset        = "unsupported response charset"
	ErrTooLarge       = "response exceeds size limit"
	ErrOpenSource     = "failed to open vCard source"
	ErrDateParse      = "unsupported date format"
	ErrExportWrite    = "failed to write export"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgBadRequest   = "Bad Request"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgBye          = "Bye bye!"
	HTTPMsgInitializing = "Service Initializing"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting   = "Starting application"
	MsgAppStop       = "Application stopped gracefully"
	MsgServerListen  = "HTTP server listening"
	MsgServerStop    = "Shutting down HTTP server..."
	MsgServerExit    = "Exit requested by client"
	MsgCommandEcho   = "Command received from browser"
	MsgCacheUpdated  = "Calendar cache updated"
	MsgGenSuccess    = "Calendar generation successful"
	MsgBdayToday     = "Birthday found today"
	MsgSkippedCard   = "Skipping malformed vCard"
	MsgSkippedName   = "Skipping vCard without a valid person name"
	MsgSkippedField  = "Skipping vCard property with invalid value"
	MsgBookLoaded    = "Address book loaded"
	MsgBookSaved     = "Address book saved"
	MsgBookMissing   = "Address book file not found, starting empty"
	MsgLocaleSkip    = "Skipping non-locale file"
	MsgLocaleBadName = "Skipping malformed locale filename"
	MsgLocaleLoaded  = "Locale loaded successfully"
	MsgTransMissing  = "Missing translation key"
	MsgCommand       = "Command executed"
	MsgCommandFailed = "Command failed"
	MsgInterrupted   = "Input interrupted"
	MsgLogWarning    = "Warning: %s at %s: %v\n"
	MsgSettingsFile  = "Settings file loaded"
	MsgFetchStart    = "Initiating vCard download"
	MsgFetching      = "vCards downloading"
	MsgFetchStatus   = "Server returned error status"
	MsgFetchDecode   = "Decoding vCard stream charset"
	MsgCardsImported = "vCards imported"
	MsgCardsExported = "vCards exported"
	MsgSkippedDate   = "Skipping birthday without a year"
	MsgSkippedEntry  = "Skipping imported contact"
	MsgSettings      = "Settings resolved"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyCommand   = "command"
	LogKeyTotal     = "total"
	LogKeyMatchSet  = "match_set"
	LogKeySubset    = "match_subset"
	LogKeyFound     = "birthdays_found"
	LogKeyToday     = "birthdays_today"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDOB       = "date_of_birth"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyLength    = "content_length"
	LogKeyMime      = "content_type"
	LogKeyCharset   = "charset"

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
	CompMain     = "main"
	CompShell    = "shell"
	CompSession  = "session"
	CompStorage  = "storage"
	CompFetcher  = "fetcher"
	CompCalendar = "calendar"
	CompServer   = "server"
	CompSettings = "settings"
	CompI18n     = "i18n"
)
