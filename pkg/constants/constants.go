// Package constants provides shared constants for the set-aside engine.
package constants

// Date layouts
const (
	// InstallmentDateLayout is the MM/DD/YYYY form used for installment date values.
	InstallmentDateLayout = "01/02/2006"

	// MonthDayLayout is the zero-padded month/day prefix of an installment date.
	MonthDayLayout = "01/02/"

	// LabelDateLayout renders a date the way an en-US short date reads (no padding).
	LabelDateLayout = "1/2/2006"

	// ISODateLayout is the YYYY-MM-DD form expected by the accrual lookups.
	ISODateLayout = "2006-01-02"
)

// Installment date series
const (
	// PlaceholderLabel is the label of the empty "no selection" option.
	PlaceholderLabel = "Select a Date"

	// MaxInstallmentDates caps the number of dated options offered.
	MaxInstallmentDates = 3

	// MaturityYearOffset is how many years before maturity the series stops.
	MaturityYearOffset = 2
)

// Financial constants
const (
	// CurrencyPlaces is the number of fractional digits kept for currency
	CurrencyPlaces = 2

	// PercentPlaces is the number of fractional digits shown for percentages
	PercentPlaces = 4

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Set-aside types and codes
const (
	// SetAsideTypeDSA is a disaster set-aside, which requires a designation code.
	SetAsideTypeDSA = "DSA"

	// SetAsideTypeDBSA is a distressed borrower set-aside.
	SetAsideTypeDBSA = "DBSA"

	// DBSADisasterCode is the fixed designation code applied to DBSA requests.
	DBSADisasterCode = "Z2024"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatXLSX is the spreadsheet output format
	OutputFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. SETASIDE_DATABASE_DSN.
	EnvPrefix = "SETASIDE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultBatchConcurrency bounds concurrent allocations in a batch request
	DefaultBatchConcurrency = 4
)

// Storage defaults
const (
	// DriverSQLite selects the modernc sqlite driver
	DriverSQLite = "sqlite"

	// DriverPostgres selects the lib/pq driver
	DriverPostgres = "postgres"

	// DriverMemory keeps everything in process
	DriverMemory = "memory"

	// DefaultSQLitePath is used when the sqlite driver is selected without a DSN
	DefaultSQLitePath = "./data/setaside.db"

	// DefaultCachePrefix namespaces outcome keys in redis
	DefaultCachePrefix = "setaside:outcome:"
)
