package fetcher

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Format names the encoding of a published spreadsheet export.
type Format string

// Supported publisher formats.
const (
	FormatCSV        Format = "csv"
	FormatXLSX       Format = "xlsx"
	FormatSheetsJSON Format = "sheets_json"
)

// ParseFormat validates a format name. An empty name means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatSheetsJSON:
		return f, nil
	default:
		return "", eris.Errorf("source: unknown format %q", s)
	}
}

// acceptFor returns the Accept header sent for a format.
func acceptFor(f Format) string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*;q=0.5"
	case FormatSheetsJSON:
		return "application/json"
	default:
		return "text/csv, */*;q=0.5"
	}
}

const utf8BOM = "\ufeff"

// SourceOptions configures a Source.
type SourceOptions struct {
	URL            string
	Format         Format
	CacheBustParam string // query parameter set to the current unix millis; empty disables
	SheetName      string // xlsx only
	HTTP           HTTPOptions
	FTP            FTPOptions
}

// Source retrieves the raw spreadsheet payload and decodes it into rows.
// http(s) URLs go through the HTTP fetcher, ftp URLs through the FTP fetcher.
type Source struct {
	url       string
	format    Format
	cacheBust string
	sheet     XLSXOptions
	http      Fetcher
	ftp       Fetcher
	now       func() time.Time
}

// NewSource validates the options and builds the underlying fetchers.
func NewSource(opts SourceOptions) (*Source, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, eris.New("source: url is required")
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, eris.Wrap(err, "source: parse url")
	}
	switch u.Scheme {
	case "http", "https", "ftp":
	default:
		return nil, eris.Errorf("source: unsupported scheme %q", u.Scheme)
	}

	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	if opts.HTTP.Accept == "" {
		opts.HTTP.Accept = acceptFor(format)
	}

	return &Source{
		url:       opts.URL,
		format:    format,
		cacheBust: opts.CacheBustParam,
		sheet:     XLSXOptions{SheetName: opts.SheetName},
		http:      NewHTTPFetcher(opts.HTTP),
		ftp:       NewFTPFetcher(opts.FTP),
		now:       time.Now,
	}, nil
}

// Format reports the configured payload format.
func (s *Source) Format() Format { return s.format }

// URL reports the configured source URL without cache busting.
func (s *Source) URL() string { return s.url }

// Retrieve downloads the current payload as published. A leading UTF-8 byte
// order mark is kept so the payload can be exported verbatim; Decode drops it.
func (s *Source) Retrieve(ctx context.Context) (string, error) {
	target := s.url
	f := s.http
	if strings.HasPrefix(target, "ftp://") {
		f = s.ftp
	} else {
		target = withCacheBust(target, s.cacheBust, s.now())
	}

	body, err := f.Download(ctx, target)
	if err != nil {
		return "", eris.Wrap(err, "source: retrieve")
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return "", eris.Wrap(err, "source: read body")
	}

	zap.L().Debug("source retrieved",
		zap.String("format", string(s.format)),
		zap.Int("bytes", len(data)),
	)

	return string(data), nil
}

// Decode turns a payload in the configured format into rows of cells,
// ignoring a leading UTF-8 byte order mark on text formats.
func (s *Source) Decode(payload string) ([][]string, error) {
	return DecodeRows(s.format, payload, s.sheet)
}

// DecodeRows turns a payload into rows of cells according to format.
func DecodeRows(format Format, payload string, sheet XLSXOptions) ([][]string, error) {
	switch format {
	case FormatCSV, "":
		return ParseCSV(strings.TrimPrefix(payload, utf8BOM)), nil
	case FormatXLSX:
		return DecodeXLSX([]byte(payload), sheet)
	case FormatSheetsJSON:
		return DecodeSheetValues(strings.TrimPrefix(payload, utf8BOM))
	default:
		return nil, eris.Errorf("source: unknown format %q", format)
	}
}

// withCacheBust sets param to the current unix millis so intermediaries
// cannot answer from a stale copy.
func withCacheBust(rawURL, param string, now time.Time) string {
	if param == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(param, strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}
